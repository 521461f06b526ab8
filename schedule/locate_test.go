package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEventsBySelector(t *testing.T) {
	doc := docFromHTML(t, `
		<div class="zajecia">18:00 Yoga</div>
		<div class="zajecia">19:00 Cross</div>
		<div class="inne">tekst</div>`)

	loc := locateEvents(doc, "div.zajecia")
	assert.Equal(t, "selector", loc.strategy)
	assert.Len(t, loc.nodes, 2)
	assert.False(t, loc.selectorMiss)
}

func TestLocateEventsSelectorMissFallsBack(t *testing.T) {
	doc := docFromHTML(t, `
		<ul>
			<li data-event="1">18:00 Yoga</li>
			<li data-event="2">19:00 Cross</li>
		</ul>`)

	// Селектор оператора ничего не находит - помечаем и падаем на эвристики
	loc := locateEvents(doc, ".nie-ma-takiego")
	assert.True(t, loc.selectorMiss)
	assert.Equal(t, "data-event", loc.strategy)
	assert.Len(t, loc.nodes, 2)
}

func TestLocateEventsByDataAttr(t *testing.T) {
	doc := docFromHTML(t, `
		<div data-lesson="yoga">18:00 Yoga</div>
		<div data-lesson="cross">19:00 Cross</div>`)

	loc := locateEvents(doc, "")
	assert.Equal(t, "data-lesson", loc.strategy)
	assert.Len(t, loc.nodes, 2)
}

func TestLocateEventsTimeHeuristic(t *testing.T) {
	// Ни селектора, ни data-атрибутов: берем наименьшие элементы со
	// временем. Внешний ul время содержит, но содержит и потомков со
	// временем, поэтому кандидаты - сами li.
	doc := docFromHTML(t, `
		<ul>
			<li>18:00 Yoga - Anna</li>
			<li>19:00 Cross - Jan</li>
		</ul>
		<div>Cennik i kontakt</div>`)

	loc := locateEvents(doc, "")
	assert.Equal(t, "time-heuristic", loc.strategy)
	require.Len(t, loc.nodes, 2)
	assert.Contains(t, textWithSpaces(loc.nodes[0]), "Yoga")
}

func TestLocateEventsHeuristicSkipsLongText(t *testing.T) {
	long := "O klubie: godziny otwarcia 6:00 - 23:00. "
	for len(long) <= maxEventTextLen {
		long += "Bardzo dlugi opis klubu. "
	}
	doc := docFromHTML(t, `<div>`+long+`</div>`)

	loc := locateEvents(doc, "")
	assert.Empty(t, loc.nodes)
}

func TestLocateEventsEmptyPage(t *testing.T) {
	doc := docFromHTML(t, `<html><body><p>Strona w budowie</p></body></html>`)
	loc := locateEvents(doc, "")
	assert.Empty(t, loc.nodes)
	assert.Equal(t, "", loc.strategy)
}
