package schedule

import (
	"log"

	"github.com/PuerkitoBio/goquery"
)

// Верхний предел правдоподобного числа кандидатов: если эвристика
// зацепила больше, она скорее всего матчит всю страницу подряд
const maxEventCandidates = 600

// Атрибуты, которыми календарные виджеты обычно помечают занятия
var eventDataAttrs = []string{"data-event", "data-class", "data-lesson", "data-start", "data-id"}

// Теги, в которых обычно живут отдельные записи расписания
const eventContainerTags = "li, tr, div, article, section, td"

// located - результат поиска событий на странице
type located struct {
	nodes        []*goquery.Selection
	strategy     string // какая эвристика дала кандидатов, для /debug
	selectorMiss bool   // заданный оператором селектор ничего не нашел
}

// locateEvents ищет элементы-события: сначала по селектору оператора,
// затем по data-атрибутам, затем по эвристике "наименьший элемент со
// временем". Пустой результат - исчерпание эвристик (NoEventsLocated
// решает вызывающая сторона).
func locateEvents(doc *goquery.Document, selector string) located {
	result := located{}

	if selector != "" {
		matches := collect(doc.Find(selector))
		if plausible(matches) {
			result.nodes = matches
			result.strategy = "selector"
			return result
		}
		// Селектор задан, но не нашел ничего - отдельное состояние
		// "селектор настроен неверно", не смешиваем с пустой неделей
		log.Printf("⚠️ Event selector %q matched %d nodes, falling back to heuristics", selector, len(matches))
		result.selectorMiss = true
	}

	for _, attr := range eventDataAttrs {
		matches := collect(doc.Find("[" + attr + "]"))
		if plausible(matches) {
			result.nodes = matches
			result.strategy = attr
			return result
		}
	}

	result.nodes = timeBearingCandidates(doc)
	if len(result.nodes) > 0 {
		result.strategy = "time-heuristic"
	}
	return result
}

func collect(sel *goquery.Selection) []*goquery.Selection {
	nodes := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})
	return nodes
}

func plausible(nodes []*goquery.Selection) bool {
	return len(nodes) > 0 && len(nodes) <= maxEventCandidates
}

// timeBearingCandidates собирает наименьшие элементы, в тексте которых
// есть время: элемент подходит, если он короткий и ни один его потомок
// из тех же тегов не содержит собственного времени
func timeBearingCandidates(doc *goquery.Document) []*goquery.Selection {
	candidates := make([]*goquery.Selection, 0)
	doc.Find(eventContainerTags).Each(func(_ int, tag *goquery.Selection) {
		if len(candidates) > maxEventCandidates {
			return
		}
		text := textWithSpaces(tag)
		if !timeRe.MatchString(text) || len(text) > maxEventTextLen {
			return
		}
		hasTimeChild := false
		tag.Find(eventContainerTags).EachWithBreak(func(_ int, child *goquery.Selection) bool {
			if timeRe.MatchString(textWithSpaces(child)) {
				hasTimeChild = true
				return false
			}
			return true
		})
		if !hasTimeChild {
			candidates = append(candidates, tag)
		}
	})
	if len(candidates) > maxEventCandidates {
		return nil
	}
	return candidates
}
