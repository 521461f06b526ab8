package schedule

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormAscii(t *testing.T) {
	assert.Equal(t, "zdrowy kregoslup", normAscii("  Zdrowy   Kręgosłup "))
	assert.Equal(t, "gimnastyka", normAscii("GIMNASTYKA"))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "yogaflow", compact("Yoga  Flow!"))
	assert.Equal(t, "krecenie900", compact("Kręcenie 9:00"))
}

func TestTextWithSpaces(t *testing.T) {
	// .Text() у goquery склеил бы это в "Yoga9:00"
	doc := docFromHTML(t, `<li><span>Yoga</span><span>9:00</span></li>`)
	assert.Equal(t, "Yoga 9:00", textWithSpaces(doc.Find("li")))
}

func TestSlugToName(t *testing.T) {
	assert.Equal(t, "Jan Kowalski", slugToName("jan_kowalski"))
	assert.Equal(t, "Anna Nowak", slugToName("anna-nowak"))
	assert.Equal(t, "", slugToName(""))

	// Многобайтовая первая руна не должна ломать UTF-8
	assert.Equal(t, "Łukasz Nowak", slugToName("łukasz_nowak"))
	assert.True(t, utf8.ValidString(slugToName("łukasz_nowak")))
}
