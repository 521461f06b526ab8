package schedule

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Диакритика -> латиница, по образцу обработки польских названий районов.
// Текст к этому моменту уже приведен к нижнему регистру.
var accentReplacer = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
	"ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"á", "a", "à", "a", "ä", "a", "é", "e", "è", "e",
	"í", "i", "ö", "o", "ú", "u", "ü", "u", "ß", "ss",
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// normText: нижний регистр + схлопнутые пробелы
func normText(text string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// normAscii: normText + диакритика убрана
func normAscii(text string) string {
	return accentReplacer.Replace(normText(text))
}

// compact: только латиница и цифры, ловит расхождения в пробелах и пунктуации
func compact(text string) string {
	return nonAlnumRe.ReplaceAllString(normAscii(text), "")
}

// textWithSpaces собирает текст элемента с пробелами между узлами.
// goquery .Text() склеивает соседние элементы без разделителя, из-за чего
// "Yoga</span><span>9:00" превращается в "Yoga9:00".
func textWithSpaces(sel *goquery.Selection) string {
	var b strings.Builder
	appendText(sel, &b)
	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}

func appendText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			b.WriteByte(' ')
			return
		}
		appendText(c, b)
		b.WriteByte(' ')
	})
}

// slugToName превращает slug вида "jan_kowalski" в "Jan Kowalski"
func slugToName(value string) string {
	cleaned := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(value))
	if cleaned == "" {
		return value
	}
	words := strings.Fields(cleaned)
	for i, w := range words {
		// Первая руна может быть многобайтовой ("łukasz"), срез по байтам нельзя
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
