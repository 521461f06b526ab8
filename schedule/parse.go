package schedule

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/config"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

var (
	timeRe        = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.][0-5]\d\b`)
	timeRangeRe   = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)\s*[-–—]\s*([01]?\d|2[0-3])(?:[:.]([0-5]\d))?\b`)
	dateNumRe     = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})(?:[./-](\d{4}))?\b`)
	dateWordRe    = regexp.MustCompile(`\b(\d{1,2})\s+(\p{L}+)\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	isoDateTimeRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2})`)
	unixTsRe      = regexp.MustCompile(`\b(\d{10}|\d{13})\b`)
	capacityRe    = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

const (
	// Защита от захвата всей страницы как "одного события"
	maxEventTextLen = 220
	// Предел обхода DOM при поиске даты в контексте элемента
	dateContextMaxDepth = 50
	// Если месяц отстает от текущего больше чем на полгода,
	// расписание пересекло границу года (декабрь -> январь)
	yearBoundaryMonths = 6
)

// Польские месяцы в родительном падеже, без диакритики
var monthsAscii = map[string]time.Month{
	"stycznia":     time.January,
	"lutego":       time.February,
	"marca":        time.March,
	"kwietnia":     time.April,
	"maja":         time.May,
	"czerwca":      time.June,
	"lipca":        time.July,
	"sierpnia":     time.August,
	"wrzesnia":     time.September,
	"pazdziernika": time.October,
	"listopada":    time.November,
	"grudnia":      time.December,
}

// Статусы записи по ключевым словам. Порядок важен: более длинные
// и специфичные ключи идут раньше ("zamkniete zapisy" до "zapisy").
var statusKeywords = []struct {
	key    string
	status string
}{
	{"zamkniete zapisy", "closed"},
	{"termin rejestracji minal", "closed"},
	{"za wczesnie", "closed"},
	{"odwolane zajecia", "cancelled"},
	{"odwolane", "cancelled"},
	{"odwolana", "cancelled"},
	{"odwolany", "cancelled"},
	{"brak miejsc", "full"},
	{"lista rezerwowa", "waitlist"},
	{"zarezerwuj", "open"},
	{"rezerwuj", "open"},
	{"zapisz sie", "open"},
	{"zapisy", "open"},
}

var statusCleanRes = buildStatusCleanRes()

func buildStatusCleanRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(statusKeywords))
	for _, kw := range statusKeywords {
		res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw.key)+`\b`))
	}
	return res
}

// timeOfDay - время без даты, до комбинирования с найденной датой
type timeOfDay struct {
	hour, min int
}

// parseTime находит первое время вида HH:MM / HH.MM в тексте
func parseTime(text string) (timeOfDay, bool) {
	match := timeRe.FindString(text)
	if match == "" {
		return timeOfDay{}, false
	}
	return splitTime(strings.ReplaceAll(match, ".", ":"))
}

// parseTimeRange находит диапазон HH:MM-HH[:MM]; конец может быть указан
// одним часом ("18:00-19"). Начало с одним часом не поддерживаем - формат
// неотличим от числовой даты.
func parseTimeRange(text string) (start, end timeOfDay, ok bool) {
	m := timeRangeRe.FindStringSubmatch(text)
	if m == nil {
		return timeOfDay{}, timeOfDay{}, false
	}
	start.hour, _ = strconv.Atoi(m[1])
	start.min, _ = strconv.Atoi(m[2])
	end.hour, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		end.min, _ = strconv.Atoi(m[4])
	}
	return start, end, true
}

func splitTime(value string) (timeOfDay, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return timeOfDay{}, false
	}
	hour, err1 := strconv.Atoi(parts[0])
	min, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour > 23 || min > 59 {
		return timeOfDay{}, false
	}
	return timeOfDay{hour: hour, min: min}, true
}

// parseDate разбирает первую дату в тексте: числовую (D.M[.YYYY], также
// / и -) или словесную ("12 stycznia"). Год без явного указания берется
// текущий с поправкой на границу года.
func parseDate(text string, now time.Time) (time.Time, bool) {
	if m := dateNumRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		year = adjustYear(now, month, year)
		return makeDate(year, month, day, now.Location())
	}

	if m := dateWordRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, found := monthsAscii[normAscii(m[2])]
		if !found {
			return time.Time{}, false
		}
		year := adjustYear(now, int(month), now.Year())
		return makeDate(year, int(month), day, now.Location())
	}

	return time.Time{}, false
}

// makeDate валидирует компоненты: time.Date молча нормализует 30-й месяц
// или 31 февраля, а нам нужно отбраковать такие кандидаты (например,
// "10.30" - это время, а не дата)
func makeDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

// adjustYear сдвигает год вперед, когда расписание пересекает границу
// года: январские даты без года, увиденные в декабре, относятся к
// следующему году. Выбираем ближайшую правдоподобную дату к "сейчас".
func adjustYear(now time.Time, month, year int) int {
	if year == now.Year() && month < int(now.Month()) && int(now.Month())-month > yearBoundaryMonths {
		return year + 1
	}
	return year
}

// --- Разбор атрибутов ---

func eachAttr(sel *goquery.Selection, fn func(key, value string) bool) {
	if len(sel.Nodes) == 0 {
		return
	}
	for _, attr := range sel.Nodes[0].Attr {
		if attr.Val == "" {
			continue
		}
		if !fn(attr.Key, attr.Val) {
			return
		}
	}
}

func parseDateFromAttrs(sel *goquery.Selection, now time.Time) (time.Time, bool) {
	var result time.Time
	var found bool
	eachAttr(sel, func(_, value string) bool {
		if m := isoDateRe.FindStringSubmatch(value); m != nil {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if d, ok := makeDate(year, month, day, now.Location()); ok {
				result, found = d, true
				return false
			}
		}
		if d, ok := parseDate(value, now); ok {
			result, found = d, true
			return false
		}
		return true
	})
	return result, found
}

func parseTimeFromAttrs(sel *goquery.Selection) (timeOfDay, bool) {
	var result timeOfDay
	var found bool
	eachAttr(sel, func(_, value string) bool {
		if t, ok := parseTime(value); ok {
			result, found = t, true
			return false
		}
		return true
	})
	return result, found
}

// parseDateTimeFromAttrs ищет полную метку времени в атрибутах: ISO
// datetime либо unix timestamp (секунды или миллисекунды) в атрибутах
// с "временными" именами (data-start, data-time и т.п.)
func parseDateTimeFromAttrs(sel *goquery.Selection, loc *time.Location) (time.Time, bool) {
	var result time.Time
	var found bool
	eachAttr(sel, func(key, value string) bool {
		if m := isoDateTimeRe.FindStringSubmatch(value); m != nil {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			hour, _ := strconv.Atoi(m[4])
			min, _ := strconv.Atoi(m[5])
			if d, ok := makeDate(year, month, day, loc); ok && hour < 24 && min < 60 {
				result = d.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
				found = true
				return false
			}
		}

		lowerKey := strings.ToLower(key)
		timeish := false
		for _, token := range []string{"time", "date", "start", "begin", "datetime"} {
			if strings.Contains(lowerKey, token) {
				timeish = true
				break
			}
		}
		if timeish {
			if m := unixTsRe.FindStringSubmatch(value); m != nil {
				ts, err := strconv.ParseInt(m[1], 10, 64)
				if err == nil {
					if len(m[1]) == 13 {
						ts /= 1000
					}
					result = time.Unix(ts, 0).In(loc)
					found = true
					return false
				}
			}
		}
		return true
	})
	return result, found
}

// findDateContext поднимается по DOM (предыдущие соседи -> родитель) в
// поисках даты, например заголовка дня над колонкой занятий. Обход
// ограничен dateContextMaxDepth узлами.
func findDateContext(sel *goquery.Selection, now time.Time) (time.Time, bool) {
	checked := 0
	node := sel
	for node.Length() > 0 && checked < dateContextMaxDepth {
		if d, ok := parseDate(textWithSpaces(node), now); ok {
			return d, true
		}
		prevs := node.PrevAll()
		for i := 0; i < prevs.Length() && checked < dateContextMaxDepth; i++ {
			checked++
			if d, ok := parseDate(textWithSpaces(prevs.Eq(i)), now); ok {
				return d, true
			}
		}
		node = node.Parent()
		checked++
	}
	return time.Time{}, false
}

// --- Статус, название, тренер ---

func extractStatus(text string) string {
	norm := normAscii(text)
	for _, kw := range statusKeywords {
		if strings.Contains(norm, kw.key) {
			return kw.status
		}
	}
	return ""
}

func cleanEventText(text string) string {
	cleaned := timeRangeRe.ReplaceAllString(text, " ")
	cleaned = timeRe.ReplaceAllString(cleaned, " ")
	for _, re := range statusCleanRes {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	return strings.Trim(cleaned, " -|/")
}

// extractNameAndTrainer отделяет тренера от названия по типичным
// разделителям ("Yoga Flow - Anna Nowak")
func extractNameAndTrainer(text string) (name, trainer string) {
	cleaned := cleanEventText(text)
	for _, sep := range []string{" - ", " / ", " | "} {
		if strings.Contains(cleaned, sep) {
			parts := strings.SplitN(cleaned, sep, 2)
			left := strings.TrimSpace(parts[0])
			right := strings.TrimSpace(parts[1])
			if left != "" && right != "" {
				return left, right
			}
		}
	}
	return cleaned, ""
}

// parseEvent превращает один найденный элемент в Slot.
// Ошибка означает пропуск элемента, но не всей страницы.
func parseEvent(sel *goquery.Selection, club config.Club, now time.Time) (types.Slot, error) {
	raw := textWithSpaces(sel)
	if raw == "" {
		return types.Slot{}, fmt.Errorf("empty event node")
	}

	var start, end time.Time
	if dt, ok := parseDateTimeFromAttrs(sel, now.Location()); ok {
		start = dt
	} else {
		startTod, endTod, hasEnd := timeOfDay{}, timeOfDay{}, false
		if s, e, ok := parseTimeRange(raw); ok {
			startTod, endTod, hasEnd = s, e, true
		} else if s, ok := parseTime(raw); ok {
			startTod = s
		} else if s, ok := parseTimeFromAttrs(sel); ok {
			startTod = s
		} else {
			return types.Slot{}, fmt.Errorf("no time found in %q", truncateForLog(raw))
		}

		day, ok := parseDate(raw, now)
		if !ok {
			day, ok = parseDateFromAttrs(sel, now)
		}
		if !ok {
			day, ok = findDateContext(sel, now)
		}
		if !ok {
			return types.Slot{}, fmt.Errorf("no date found in %q", truncateForLog(raw))
		}

		start = day.Add(time.Duration(startTod.hour)*time.Hour + time.Duration(startTod.min)*time.Minute)
		if hasEnd {
			end = day.Add(time.Duration(endTod.hour)*time.Hour + time.Duration(endTod.min)*time.Minute)
			if !end.After(start) {
				end = time.Time{}
			}
		}
	}

	name, trainer := extractNameAndTrainer(raw)
	if name == "" {
		name = raw
	}

	return types.Slot{
		ClubName: club.Name,
		Title:    name,
		Start:    start,
		End:      end,
		Trainer:  trainer,
		Status:   extractStatus(raw),
		Raw:      raw,
	}, nil
}

func truncateForLog(text string) string {
	if len(text) > 80 {
		return text[:80] + "..."
	}
	return text
}

// --- Структурированные элементы li.club-schedule-item ---

// parseStructuredItem разбирает карточку занятия с известной разметкой:
// data-day, <time datetime="...">, a.activity, a.trainer, блок записи
// и счетчик участников "N/M"
func parseStructuredItem(item *goquery.Selection, club config.Club, now time.Time) (types.Slot, error) {
	raw := textWithSpaces(item)

	var day time.Time
	dayOK := false
	if dayValue, exists := item.Attr("data-day"); exists {
		if parsed, err := time.ParseInLocation("2006-01-02", dayValue, now.Location()); err == nil {
			day, dayOK = parsed, true
		}
	}

	var start time.Time
	timeTag := item.Find("time").First()
	if timeTag.Length() > 0 {
		if dtAttr, exists := timeTag.Attr("datetime"); exists {
			// Пример: 2026-02-10 09:00
			if parsed, err := time.ParseInLocation("2006-01-02 15:04", dtAttr, now.Location()); err == nil {
				start = parsed
			}
		}
		if start.IsZero() && dayOK {
			if tod, ok := parseTime(textWithSpaces(timeTag)); ok {
				start = day.Add(time.Duration(tod.hour)*time.Hour + time.Duration(tod.min)*time.Minute)
			}
		}
	}
	if start.IsZero() && dayOK {
		if tod, ok := parseTime(raw); ok {
			start = day.Add(time.Duration(tod.hour)*time.Hour + time.Duration(tod.min)*time.Minute)
		}
	}
	if start.IsZero() {
		return types.Slot{}, fmt.Errorf("schedule item without start: %q", truncateForLog(raw))
	}

	var end time.Time
	if s, e, ok := parseTimeRange(raw); ok {
		candidate := time.Date(start.Year(), start.Month(), start.Day(), e.hour, e.min, 0, 0, start.Location())
		if s.hour == start.Hour() && s.min == start.Minute() && candidate.After(start) {
			end = candidate
		}
	}

	name := textWithSpaces(item.Find("a.activity").First())
	if name == "" {
		name, _ = item.Attr("data-activity")
	}
	if name == "" {
		name = raw
	}

	trainer := textWithSpaces(item.Find("a.trainer").First())
	if trainer == "" {
		if slug, exists := item.Attr("data-trainer"); exists && slug != "" {
			trainer = slugToName(slug)
		}
	}

	regText := textWithSpaces(item.Find("div[class*='registration']").First())
	status := extractStatus(regText)
	if status == "" {
		status = extractStatus(raw)
	}

	slotURL := ""
	if itemURL, exists := item.Attr("data-url"); exists && itemURL != "" {
		slotURL = resolveURL(club.URL, itemURL)
	}

	used, total := parseCapacity(item)

	return types.Slot{
		ClubName:      club.Name,
		Title:         name,
		Start:         start,
		End:           end,
		Trainer:       trainer,
		Status:        status,
		Raw:           raw,
		URL:           slotURL,
		CapacityUsed:  used,
		CapacityTotal: total,
	}, nil
}

// parseCapacity достает счетчик участников вида "7/15"
func parseCapacity(item *goquery.Selection) (used, total int) {
	users := item.Find(".users").First()
	if users.Length() == 0 {
		item.Find("span[data-icon-alt]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			alt, _ := s.Attr("data-icon-alt")
			if strings.Contains(strings.ToLower(alt), "uczest") {
				users = s
				return false
			}
			return true
		})
	}
	if users.Length() == 0 {
		return 0, 0
	}

	m := capacityRe.FindStringSubmatch(textWithSpaces(users))
	if m == nil {
		return 0, 0
	}
	used, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return used, total
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
