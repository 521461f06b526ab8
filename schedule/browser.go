package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/config"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

// Селекторы и тексты кнопок для типичных календарных виджетов
// (FullCalendar и самописные). Тексты сверяются как подстроки
// textContent в нижнем регистре.
var (
	cookieSelectors = []string{
		"[aria-label*='accept' i]",
		"[aria-label*='zgadzam' i]",
	}
	cookieTexts = []string{
		"zaakceptuj i zamknij", "zaakceptuj", "akceptuj", "akcept",
		"zgadzam", "accept", "rozumiem", "zamknij",
	}

	weekViewSelectors = []string{
		".fc-timeGridWeek-button", ".fc-dayGridWeek-button", ".fc-listWeek-button",
	}
	weekViewTexts = []string{"tydzień", "tydzien", "week"}

	todaySelectors = []string{".fc-today-button", "[aria-label*='today' i]", "[aria-label*='dzis' i]"}
	todayTexts     = []string{"dziś", "dzis", "dzisiaj", "today", "teraz"}

	prevSelectors = []string{".fc-prev-button", ".swiper-button-prev", "a[rel='prev']", "[aria-label*='prev' i]"}
	prevTexts     = []string{"poprzed", "previous", "prev", "‹", "<"}

	nextSelectors = []string{".fc-next-button", ".swiper-button-next", "a[rel='next']", "[aria-label*='next' i]"}
	nextTexts     = []string{"nast", "next", "›", ">"}

	// Чего ждать после рендера, если оператор не задал свой селектор
	defaultWaitSelectors = []string{
		".fc-view-harness", ".fc-scrollgrid", ".fc-event",
		".fc-timegrid-event", ".fc-daygrid-event",
		"[data-event]", "[data-lesson]",
		".schedule", ".timetable", ".calendar",
	}
)

// fetchHTMLBrowser рендерит страницу в headless Chrome. Второе
// возвращаемое значение - признак деградации: лимит шагов навигации
// исчерпан и показанная неделя может быть не текущей. Сессия браузера
// закрывается на любом пути выхода.
func fetchHTMLBrowser(ctx context.Context, club config.Club, opts Options, now time.Time) (string, bool, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("lang", "pl-PL"),
		chromedp.UserAgent(opts.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(club.URL)); err != nil {
		return "", false, &SessionError{URL: club.URL, Err: err}
	}

	// Баннер с куками, недельный вид, кнопка "сегодня" - каждое
	// действие опционально, страница может ничего из этого не иметь
	if clickAny(browserCtx, cookieSelectors, cookieTexts) {
		pause(browserCtx, 500*time.Millisecond)
	}
	if clickAny(browserCtx, weekViewSelectors, weekViewTexts) {
		pause(browserCtx, 500*time.Millisecond)
	}
	if clickAny(browserCtx, todaySelectors, todayTexts) {
		pause(browserCtx, 500*time.Millisecond)
	}
	// Короткая пауза обычно достаточна, чтобы виджет дорисовался
	pause(browserCtx, time.Second)

	if opts.WaitSelector != "" {
		if !waitFor(browserCtx, opts.WaitSelector, opts.Timeout) {
			log.Printf("⚠️ [%s] wait selector not found: %s", club.Name, opts.WaitSelector)
		}
	} else {
		fast := opts.Timeout / 3
		if fast > 5*time.Second {
			fast = 5 * time.Second
		}
		if fast < 1500*time.Millisecond {
			fast = 1500 * time.Millisecond
		}
		waitForAny(browserCtx, defaultWaitSelectors, fast)
	}

	if opts.SeekWeek {
		return seekCurrentWeek(browserCtx, club, opts, now)
	}

	html, err := pageHTML(browserCtx)
	if err != nil {
		return "", false, &SessionError{URL: club.URL, Err: err}
	}
	return html, false, nil
}

// seekAction - решение одного шага поиска недели
type seekAction int

const (
	seekDone seekAction = iota
	seekPrev
	seekNext
)

// seekDecision решает, что делать с показанной неделей: остановиться,
// листать назад или листать вперед. Пустой разбор и пересечение
// диапазона с окном без точных попаданий тоже означают "стоп" -
// дальше щелкать бессмысленно.
func seekDecision(slots []types.Slot, window types.WeekWindow) seekAction {
	if len(slots) == 0 {
		return seekDone
	}
	if len(FilterForWeek(slots, window)) > 0 {
		return seekDone
	}
	earliest, latest := SlotTimeRange(slots)
	switch {
	case earliest.After(window.End):
		return seekPrev
	case latest.Before(window.Start):
		return seekNext
	}
	return seekDone
}

// weekSeekFuncs - операции над страницей, нужные циклу поиска недели.
// Цикл не знает про браузер и гоняется в тестах на заглушках.
type weekSeekFuncs struct {
	content func() (string, error)
	parse   func(html string) []types.Slot
	prev    func() bool
	next    func() bool
	settle  func()
}

// runWeekSeek листает календарь, пока занятия не пересекутся с окном
// недели. Недоступная кнопка навигации или исчерпанный лимит шагов -
// деградированный результат (последняя показанная неделя), не ошибка.
func runWeekSeek(fns weekSeekFuncs, window types.WeekWindow, maxSteps int) (string, bool, error) {
	for step := 0; step <= maxSteps; step++ {
		html, err := fns.content()
		if err != nil {
			return "", false, err
		}

		var moved bool
		switch seekDecision(fns.parse(html), window) {
		case seekDone:
			return html, false, nil
		case seekPrev:
			moved = fns.prev()
		case seekNext:
			moved = fns.next()
		}

		if !moved {
			return html, true, nil
		}
		fns.settle()
	}

	// Лимит шагов исчерпан: отдаем последнюю показанную неделю
	html, err := fns.content()
	if err != nil {
		return "", false, err
	}
	return html, true, nil
}

// seekCurrentWeek подключает браузерную сессию к циклу поиска недели
func seekCurrentWeek(ctx context.Context, club config.Club, opts Options, now time.Time) (string, bool, error) {
	fns := weekSeekFuncs{
		content: func() (string, error) { return pageHTML(ctx) },
		parse: func(html string) []types.Slot {
			result, err := parseSlots(html, club, now)
			if err != nil {
				return nil
			}
			return result.Slots
		},
		prev:   func() bool { return clickAny(ctx, prevSelectors, prevTexts) },
		next:   func() bool { return clickAny(ctx, nextSelectors, nextTexts) },
		settle: func() { pause(ctx, 700*time.Millisecond) },
	}

	html, degraded, err := runWeekSeek(fns, WeekRange(now), opts.MaxSteps)
	if err != nil {
		return "", false, &SessionError{URL: club.URL, Err: err}
	}
	if degraded {
		log.Printf("⚠️ [%s] current week not reached within %d steps, using displayed week", club.Name, opts.MaxSteps)
	}
	return html, degraded, nil
}

func pageHTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func pause(ctx context.Context, d time.Duration) {
	_ = chromedp.Run(ctx, chromedp.Sleep(d))
}

// clickAny кликает первый подошедший элемент: сначала по списку
// селекторов, потом по кнопкам/ссылкам с подходящим текстом.
// Все через Evaluate, чтобы отсутствие элемента не вешало сессию.
func clickAny(ctx context.Context, selectors, texts []string) bool {
	js := fmt.Sprintf(`(function(sels, words) {
		for (const s of sels) {
			try {
				const el = document.querySelector(s);
				if (el) { el.click(); return true; }
			} catch (e) {}
		}
		const els = document.querySelectorAll('button, a');
		for (const el of els) {
			const t = (el.textContent || '').trim().toLowerCase();
			if (!t) continue;
			for (const w of words) {
				if (t.includes(w)) { el.click(); return true; }
			}
		}
		return false;
	})(%s, %s)`, jsArray(selectors), jsArray(texts))

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return false
	}
	return clicked
}

// waitFor ждет появления селектора не дольше timeout
func waitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)) == nil
}

// waitForAny пробует селекторы по очереди с коротким таймаутом на каждый
func waitForAny(ctx context.Context, selectors []string, timeout time.Duration) bool {
	perSelector := timeout / time.Duration(len(selectors))
	if perSelector < 300*time.Millisecond {
		perSelector = 300 * time.Millisecond
	}
	for _, selector := range selectors {
		if waitFor(ctx, selector, perSelector) {
			return true
		}
	}
	return false
}

func jsArray(values []string) string {
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}
