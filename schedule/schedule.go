package schedule

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/config"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

// SnapshotCache - опциональный кеш сырых страниц (Redis).
// Интерфейс здесь, чтобы не тянуть зависимость на storage.
type SnapshotCache interface {
	GetPage(url string) (string, error)
	SavePage(url, html string, ttl time.Duration) error
}

// Снимок страницы живет недолго: расписание меняется, а кеш нужен
// только чтобы не дергать сайт на каждый запрос подряд
const snapshotTTL = 10 * time.Minute

// Options - параметры получения расписания одного клуба
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	UseBrowser   bool   // включает chromedp-фоллбек для динамических страниц
	WaitSelector string // чего ждать после рендера; пусто = стандартный список
	Headless     bool
	SeekWeek     bool // гонять календарь next/prev до текущей недели
	MaxSteps     int  // предел кликов при поиске недели
	Cache        SnapshotCache
}

// Result - расписание одного клуба плюс диагностика для /debug
type Result struct {
	Slots         []types.Slot
	RawCount      int    // сколько кандидатов нашел локатор
	ParseFailures int    // сколько кандидатов не разобралось
	Strategy      string // какой стратегией нашлись события
	Source        string // cache / static / browser
	SelectorMiss  bool   // селектор оператора ничего не нашел
	Degraded      bool   // лимит шагов навигации исчерпан, неделя может быть не та
}

// FetchSchedule получает и разбирает расписание клуба. Сначала всегда
// пробуем статическую загрузку (быстро и дешево); браузер поднимаем
// только если она не дала ни одного занятия, а интерактивный режим
// включен.
func FetchSchedule(ctx context.Context, club config.Club, opts Options, now time.Time) (Result, error) {
	html, source := "", "static"
	if opts.Cache != nil {
		if cached, err := opts.Cache.GetPage(club.URL); err == nil && cached != "" {
			html, source = cached, "cache"
		}
	}

	if html == "" {
		fetched, err := fetchHTMLStatic(ctx, club.URL, opts.UserAgent, opts.Timeout)
		if err != nil {
			if !opts.UseBrowser {
				return Result{}, err
			}
			// Статика не прошла, но есть шанс через браузер
			log.Printf("⚠️ Static fetch failed for %s, trying browser: %v", club.URL, err)
		} else {
			html = fetched
			if opts.Cache != nil {
				if err := opts.Cache.SavePage(club.URL, html, snapshotTTL); err != nil {
					log.Printf("⚠️ Failed to cache page for %s: %v", club.URL, err)
				}
			}
		}
	}

	if html != "" {
		result, err := parseSlots(html, club, now)
		result.Source = source
		if len(result.Slots) > 0 || !opts.UseBrowser {
			return result, err
		}
	}

	browserHTML, degraded, err := fetchHTMLBrowser(ctx, club, opts, now)
	if err != nil {
		return Result{}, err
	}
	result, err := parseSlots(browserHTML, club, now)
	result.Source = "browser"
	result.Degraded = degraded
	if err == nil && opts.Cache != nil && len(result.Slots) > 0 {
		if cacheErr := opts.Cache.SavePage(club.URL, browserHTML, snapshotTTL); cacheErr != nil {
			log.Printf("⚠️ Failed to cache rendered page for %s: %v", club.URL, cacheErr)
		}
	}
	return result, err
}

// parseSlots - полный разбор страницы: структурированные карточки,
// иначе локатор + пособытийный парсер. Ошибка одного события никогда
// не валит разбор остальных.
func parseSlots(html string, club config.Club, now time.Time) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, &FetchError{URL: club.URL, Err: err}
	}

	// Приоритет: известная структурированная разметка расписания
	structured := doc.Find("li.club-schedule-item")
	if structured.Length() > 0 {
		result := Result{RawCount: structured.Length(), Strategy: "club-schedule-item"}
		structured.Each(func(_ int, item *goquery.Selection) {
			slot, err := parseStructuredItem(item, club, now)
			if err != nil {
				result.ParseFailures++
				log.Printf("⚠️ [%s] skipping schedule item: %v", club.Name, err)
				return
			}
			result.Slots = append(result.Slots, slot)
		})
		return result, nil
	}

	loc := locateEvents(doc, club.Selector)
	result := Result{
		RawCount:     len(loc.nodes),
		Strategy:     loc.strategy,
		SelectorMiss: loc.selectorMiss,
	}
	if len(loc.nodes) == 0 {
		return result, ErrNoEventsLocated
	}

	for _, node := range loc.nodes {
		slot, err := parseEvent(node, club, now)
		if err != nil {
			result.ParseFailures++
			log.Printf("⚠️ [%s] skipping event: %v", club.Name, err)
			continue
		}
		result.Slots = append(result.Slots, slot)
	}
	return result, nil
}

// SlotTimeRange возвращает самое раннее и самое позднее начало занятий
func SlotTimeRange(slots []types.Slot) (earliest, latest time.Time) {
	for i, slot := range slots {
		if i == 0 || slot.Start.Before(earliest) {
			earliest = slot.Start
		}
		if i == 0 || slot.Start.After(latest) {
			latest = slot.Start
		}
	}
	return earliest, latest
}
