package aggregator

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/config"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/schedule"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

// FetchFunc позволяет подменить пайплайн клуба в тестах
type FetchFunc func(ctx context.Context, club config.Club, opts schedule.Options, now time.Time) (schedule.Result, error)

// ClubFailure - клуб, который не удалось обработать, и вид ошибки
type ClubFailure struct {
	Club string
	Kind types.FailKind
	Err  error
}

// Result - агрегированный ответ на запрос пользователя
type Result struct {
	Window        types.WeekWindow
	Slots         []types.Slot  // совпадения, отсортированы, обрезаны до max
	TotalMatched  int           // совпадений до обрезки
	Succeeded     int           // клубов обработано успешно
	Failures      []ClubFailure // клубы с ошибками (не блокируют остальных)
	DegradedClubs []string      // клубы, где поиск недели уперся в лимит шагов
}

// ClubReport - диагностика одного клуба для /debug
type ClubReport struct {
	Club          string
	Err           error
	Kind          types.FailKind
	RawCount      int
	TotalSlots    int
	WeekSlots     int
	ParseFailures int
	Strategy      string
	Source        string
	Degraded      bool
	Earliest      time.Time
	Latest        time.Time
}

// Aggregator гоняет пайплайн получения расписания по всем клубам
// параллельно, с ограничением воркеров и таймаутом на клуб. Ошибка
// одного клуба никогда не гасит результаты остальных.
type Aggregator struct {
	clubs      []config.Club
	opts       schedule.Options
	workers    int
	maxResults int
	fetch      FetchFunc
}

func New(cfg *config.Config, cache schedule.SnapshotCache) *Aggregator {
	return &Aggregator{
		clubs: cfg.Clubs,
		opts: schedule.Options{
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.BrowserTimeout,
			UseBrowser:   cfg.UseBrowser,
			WaitSelector: cfg.BrowserWaitSelector,
			Headless:     cfg.BrowserHeadless,
			SeekWeek:     cfg.BrowserSeekWeek,
			MaxSteps:     cfg.BrowserMaxSteps,
			Cache:        cache,
		},
		workers:    cfg.ClubWorkers,
		maxResults: cfg.MaxResults,
		fetch:      schedule.FetchSchedule,
	}
}

// clubBudget - верхняя граница времени на один клуб: базовый таймаут
// плюс запас на клики по календарю
func (a *Aggregator) clubBudget() time.Duration {
	return a.opts.Timeout + 10*time.Second + time.Duration(a.opts.MaxSteps)*3*time.Second
}

type outcome struct {
	index  int
	club   config.Club
	result schedule.Result
	err    error
}

// collect - фан-аут по клубам: каждый клуб в своей горутине, не больше
// workers одновременно, сбор под мьютексом
func (a *Aggregator) collect(ctx context.Context, now time.Time) []outcome {
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := make([]outcome, 0, len(a.clubs))

	for i, club := range a.clubs {
		wg.Add(1)
		go func(index int, club config.Club) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			clubCtx, cancel := context.WithTimeout(ctx, a.clubBudget())
			defer cancel()

			result, err := a.fetch(clubCtx, club, a.opts, now)
			mu.Lock()
			outcomes = append(outcomes, outcome{index: index, club: club, result: result, err: err})
			mu.Unlock()
		}(i, club)
	}
	wg.Wait()

	// Возвращаем в порядке конфигурации, порядок завершения горутин случаен
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })
	return outcomes
}

// Search выполняет запрос пользователя по всем клубам: окно недели
// считается один раз, слоты сливаются и матчатся единым списком
func (a *Aggregator) Search(ctx context.Context, query types.Query, now time.Time) Result {
	window := schedule.WeekRange(now)
	result := Result{Window: window}

	merged := make([]types.Slot, 0)
	for _, o := range a.collect(ctx, now) {
		if o.err != nil {
			kind := classify(o.err)
			log.Printf("⚠️ [%s] schedule unavailable (%s): %v", o.club.Name, kind, o.err)
			result.Failures = append(result.Failures, ClubFailure{Club: o.club.Name, Kind: kind, Err: o.err})
			continue
		}
		result.Succeeded++
		if o.result.Degraded {
			result.DegradedClubs = append(result.DegradedClubs, o.club.Name)
		}
		merged = append(merged, o.result.Slots...)
	}

	matched := schedule.Match(merged, query, window, 0)
	result.TotalMatched = len(matched)
	if a.maxResults > 0 && len(matched) > a.maxResults {
		matched = matched[:a.maxResults]
	}
	result.Slots = matched
	return result
}

// Inspect собирает диагностику по клубам для /debug
func (a *Aggregator) Inspect(ctx context.Context, now time.Time) []ClubReport {
	window := schedule.WeekRange(now)
	reports := make([]ClubReport, 0, len(a.clubs))

	for _, o := range a.collect(ctx, now) {
		report := ClubReport{Club: o.club.Name}
		if o.err != nil {
			report.Err = o.err
			report.Kind = classify(o.err)
			reports = append(reports, report)
			continue
		}
		report.RawCount = o.result.RawCount
		report.TotalSlots = len(o.result.Slots)
		report.WeekSlots = len(schedule.FilterForWeek(o.result.Slots, window))
		report.ParseFailures = o.result.ParseFailures
		report.Strategy = o.result.Strategy
		report.Source = o.result.Source
		report.Degraded = o.result.Degraded
		if len(o.result.Slots) > 0 {
			report.Earliest, report.Latest = schedule.SlotTimeRange(o.result.Slots)
		}
		reports = append(reports, report)
	}
	return reports
}

// classify сводит ошибку клуба к виду для отчета пользователю
func classify(err error) types.FailKind {
	var sessionErr *schedule.SessionError
	var fetchErr *schedule.FetchError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return types.FailTimeout
	case errors.As(err, &sessionErr):
		return types.FailSession
	case errors.As(err, &fetchErr):
		return types.FailFetch
	case errors.Is(err, schedule.ErrNoEventsLocated):
		return types.FailNoEvents
	default:
		return types.FailFetch
	}
}
