package schedule

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

func seekWindow(t *testing.T) types.WeekWindow {
	t.Helper()
	return WeekRange(time.Date(2026, 1, 14, 12, 0, 0, 0, warsaw(t)))
}

func slotsAt(starts ...time.Time) []types.Slot {
	slots := make([]types.Slot, 0, len(starts))
	for _, start := range starts {
		slots = append(slots, types.Slot{Title: "Yoga", Start: start})
	}
	return slots
}

func TestSeekDecision(t *testing.T) {
	window := seekWindow(t)
	inside := window.Start.Add(24 * time.Hour)
	before := window.Start.Add(-48 * time.Hour)
	after := window.End.Add(48 * time.Hour)

	// Пустой разбор - щелкать некуда
	assert.Equal(t, seekDone, seekDecision(nil, window))
	// Попадание в окно
	assert.Equal(t, seekDone, seekDecision(slotsAt(inside, after), window))
	// Все занятия позже окна - листаем назад
	assert.Equal(t, seekPrev, seekDecision(slotsAt(after), window))
	// Все занятия раньше окна - листаем вперед
	assert.Equal(t, seekNext, seekDecision(slotsAt(before), window))
	// Диапазон накрывает окно без точных попаданий - стоп
	assert.Equal(t, seekDone, seekDecision(slotsAt(before, after), window))
}

// seekPage - заглушка страницы для цикла поиска недели: листаемая
// последовательность недель без браузера
type seekPage struct {
	window   types.WeekWindow
	offset   int // показанная неделя относительно текущей
	clicks   int
	canClick bool
}

func (p *seekPage) content() (string, error) {
	return fmt.Sprintf("<week %d>", p.offset), nil
}

func (p *seekPage) parse(string) []types.Slot {
	start := p.window.Start.Add(time.Duration(p.offset) * 7 * 24 * time.Hour)
	return slotsAt(start.Add(10 * time.Hour))
}

func (p *seekPage) prev() bool {
	if p.canClick {
		p.clicks++
		p.offset--
	}
	return p.canClick
}

func (p *seekPage) next() bool {
	if p.canClick {
		p.clicks++
		p.offset++
	}
	return p.canClick
}

func (p *seekPage) funcs() weekSeekFuncs {
	return weekSeekFuncs{
		content: p.content,
		parse:   p.parse,
		prev:    p.prev,
		next:    p.next,
		settle:  func() {},
	}
}

func TestRunWeekSeekReachesWeek(t *testing.T) {
	window := seekWindow(t)
	page := &seekPage{window: window, offset: -2, canClick: true}

	html, degraded, err := runWeekSeek(page.funcs(), window, 3)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, "<week 0>", html)
	assert.Equal(t, 2, page.clicks)
}

func TestRunWeekSeekExhaustedIsDegraded(t *testing.T) {
	window := seekWindow(t)
	// Неделя в десяти шагах, лимит три: контент все равно возвращается,
	// но с признаком деградации
	page := &seekPage{window: window, offset: 10, canClick: true}

	html, degraded, err := runWeekSeek(page.funcs(), window, 3)
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.NotEmpty(t, html)
	assert.Equal(t, "<week 6>", html) // последняя показанная неделя
}

func TestRunWeekSeekNoControlIsDegraded(t *testing.T) {
	window := seekWindow(t)
	// Кнопок навигации нет - отдаем показанную неделю с деградацией
	page := &seekPage{window: window, offset: 3, canClick: false}

	html, degraded, err := runWeekSeek(page.funcs(), window, 3)
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.Equal(t, "<week 3>", html)
	assert.Equal(t, 0, page.clicks)
}

func TestRunWeekSeekCurrentWeekNoClicks(t *testing.T) {
	window := seekWindow(t)
	page := &seekPage{window: window, offset: 0, canClick: true}

	_, degraded, err := runWeekSeek(page.funcs(), window, 3)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, 0, page.clicks)
}

func TestRunWeekSeekContentError(t *testing.T) {
	window := seekWindow(t)
	broken := weekSeekFuncs{
		content: func() (string, error) { return "", errors.New("session lost") },
		parse:   func(string) []types.Slot { return nil },
		prev:    func() bool { return false },
		next:    func() bool { return false },
		settle:  func() {},
	}

	_, _, err := runWeekSeek(broken, window, 3)
	assert.Error(t, err)
}
