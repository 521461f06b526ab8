package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/aggregator"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return loc
}

func TestFormatSlotLine(t *testing.T) {
	loc := warsaw(t)
	slot := types.Slot{
		ClubName:      "MyFitnessPlace Centrum",
		Title:         "Yoga Flow",
		Trainer:       "Anna Nowak",
		Status:        "open",
		URL:           "https://example.com/zajecia/1",
		Start:         time.Date(2026, 1, 12, 18, 0, 0, 0, loc), // понедельник
		End:           time.Date(2026, 1, 12, 19, 0, 0, 0, loc),
		CapacityUsed:  6,
		CapacityTotal: 15,
	}

	line := formatSlotLine(slot, loc)
	assert.Contains(t, line, "<b>MyFitnessPlace Centrum</b>")
	assert.Contains(t, line, "Пн 12.01 18:00–19:00")
	assert.Contains(t, line, "<b>Yoga Flow</b>")
	assert.Contains(t, line, "Anna Nowak")
	assert.Contains(t, line, "Свободно: 🟢 9/15")
	assert.Contains(t, line, "✅ Запись открыта")
	assert.Contains(t, line, "https://example.com/zajecia/1")
}

func TestFormatSlotLineMinimal(t *testing.T) {
	loc := warsaw(t)
	slot := types.Slot{
		ClubName: "Klub",
		Title:    "Cross",
		Start:    time.Date(2026, 1, 15, 9, 0, 0, 0, loc),
	}

	line := formatSlotLine(slot, loc)
	assert.Contains(t, line, "Чт 15.01 09:00")
	assert.NotContains(t, line, "–") // нет конца - нет диапазона
	assert.NotContains(t, line, "Свободно")
	assert.NotContains(t, line, "|")
}

func TestFormatSlotLineEscapesHTML(t *testing.T) {
	loc := warsaw(t)
	slot := types.Slot{
		ClubName: "Klub <script>",
		Title:    "Yoga & Pilates",
		Start:    time.Date(2026, 1, 15, 9, 0, 0, 0, loc),
	}

	line := formatSlotLine(slot, loc)
	assert.Contains(t, line, "Klub &lt;script&gt;")
	assert.Contains(t, line, "Yoga &amp; Pilates")
	assert.NotContains(t, line, "<script>")
}

func TestCapacityBadge(t *testing.T) {
	assert.Equal(t, "🔴", capacityBadge(0))
	assert.Equal(t, "🔴", capacityBadge(3))
	assert.Equal(t, "🟡", capacityBadge(8))
	assert.Equal(t, "🟢", capacityBadge(9))
}

func TestFormatSearchReplyTruncationNote(t *testing.T) {
	loc := warsaw(t)
	result := aggregator.Result{
		Slots: []types.Slot{
			{ClubName: "A", Title: "Yoga", Start: time.Date(2026, 1, 12, 9, 0, 0, 0, loc)},
		},
		TotalMatched: 25,
		Succeeded:    1,
	}

	reply := formatSearchReply(types.Query{Text: "yoga"}, result, loc)
	assert.Contains(t, reply, "Показано 1 из 25 слотов.")
}

func TestFormatSearchReplyEmpty(t *testing.T) {
	loc := warsaw(t)
	result := aggregator.Result{Succeeded: 2}

	reply := formatSearchReply(types.Query{Text: "zumba"}, result, loc)
	assert.Contains(t, reply, "ничего нет на этой неделе")
	assert.Contains(t, reply, "zumba")
}

func TestFormatSearchReplyFailuresAndDegraded(t *testing.T) {
	loc := warsaw(t)
	result := aggregator.Result{
		Succeeded: 1,
		Slots: []types.Slot{
			{ClubName: "A", Title: "Yoga", Start: time.Date(2026, 1, 12, 9, 0, 0, 0, loc)},
		},
		TotalMatched:  1,
		Failures:      []aggregator.ClubFailure{{Club: "B", Kind: types.FailTimeout}},
		DegradedClubs: []string{"C"},
	}

	reply := formatSearchReply(types.Query{Text: "yoga"}, result, loc)
	assert.Contains(t, reply, "⚠️ Недоступны: B (timeout)")
	assert.Contains(t, reply, "Не удалось пролистать до текущей недели: C")
}

func TestFormatDebugReply(t *testing.T) {
	loc := warsaw(t)
	reports := []aggregator.ClubReport{
		{
			Club: "OK", RawCount: 12, TotalSlots: 10, WeekSlots: 7,
			ParseFailures: 2, Strategy: "selector", Source: "static",
			Earliest: time.Date(2026, 1, 12, 9, 0, 0, 0, loc),
			Latest:   time.Date(2026, 1, 18, 20, 0, 0, 0, loc),
		},
		{Club: "Down", Err: assert.AnError, Kind: types.FailFetch},
	}

	reply := formatDebugReply(reports, loc)
	assert.True(t, strings.Contains(reply, "OK"))
	assert.Contains(t, reply, "источник: static, стратегия: selector")
	assert.Contains(t, reply, "кандидатов: 12, слотов с датой: 10, на этой неделе: 7")
	assert.Contains(t, reply, "не разобралось: 2")
	assert.Contains(t, reply, "12.01 09:00 - 18.01 20:00")
	assert.Contains(t, reply, "ошибка (fetch)")
}
