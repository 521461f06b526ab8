package schedule

import (
	"time"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

// WeekRange возвращает окно текущей недели: понедельник 00:00:00 -
// воскресенье 23:59:59 в той же таймзоне, что и now. Пересчитывается
// на каждый запрос, кешировать нельзя.
func WeekRange(now time.Time) types.WeekWindow {
	offset := (int(now.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := now.AddDate(0, 0, -offset).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return types.WeekWindow{Start: start, End: end}
}

// FilterForWeek оставляет только занятия внутри окна (границы включительно)
func FilterForWeek(slots []types.Slot, window types.WeekWindow) []types.Slot {
	filtered := make([]types.Slot, 0, len(slots))
	for _, slot := range slots {
		if window.Contains(slot.Start) {
			filtered = append(filtered, slot)
		}
	}
	return filtered
}
