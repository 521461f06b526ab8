package schedule

import (
	"sort"
	"strings"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

// FilterByName оставляет занятия, в названии или исходном тексте которых
// встречается запрос. Сравнение без регистра и диакритики, плюс
// "компактная" форма без пробелов и пунктуации.
func FilterByName(slots []types.Slot, query string) []types.Slot {
	queryNorm := normAscii(query)
	queryCompact := compact(query)
	result := make([]types.Slot, 0)
	for _, slot := range slots {
		if strings.Contains(normAscii(slot.Title), queryNorm) ||
			strings.Contains(normAscii(slot.Raw), queryNorm) ||
			strings.Contains(compact(slot.Title), queryCompact) {
			result = append(result, slot)
		}
	}
	return result
}

// FilterByTrainer ищет тренера по объединенному тексту (тренер + сырой
// текст + название): имя тренера не всегда попадает в отдельное поле
func FilterByTrainer(slots []types.Slot, query string) []types.Slot {
	queryNorm := normAscii(query)
	queryCompact := compact(query)
	result := make([]types.Slot, 0)
	for _, slot := range slots {
		combined := slot.Trainer + " " + slot.Raw + " " + slot.Title
		if strings.Contains(normAscii(combined), queryNorm) ||
			strings.Contains(compact(combined), queryCompact) {
			result = append(result, slot)
		}
	}
	return result
}

// Match - итоговый отбор: фильтр по окну недели (повторно, на случай
// нефильтрованного входа), фильтр по запросу, сортировка по времени
// начала и обрезка до maxResults. Пустой результат - валидный исход.
func Match(slots []types.Slot, query types.Query, window types.WeekWindow, maxResults int) []types.Slot {
	matched := FilterForWeek(slots, window)
	if query.Kind == types.QueryTrainer {
		matched = FilterByTrainer(matched, query.Text)
	} else {
		matched = FilterByName(matched, query.Text)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Start.Equal(matched[j].Start) {
			return matched[i].Start.Before(matched[j].Start)
		}
		if matched[i].ClubName != matched[j].ClubName {
			return matched[i].ClubName < matched[j].ClubName
		}
		return matched[i].Title < matched[j].Title
	})

	if maxResults > 0 && len(matched) > maxResults {
		matched = matched[:maxResults]
	}
	return matched
}
