package handlers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/aggregator"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

// Метки статусов записи для ответа пользователю
var statusLabels = map[string]string{
	"open":      "✅ Запись открыта",
	"full":      "🚫 Нет мест",
	"waitlist":  "🟡 Лист ожидания",
	"cancelled": "❌ Отменено",
	"closed":    "⛔ Запись закрыта",
}

// formatSearchReply собирает HTML-ответ: найденные слоты, счетчик
// обрезки и предупреждения о недоступных клубах
func formatSearchReply(query types.Query, result aggregator.Result, loc *time.Location) string {
	var sb strings.Builder

	if len(result.Slots) == 0 {
		sb.WriteString(fmt.Sprintf("По запросу <b>%s</b> ничего нет на этой неделе.", html.EscapeString(query.Text)))
	} else {
		sb.WriteString(fmt.Sprintf("Слоты по запросу <b>%s</b> на эту неделю:\n\n", html.EscapeString(query.Text)))
		for _, slot := range result.Slots {
			sb.WriteString(formatSlotLine(slot, loc))
			sb.WriteString("\n")
		}
		if result.TotalMatched > len(result.Slots) {
			sb.WriteString(fmt.Sprintf("\nПоказано %d из %d слотов.", len(result.Slots), result.TotalMatched))
		}
	}

	if len(result.Failures) > 0 {
		parts := make([]string, 0, len(result.Failures))
		for _, f := range result.Failures {
			parts = append(parts, fmt.Sprintf("%s (%s)", html.EscapeString(f.Club), f.Kind))
		}
		sb.WriteString("\n\n⚠️ Недоступны: " + strings.Join(parts, ", "))
	}
	if len(result.DegradedClubs) > 0 {
		escaped := make([]string, 0, len(result.DegradedClubs))
		for _, name := range result.DegradedClubs {
			escaped = append(escaped, html.EscapeString(name))
		}
		sb.WriteString("\n\n⚠️ Не удалось пролистать до текущей недели: " + strings.Join(escaped, ", "))
	}
	return sb.String()
}

// formatSlotLine - одна строка ответа:
// - Клуб — Пн 02.01 15:04–16:00 — Yoga - Тренер | Свободно: 🟢 9/15 | ✅ Запись открыта | url
func formatSlotLine(slot types.Slot, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("- <b>")
	sb.WriteString(html.EscapeString(slot.ClubName))
	sb.WriteString("</b> — <b>")
	sb.WriteString(formatSlotTime(slot, loc))
	sb.WriteString("</b> — <b>")
	sb.WriteString(html.EscapeString(slot.Title))
	sb.WriteString("</b>")
	if slot.Trainer != "" {
		sb.WriteString(" - ")
		sb.WriteString(html.EscapeString(slot.Trainer))
	}
	if slot.HasCapacity() {
		sb.WriteString(fmt.Sprintf(" | Свободно: %s %d/%d",
			capacityBadge(slot.FreeSpots()), slot.FreeSpots(), slot.CapacityTotal))
	}
	if label, ok := statusLabels[slot.Status]; ok {
		sb.WriteString(" | " + label)
	}
	if slot.URL != "" {
		sb.WriteString(" | " + html.EscapeString(slot.URL))
	}
	return sb.String()
}

// Дни недели коротко, без зависимости от локали рантайма
var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func formatSlotTime(slot types.Slot, loc *time.Location) string {
	start := slot.Start.In(loc)
	text := fmt.Sprintf("%s %s", weekdayShort[start.Weekday()], start.Format("02.01 15:04"))
	if !slot.End.IsZero() {
		text += "–" + slot.End.In(loc).Format("15:04")
	}
	return text
}

func capacityBadge(free int) string {
	switch {
	case free <= 3:
		return "🔴"
	case free <= 8:
		return "🟡"
	default:
		return "🟢"
	}
}

// formatDebugReply - plain-text диагностика по клубам
func formatDebugReply(reports []aggregator.ClubReport, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("Диагностика расписаний:\n")
	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("\n%s\n", r.Club))
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("  ошибка (%s): %v\n", r.Kind, r.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("  источник: %s, стратегия: %s\n", r.Source, r.Strategy))
		sb.WriteString(fmt.Sprintf("  кандидатов: %d, слотов с датой: %d, на этой неделе: %d\n",
			r.RawCount, r.TotalSlots, r.WeekSlots))
		if r.ParseFailures > 0 {
			sb.WriteString(fmt.Sprintf("  не разобралось: %d\n", r.ParseFailures))
		}
		if !r.Earliest.IsZero() {
			sb.WriteString(fmt.Sprintf("  диапазон дат: %s - %s\n",
				r.Earliest.In(loc).Format("02.01 15:04"), r.Latest.In(loc).Format("02.01 15:04")))
		}
		if r.Degraded {
			sb.WriteString("  ⚠️ неделя может быть не текущей (лимит шагов навигации)\n")
		}
	}
	return sb.String()
}
