package types

import (
	"strings"
	"time"
)

// Slot - одно занятие из расписания клуба
type Slot struct {
	ClubName string
	Title    string
	Start    time.Time
	End      time.Time // нулевое время, если на странице нет диапазона
	Trainer  string
	Status   string // open, full, waitlist, cancelled, closed ("" если неизвестно)
	Raw      string // нормализованный текст элемента, используется при поиске тренера
	URL      string // ссылка на запись, если есть
	// Заполненность группы, CapacityTotal == 0 значит не указана
	CapacityUsed  int
	CapacityTotal int
}

// HasCapacity сообщает, указана ли на странице заполненность
func (s *Slot) HasCapacity() bool {
	return s.CapacityTotal > 0
}

// FreeSpots возвращает количество свободных мест (не меньше нуля)
func (s *Slot) FreeSpots() int {
	free := s.CapacityTotal - s.CapacityUsed
	if free < 0 {
		return 0
	}
	return free
}

// WeekWindow - границы текущей недели, понедельник 00:00 - воскресенье 23:59:59
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет попадание момента в окно (границы включительно)
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// QueryKind - тип запроса пользователя
type QueryKind int

const (
	QueryTraining QueryKind = iota // поиск по названию тренировки
	QueryTrainer                  // поиск по тренеру
)

// Query - разобранный запрос пользователя
type Query struct {
	Kind QueryKind
	Text string
}

// ParseQuery распознает префиксы trainer:/trener:/coach: в свободном тексте
func ParseQuery(text string) Query {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"trainer:", "trener:", "coach:"} {
		if strings.HasPrefix(lower, prefix) {
			return Query{
				Kind: QueryTrainer,
				Text: strings.TrimSpace(trimmed[len(prefix):]),
			}
		}
	}
	return Query{Kind: QueryTraining, Text: trimmed}
}

// FailKind - вид ошибки клуба в агрегированном результате
type FailKind string

const (
	FailFetch    FailKind = "fetch"     // сетевая ошибка или не-2xx при статической загрузке
	FailSession  FailKind = "session"   // не удалось поднять браузерную сессию
	FailNoEvents FailKind = "no_events" // эвристики не нашли ни одного кандидата
	FailTimeout  FailKind = "timeout"   // клуб не уложился в лимит времени
)
