package schedule

import (
	"errors"
	"fmt"
)

// ErrNoEventsLocated - все эвристики поиска событий исчерпаны, на странице
// не нашлось ни одного кандидата. Это НЕ то же самое, что "на этой неделе
// занятий нет" (валидный пустой результат после фильтрации).
var ErrNoEventsLocated = errors.New("no schedule events located on page")

// FetchError - ошибка статической загрузки страницы (сеть, таймаут, не-2xx)
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SessionError - не удалось поднять или прогнать браузерную сессию
type SessionError struct {
	URL string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s: %v", e.URL, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
