package schedule

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Не чаще ~4 запросов в секунду суммарно по всем клубам,
// чтобы не злить сайты расписаний
var fetchLimiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)

// fetchHTMLStatic делает один GET за страницей расписания.
// Любая сетевая проблема или не-2xx статус - FetchError.
func fetchHTMLStatic(ctx context.Context, pageURL, userAgent string, timeout time.Duration) (string, error) {
	if err := fetchLimiter.Wait(ctx); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "pl,en;q=0.8")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	return string(body), nil
}
