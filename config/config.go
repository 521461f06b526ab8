package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const (
	defaultTimezone  = "Europe/Warsaw"
	defaultUserAgent = "Mozilla/5.0 (compatible; KrakowFitnessBot/1.0; +https://t.me/)"
	defaultClubName  = "MyFitnessPlace"
)

// Club - один настроенный клуб: адрес расписания, имя и опциональный селектор событий
type Club struct {
	Name     string
	URL      string
	Selector string // пустая строка = эвристический поиск
}

// Config собирается один раз при старте и дальше только читается
type Config struct {
	BotToken   string
	Timezone   *time.Location
	Clubs      []Club
	MaxResults int
	UserAgent  string

	// Интерактивный режим (chromedp)
	UseBrowser          bool
	BrowserWaitSelector string
	BrowserTimeout      time.Duration
	BrowserHeadless     bool
	BrowserSeekWeek     bool
	BrowserMaxSteps     int

	// Параллелизм по клубам
	ClubWorkers int

	// Опциональный кеш страниц
	RedisAddr     string
	RedisPassword string
}

// Load читает конфигурацию из окружения (.env подхватывается, если есть)
func Load() (*Config, error) {
	// .env не обязателен, в проде переменные приходят из окружения
	_ = godotenv.Load()

	token := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	tzName := envOr("TIMEZONE", defaultTimezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	urls := splitList(os.Getenv("SCHEDULE_URLS"))
	if len(urls) == 0 {
		single := strings.TrimSpace(os.Getenv("SCHEDULE_URL"))
		if single == "" {
			return nil, fmt.Errorf("SCHEDULE_URL or SCHEDULE_URLS is required")
		}
		urls = []string{single}
	}

	names := splitList(os.Getenv("CLUB_NAMES"))
	if len(names) == 0 {
		if single := strings.TrimSpace(os.Getenv("CLUB_NAME")); single != "" {
			names = []string{single}
		} else if len(urls) == 1 {
			names = []string{defaultClubName}
		}
	}
	names, err = alignNames(names, urls)
	if err != nil {
		return nil, err
	}

	selectors := splitList(os.Getenv("EVENT_SELECTORS"))
	if len(selectors) == 0 {
		if single := strings.TrimSpace(os.Getenv("EVENT_SELECTOR")); single != "" {
			selectors = []string{single}
		}
	}
	selectors, err = alignOptional(selectors, len(urls), "EVENT_SELECTORS")
	if err != nil {
		return nil, err
	}

	clubs := make([]Club, 0, len(urls))
	for i, u := range urls {
		clubs = append(clubs, Club{Name: names[i], URL: u, Selector: selectors[i]})
	}

	maxResults, err := envInt("MAX_RESULTS", 20)
	if err != nil {
		return nil, err
	}
	browserTimeoutS, err := envInt("BROWSER_TIMEOUT_S", 25)
	if err != nil {
		return nil, err
	}
	maxSteps, err := envInt("BROWSER_MAX_STEPS", 12)
	if err != nil {
		return nil, err
	}
	workers, err := envInt("CLUB_WORKERS", 3)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	return &Config{
		BotToken:            token,
		Timezone:            loc,
		Clubs:               clubs,
		MaxResults:          maxResults,
		UserAgent:           envOr("USER_AGENT", defaultUserAgent),
		UseBrowser:          envBool("USE_BROWSER", true),
		BrowserWaitSelector: strings.TrimSpace(os.Getenv("BROWSER_WAIT_SELECTOR")),
		BrowserTimeout:      time.Duration(browserTimeoutS) * time.Second,
		BrowserHeadless:     envBool("BROWSER_HEADLESS", true),
		BrowserSeekWeek:     envBool("BROWSER_SEEK_WEEK", true),
		BrowserMaxSteps:     maxSteps,
		ClubWorkers:         workers,
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
	}, nil
}

var listSepRe = regexp.MustCompile(`[|,;\n]+`)

func splitList(value string) []string {
	parts := listSepRe.Split(value, -1)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// alignNames приводит список имен к длине списка URL:
// пусто -> имена из URL, одно имя -> на все клубы, иначе длины должны совпадать
func alignNames(names, urls []string) ([]string, error) {
	if len(names) == 0 {
		derived := make([]string, 0, len(urls))
		for _, u := range urls {
			derived = append(derived, deriveNameFromURL(u))
		}
		return derived, nil
	}
	if len(names) == 1 && len(urls) > 1 {
		repeated := make([]string, len(urls))
		for i := range repeated {
			repeated[i] = names[0]
		}
		return repeated, nil
	}
	if len(names) != len(urls) {
		return nil, fmt.Errorf("CLUB_NAMES must have 1 value or match SCHEDULE_URLS length")
	}
	return names, nil
}

func alignOptional(values []string, target int, varName string) ([]string, error) {
	if len(values) == 0 {
		return make([]string, target), nil
	}
	if len(values) == 1 && target > 1 {
		repeated := make([]string, target)
		for i := range repeated {
			repeated[i] = values[0]
		}
		return repeated, nil
	}
	if len(values) != target {
		return nil, fmt.Errorf("%s must have 1 value or match SCHEDULE_URLS length", varName)
	}
	return values, nil
}

// deriveNameFromURL строит имя клуба из slug'а страницы расписания.
// Сайты сети держат расписание по адресу /<клуб>/grafik-zajec
func deriveNameFromURL(rawURL string) string {
	slug := "Schedule"
	if parsed, err := url.Parse(rawURL); err == nil {
		parts := make([]string, 0)
		for _, part := range strings.Split(parsed.Path, "/") {
			if part != "" {
				parts = append(parts, part)
			}
		}
		slug = pickSlug(parts)
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = capitalize(w)
	}
	if len(words) == 0 {
		return defaultClubName
	}
	return defaultClubName + " " + strings.Join(words, " ")
}

func pickSlug(parts []string) string {
	for i, part := range parts {
		if part == "grafik-zajec" {
			if i > 0 {
				return parts[i-1]
			}
			return parts[len(parts)-1]
		}
	}
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return "Schedule"
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	// Первая руна может быть многобайтовой ("łódź"), срез по байтам нельзя
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func envBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
