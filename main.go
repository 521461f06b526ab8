package main

import (
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/aggregator"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/config"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/handlers"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/schedule"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/storage"
)

// initCache поднимает Redis-кеш страниц, если он настроен. Без Redis
// бот работает, просто каждый запрос ходит на сайты клубов.
func initCache(cfg *config.Config) schedule.SnapshotCache {
	if cfg.RedisAddr == "" {
		log.Println("📦 Page cache disabled (REDIS_ADDR not set)")
		return nil
	}
	store := storage.New(cfg.RedisAddr, cfg.RedisPassword, 0)
	if err := store.Ping(); err != nil {
		log.Printf("⚠️ Redis unavailable, page cache disabled: %v", err)
		return nil
	}
	log.Printf("📦 Page cache enabled (redis at %s)", cfg.RedisAddr)
	return store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	time.Local = cfg.Timezone
	log.Printf("🌍 Timezone set to %s (current time: %s)",
		cfg.Timezone, time.Now().Format("2006-01-02 15:04:05 MST"))
	for _, club := range cfg.Clubs {
		log.Printf("🏋️ Club: %s -> %s", club.Name, club.URL)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("🤖 Authorized on account %s", bot.Self.UserName)

	agg := aggregator.New(cfg, initCache(cfg))
	handler := handlers.New(bot, cfg, agg)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	log.Println("✅ Bot is running...")

	for update := range updates {
		if update.Message != nil {
			handleMessage(bot, handler, update.Message)
		}
	}
}

func handleMessage(bot *tgbotapi.BotAPI, h *handlers.Handler, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.HandleStart(msg)

	case "help":
		h.HandleHelp(msg)

	case "trainer", "coach":
		h.HandleTrainer(msg)

	case "debug":
		h.HandleDebug(msg)

	case "":
		// Не команда - значит, поисковый запрос
		h.HandleQuery(msg)

	default:
		bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "Неизвестная команда. Попробуй /help"))
	}
}
