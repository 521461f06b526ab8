package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DeniOstrovskiy/krakow-fitness-bot/aggregator"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/config"
	"github.com/DeniOstrovskiy/krakow-fitness-bot/types"
)

type Handler struct {
	Bot *tgbotapi.BotAPI
	Cfg *config.Config
	Agg *aggregator.Aggregator
}

func New(bot *tgbotapi.BotAPI, cfg *config.Config, agg *aggregator.Aggregator) *Handler {
	return &Handler{Bot: bot, Cfg: cfg, Agg: agg}
}

func (h *Handler) HandleStart(msg *tgbotapi.Message) {
	text := "Отправь название тренировки (например: Yoga, Cross, Pilates), " +
		"и я пришлю слоты на эту неделю по всем выбранным клубам.\n" +
		"Если нужен конкретный тренер, напиши: trainer: Имя Фамилия"
	h.send(msg.Chat.ID, text)
}

func (h *Handler) HandleHelp(msg *tgbotapi.Message) {
	text := "Просто отправь название тренировки. Я верну слоты на эту неделю по всем клубам.\n" +
		"Пример: yoga или stretch\n" +
		"Тренер: trainer: Sebastian Buczek или /trainer Sebastian Buczek\n" +
		"Диагностика: /debug"
	h.send(msg.Chat.ID, text)
}

// HandleTrainer обслуживает /trainer и /coach
func (h *Handler) HandleTrainer(msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		h.send(msg.Chat.ID, "Напиши имя тренера после команды. Например: /trainer Sebastian Buczek")
		return
	}
	h.runSearch(msg, types.Query{Kind: types.QueryTrainer, Text: query})
}

// HandleQuery обслуживает свободный текст: название тренировки либо
// trainer:/trener:/coach: префикс
func (h *Handler) HandleQuery(msg *tgbotapi.Message) {
	query := types.ParseQuery(msg.Text)
	h.runSearch(msg, query)
}

func (h *Handler) runSearch(msg *tgbotapi.Message, query types.Query) {
	if len([]rune(query.Text)) < 2 {
		h.send(msg.Chat.ID, "Нужна хотя бы пара букв в запросе.")
		return
	}

	if h.Cfg.UseBrowser {
		// Браузерный рендер занимает секунды, предупреждаем
		h.send(msg.Chat.ID, "Секунду, собираю расписание...")
	}

	// Окно недели считается от момента получения сообщения
	now := time.Now().In(h.Cfg.Timezone)
	result := h.Agg.Search(context.Background(), query, now)

	if result.Succeeded == 0 {
		h.send(msg.Chat.ID, "Не удалось загрузить расписание. Проверь ссылки и попробуй еще раз.")
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, formatSearchReply(query, result, h.Cfg.Timezone))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.DisableWebPagePreview = true
	if _, err := h.Bot.Send(reply); err != nil {
		log.Printf("⚠️ Failed to send reply to %d: %v", msg.Chat.ID, err)
	}
}

// HandleDebug - диагностика по клубам: сколько элементов нашлось,
// какой стратегией, какой диапазон дат распарсился
func (h *Handler) HandleDebug(msg *tgbotapi.Message) {
	h.send(msg.Chat.ID, "Секунду, проверяю расписание...")

	now := time.Now().In(h.Cfg.Timezone)
	reports := h.Agg.Inspect(context.Background(), now)
	h.send(msg.Chat.ID, formatDebugReply(reports, h.Cfg.Timezone))
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("⚠️ Failed to send message to %d: %v", chatID, err)
	}
}
