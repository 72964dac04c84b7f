package bot

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/washweek/washweek/internal/schedule"
)

const (
	msgStart = "سلام 👋 من ربات رزرو لباس‌شویی هستم.\nیکی از گزینه‌ها رو انتخاب کن:"
	msgHelp  = "دستورها:\n/schedule — وضعیت هفته\n/reserve <روز> <بازه> — رزرو (مثال: /reserve شنبه 1)\n/cancel — لغو رزرو"
	msgUsage = "فرمت: /reserve <روز> <بازه>\nمثال: /reserve شنبه 1"
	msgFull  = "❌ برای این روز بازه‌ی آزادی نمانده."
	msgPick  = "یک روز را انتخاب کن:"
)

// Handler receives Telegram webhook updates and dispatches them to the
// reservation service.
type Handler struct {
	logger   *slog.Logger
	service  *schedule.Service
	sender   Sender
	dedupe   *Deduper
	secret   string
	validate *validator.Validate
}

// NewHandler constructs a Handler instance. The secret is the random
// path segment the webhook was registered under.
func NewHandler(logger *slog.Logger, service *schedule.Service, sender Sender, dedupe *Deduper, secret string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		sender:   sender,
		dedupe:   dedupe,
		secret:   secret,
		validate: validator.New(),
	}
}

// MountRoutes registers the webhook route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{secret}", h.handleUpdate)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	got := chi.URLParam(r, "secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		http.NotFound(w, r)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if h.dedupe.Seen(r.Context(), update.UpdateID) {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Telegram only needs a 2xx; reply delivery failures are logged,
	// never surfaced back as webhook errors.
	h.dispatch(r, update)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) dispatch(r *http.Request, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(r, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(r, update.Message)
	}
}

func (h *Handler) handleMessage(r *http.Request, msg *tgbotapi.Message) {
	ctx := r.Context()
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			if err := h.service.RememberChat(ctx, chatID); err != nil {
				h.logger.Warn("remember chat", slog.Any("error", err))
			}
			h.reply(chatID, msgStart, mainKeyboard())
		case "help":
			h.reply(chatID, msgHelp, nil)
		case "schedule", "days":
			h.reply(chatID, h.service.HandleShowSchedule(ctx), nil)
		case "reserve":
			h.handleReserveCommand(r, msg)
		case "cancel":
			h.reply(chatID, h.service.HandleCancel(ctx, holderID(msg)), nil)
		default:
			h.reply(chatID, msgHelp, nil)
		}
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case btnReserve:
		h.sendDayKeyboard(r, chatID)
	case btnSchedule:
		h.reply(chatID, h.service.HandleShowSchedule(ctx), nil)
	default:
		h.reply(chatID, msgHelp, nil)
	}
}

type reserveArgs struct {
	Day  string `validate:"required"`
	Slot int    `validate:"required,min=1"`
}

func (h *Handler) handleReserveCommand(r *http.Request, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		h.reply(chatID, msgUsage, nil)
		return
	}
	slot, err := strconv.Atoi(fields[1])
	if err != nil {
		h.reply(chatID, msgUsage, nil)
		return
	}
	args := reserveArgs{Day: fields[0], Slot: slot}
	if err := h.validate.Struct(args); err != nil {
		h.reply(chatID, msgUsage, nil)
		return
	}
	// Users count slots from 1, the ledger from 0.
	out := h.service.HandleReserve(r.Context(), args.Day, args.Slot-1, holderName(msg.From), holderID(msg))
	h.reply(chatID, out, nil)
}

func (h *Handler) handleCallback(r *http.Request, query *tgbotapi.CallbackQuery) {
	ctx := r.Context()
	if _, err := h.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.Warn("ack callback", slog.Any("error", err))
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	switch {
	case strings.HasPrefix(query.Data, "day:"):
		day := strings.TrimPrefix(query.Data, "day:")
		h.sendSlotKeyboard(r, chatID, day)
	case strings.HasPrefix(query.Data, "slot:"):
		parts := strings.SplitN(query.Data, ":", 3)
		if len(parts) != 3 {
			return
		}
		slot, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		out := h.service.HandleReserve(ctx, parts[1], slot, holderName(query.From), query.From.ID)
		h.reply(chatID, out, nil)
	}
}

func (h *Handler) sendDayKeyboard(r *http.Request, chatID int64) {
	l, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load ledger for day keyboard", slog.Any("error", err))
		h.reply(chatID, schedule.MsgStoreUnavailable, nil)
		return
	}
	h.reply(chatID, msgPick, dayKeyboard(l))
}

func (h *Handler) sendSlotKeyboard(r *http.Request, chatID int64, day string) {
	l, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("load ledger for slot keyboard", slog.Any("error", err))
		h.reply(chatID, schedule.MsgStoreUnavailable, nil)
		return
	}
	if !schedule.IsValidDay(day) || l.FreeSlots(day) == 0 {
		h.reply(chatID, msgFull, nil)
		return
	}
	h.reply(chatID, "بازه‌ی "+day+" را انتخاب کن:", slotKeyboard(day, l))
}

func (h *Handler) reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := h.sender.Send(msg); err != nil {
		h.logger.Warn("send reply", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func holderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func holderName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
