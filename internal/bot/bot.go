// Package bot routes inbound Telegram events through the rate-limit
// gate into the resolve/choose/deliver flow. Conversation state lives in
// message identifiers and callback payloads, never on the server: Idle →
// options menu shown (AwaitingChoice) → download running (Delivering) →
// Idle again, with every failure path landing back at Idle.
package bot

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"github.com/tikgrab/tikgrab/internal/messages"
	"github.com/tikgrab/tikgrab/internal/metrics"
	"github.com/tikgrab/tikgrab/internal/tiktok"
)

type Config struct {
	// Username is shown in delivered-media captions, with the @.
	Username string
	// HelpURL and RateURL back the welcome message's URL buttons.
	HelpURL string
	RateURL string
	// HandlerTimeout bounds the handling of one inbound event.
	HandlerTimeout time.Duration
}

type Bot struct {
	log      Logger
	tg       Telegram
	resolver Resolver
	limiter  Limiter
	msgs     *messages.Catalog
	payloads *payloadRegistry
	cfg      Config
}

func New(
	log Logger,
	tg Telegram,
	resolver Resolver,
	limiter Limiter,
	msgs *messages.Catalog,
	cfg Config,
) *Bot {
	if cfg.HandlerTimeout == 0 {
		cfg.HandlerTimeout = 1 * time.Minute
	}
	return &Bot{
		log:      log,
		tg:       tg,
		resolver: resolver,
		limiter:  limiter,
		msgs:     msgs,
		payloads: newPayloadRegistry(),
		cfg:      cfg,
	}
}

// Run consumes updates until the channel closes or the context ends.
// Each update gets its own goroutine and deadline; users are isolated
// from each other's slow downloads.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	b.payloads.startJanitor(ctx, 10*time.Minute)
	b.log.InfoContext(ctx, "bot is running")

	for {
		select {
		case <-ctx.Done():
			b.log.Info("shutdown signal received")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.HandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.log.ErrorContext(ctx, "panic handling update", "panic", r, "update_id", update.UpdateID)
			if update.CallbackQuery != nil {
				b.answerAlert(ctx, update.CallbackQuery.ID, "internal error")
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		metrics.UpdatesTotal.WithLabelValues("command").Inc()
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		metrics.UpdatesTotal.WithLabelValues("text").Inc()
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	loc := b.locale(msg.Text, msg.From)
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		if !b.gate(ctx, userID) {
			b.sendHTML(ctx, msg.Chat.ID, b.msgs.Get(loc, messages.RateLimited))
			return
		}
		welcome := tgbotapi.NewMessage(msg.Chat.ID, b.msgs.Get(loc, messages.Welcome))
		welcome.ParseMode = tgbotapi.ModeHTML
		welcome.ReplyMarkup = b.welcomeKeyboard()
		b.send(ctx, welcome)

	case "help":
		b.sendHTML(ctx, msg.Chat.ID, b.msgs.Get(loc, messages.Help))

	case "stats":
		used, remaining := b.limiter.UsageInfo(ctx, userID)
		b.sendHTML(ctx, msg.Chat.ID, b.msgs.Getf(loc, messages.Stats, userID, used, remaining))
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	loc := b.locale(msg.Text, msg.From)

	if !b.gate(ctx, msg.From.ID) {
		b.sendHTML(ctx, msg.Chat.ID, b.msgs.Get(loc, messages.RateLimited))
		return
	}

	url, ok := tiktok.ExtractURL(msg.Text)
	if !ok {
		id := messages.Usage
		if tiktok.MentionsTikTok(msg.Text) {
			id = messages.InvalidLink
		}
		b.replyHTML(ctx, msg.Chat.ID, msg.MessageID, b.msgs.Get(loc, id))
		return
	}

	placeholder := tgbotapi.NewMessage(msg.Chat.ID, b.msgs.Get(loc, messages.Processing))
	placeholder.ParseMode = tgbotapi.ModeHTML
	placeholder.ReplyToMessageID = msg.MessageID
	menu, err := b.tg.Send(placeholder)
	if err != nil {
		b.log.ErrorContext(ctx, "sending processing message", "error", err, "chat_id", msg.Chat.ID)
		return
	}

	b.chatAction(ctx, msg.Chat.ID, "upload_photo")

	start := time.Now()
	content, err := b.resolver.Resolve(ctx, url)
	observeUpstream("info", start, err)
	if err != nil {
		b.log.WarnContext(ctx, "resolving url", "error", err, "url", url)
		b.editText(ctx, msg.Chat.ID, menu.MessageID, b.msgs.Getf(loc, messages.ResolveFailed, reason(err)))
		return
	}

	keyboard, any := b.formatKeyboard(loc, content, url)
	if !any {
		b.editText(ctx, msg.Chat.ID, menu.MessageID, b.msgs.Get(loc, messages.NoMedia))
		return
	}

	media := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(content.Cover))
	media.Caption = b.previewCaption(loc, content)
	media.ParseMode = tgbotapi.ModeHTML

	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      msg.Chat.ID,
			MessageID:   menu.MessageID,
			ReplyMarkup: &keyboard,
		},
		Media: media,
	}
	if _, err := b.tg.Request(edit); err != nil {
		b.log.ErrorContext(ctx, "attaching options menu", "error", err, "chat_id", msg.Chat.ID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	loc := b.locale("", cq.From)

	if !b.gate(ctx, cq.From.ID) {
		b.answerAlert(ctx, cq.ID, b.msgs.Get(loc, messages.RateLimitAlert))
		return
	}

	kind, url, err := b.payloads.decode(cq.Data)
	if errors.Is(err, ErrMenuExpired) {
		b.answerAlert(ctx, cq.ID, b.msgs.Get(loc, messages.MenuExpired))
		return
	}
	if err != nil {
		b.log.WarnContext(ctx, "unrecognized callback payload", "data", cq.Data, "user_id", cq.From.ID)
		b.answer(ctx, cq.ID)
		return
	}

	if cq.Message == nil {
		b.answerAlert(ctx, cq.ID, b.msgs.Get(loc, messages.MenuExpired))
		return
	}

	b.answer(ctx, cq.ID)
	b.deliver(ctx, loc, cq, kind, url)
}

// deliver runs the Delivering leg: menu caption shows progress, the
// asset goes out as fresh messages, and the menu is removed on success.
func (b *Bot) deliver(ctx context.Context, loc messages.Locale, cq *tgbotapi.CallbackQuery, kind tiktok.MediaKind, url string) {
	chatID := cq.Message.Chat.ID
	menuID := cq.Message.MessageID

	b.editCaption(ctx, chatID, menuID, b.msgs.Get(loc, messages.Downloading))
	b.chatAction(ctx, chatID, kind.ChatAction())

	start := time.Now()
	asset, err := b.resolver.Download(ctx, url, kind)
	observeUpstream("download", start, err)
	if err == nil && !deliverable(kind, asset) {
		err = &tiktok.APIError{Reason: "no media returned"}
	}
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues(string(kind), "error").Inc()
		b.log.WarnContext(ctx, "download failed", "error", err, "kind", kind, "url", url)
		b.editCaption(ctx, chatID, menuID, b.msgs.Getf(loc, messages.DownloadFailed, reason(err)))
		return
	}

	b.editCaption(ctx, chatID, menuID, b.msgs.Get(loc, messages.Delivered))

	if err := b.sendAsset(ctx, loc, chatID, kind, asset); err != nil {
		metrics.DeliveriesTotal.WithLabelValues(string(kind), "error").Inc()
		b.log.ErrorContext(ctx, "sending media", "error", err, "kind", kind, "chat_id", chatID)
		b.editCaption(ctx, chatID, menuID, b.msgs.Get(loc, messages.SendFailed))
		return
	}
	metrics.DeliveriesTotal.WithLabelValues(string(kind), "ok").Inc()

	// Best effort: the menu may have aged past Telegram's delete window.
	if _, err := b.tg.Request(tgbotapi.NewDeleteMessage(chatID, menuID)); err != nil {
		b.log.InfoContext(ctx, "could not delete menu message", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) sendAsset(ctx context.Context, loc messages.Locale, chatID int64, kind tiktok.MediaKind, asset tiktok.Asset) error {
	caption := b.msgs.Getf(loc, messages.MediaCaption, b.cfg.Username)

	switch kind {
	case tiktok.KindVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(asset.URL))
		video.Caption = caption
		video.ParseMode = tgbotapi.ModeHTML
		video.SupportsStreaming = true
		_, err := b.tg.Send(video)
		return err

	case tiktok.KindAudio:
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(asset.URL))
		audio.Caption = caption
		audio.ParseMode = tgbotapi.ModeHTML
		_, err := b.tg.Send(audio)
		return err

	default:
		// Photo gallery: the caption rides on the first item only.
		media := lo.Map(asset.Photos, func(url string, i int) any {
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(url))
			if i == 0 {
				photo.Caption = caption
				photo.ParseMode = tgbotapi.ModeHTML
			}
			return photo
		})
		_, err := b.tg.SendMediaGroup(tgbotapi.MediaGroupConfig{ChatID: chatID, Media: media})
		return err
	}
}

// deliverable reports whether the asset has anything to send; an empty
// result is the caller's failure, not the API client's.
func deliverable(kind tiktok.MediaKind, asset tiktok.Asset) bool {
	if kind == tiktok.KindPhotos {
		return len(asset.Photos) > 0
	}
	return asset.URL != ""
}

func (b *Bot) gate(ctx context.Context, userID int64) bool {
	if b.limiter.CheckAndRecord(ctx, userID) {
		return true
	}
	metrics.RateLimitHits.Inc()
	return false
}

// locale picks the reply language from the message text, falling back
// to the sender's display name when there is no text to inspect.
func (b *Bot) locale(text string, from *tgbotapi.User) messages.Locale {
	if text == "" && from != nil {
		text = from.FirstName
	}
	return b.msgs.Pick(text)
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		b.log.ErrorContext(ctx, "sending message", "error", err)
	}
}

func (b *Bot) sendHTML(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(ctx, msg)
}

func (b *Bot) replyHTML(ctx context.Context, chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo
	b.send(ctx, msg)
}

func (b *Bot) editText(ctx context.Context, chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.tg.Request(edit); err != nil {
		b.log.ErrorContext(ctx, "editing message text", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) editCaption(ctx context.Context, chatID int64, messageID int, caption string) {
	edit := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.tg.Request(edit); err != nil {
		b.log.ErrorContext(ctx, "editing message caption", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) chatAction(ctx context.Context, chatID int64, action string) {
	if _, err := b.tg.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.log.WarnContext(ctx, "sending chat action", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) answer(ctx context.Context, callbackID string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.log.WarnContext(ctx, "answering callback", "error", err)
	}
}

func (b *Bot) answerAlert(ctx context.Context, callbackID, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		b.log.WarnContext(ctx, "answering callback with alert", "error", err)
	}
}

// reason extracts the user-facing reason from an upstream failure.
func reason(err error) string {
	var apiErr *tiktok.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}
	return err.Error()
}

func observeUpstream(endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.UpstreamCallsTotal.WithLabelValues(endpoint, result).Inc()
	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
