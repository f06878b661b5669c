package bot

import (
	"html"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"github.com/tikgrab/tikgrab/internal/messages"
	"github.com/tikgrab/tikgrab/internal/tiktok"
)

type formatOption struct {
	kind    tiktok.MediaKind
	label   messages.ID
	present bool
}

// formatKeyboard builds one button row per downloadable format, each
// carrying a payload that recovers (kind, url) when pressed.
func (b *Bot) formatKeyboard(loc messages.Locale, content tiktok.Content, url string) (tgbotapi.InlineKeyboardMarkup, bool) {
	options := []formatOption{
		{kind: tiktok.KindAudio, label: messages.ButtonAudio, present: content.HasAudio},
		{kind: tiktok.KindVideo, label: messages.ButtonVideo, present: content.HasVideo},
		{kind: tiktok.KindPhotos, label: messages.ButtonPhotos, present: content.HasPhotos},
	}

	rows := lo.FilterMap(options, func(o formatOption, _ int) ([]tgbotapi.InlineKeyboardButton, bool) {
		if !o.present {
			return nil, false
		}
		button := tgbotapi.NewInlineKeyboardButtonData(b.msgs.Get(loc, o.label), b.payloads.encode(o.kind, url))
		return tgbotapi.NewInlineKeyboardRow(button), true
	})

	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) previewCaption(loc messages.Locale, content tiktok.Content) string {
	contentType := b.msgs.Get(loc, messages.ContentOther)
	switch {
	case content.HasVideo:
		contentType = b.msgs.Get(loc, messages.ContentVideo)
	case content.HasPhotos:
		contentType = b.msgs.Get(loc, messages.ContentPhotos)
	}

	author := content.Author
	if author == "" {
		author = "Unknown"
	}

	return b.msgs.Getf(loc, messages.PreviewCaption,
		contentType,
		html.EscapeString(author),
		groupDigits(content.Likes),
		groupDigits(content.Views),
		groupDigits(content.Comments),
	)
}

func (b *Bot) welcomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📖 How to Use", b.cfg.HelpURL),
			tgbotapi.NewInlineKeyboardButtonURL("🌟 Rate Bot", b.cfg.RateURL),
		),
	)
}

// groupDigits renders n with comma thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	start := 0
	if s[0] == '-' {
		start = 1
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	out = append(out, s[:start]...)
	for i := start; i < len(s); i++ {
		if i > start && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
