package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tikgrab/tikgrab/internal/messages"
	"github.com/tikgrab/tikgrab/internal/tiktok"
)

// Mock implementations

type MockTelegram struct {
	mock.Mock
}

func (m *MockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	ret := m.Called(c)
	return ret.Get(0).(tgbotapi.Message), ret.Error(1)
}

func (m *MockTelegram) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	ret := m.Called(config)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]tgbotapi.Message), ret.Error(1)
}

func (m *MockTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	ret := m.Called(c)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*tgbotapi.APIResponse), ret.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, url string) (tiktok.Content, error) {
	ret := m.Called(ctx, url)
	return ret.Get(0).(tiktok.Content), ret.Error(1)
}

func (m *MockResolver) Download(ctx context.Context, url string, kind tiktok.MediaKind) (tiktok.Asset, error) {
	ret := m.Called(ctx, url, kind)
	return ret.Get(0).(tiktok.Asset), ret.Error(1)
}

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) CheckAndRecord(ctx context.Context, userID int64) bool {
	ret := m.Called(ctx, userID)
	return ret.Bool(0)
}

func (m *MockLimiter) UsageInfo(ctx context.Context, userID int64) (used, remaining int64) {
	ret := m.Called(ctx, userID)
	return ret.Get(0).(int64), ret.Get(1).(int64)
}

func newTestBot(tg Telegram, resolver Resolver, limiter Limiter) *Bot {
	log := NewLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(log, tg, resolver, limiter, messages.New(""), Config{
		Username: "@tikgrab_bot",
		HelpURL:  "https://example.com/help",
		RateURL:  "https://example.com/rate",
	})
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 5,
		From:      &tgbotapi.User{ID: 1, FirstName: "Alice"},
		Chat:      &tgbotapi.Chat{ID: 10},
		Text:      text,
	}
}

func commandMessage(command string) *tgbotapi.Message {
	msg := textMessage("/" + command)
	msg.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command) + 1},
	}
	return msg
}

func TestHandleText(t *testing.T) {
	ctx := context.Background()

	t.Run("rate limited user gets the limit message", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(false)
		mockTG.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
			return strings.Contains(c.Text, "Too many requests")
		})).Return(tgbotapi.Message{}, nil)

		bot.handleText(ctx, textMessage("https://vm.tiktok.com/ZMabc123/"))

		mockTG.AssertExpectations(t)
		mockResolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("unrelated chatter gets usage help", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
			return c.ReplyToMessageID == 5 && strings.Contains(c.Text, "Please send a TikTok link")
		})).Return(tgbotapi.Message{}, nil)

		bot.handleText(ctx, textMessage("hello there"))

		mockTG.AssertExpectations(t)
	})

	t.Run("broken tiktok link gets the invalid-link message", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
			return strings.Contains(c.Text, "Invalid TikTok link")
		})).Return(tgbotapi.Message{}, nil)

		bot.handleText(ctx, textMessage("look at tiktok.com/broken"))

		mockTG.AssertExpectations(t)
	})

	t.Run("resolve failure edits the placeholder with the reason", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 77}, nil)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Resolve", mock.Anything, "https://vm.tiktok.com/ZMabc123/").
			Return(tiktok.Content{}, &tiktok.APIError{Reason: "video is private"})

		bot.handleText(ctx, textMessage("https://vm.tiktok.com/ZMabc123/"))

		mockTG.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.EditMessageTextConfig) bool {
			return c.MessageID == 77 && strings.Contains(c.Text, "video is private")
		}))
	})

	t.Run("content without media edits the placeholder and shows no buttons", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 77}, nil)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Resolve", mock.Anything, mock.Anything).
			Return(tiktok.Content{Author: "creator"}, nil)

		bot.handleText(ctx, textMessage("https://vm.tiktok.com/ZMabc123/"))

		mockTG.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.EditMessageTextConfig) bool {
			return c.MessageID == 77 && strings.Contains(c.Text, "No downloadable media")
		}))
		mockTG.AssertNotCalled(t, "Request", mock.AnythingOfType("tgbotapi.EditMessageMediaConfig"))
	})

	t.Run("resolved content becomes a preview with one button per format", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 77}, nil)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Resolve", mock.Anything, mock.Anything).
			Return(tiktok.Content{
				HasVideo: true,
				HasAudio: true,
				Cover:    "https://cdn.example.com/cover.jpg",
				Author:   "creator <3",
				Likes:    1234567,
				Views:    89,
			}, nil)

		bot.handleText(ctx, textMessage("https://vm.tiktok.com/ZMabc123/"))

		mockTG.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.EditMessageMediaConfig) bool {
			photo, ok := c.Media.(tgbotapi.InputMediaPhoto)
			if !ok || c.MessageID != 77 || len(c.ReplyMarkup.InlineKeyboard) != 2 {
				return false
			}
			return strings.Contains(photo.Caption, "creator &lt;3") &&
				strings.Contains(photo.Caption, "1,234,567")
		}))
	})
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("start sends the welcome with link buttons", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
			markup, ok := c.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
			return ok && strings.Contains(c.Text, "Welcome") &&
				len(markup.InlineKeyboard) == 1 && len(markup.InlineKeyboard[0]) == 2
		})).Return(tgbotapi.Message{}, nil)

		bot.handleCommand(ctx, commandMessage("start"))

		mockTG.AssertExpectations(t)
	})

	t.Run("stats reports usage without gating", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("UsageInfo", mock.Anything, int64(1)).Return(int64(12), int64(48))
		mockTG.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
			return strings.Contains(c.Text, "12") && strings.Contains(c.Text, "48")
		})).Return(tgbotapi.Message{}, nil)

		bot.handleCommand(ctx, commandMessage("stats"))

		mockTG.AssertExpectations(t)
		mockLimiter.AssertNotCalled(t, "CheckAndRecord", mock.Anything, mock.Anything)
	})
}

func callbackQuery(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: 1, FirstName: "Alice"},
		Message: &tgbotapi.Message{
			MessageID: 77,
			Chat:      &tgbotapi.Chat{ID: 10},
		},
		Data: data,
	}
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("video choice downloads and delivers", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		url := "https://vm.tiktok.com/ZMabc123/"
		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Download", mock.Anything, url, tiktok.KindVideo).
			Return(tiktok.Asset{URL: "https://cdn.example.com/clip.mp4"}, nil)
		mockTG.On("Send", mock.MatchedBy(func(c tgbotapi.VideoConfig) bool {
			return c.SupportsStreaming && strings.Contains(c.Caption, "@tikgrab_bot")
		})).Return(tgbotapi.Message{MessageID: 80}, nil)

		bot.handleCallback(ctx, callbackQuery(bot.payloads.encode(tiktok.KindVideo, url)))

		mockTG.AssertExpectations(t)
		mockResolver.AssertExpectations(t)
		mockTG.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.DeleteMessageConfig) bool {
			return c.MessageID == 77
		}))
	})

	t.Run("photo choice goes out as a media group", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		url := "https://vm.tiktok.com/ZMabc123/"
		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Download", mock.Anything, url, tiktok.KindPhotos).
			Return(tiktok.Asset{Photos: []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}}, nil)
		mockTG.On("SendMediaGroup", mock.MatchedBy(func(c tgbotapi.MediaGroupConfig) bool {
			if len(c.Media) != 2 {
				return false
			}
			first := c.Media[0].(tgbotapi.InputMediaPhoto)
			second := c.Media[1].(tgbotapi.InputMediaPhoto)
			return first.Caption != "" && second.Caption == ""
		})).Return([]tgbotapi.Message{{MessageID: 80}, {MessageID: 81}}, nil)

		bot.handleCallback(ctx, callbackQuery(bot.payloads.encode(tiktok.KindPhotos, url)))

		mockTG.AssertExpectations(t)
	})

	t.Run("download failure keeps the menu and shows the reason", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		url := "https://vm.tiktok.com/ZMabc123/"
		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Download", mock.Anything, url, tiktok.KindVideo).
			Return(tiktok.Asset{}, &tiktok.APIError{Reason: "upstream timeout"})

		bot.handleCallback(ctx, callbackQuery(bot.payloads.encode(tiktok.KindVideo, url)))

		mockTG.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.EditMessageCaptionConfig) bool {
			return strings.Contains(c.Caption, "upstream timeout")
		}))
		mockTG.AssertNotCalled(t, "Request", mock.AnythingOfType("tgbotapi.DeleteMessageConfig"))
		mockTG.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("empty download result counts as a failure", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		url := "https://vm.tiktok.com/ZMabc123/"
		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)
		mockResolver.On("Download", mock.Anything, url, tiktok.KindPhotos).
			Return(tiktok.Asset{}, nil)

		bot.handleCallback(ctx, callbackQuery(bot.payloads.encode(tiktok.KindPhotos, url)))

		mockTG.AssertCalled(t, "Request", mock.MatchedBy(func(c tgbotapi.EditMessageCaptionConfig) bool {
			return strings.Contains(c.Caption, "no media returned")
		}))
		mockTG.AssertNotCalled(t, "SendMediaGroup", mock.Anything)
	})

	t.Run("rate limited press gets an alert and no download", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(false)
		mockTG.On("Request", mock.MatchedBy(func(c tgbotapi.CallbackConfig) bool {
			return c.ShowAlert && strings.Contains(c.Text, "Too many requests")
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil)

		bot.handleCallback(ctx, callbackQuery("tt_dl:video:aGk="))

		mockTG.AssertExpectations(t)
		mockResolver.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired menu reference gets the expired alert", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Request", mock.MatchedBy(func(c tgbotapi.CallbackConfig) bool {
			return c.ShowAlert && strings.Contains(c.Text, "expired")
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil)

		bot.handleCallback(ctx, callbackQuery("tt_dl:video:#gone123456"))

		mockTG.AssertExpectations(t)
		mockResolver.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is answered silently", func(t *testing.T) {
		mockTG := new(MockTelegram)
		mockResolver := new(MockResolver)
		mockLimiter := new(MockLimiter)
		bot := newTestBot(mockTG, mockResolver, mockLimiter)

		mockLimiter.On("CheckAndRecord", mock.Anything, int64(1)).Return(true)
		mockTG.On("Request", mock.MatchedBy(func(c tgbotapi.CallbackConfig) bool {
			return !c.ShowAlert && c.Text == ""
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil)

		bot.handleCallback(ctx, callbackQuery("someone_elses:payload"))

		mockTG.AssertExpectations(t)
		mockResolver.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLocalePick(t *testing.T) {
	bot := newTestBot(new(MockTelegram), new(MockResolver), new(MockLimiter))

	assert.Equal(t, messages.English, bot.locale("hello", &tgbotapi.User{FirstName: "Alice"}))
	assert.Equal(t, messages.Burmese, bot.locale("ဗီဒီယို ပေးပါ", &tgbotapi.User{FirstName: "Alice"}))
	assert.Equal(t, messages.Burmese, bot.locale("", &tgbotapi.User{FirstName: "မောင်မောင်"}))
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", groupDigits(0))
	assert.Equal(t, "999", groupDigits(999))
	assert.Equal(t, "1,000", groupDigits(1000))
	assert.Equal(t, "1,234,567", groupDigits(1234567))
	assert.Equal(t, "-12,345", groupDigits(-12345))
}
