// Package pipeline orchestrates one photo request end to end: fetch the
// source image, composite a random overlay onto it, and hand the result to
// the sender, keeping the user informed along the way.
package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/user/snowbot/internal/botapi"
	"github.com/user/snowbot/internal/overlay"
)

// User-facing texts, unchanged from the original bot.
const (
	TextSendPhoto = "Что бы применить магию на фото - просто пришли мне его"
	TextWorking   = "Начинаю колдовать..."
	TextError     = "Возникла ошибка. Попробуйте позже"
	TextMore      = "Другой вариант"
)

// Messenger sends plain messages to a chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, body *botapi.NewMessageBody) error
}

// Fetcher resolves a URL to a local file path; a missing file signals failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Composer draws an overlay asset over a local photo.
type Composer interface {
	Compose(backgroundPath string, asset overlay.Asset) (string, error)
}

// PhotoSender delivers a composited photo in the background.
type PhotoSender interface {
	SendPhoto(chatID int64, filePath string, extra ...botapi.AttachmentRequest)
}

// Pipeline processes resolved (chatID, sourceURL) requests.
type Pipeline struct {
	api      Messenger
	fetcher  Fetcher
	composer Composer
	sender   PhotoSender
	assets   []overlay.Asset

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// New creates a Pipeline. A nil rng gets a time-seeded one; tests inject a
// fixed seed.
func New(api Messenger, fetcher Fetcher, composer Composer, sender PhotoSender, assets []overlay.Asset, rng *rand.Rand) *Pipeline {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pipeline{
		api:      api,
		fetcher:  fetcher,
		composer: composer,
		sender:   sender,
		assets:   assets,
		rng:      rng,
	}
}

// Process runs fetch, compose and send for one request. Every failure is
// terminal for the request: the user gets the prompt or error text and no
// retry happens here. The outgoing photo carries one callback button whose
// payload is the original source URL, so "try another" re-enters this
// pipeline with a fresh random overlay and a warm download cache.
func (p *Pipeline) Process(ctx context.Context, chatID int64, url string) {
	path := p.fetcher.Fetch(ctx, url)
	if _, err := os.Stat(path); err != nil {
		slog.Info("no usable source image", "chat_id", chatID, "url", url)
		p.SendPrompt(ctx, chatID)
		return
	}

	p.sendText(ctx, chatID, TextWorking)

	asset := p.pick()
	out, err := p.composer.Compose(path, asset)
	if err != nil {
		slog.Error("compose failed", "chat_id", chatID, "asset", asset.Name, "error", err)
		p.sendText(ctx, chatID, TextError)
		return
	}
	slog.Info("composed photo", "chat_id", chatID, "asset", asset.Name, "file", out)

	keyboard := botapi.NewCallbackKeyboard(TextMore, url, botapi.IntentPositive)
	p.sender.SendPhoto(chatID, out, keyboard)
}

// SendPrompt asks the user for a photo.
func (p *Pipeline) SendPrompt(ctx context.Context, chatID int64) {
	p.sendText(ctx, chatID, TextSendPhoto)
}

func (p *Pipeline) pick() overlay.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return overlay.Pick(p.rng, p.assets)
}

// sendText is best-effort; failures are logged, never propagated.
func (p *Pipeline) sendText(ctx context.Context, chatID int64, text string) {
	if err := p.api.SendMessage(ctx, chatID, &botapi.NewMessageBody{Text: text}); err != nil {
		slog.Error("send text failed", "chat_id", chatID, "error", err)
	}
}
