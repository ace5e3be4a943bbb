// Package sender delivers composited photos back to the platform. Each send
// is a background job: upload the file, then send the composed message,
// retrying with a fixed delay while the platform reports the attachment as
// not ready yet.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/user/snowbot/internal/botapi"
)

// API is the platform surface the sender needs.
type API interface {
	GetUploadURL(ctx context.Context, kind botapi.UploadType) (*botapi.UploadEndpoint, error)
	UploadImage(ctx context.Context, uploadURL, path string) (*botapi.PhotoTokens, error)
	SendMessage(ctx context.Context, chatID int64, body *botapi.NewMessageBody) error
}

// Sender runs delivery jobs on a semaphore-bounded pool of goroutines.
// Multiple jobs may be in flight or in retry-wait at once, with no ordering
// guarantee between them.
type Sender struct {
	api         API
	sem         *semaphore.Weighted
	maxAttempts int
	retryDelay  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Defaults matching the platform's attachment processing behavior: half a
// second between attempts, give up after thirty.
const (
	DefaultMaxAttempts = 30
	DefaultRetryDelay  = 500 * time.Millisecond
)

// New creates a Sender with the given concurrency limit, attempt cap, and
// delay between retries.
func New(api API, maxConcurrent int64, maxAttempts int, retryDelay time.Duration) *Sender {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Sender{
		api:         api,
		sem:         semaphore.NewWeighted(maxConcurrent),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Start initialises the sender's context. Must be called before SendPhoto.
func (s *Sender) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
}

// Stop cancels outstanding jobs and waits for them to finish. Jobs parked in
// a retry wait observe the cancellation instead of sleeping it out.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// job is one in-flight delivery.
type job struct {
	id       string
	chatID   int64
	filePath string
	extra    []botapi.AttachmentRequest
}

// SendPhoto enqueues delivery of the file to the chat without blocking the
// caller. Extra attachments (the inline keyboard) ride along on the same
// message.
func (s *Sender) SendPhoto(chatID int64, filePath string, extra ...botapi.AttachmentRequest) {
	j := &job{
		id:       uuid.NewString(),
		chatID:   chatID,
		filePath: filePath,
		extra:    extra,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			slog.Info("delivery cancelled before start", "job_id", j.id, "chat_id", j.chatID)
			return
		}
		defer s.sem.Release(1)
		s.run(j)
	}()
}

// run uploads the file and drives the bounded retry loop. Only "attachment
// not ready" is retried; any other send error is logged and the job ends
// without success.
func (s *Sender) run(j *job) {
	slog.Info("delivering photo", "job_id", j.id, "chat_id", j.chatID, "file", j.filePath)

	tokens := s.upload(j)
	if tokens == nil {
		return
	}

	body := &botapi.NewMessageBody{
		Attachments: append([]botapi.AttachmentRequest{botapi.NewPhotoAttachment(tokens)}, j.extra...),
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.api.SendMessage(s.ctx, j.chatID, body)
		if err == nil {
			slog.Info("photo delivered", "job_id", j.id, "chat_id", j.chatID, "attempts", attempt)
			return
		}
		if !errors.Is(err, botapi.ErrAttachmentNotReady) {
			slog.Error("send failed", "job_id", j.id, "chat_id", j.chatID, "error", err)
			return
		}
		slog.Info("attachment not ready", "job_id", j.id, "chat_id", j.chatID, "attempt", attempt)
		if attempt < s.maxAttempts && !s.wait() {
			slog.Info("delivery cancelled during retry wait", "job_id", j.id, "chat_id", j.chatID)
			return
		}
	}
	slog.Error("too many send errors, giving up", "job_id", j.id, "chat_id", j.chatID, "attempts", s.maxAttempts)
}

func (s *Sender) upload(j *job) *botapi.PhotoTokens {
	endpoint, err := s.api.GetUploadURL(s.ctx, botapi.UploadTypeImage)
	if err != nil {
		slog.Error("get upload url failed", "job_id", j.id, "chat_id", j.chatID, "error", err)
		return nil
	}
	tokens, err := s.api.UploadImage(s.ctx, endpoint.URL, j.filePath)
	if err != nil {
		slog.Error("upload failed", "job_id", j.id, "chat_id", j.chatID, "file", j.filePath, "error", err)
		return nil
	}
	return tokens
}

// wait sleeps for the retry delay, returning false if the sender was stopped
// first.
func (s *Sender) wait() bool {
	select {
	case <-time.After(s.retryDelay):
		return true
	case <-s.ctx.Done():
		return false
	}
}
