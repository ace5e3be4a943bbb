// Package router classifies inbound updates and routes each one to its
// handler. Handler failures are logged and never propagate: one bad event
// must not take down its siblings or the poll loop.
package router

import (
	"context"
	"log/slog"

	"github.com/user/snowbot/internal/botapi"
)

// API is the platform surface the router needs.
type API interface {
	GetChat(ctx context.Context, chatID int64) (*botapi.Chat, error)
	SendMessage(ctx context.Context, chatID int64, body *botapi.NewMessageBody) error
}

// Processor handles a resolved image request or prompts the user for one.
type Processor interface {
	Process(ctx context.Context, chatID int64, url string)
	SendPrompt(ctx context.Context, chatID int64)
}

// Router dispatches updates by kind.
type Router struct {
	api      API
	pipeline Processor
}

// New creates a Router.
func New(api API, pipeline Processor) *Router {
	return &Router{api: api, pipeline: pipeline}
}

// Dispatch handles a single update. It never returns an error; anything the
// handlers cannot use is logged and dropped.
func (r *Router) Dispatch(ctx context.Context, u botapi.Update) {
	switch u.Type {
	case botapi.UpdateBotStarted:
		r.handleBotStarted(ctx, u)
	case botapi.UpdateMessageCreated:
		r.handleMessageCreated(ctx, u)
	case botapi.UpdateMessageCallback:
		r.handleCallback(ctx, u)
	default:
		slog.Debug("ignoring update", "type", u.Type)
	}
}

// handleBotStarted greets a new chat with its own avatar, or asks for a photo
// when the chat has none.
func (r *Router) handleBotStarted(ctx context.Context, u botapi.Update) {
	if u.ChatID == 0 {
		slog.Error("bot_started without chat_id")
		return
	}
	url := r.avatarURL(ctx, u.ChatID)
	if url == "" {
		r.pipeline.SendPrompt(ctx, u.ChatID)
		return
	}
	r.pipeline.Process(ctx, u.ChatID, url)
}

// handleMessageCreated looks for an image on the message itself, then on its
// linked (forwarded or replied-to) message, and prompts if neither has one.
func (r *Router) handleMessageCreated(ctx context.Context, u botapi.Update) {
	msg := u.Message
	if msg == nil {
		slog.Error("message_created without message")
		return
	}
	chatID, ok := chatIDOf(msg)
	if !ok {
		return
	}

	var url string
	if msg.Body != nil {
		url = imageURL(msg.Body.Attachments)
	}
	if url == "" && msg.Link != nil && msg.Link.Message != nil {
		url = imageURL(msg.Link.Message.Attachments)
	}
	if url == "" {
		r.pipeline.SendPrompt(ctx, chatID)
		return
	}
	r.pipeline.Process(ctx, chatID, url)
}

// handleCallback re-runs the pipeline on the URL carried by the button
// payload. No lookup is needed: the payload round-trips the source URL.
func (r *Router) handleCallback(ctx context.Context, u botapi.Update) {
	if u.Message == nil {
		slog.Error("message_callback without message")
		return
	}
	chatID, ok := chatIDOf(u.Message)
	if !ok {
		return
	}
	if u.Callback == nil || u.Callback.Payload == "" {
		slog.Error("callback without payload", "chat_id", chatID)
		return
	}
	r.pipeline.Process(ctx, chatID, u.Callback.Payload)
}

// avatarURL resolves the chat's icon URL, falling back to the dialog
// partner's full avatar for one-on-one chats. Empty on any failure.
func (r *Router) avatarURL(ctx context.Context, chatID int64) string {
	chat, err := r.api.GetChat(ctx, chatID)
	if err != nil {
		slog.Error("get chat failed", "chat_id", chatID, "error", err)
		return ""
	}
	if chat.Icon != nil && chat.Icon.URL != "" {
		return chat.Icon.URL
	}
	if chat.DialogWithUser != nil {
		return chat.DialogWithUser.FullAvatarURL
	}
	return ""
}

func chatIDOf(msg *botapi.Message) (int64, bool) {
	if msg.Recipient == nil || msg.Recipient.ChatID == 0 {
		slog.Error("message without recipient chat_id")
		return 0, false
	}
	return msg.Recipient.ChatID, true
}

// imageURL returns the first image attachment's URL, scanning in platform
// order.
func imageURL(attachments []botapi.Attachment) string {
	for _, att := range attachments {
		if att.Type != botapi.AttachmentImage {
			continue
		}
		if att.Payload.URL != "" {
			return att.Payload.URL
		}
	}
	return ""
}
