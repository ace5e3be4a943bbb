package router

import (
	"context"
	"errors"
	"testing"

	"github.com/user/snowbot/internal/botapi"
)

type fakeAPI struct {
	chat    *botapi.Chat
	chatErr error
	texts   []string
}

func (f *fakeAPI) GetChat(ctx context.Context, chatID int64) (*botapi.Chat, error) {
	return f.chat, f.chatErr
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID int64, body *botapi.NewMessageBody) error {
	f.texts = append(f.texts, body.Text)
	return nil
}

type fakePipeline struct {
	processed []string
	chatIDs   []int64
	prompts   []int64
}

func (f *fakePipeline) Process(ctx context.Context, chatID int64, url string) {
	f.processed = append(f.processed, url)
	f.chatIDs = append(f.chatIDs, chatID)
}

func (f *fakePipeline) SendPrompt(ctx context.Context, chatID int64) {
	f.prompts = append(f.prompts, chatID)
}

func messageWith(chatID int64, attachments ...botapi.Attachment) *botapi.Message {
	return &botapi.Message{
		Recipient: &botapi.Recipient{ChatID: chatID},
		Body:      &botapi.MessageBody{Attachments: attachments},
	}
}

func imageAttachment(url string) botapi.Attachment {
	return botapi.Attachment{Type: botapi.AttachmentImage, Payload: botapi.AttachmentPayload{URL: url}}
}

func TestDispatchBotStartedWithAvatar(t *testing.T) {
	api := &fakeAPI{chat: &botapi.Chat{Icon: &botapi.Image{URL: "https://a/icon.jpg"}}}
	pl := &fakePipeline{}
	r := New(api, pl)

	r.Dispatch(context.Background(), botapi.Update{Type: botapi.UpdateBotStarted, ChatID: 5})

	if len(pl.processed) != 1 || pl.processed[0] != "https://a/icon.jpg" {
		t.Errorf("expected avatar processed, got %v", pl.processed)
	}
	if pl.chatIDs[0] != 5 {
		t.Errorf("expected chat 5, got %d", pl.chatIDs[0])
	}
}

func TestDispatchBotStartedAvatarFallback(t *testing.T) {
	api := &fakeAPI{chat: &botapi.Chat{
		DialogWithUser: &botapi.UserWithPhoto{FullAvatarURL: "https://a/full.jpg"},
	}}
	pl := &fakePipeline{}
	r := New(api, pl)

	r.Dispatch(context.Background(), botapi.Update{Type: botapi.UpdateBotStarted, ChatID: 5})

	if len(pl.processed) != 1 || pl.processed[0] != "https://a/full.jpg" {
		t.Errorf("expected dialog partner avatar, got %v", pl.processed)
	}
}

func TestDispatchBotStartedNoAvatarPrompts(t *testing.T) {
	api := &fakeAPI{chat: &botapi.Chat{}}
	pl := &fakePipeline{}
	r := New(api, pl)

	r.Dispatch(context.Background(), botapi.Update{Type: botapi.UpdateBotStarted, ChatID: 5})

	if len(pl.processed) != 0 {
		t.Errorf("expected nothing processed, got %v", pl.processed)
	}
	if len(pl.prompts) != 1 || pl.prompts[0] != 5 {
		t.Errorf("expected prompt to chat 5, got %v", pl.prompts)
	}
}

func TestDispatchBotStartedChatLookupFails(t *testing.T) {
	api := &fakeAPI{chatErr: errors.New("boom")}
	pl := &fakePipeline{}
	r := New(api, pl)

	r.Dispatch(context.Background(), botapi.Update{Type: botapi.UpdateBotStarted, ChatID: 5})

	if len(pl.prompts) != 1 {
		t.Errorf("expected prompt after failed chat lookup, got %v", pl.prompts)
	}
}

func TestDispatchMessageWithImage(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	r.Dispatch(context.Background(), botapi.Update{
		Type:    botapi.UpdateMessageCreated,
		Message: messageWith(7, imageAttachment("https://x/y.jpg")),
	})

	if len(pl.processed) != 1 || pl.processed[0] != "https://x/y.jpg" {
		t.Errorf("expected image processed, got %v", pl.processed)
	}
}

func TestDispatchMessageFirstImageWins(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	r.Dispatch(context.Background(), botapi.Update{
		Type: botapi.UpdateMessageCreated,
		Message: messageWith(7,
			botapi.Attachment{Type: "audio"},
			imageAttachment("https://x/first.jpg"),
			imageAttachment("https://x/second.jpg"),
		),
	})

	if len(pl.processed) != 1 || pl.processed[0] != "https://x/first.jpg" {
		t.Errorf("expected first image in platform order, got %v", pl.processed)
	}
}

func TestDispatchMessageLinkedImageFallback(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	msg := messageWith(7)
	msg.Link = &botapi.LinkedMessage{
		Type:    "forward",
		Message: &botapi.MessageBody{Attachments: []botapi.Attachment{imageAttachment("https://x/linked.jpg")}},
	}
	r.Dispatch(context.Background(), botapi.Update{Type: botapi.UpdateMessageCreated, Message: msg})

	if len(pl.processed) != 1 || pl.processed[0] != "https://x/linked.jpg" {
		t.Errorf("expected linked image processed, got %v", pl.processed)
	}
}

func TestDispatchMessageNoImagePrompts(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	msg := messageWith(7, botapi.Attachment{Type: "sticker"})
	msg.Link = &botapi.LinkedMessage{Message: &botapi.MessageBody{}}
	r.Dispatch(context.Background(), botapi.Update{Type: botapi.UpdateMessageCreated, Message: msg})

	if len(pl.processed) != 0 {
		t.Errorf("expected nothing processed, got %v", pl.processed)
	}
	if len(pl.prompts) != 1 || pl.prompts[0] != 7 {
		t.Errorf("expected prompt to chat 7, got %v", pl.prompts)
	}
}

func TestDispatchMessageWithoutRecipientDropped(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	r.Dispatch(context.Background(), botapi.Update{
		Type:    botapi.UpdateMessageCreated,
		Message: &botapi.Message{Body: &botapi.MessageBody{}},
	})

	if len(pl.processed) != 0 || len(pl.prompts) != 0 {
		t.Error("message without recipient must be dropped silently")
	}
}

func TestDispatchCallback(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	r.Dispatch(context.Background(), botapi.Update{
		Type:     botapi.UpdateMessageCallback,
		Message:  messageWith(9),
		Callback: &botapi.Callback{Payload: "https://x/y.jpg"},
	})

	if len(pl.processed) != 1 || pl.processed[0] != "https://x/y.jpg" {
		t.Errorf("expected callback payload processed as URL, got %v", pl.processed)
	}
	if pl.chatIDs[0] != 9 {
		t.Errorf("expected chat 9, got %d", pl.chatIDs[0])
	}
}

func TestDispatchCallbackEmptyPayloadDropped(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	r.Dispatch(context.Background(), botapi.Update{
		Type:     botapi.UpdateMessageCallback,
		Message:  messageWith(9),
		Callback: &botapi.Callback{},
	})

	if len(pl.processed) != 0 || len(pl.prompts) != 0 {
		t.Error("empty callback payload must be dropped")
	}
}

func TestDispatchUnknownTypeIgnored(t *testing.T) {
	pl := &fakePipeline{}
	r := New(&fakeAPI{}, pl)

	r.Dispatch(context.Background(), botapi.Update{Type: "user_added"})

	if len(pl.processed) != 0 || len(pl.prompts) != 0 {
		t.Error("unknown update type must be ignored")
	}
}
