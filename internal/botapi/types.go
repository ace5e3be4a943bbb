package botapi

// Update kinds delivered by the platform. Kinds not listed here are carried
// through with their raw type string and ignored by the router.
const (
	UpdateBotStarted      = "bot_started"
	UpdateMessageCreated  = "message_created"
	UpdateMessageCallback = "message_callback"
)

// AttachmentImage is the attachment type carrying a photo URL.
const AttachmentImage = "image"

// UploadType selects the kind of upload endpoint requested from the platform.
type UploadType string

const UploadTypeImage UploadType = "image"

// Update is one platform notification. Which fields are populated depends on
// Type: bot_started carries ChatID, message_created carries Message, and
// message_callback carries both Message and Callback.
type Update struct {
	Type      string    `json:"update_type"`
	Timestamp int64     `json:"timestamp"`
	ChatID    int64     `json:"chat_id,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Callback  *Callback `json:"callback,omitempty"`
}

// UpdateList is the long-poll response: a batch of updates plus the marker to
// pass on the next poll.
type UpdateList struct {
	Updates []Update `json:"updates"`
	Marker  *int64   `json:"marker,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	Recipient *Recipient     `json:"recipient,omitempty"`
	Body      *MessageBody   `json:"body,omitempty"`
	Link      *LinkedMessage `json:"link,omitempty"`
}

// Recipient identifies the chat a message belongs to.
type Recipient struct {
	ChatID int64 `json:"chat_id"`
}

// MessageBody holds message content.
type MessageBody struct {
	MID         string       `json:"mid,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// LinkedMessage is a forwarded or replied-to message referenced by another.
type LinkedMessage struct {
	Type    string       `json:"type,omitempty"`
	Message *MessageBody `json:"message,omitempty"`
}

// Attachment is one message attachment. Only image attachments carry a
// payload URL the bot cares about.
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload carries the attachment content reference.
type AttachmentPayload struct {
	URL string `json:"url,omitempty"`
}

// Callback is the payload of an inline keyboard button press.
type Callback struct {
	CallbackID string `json:"callback_id,omitempty"`
	Payload    string `json:"payload,omitempty"`
}

// Chat describes a chat, as returned by GetChat.
type Chat struct {
	ChatID         int64          `json:"chat_id"`
	Type           string         `json:"type,omitempty"`
	Title          string         `json:"title,omitempty"`
	Icon           *Image         `json:"icon,omitempty"`
	DialogWithUser *UserWithPhoto `json:"dialog_with_user,omitempty"`
}

// Image is a remote image reference.
type Image struct {
	URL string `json:"url,omitempty"`
}

// UserWithPhoto is the dialog partner in a one-on-one chat.
type UserWithPhoto struct {
	UserID        int64  `json:"user_id,omitempty"`
	Name          string `json:"name,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	FullAvatarURL string `json:"full_avatar_url,omitempty"`
}

// UploadEndpoint is the one-shot URL to POST file bytes to.
type UploadEndpoint struct {
	URL string `json:"url"`
}

// PhotoTokens is the opaque result of an image upload, passed back to the
// platform when sending the photo.
type PhotoTokens struct {
	Photos map[string]PhotoToken `json:"photos"`
}

// PhotoToken is one uploaded photo's token.
type PhotoToken struct {
	Token string `json:"token"`
}

// NewMessageBody is an outbound message: text, attachments, or both.
type NewMessageBody struct {
	Text        string              `json:"text,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

// AttachmentRequest is one outbound attachment.
type AttachmentRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PhotoAttachmentRequestPayload sends an uploaded photo by its tokens.
type PhotoAttachmentRequestPayload struct {
	Photos map[string]PhotoToken `json:"photos"`
}

// Button intents hint the client how to render an inline button.
const IntentPositive = "positive"

// Button is one inline keyboard button.
type Button struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Payload string `json:"payload,omitempty"`
	Intent  string `json:"intent,omitempty"`
}

// InlineKeyboardPayload is the button grid of an inline keyboard attachment.
type InlineKeyboardPayload struct {
	Buttons [][]Button `json:"buttons"`
}

// NewPhotoAttachment builds a photo attachment request from upload tokens.
func NewPhotoAttachment(tokens *PhotoTokens) AttachmentRequest {
	return AttachmentRequest{
		Type:    "image",
		Payload: PhotoAttachmentRequestPayload{Photos: tokens.Photos},
	}
}

// NewCallbackKeyboard builds an inline keyboard with a single callback button.
func NewCallbackKeyboard(text, payload, intent string) AttachmentRequest {
	button := Button{Type: "callback", Text: text, Payload: payload, Intent: intent}
	return AttachmentRequest{
		Type:    "inline_keyboard",
		Payload: InlineKeyboardPayload{Buttons: [][]Button{{button}}},
	}
}
