package messenger

// Message is a Send API message body. Template payloads vary per template
// type, so Attachment keeps its payload free-form; the platform validates
// the final shape.
type Message struct {
	Text         string       `json:"text,omitempty" yaml:"text,omitempty"`
	Attachment   *Attachment  `json:"attachment,omitempty" yaml:"attachment,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty" yaml:"quick_replies,omitempty"`
	Metadata     string       `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Attachment is a media or template attachment of an outbound message.
type Attachment struct {
	Type    string         `json:"type" yaml:"type"`
	Payload map[string]any `json:"payload" yaml:"payload"`
}

// QuickReply is one tappable suggestion attached to a message.
type QuickReply struct {
	ContentType string `json:"content_type" yaml:"content_type"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Payload     string `json:"payload,omitempty" yaml:"payload,omitempty"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// TextMessage builds a plain text message body.
func TextMessage(text string) Message {
	return Message{Text: text}
}

// Profile is the subset of the user profile the bot reads.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type sendRequest struct {
	Recipient recipient `json:"recipient"`
	Message   Message   `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type sendResponse struct {
	RecipientID string    `json:"recipient_id"`
	MessageID   string    `json:"message_id"`
	Error       *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}
