package event

// Category is the single classification assigned to one inbound platform
// event. Attachments are the exception: each attachment entry yields its own
// sub-classification.
type Category string

const (
	CategoryMessage         Category = "message"
	CategoryQuickReply      Category = "quickReply"
	CategoryEcho            Category = "echoMessage"
	CategoryImage           Category = "image"
	CategoryAudio           Category = "audio"
	CategoryVideo           Category = "video"
	CategoryFile            Category = "file"
	CategoryLocation        Category = "location"
	CategoryAttachment      Category = "attachment"
	CategoryAuthentication  Category = "authentication"
	CategoryDelivery        Category = "delivery"
	CategoryPostback        Category = "postback"
	CategoryRead            Category = "read"
	CategoryAccountLinked   Category = "accountLinked"
	CategoryAccountUnlinked Category = "accountUnlinked"
	CategoryUnknown         Category = "unknown"
)

// Event is one entry of a webhook callback's messaging array, decoded once
// at the boundary. Optional sub-structs are nil when absent.
type Event struct {
	Sender    Party           `json:"sender"`
	Recipient Party           `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *Message        `json:"message,omitempty"`
	Postback  *Postback       `json:"postback,omitempty"`
	Optin     *Optin          `json:"optin,omitempty"`
	Delivery  *Delivery       `json:"delivery,omitempty"`
	Read      *Read           `json:"read,omitempty"`
	Linking   *AccountLinking `json:"account_linking,omitempty"`
}

// Party identifies one side of a conversation.
type Party struct {
	ID string `json:"id"`
}

// Message carries the message sub-event fields.
type Message struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text"`
	IsEcho      bool         `json:"is_echo"`
	AppID       int64        `json:"app_id"`
	Metadata    string       `json:"metadata"`
	QuickReply  *QuickReply  `json:"quick_reply,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// QuickReply holds the developer-defined payload of a tapped quick reply.
type QuickReply struct {
	Payload string `json:"payload"`
}

// Attachment is one media or location entry attached to a message.
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload carries whichever payload fields the attachment type
// uses; unused fields are zero.
type AttachmentPayload struct {
	URL         string       `json:"url,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Coordinates is a location attachment's position.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Postback is a button-press sub-event.
type Postback struct {
	Payload string `json:"payload"`
}

// Optin is the plugin opt-in (authentication) sub-event.
type Optin struct {
	Ref string `json:"ref"`
}

// Delivery confirms messages delivered up to a watermark.
type Delivery struct {
	MIDs      []string `json:"mids"`
	Watermark int64    `json:"watermark"`
}

// Read confirms messages read up to a watermark.
type Read struct {
	Watermark int64 `json:"watermark"`
}

// AccountLinking reports a link or unlink of the user's account.
type AccountLinking struct {
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorization_code"`
}

// Classification pairs a category with the attachment that produced it, for
// the fan-out case. Attachment is nil for every non-attachment category.
type Classification struct {
	Category   Category
	Attachment *Attachment
}

// Classify assigns the event its category using the fixed precedence:
// non-echo message (quick reply, then text, then per-attachment fan-out),
// echo, then the auxiliary sub-events, then unknown. Every event yields at
// least one classification; only attachments yield more than one.
func Classify(ev Event) []Classification {
	switch {
	case ev.Message != nil && !ev.Message.IsEcho:
		m := ev.Message
		if m.QuickReply != nil {
			return []Classification{{Category: CategoryQuickReply}}
		}
		if m.Text != "" {
			return []Classification{{Category: CategoryMessage}}
		}
		if len(m.Attachments) > 0 {
			out := make([]Classification, 0, len(m.Attachments))
			for i := range m.Attachments {
				att := &m.Attachments[i]
				out = append(out, Classification{
					Category:   attachmentCategory(att.Type),
					Attachment: att,
				})
			}
			return out
		}
		return []Classification{{Category: CategoryUnknown}}
	case ev.Message != nil && ev.Message.IsEcho:
		return []Classification{{Category: CategoryEcho}}
	case ev.Optin != nil:
		return []Classification{{Category: CategoryAuthentication}}
	case ev.Delivery != nil:
		return []Classification{{Category: CategoryDelivery}}
	case ev.Postback != nil:
		return []Classification{{Category: CategoryPostback}}
	case ev.Read != nil:
		return []Classification{{Category: CategoryRead}}
	case ev.Linking != nil && ev.Linking.Status == "linked":
		return []Classification{{Category: CategoryAccountLinked}}
	case ev.Linking != nil && ev.Linking.Status == "unlinked":
		return []Classification{{Category: CategoryAccountUnlinked}}
	default:
		return []Classification{{Category: CategoryUnknown}}
	}
}

func attachmentCategory(attachmentType string) Category {
	switch attachmentType {
	case "image":
		return CategoryImage
	case "audio":
		return CategoryAudio
	case "video":
		return CategoryVideo
	case "file":
		return CategoryFile
	case "location":
		return CategoryLocation
	default:
		return CategoryAttachment
	}
}
