package event

// Callback is the envelope the platform POSTs to the webhook. One callback
// may batch events from several pages, each with several messaging entries.
type Callback struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the events of one page subscription.
type Entry struct {
	ID        string  `json:"id"`
	Time      int64   `json:"time"`
	Messaging []Event `json:"messaging"`
}
