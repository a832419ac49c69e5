package session

// Context is the free-form slot-filling state an NLU turn reads and mutates.
type Context map[string]any

// Clone returns a shallow copy so callers can hand the context to an NLU
// turn without exposing the stored map to in-place edits.
func (c Context) Clone() Context {
	if c == nil {
		return Context{}
	}
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Session binds an external platform user to their conversation context for
// the lifetime of the process.
type Session struct {
	ID             string  `json:"id"`
	ExternalUserID string  `json:"externalUserId"`
	Context        Context `json:"context"`
}
