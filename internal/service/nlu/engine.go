package nlu

import (
	"context"
	"encoding/json"

	model "messenger-forecast-bot/internal/model/session"
)

// Engine resolves one conversation turn: it reads the user's text against
// the current context, invokes whatever actions apply, and returns the
// updated context. On error the caller keeps the previous context.
type Engine interface {
	Run(ctx context.Context, sessionID, text string, data model.Context) (model.Context, error)
}

// EntityValue is one extracted entity occurrence. The engine accepts both
// the {"value": ...} object form and a bare scalar.
type EntityValue struct {
	Value string
}

// UnmarshalJSON unwraps the object form, falling back to a plain scalar.
// The wrapped value may itself be a string or a number.
func (v *EntityValue) UnmarshalJSON(b []byte) error {
	var obj struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && len(obj.Value) > 0 {
		return v.decodeScalar(obj.Value)
	}
	return v.decodeScalar(b)
}

func (v *EntityValue) decodeScalar(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v.Value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v.Value = n.String()
	return nil
}

// Entities maps entity names to their extracted occurrences, in order.
type Entities map[string][]EntityValue

// First returns the leading value of the named entity.
func (e Entities) First(name string) (string, bool) {
	values := e[name]
	if len(values) == 0 {
		return "", false
	}
	return values[0].Value, true
}

// ActionRequest carries everything an action may read for one invocation.
type ActionRequest struct {
	SessionID string
	Text      string
	Context   model.Context
	Entities  Entities
	Response  string
}

// Action is a named function the engine invokes with the current turn state.
// It returns the context to carry forward, which may be the input unchanged.
type Action func(ctx context.Context, req ActionRequest) (model.Context, error)
