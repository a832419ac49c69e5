package nlu

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	model "messenger-forecast-bot/internal/model/session"
	"messenger-forecast-bot/internal/messenger"
	sessionstore "messenger-forecast-bot/internal/service/session"
)

// Context keys the forecast action toggles. Exactly one of the two is
// present after any getForecast invocation.
const (
	KeyForecast        = "forecast"
	KeyMissingLocation = "missingLocation"
)

// Sender is the outbound delivery primitive actions use.
type Sender interface {
	Send(recipientID string, msg messenger.Message, done func(error))
}

// Actions holds the built-in action implementations and their session and
// delivery plumbing.
type Actions struct {
	store  sessionstore.Store
	sender Sender
	log    zerolog.Logger
}

// NewActions wires the built-in actions to the session store and sender.
func NewActions(store sessionstore.Store, sender Sender, log zerolog.Logger) *Actions {
	return &Actions{
		store:  store,
		sender: sender,
		log:    log.With().Str("component", "nlu-actions").Logger(),
	}
}

// Table returns the action registry handed to the engine.
func (a *Actions) Table() map[string]Action {
	return map[string]Action{
		"send":        a.Send,
		"getForecast": a.GetForecast,
	}
}

// Send delivers the engine's reply text to the user behind the session.
// Delivery is fire-and-forget: the action resolves immediately and delivery
// errors are only logged. A session with no live recipient soft-fails open.
func (a *Actions) Send(_ context.Context, req ActionRequest) (model.Context, error) {
	sess, err := a.store.Get(req.SessionID)
	if err != nil || sess.ExternalUserID == "" {
		a.log.Error().Str("session_id", req.SessionID).Msg("oops, no recipient for session")
		return req.Context, nil
	}

	recipientID := sess.ExternalUserID
	a.sender.Send(recipientID, messenger.TextMessage("echo: "+req.Response), func(err error) {
		if err != nil {
			a.log.Error().Err(err).Str("recipient", recipientID).Msg("reply delivery failed")
		}
	})
	return req.Context, nil
}

// GetForecast fills the forecast slot from the location entity, or flags the
// location as missing. The two outcomes are mutually exclusive.
func (a *Actions) GetForecast(_ context.Context, req ActionRequest) (model.Context, error) {
	out := req.Context
	if out == nil {
		out = model.Context{}
	}

	if location, ok := req.Entities.First("location"); ok {
		out[KeyForecast] = fmt.Sprintf("sunny in %s", location)
		delete(out, KeyMissingLocation)
	} else {
		out[KeyMissingLocation] = true
		delete(out, KeyForecast)
	}
	return out, nil
}
