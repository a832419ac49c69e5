package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"messenger-forecast-bot/internal/catalog"
	"messenger-forecast-bot/internal/messenger"
	"messenger-forecast-bot/internal/model/event"
	"messenger-forecast-bot/internal/service/nlu"
	sessionstore "messenger-forecast-bot/internal/service/session"
)

const unsupportedReply = "Sorry, I can only process text messages for now."

// Messenger is the platform surface the bot consumes: fire-and-forget sends
// and a synchronous profile lookup.
type Messenger interface {
	Send(recipientID string, msg messenger.Message, done func(error))
	Profile(ctx context.Context, userID string) (messenger.Profile, error)
}

// Service routes classified inbound events to canned replies or NLU turns.
type Service struct {
	store   sessionstore.Store
	catalog *catalog.Catalog
	client  Messenger
	engine  nlu.Engine
	log     zerolog.Logger
}

// New wires the event pipeline.
func New(store sessionstore.Store, cat *catalog.Catalog, client Messenger, engine nlu.Engine, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		client:  client,
		engine:  engine,
		log:     log.With().Str("component", "bot").Logger(),
	}
}

// HandleCallback fans a webhook callback's batched events into HandleEvent.
func (s *Service) HandleCallback(ctx context.Context, cb event.Callback) {
	for _, entry := range cb.Entry {
		for _, ev := range entry.Messaging {
			s.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent classifies one platform event and acts on each resulting
// classification. Per the best-effort policy, nothing here returns an error:
// failures are logged and the event is dropped.
func (s *Service) HandleEvent(ctx context.Context, ev event.Event) {
	for _, cls := range event.Classify(ev) {
		s.handleClassified(ctx, ev, cls)
	}
}

func (s *Service) handleClassified(ctx context.Context, ev event.Event, cls event.Classification) {
	senderID := ev.Sender.ID
	log := s.log.With().
		Str("category", string(cls.Category)).
		Str("sender", senderID).
		Logger()

	switch cls.Category {
	case event.CategoryMessage:
		s.handleMessage(ctx, senderID, ev.Message.Text, log)

	case event.CategoryQuickReply:
		sessionID, _ := s.store.FindOrCreate(senderID)
		log.Info().
			Str("session_id", sessionID).
			Str("payload", ev.Message.QuickReply.Payload).
			Msg("quick reply tapped")
		s.client.Send(senderID, messenger.TextMessage("Quick reply tapped"), nil)

	case event.CategoryImage, event.CategoryAudio, event.CategoryVideo,
		event.CategoryFile, event.CategoryLocation, event.CategoryAttachment:
		log.Info().Str("attachment_type", cls.Attachment.Type).Msg("attachment received")
		s.client.Send(senderID, messenger.TextMessage(unsupportedReply), nil)

	case event.CategoryEcho:
		log.Info().
			Str("mid", ev.Message.MID).
			Int64("app_id", ev.Message.AppID).
			Str("metadata", ev.Message.Metadata).
			Msg("echo received")

	case event.CategoryAuthentication:
		log.Info().Str("ref", ev.Optin.Ref).Msg("authentication optin")
		s.greet(ctx, senderID)

	case event.CategoryDelivery:
		log.Info().Int64("watermark", ev.Delivery.Watermark).Msg("messages delivered")

	case event.CategoryPostback:
		log.Info().Str("payload", ev.Postback.Payload).Msg("postback received")
		s.client.Send(senderID, messenger.TextMessage("Postback called"), nil)

	case event.CategoryRead:
		log.Info().Int64("watermark", ev.Read.Watermark).Msg("messages read")

	case event.CategoryAccountLinked:
		log.Info().Str("auth_code", ev.Linking.AuthorizationCode).Msg("account linked")

	case event.CategoryAccountUnlinked:
		log.Info().Msg("account unlinked")

	default:
		log.Warn().Msg("unknown event dropped")
	}
}

// handleMessage runs one text turn: find-or-create the session, try the
// keyword table, and otherwise hand the text to the NLU engine. An engine
// error drops the turn with the stored context untouched.
func (s *Service) handleMessage(ctx context.Context, senderID, text string, log zerolog.Logger) {
	sessionID, created := s.store.FindOrCreate(senderID)
	if created {
		log.Info().Str("session_id", sessionID).Msg("session created")
	}

	if reply, ok := s.Dispatch(text); ok {
		s.client.Send(senderID, reply, nil)
		return
	}

	current, err := s.store.Context(sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("context lookup for own session failed")
		return
	}

	updated, err := s.engine.Run(ctx, sessionID, text, current)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("nlu turn failed, context unchanged")
		return
	}

	if err := s.store.SetContext(sessionID, updated); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("context store for own session failed")
	}
}

// greet welcomes an authenticated user by name, falling back to a plain
// greeting when the profile lookup fails.
func (s *Service) greet(ctx context.Context, senderID string) {
	text := "Authentication successful. Welcome!"
	if profile, err := s.client.Profile(ctx, senderID); err != nil {
		s.log.Error().Err(err).Str("sender", senderID).Msg("profile lookup failed")
	} else if profile.FirstName != "" {
		text = fmt.Sprintf("Authentication successful. Welcome, %s!", profile.FirstName)
	}
	s.client.Send(senderID, messenger.TextMessage(text), nil)
}
