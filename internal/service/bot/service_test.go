package bot_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-forecast-bot/internal/catalog"
	"messenger-forecast-bot/internal/messenger"
	"messenger-forecast-bot/internal/model/event"
	model "messenger-forecast-bot/internal/model/session"
	"messenger-forecast-bot/internal/service/bot"
	sessionstore "messenger-forecast-bot/internal/service/session"
)

type countingStore struct {
	*sessionstore.MemoryStore
	findOrCreateCalls int
}

func (c *countingStore) FindOrCreate(externalUserID string) (string, bool) {
	c.findOrCreateCalls++
	return c.MemoryStore.FindOrCreate(externalUserID)
}

type fakeMessenger struct {
	mu      sync.Mutex
	sends   []sentMessage
	profile messenger.Profile
}

type sentMessage struct {
	recipientID string
	msg         messenger.Message
}

func (f *fakeMessenger) Send(recipientID string, msg messenger.Message, done func(error)) {
	f.mu.Lock()
	f.sends = append(f.sends, sentMessage{recipientID: recipientID, msg: msg})
	f.mu.Unlock()
	if done != nil {
		done(nil)
	}
}

func (f *fakeMessenger) Profile(_ context.Context, _ string) (messenger.Profile, error) {
	return f.profile, nil
}

func (f *fakeMessenger) all() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sends...)
}

type fakeEngine struct {
	calls  int
	text   string
	result model.Context
	err    error
}

func (f *fakeEngine) Run(_ context.Context, _ string, text string, _ model.Context) (model.Context, error) {
	f.calls++
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newFixture(engine *fakeEngine) (*bot.Service, *countingStore, *fakeMessenger) {
	store := &countingStore{MemoryStore: sessionstore.NewMemoryStore()}
	client := &fakeMessenger{}
	cat := catalog.New(map[string]messenger.Message{
		"image": {Attachment: &messenger.Attachment{
			Type:    "image",
			Payload: map[string]any{"url": "https://example.com/rift.png"},
		}},
	})
	svc := bot.New(store, cat, client, engine, zerolog.Nop())
	return svc, store, client
}

func messageEvent(senderID, text string) event.Event {
	return event.Event{
		Sender:  event.Party{ID: senderID},
		Message: &event.Message{MID: "m1", Text: text},
	}
}

func TestKeywordMessageSendsCatalogReply(t *testing.T) {
	engine := &fakeEngine{}
	svc, store, client := newFixture(engine)

	svc.HandleEvent(context.Background(), messageEvent("u1", "Image please"))

	sends := client.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "u1", sends[0].recipientID)
	require.NotNil(t, sends[0].msg.Attachment)
	assert.Equal(t, "image", sends[0].msg.Attachment.Type)

	assert.Equal(t, 1, store.findOrCreateCalls)
	assert.Zero(t, engine.calls, "keyword hit must not reach the NLU engine")
}

func TestFreeTextRunsNLUTurn(t *testing.T) {
	engine := &fakeEngine{result: model.Context{"forecast": "sunny in Madrid"}}
	svc, store, _ := newFixture(engine)

	svc.HandleEvent(context.Background(), messageEvent("u1", "what's the weather in Madrid"))

	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, "what's the weather in Madrid", engine.text)

	sessionID, created := store.FindOrCreate("u1")
	assert.False(t, created, "the turn should have created the session already")
	got, err := store.Context(sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.Context{"forecast": "sunny in Madrid"}, got)
}

func TestEngineFailureLeavesContextUnchanged(t *testing.T) {
	engine := &fakeEngine{result: model.Context{"missingLocation": true}}
	svc, store, _ := newFixture(engine)

	svc.HandleEvent(context.Background(), messageEvent("u1", "weather?"))
	sessionID, _ := store.FindOrCreate("u1")
	before, err := store.Context(sessionID)
	require.NoError(t, err)

	engine.err = errors.New("engine unavailable")
	svc.HandleEvent(context.Background(), messageEvent("u1", "weather in Madrid"))

	after, err := store.Context(sessionID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed turn must not touch stored context")
}

func TestAttachmentFanOutSendsUnsupportedReplies(t *testing.T) {
	engine := &fakeEngine{}
	svc, _, client := newFixture(engine)

	svc.HandleEvent(context.Background(), event.Event{
		Sender: event.Party{ID: "u1"},
		Message: &event.Message{
			Attachments: []event.Attachment{{Type: "image"}, {Type: "file"}},
		},
	})

	sends := client.all()
	require.Len(t, sends, 2)
	for _, send := range sends {
		assert.Equal(t, "u1", send.recipientID)
		assert.Contains(t, send.msg.Text, "only process text")
	}
	assert.Zero(t, engine.calls)
}

func TestQuickReplyAck(t *testing.T) {
	engine := &fakeEngine{}
	svc, store, client := newFixture(engine)

	svc.HandleEvent(context.Background(), event.Event{
		Sender: event.Party{ID: "u1"},
		Message: &event.Message{
			Text:       "Action",
			QuickReply: &event.QuickReply{Payload: "PICKED_ACTION"},
		},
	})

	sends := client.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "Quick reply tapped", sends[0].msg.Text)
	assert.Equal(t, 1, store.findOrCreateCalls)
}

func TestPostbackAck(t *testing.T) {
	engine := &fakeEngine{}
	svc, _, client := newFixture(engine)

	svc.HandleEvent(context.Background(), event.Event{
		Sender:   event.Party{ID: "u1"},
		Postback: &event.Postback{Payload: "DEVELOPER_DEFINED_PAYLOAD"},
	})

	sends := client.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "Postback called", sends[0].msg.Text)
}

func TestEchoAndDeliveryProduceNoReplies(t *testing.T) {
	engine := &fakeEngine{}
	svc, store, client := newFixture(engine)

	svc.HandleEvent(context.Background(), event.Event{
		Sender:  event.Party{ID: "u1"},
		Message: &event.Message{Text: "echoed", IsEcho: true},
	})
	svc.HandleEvent(context.Background(), event.Event{
		Sender:   event.Party{ID: "u1"},
		Delivery: &event.Delivery{Watermark: 99},
	})

	assert.Empty(t, client.all())
	assert.Zero(t, store.findOrCreateCalls)
}

func TestOptinGreetsByName(t *testing.T) {
	engine := &fakeEngine{}
	svc, _, client := newFixture(engine)
	client.profile = messenger.Profile{FirstName: "Ada"}

	svc.HandleEvent(context.Background(), event.Event{
		Sender: event.Party{ID: "u1"},
		Optin:  &event.Optin{Ref: "PASS_THROUGH"},
	})

	sends := client.all()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].msg.Text, "Ada")
}
