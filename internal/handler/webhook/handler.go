package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"messenger-forecast-bot/internal/messenger"
	"messenger-forecast-bot/internal/model/event"
	"messenger-forecast-bot/pkg/utils"
)

// CallbackHandler consumes one decoded webhook callback.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, cb event.Callback)
}

// Handler terminates the platform webhook: the GET verification handshake
// and the POST event delivery with signature checking.
type Handler struct {
	verifyToken string
	appSecret   string
	bot         CallbackHandler
	log         zerolog.Logger
}

// New builds the webhook handler.
func New(verifyToken, appSecret string, bot CallbackHandler, log zerolog.Logger) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		bot:         bot,
		log:         log.With().Str("component", "webhook").Logger(),
	}
}

// RegisterRoutes mounts the webhook endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.handleVerify)
	r.Post("/webhook", h.handleReceive)
}

// handleVerify answers the subscription handshake: echo hub.challenge when
// the verify token matches, 403 otherwise.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.log.Info().Msg("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	h.log.Warn().Str("mode", mode).Msg("webhook verification rejected")
	w.WriteHeader(http.StatusForbidden)
}

// handleReceive acknowledges every syntactically valid, authentic callback
// with 200 before processing finishes; delivery outcome never changes the
// HTTP status the platform sees.
func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !messenger.VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.log.Warn().Msg("callback signature mismatch")
		utils.RespondError(w, http.StatusForbidden, "invalid signature")
		return
	}

	var cb event.Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid callback payload")
		return
	}

	if cb.Object != "page" {
		utils.RespondError(w, http.StatusNotFound, "unsupported callback object")
		return
	}

	// Ack synchronously; event handling and its sends proceed on their own.
	go h.bot.HandleCallback(context.WithoutCancel(r.Context()), cb)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}
