package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

// Client talks to the platform's Graph API. Sends are fire-and-forget; the
// profile lookup is the only synchronous call.
type Client struct {
	accessToken string
	baseURL     string
	httpc       *http.Client
	log         zerolog.Logger
}

// NewClient builds a Graph API client with the page access token.
func NewClient(accessToken string, log zerolog.Logger) *Client {
	return &Client{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpc:       &http.Client{Timeout: 15 * time.Second},
		log:         log.With().Str("component", "messenger").Logger(),
	}
}

// Send delivers a message to the recipient asynchronously and returns
// immediately. The outcome reaches done (which may be nil) once delivery
// settles; callers use it only for logging, never for control flow.
func (c *Client) Send(recipientID string, msg Message, done func(error)) {
	go func() {
		err := c.deliver(recipientID, msg)
		if done != nil {
			done(err)
			return
		}
		if err != nil {
			c.log.Error().Err(err).Str("recipient", recipientID).Msg("send failed")
		}
	}()
}

func (c *Client) deliver(recipientID string, msg Message) error {
	body, err := json.Marshal(sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   msg,
	})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.baseURL, url.QueryEscape(c.accessToken))
	resp, err := c.httpc.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if out.Error != nil {
		return fmt.Errorf("send rejected: %s (code %d)", out.Error.Message, out.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send failed with status %s", resp.Status)
	}

	c.log.Debug().
		Str("recipient", out.RecipientID).
		Str("message_id", out.MessageID).
		Msg("message delivered")
	return nil
}

// Profile fetches the recipient's display name fields.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=first_name,last_name&access_token=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(c.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build profile request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("profile lookup failed with status %s", resp.Status)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

// SetBaseURL points the client at a different API host, for tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}
