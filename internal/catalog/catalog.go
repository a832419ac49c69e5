package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"messenger-forecast-bot/internal/messenger"
)

// Catalog is the static keyword → reply table the command dispatcher reads.
// It is loaded once at startup and never mutated.
type Catalog struct {
	replies map[string]messenger.Message
}

// Load reads the reply table from a YAML file keyed by command keyword.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var entries map[string]messenger.Message
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	replies := make(map[string]messenger.Message, len(entries))
	for keyword, msg := range entries {
		replies[strings.ToLower(keyword)] = msg
	}
	return &Catalog{replies: replies}, nil
}

// New builds a catalog from an in-memory table, for tests.
func New(entries map[string]messenger.Message) *Catalog {
	replies := make(map[string]messenger.Message, len(entries))
	for keyword, msg := range entries {
		replies[strings.ToLower(keyword)] = msg
	}
	return &Catalog{replies: replies}
}

// Lookup resolves a keyword case-insensitively.
func (c *Catalog) Lookup(keyword string) (messenger.Message, bool) {
	msg, ok := c.replies[strings.ToLower(keyword)]
	return msg, ok
}

// Len reports how many keywords are catalogued.
func (c *Catalog) Len() int {
	return len(c.replies)
}
