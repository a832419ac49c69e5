package bot

import (
	"strings"

	"messenger-forecast-bot/internal/messenger"
)

// Dispatch resolves a message's leading whitespace-delimited token against
// the reply catalog, case-insensitively. A miss yields no reply at all; the
// text then falls through to the NLU turn. Dispatch never touches context.
func (s *Service) Dispatch(text string) (messenger.Message, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return messenger.Message{}, false
	}
	return s.catalog.Lookup(fields[0])
}
