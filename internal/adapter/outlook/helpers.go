package outlook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/oauth2"

	"github.com/theakshaypant/plan/internal/core"
)

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

// tokenFromFile reads an OAuth token from a JSON file.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken writes tok to path with owner-only permissions.
func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("encode token: %w", err)
	}
	return f.Close()
}

// deduplicateEvents keeps the first event per ExternalID.
func deduplicateEvents(events []core.Event) []core.Event {
	seen := make(map[string]bool)
	var result []core.Event

	for _, event := range events {
		if event.ExternalID != "" {
			if seen[event.ExternalID] {
				continue
			}
			seen[event.ExternalID] = true
		}
		result = append(result, event)
	}
	return result
}

func sortEventsByStartTime(events []core.Event) {
	slices.SortStableFunc(events, func(a, b core.Event) int {
		return a.Start.Compare(b.Start)
	})
}
