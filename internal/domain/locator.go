package domain

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Locator is the union of content-reference schemes for a stored object.
// At most one scheme is authoritative at a time; StorageKey (current,
// content-addressed) is preferred over LegacyHandle (opaque platform handle),
// which is preferred over a bare URL.
type Locator struct {
	URL          string `json:"url,omitempty"`
	StorageKey   string `json:"storage_key,omitempty"`
	LegacyHandle string `json:"legacy_handle,omitempty"`
}

// ID returns the identity used for history/idempotency comparisons. Two
// locators are "the same content" when their IDs match, regardless of which
// surrounding metadata differs.
func (l Locator) ID() string {
	if k := strings.TrimSpace(l.StorageKey); k != "" {
		return "key:" + k
	}
	if h := strings.TrimSpace(l.LegacyHandle); h != "" {
		return "legacy:" + h
	}
	if u := strings.TrimSpace(l.URL); u != "" {
		return "url:" + u
	}
	return ""
}

func (l Locator) IsZero() bool { return l.ID() == "" }

// HistoryEntry is one immutable snapshot of replaced asset content.
type HistoryEntry struct {
	Locator    Locator        `json:"locator"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ReplacedAt time.Time      `json:"replaced_at"`
	EditType   string         `json:"edit_type,omitempty"`
}

func DecodeHistory(raw datatypes.JSON) []HistoryEntry {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "" || strings.TrimSpace(string(raw)) == "null" {
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

func EncodeHistory(entries []HistoryEntry) datatypes.JSON {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}

// AlternateEntry is a non-authoritative variant of the same generation,
// e.g. an alternate background of the selected image.
type AlternateEntry struct {
	Locator  Locator        `json:"locator"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func DecodeAlternates(raw datatypes.JSON) []AlternateEntry {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" || strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	var entries []AlternateEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

func EncodeAlternates(entries []AlternateEntry) datatypes.JSON {
	if entries == nil {
		entries = []AlternateEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}
