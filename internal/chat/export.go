// Package chat reads Discord channel exports and turns them into plain transcripts.
package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"discordbridge/internal/jsonutil"
)

// Channel identifies the exported channel.
type Channel struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User is a participant keyed by uid in Export.Users.
type User struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

// Message is one chat message.
type Message struct {
	UID     string `json:"uid"`
	TS      string `json:"ts"`
	Content string `json:"content"`
}

// Export is one day of messages for one channel.
type Export struct {
	Channel  *Channel        `json:"channel,omitempty"`
	Date     string          `json:"date"`
	Users    map[string]User `json:"users"`
	Messages []Message       `json:"messages"`
}

// ChannelName returns the channel name or fallback when the export has none.
func (e *Export) ChannelName(fallback string) string {
	if e.Channel == nil || e.Channel.Name == "" {
		return fallback
	}
	return e.Channel.Name
}

// Load decodes an export file.
func Load(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Export
	if err := jsonutil.UnmarshalWithContext(data, &e, "decode chat export "+filepath.Base(path)); err != nil {
		return nil, err
	}
	return &e, nil
}

// CollectInputs expands path into the export files to process.
// A directory yields its *.json files in name order; anything else yields itself,
// even when it does not exist (callers skip missing files).
func CollectInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", path, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// timestampLayouts are tried in order when rendering message times.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// FormatTime renders ts as HH:MM. Unparsable input is returned unchanged.
func FormatTime(ts string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("15:04")
		}
	}
	return ts
}

// FormatTranscript renders messages one per line as "user (HH:MM): content".
func FormatTranscript(messages []Message, users map[string]User) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		u := users[msg.UID]
		name := u.Nickname
		if name == "" {
			name = u.Name
		}
		if name == "" {
			name = "Unknown User"
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s", name, FormatTime(msg.TS), msg.Content))
	}
	return strings.Join(lines, "\n")
}
