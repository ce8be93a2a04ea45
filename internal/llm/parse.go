package llm

import (
	"fmt"
	"strings"

	"discordbridge/internal/jsonutil"
)

// ParseStrict decodes a model reply. The reply must contain a JSON object
// and every list entry must itself be an object.
func ParseStrict(content string) (Analysis, error) {
	data, err := decodeObject(content)
	if err != nil {
		return Analysis{}, err
	}
	return fromMap(data, false)
}

// ParseLenient decodes a model reply, accepting plain strings as list entries.
// A reply without usable JSON becomes an Analysis whose summary is the raw text;
// parsed reports which of the two happened.
func ParseLenient(content string) (a Analysis, parsed bool) {
	data, err := decodeObject(content)
	if err != nil {
		return Analysis{Summary: strings.TrimSpace(content)}, false
	}
	a, err = fromMap(data, true)
	if err != nil {
		return Analysis{Summary: strings.TrimSpace(content)}, false
	}
	return a, true
}

func decodeObject(content string) (map[string]interface{}, error) {
	payload, err := jsonutil.ExtractObject(content)
	if err != nil {
		return nil, fmt.Errorf("model response did not contain JSON payload: %w", err)
	}
	var data map[string]interface{}
	if err := jsonutil.UnmarshalWithContext([]byte(payload), &data, "decode model response"); err != nil {
		return nil, err
	}
	return data, nil
}

func fromMap(data map[string]interface{}, lenient bool) (Analysis, error) {
	a := Analysis{
		Summary: strings.TrimSpace(jsonutil.GetString(data, "summary")),
	}

	for i, raw := range jsonutil.GetSlice(data, "faq") {
		item, text, err := entry(raw, lenient, "faq", i)
		if err != nil {
			return Analysis{}, err
		}
		if item == nil {
			a.FAQ = append(a.FAQ, Question{Question: text})
			continue
		}
		a.FAQ = append(a.FAQ, Question{
			Question: jsonutil.GetString(item, "question"),
			Asker:    jsonutil.GetString(item, "asker"),
		})
	}

	for i, raw := range jsonutil.GetSlice(data, "help_interactions") {
		item, text, err := entry(raw, lenient, "help_interactions", i)
		if err != nil {
			return Analysis{}, err
		}
		if item == nil {
			a.HelpInteractions = append(a.HelpInteractions, Help{Task: text})
			continue
		}
		a.HelpInteractions = append(a.HelpInteractions, Help{
			Helper:     jsonutil.GetString(item, "helper"),
			Recipient:  jsonutil.GetString(item, "recipient"),
			Task:       jsonutil.GetString(item, "task"),
			Assistance: jsonutil.GetString(item, "assistance"),
		})
	}

	for i, raw := range jsonutil.GetSlice(data, "action_items") {
		item, text, err := entry(raw, lenient, "action_items", i)
		if err != nil {
			return Analysis{}, err
		}
		if item == nil {
			a.ActionItems = append(a.ActionItems, ActionItem{Description: text, Type: DefaultActionType})
			continue
		}
		a.ActionItems = append(a.ActionItems, ActionItem{
			Description: jsonutil.GetString(item, "description"),
			MentionedBy: jsonutil.GetString(item, "mentioned_by"),
			Type:        jsonutil.GetStringOr(item, "type", DefaultActionType),
		})
	}
	return a, nil
}

// entry returns the object form of a list entry, or its string form when lenient.
func entry(raw interface{}, lenient bool, field string, idx int) (map[string]interface{}, string, error) {
	if m, ok := raw.(map[string]interface{}); ok {
		return m, "", nil
	}
	if !lenient {
		return nil, "", fmt.Errorf("%s[%d]: expected object, got %T", field, idx, raw)
	}
	return nil, jsonutil.ToString(raw), nil
}
