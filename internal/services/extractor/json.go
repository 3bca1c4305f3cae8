package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed is returned when structured output cannot be decoded.
var ErrMalformed = errors.New("malformed recipe payload")

// entry accepts a plain string or an object such as
// {"quantity": "2", "unit": "cups", "name": "rice"} or {"step": 1, "instruction": "..."}.
type entry string

func (e *entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = entry(s)
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		var scalar any
		if err := json.Unmarshal(data, &scalar); err != nil {
			return err
		}
		if scalar != nil {
			*e = entry(fmt.Sprint(scalar))
		}
		return nil
	}

	for _, key := range []string{"instruction", "text", "description"} {
		if v, ok := obj[key].(string); ok && v != "" {
			*e = entry(v)
			return nil
		}
	}

	var parts []string
	for _, key := range []string{"quantity", "amount", "unit", "name", "item"} {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case float64:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	*e = entry(strings.Join(parts, " "))
	return nil
}

type jsonRecipe struct {
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	RecipeName   string  `json:"recipe_name"`
	Ingredients  []entry `json:"ingredients"`
	Instructions []entry `json:"instructions"`
	Steps        []entry `json:"steps"`
}

// ParseJSON decodes structured output. It accepts {"recipes": [...]}, a bare
// array or a single recipe object, optionally wrapped in a markdown code
// fence. Entries go through the same marker stripping as Parse.
func ParseJSON(text string) ([]Recipe, error) {
	payload := trimFence(text)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}

	// A decoder stops after the first value, so trailing chatter is ignored.
	decode := func(v any) error {
		return json.NewDecoder(strings.NewReader(payload)).Decode(v)
	}

	var raw []jsonRecipe
	switch payload[0] {
	case '[':
		if err := decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	case '{':
		var envelope struct {
			Recipes []jsonRecipe `json:"recipes"`
		}
		if err := decode(&envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		raw = envelope.Recipes
		if raw == nil {
			var single jsonRecipe
			if err := decode(&single); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			raw = []jsonRecipe{single}
		}
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array", ErrMalformed)
	}

	recipes := make([]Recipe, 0, len(raw))
	for _, jr := range raw {
		r := Recipe{
			Name:         cleanName(firstNonEmpty(jr.Name, jr.Title, jr.RecipeName)),
			Ingredients:  []string{},
			Instructions: []string{},
		}
		for _, e := range jr.Ingredients {
			if item := sanitize(string(e), bulletPrefix); item != "" {
				r.Ingredients = append(r.Ingredients, item)
			}
		}
		steps := jr.Instructions
		if len(steps) == 0 {
			steps = jr.Steps
		}
		for _, e := range steps {
			if item := sanitize(string(e), ordinalPrefix); item != "" {
				r.Instructions = append(r.Instructions, item)
			}
		}
		if r.Name == "" && len(r.Ingredients) == 0 && len(r.Instructions) == 0 {
			continue
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func sanitize(s string, marker *regexp.Regexp) string {
	return trimMarkers(cleanLine(s), marker)
}

func trimFence(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = ""
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '{' || s[0] == '[' {
		return s
	}
	// Leading chatter before the payload: start at the first bracket.
	if i := strings.IndexAny(s, "{["); i >= 0 {
		return s[i:]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
