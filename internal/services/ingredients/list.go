// Package ingredients collects the ingredient list a user types before asking
// for recipes.
package ingredients

import (
	"sort"
	"strings"
)

// MinIngredients is the smallest list that may be sent for generation.
const MinIngredients = 3

// List is an ordered sequence of non-empty, trimmed ingredient names.
type List struct {
	items []string
}

// Collect splits free-form input on commas, trims every token and drops the
// empty ones.
func Collect(text string) List {
	return FromSlice(strings.Split(text, ","))
}

// FromSlice applies the same trimming as Collect to already separated items.
func FromSlice(items []string) List {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return List{items: out}
}

// Items returns a copy of the collected ingredients in input order.
func (l List) Items() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

func (l List) Len() int {
	return len(l.items)
}

// CanGenerate reports whether the list is long enough to request recipes.
func (l List) CanGenerate() bool {
	return l.CanGenerateWith(MinIngredients)
}

// CanGenerateWith is CanGenerate with a configurable minimum.
func (l List) CanGenerateWith(min int) bool {
	if min < 1 {
		min = 1
	}
	return len(l.items) >= min
}

// String joins the list the way it is written into prompts.
func (l List) String() string {
	return strings.Join(l.items, ", ")
}

// Key returns a canonical form of the list: lowercased, deduplicated and
// sorted. Two lists naming the same ingredients share a key.
func (l List) Key() string {
	seen := make(map[string]struct{}, len(l.items))
	keys := make([]string, 0, len(l.items))
	for _, item := range l.items {
		k := strings.ToLower(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
