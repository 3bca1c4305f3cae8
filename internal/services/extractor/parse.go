// Package extractor turns free-form completion text into structured recipes.
//
// Parsing is heuristic and never fails: a block that lacks an Ingredients or
// Instructions header still produces a Recipe with whatever could be
// recovered, so one malformed block never costs the rest of the batch.
package extractor

import (
	"regexp"
	"strings"
)

// Recipe is one structured recipe recovered from generator output.
type Recipe struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// Stats describes a parse run.
type Stats struct {
	Blocks   int
	Degraded int
}

type section int

const (
	sectionNone section = iota
	sectionIngredients
	sectionInstructions
)

var (
	headingPrefix    = regexp.MustCompile(`^#{1,6}\s*`)
	bulletPrefix     = regexp.MustCompile(`^[-*•]\s*`)
	ordinalPrefix    = regexp.MustCompile(`(?i)^(?:step\s*)?\d+\s*[.):](?:\s+|$)`)
	recipeLabel      = regexp.MustCompile(`(?i)^(?:recipe(?:\s+name)?(?:\s*#?\d+)?|name)\s*[:.)\-–]\s*`)
	recipeNumber     = regexp.MustCompile(`(?i)^recipe\s*#?\d+\b`)
	separatorLine    = regexp.MustCompile(`^[-*_=]{3,}$`)
	ingredientsTitle = regexp.MustCompile(`(?i)^(?:list\s+of\s+)?ingredients(?:\s+(?:needed|required|list))?(?:\s*\([^)]*\))?\s*:?$`)
	directionsTitle  = regexp.MustCompile(`(?i)^(?:step[- ]by[- ]step\s+)?(?:cooking\s+)?(?:instructions|directions|steps|method|preparation)(?:\s*\([^)]*\))?\s*:?$`)
)

// Parse converts generator text into recipes in input order.
func Parse(text string) []Recipe {
	recipes, _ := ParseWithStats(text)
	return recipes
}

// ParseWithStats is Parse and also reports how many blocks were missing a
// section header.
func ParseWithStats(text string) ([]Recipe, Stats) {
	var stats Stats
	recipes := []Recipe{}
	for _, b := range splitBlocks(text) {
		r, degraded := parseBlock(b.lines)
		if r.Name == "" && len(r.Ingredients) == 0 && len(r.Instructions) == 0 {
			continue
		}
		stats.Blocks++
		if degraded {
			stats.Degraded++
		}
		recipes = append(recipes, r)
	}
	return recipes, stats
}

type paragraph struct {
	lines []string
	// recipeHeader marks a paragraph opened by a "Recipe N" or markdown
	// heading line; it always starts a new block.
	recipeHeader bool
}

type block struct {
	lines    []string
	sections map[section]bool
}

func (b *block) add(p paragraph) {
	for _, line := range p.lines {
		if k := headerKind(line); k != sectionNone {
			b.sections[k] = true
		}
	}
	b.lines = append(b.lines, p.lines...)
}

func splitBlocks(text string) []*block {
	paras := splitParagraphs(text)

	var blocks []*block
	for i, p := range paras {
		var cur *block
		if len(blocks) > 0 {
			cur = blocks[len(blocks)-1]
		}

		first := headerKind(p.lines[0])
		switch {
		case cur == nil || p.recipeHeader:
		case first != sectionNone && !cur.sections[first]:
			cur.add(p)
			continue
		case isListOnly(p) && len(cur.sections) > 0 && !namesNextRecipe(p, paras, i):
			cur.add(p)
			continue
		}

		b := &block{sections: map[section]bool{}}
		b.add(p)
		blocks = append(blocks, b)
	}
	return blocks
}

// namesNextRecipe reports whether a single numbered line is really the
// title of the recipe whose sections follow ("2. Beef Stew" + "Ingredients:").
func namesNextRecipe(p paragraph, paras []paragraph, i int) bool {
	if len(p.lines) != 1 || i+1 >= len(paras) {
		return false
	}
	return headerKind(paras[i+1].lines[0]) != sectionNone
}

func splitParagraphs(text string) []paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paras []paragraph
	var cur paragraph
	flush := func() {
		if len(cur.lines) > 0 {
			paras = append(paras, cur)
		}
		cur = paragraph{}
	}

	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || separatorLine.MatchString(trimmed) {
			flush()
			continue
		}
		line := cleanLine(trimmed)
		if line == "" {
			continue
		}
		if isRecipeHeader(trimmed, line) {
			flush()
			cur.recipeHeader = true
		}
		cur.lines = append(cur.lines, line)
	}
	flush()
	return paras
}

func isRecipeHeader(raw, cleaned string) bool {
	if headerKind(cleaned) != sectionNone {
		return false
	}
	return strings.HasPrefix(raw, "#") || recipeNumber.MatchString(cleaned)
}

func isListOnly(p paragraph) bool {
	for _, line := range p.lines {
		if headerKind(line) != sectionNone {
			return false
		}
		_, bullet := stripBullet(line)
		_, ordinal := stripOrdinal(line)
		if !bullet && !ordinal {
			return false
		}
	}
	return true
}

func parseBlock(lines []string) (Recipe, bool) {
	r := Recipe{Ingredients: []string{}, Instructions: []string{}}
	seen := map[section]bool{}
	current := sectionNone

	for _, line := range lines {
		if k := headerKind(line); k != sectionNone {
			seen[k] = true
			current = k
			continue
		}
		switch current {
		case sectionNone:
			if r.Name == "" {
				r.Name = cleanName(line)
			}
		case sectionIngredients:
			if item, ok := stripBullet(line); ok {
				r.Ingredients = append(r.Ingredients, item)
			}
		case sectionInstructions:
			if item, ok := stripOrdinal(line); ok {
				r.Instructions = append(r.Instructions, item)
			}
		}
	}

	return r, !seen[sectionIngredients] || !seen[sectionInstructions]
}

// cleanLine removes markup noise: bold markers and markdown heading hashes.
func cleanLine(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	line = headingPrefix.ReplaceAllString(strings.TrimSpace(line), "")
	return strings.TrimSpace(line)
}

func headerKind(line string) section {
	candidate := bulletPrefix.ReplaceAllString(line, "")
	candidate = strings.TrimSpace(ordinalPrefix.ReplaceAllString(candidate, ""))
	switch {
	case ingredientsTitle.MatchString(candidate):
		return sectionIngredients
	case directionsTitle.MatchString(candidate):
		return sectionInstructions
	default:
		return sectionNone
	}
}

func stripBullet(line string) (string, bool) {
	return stripRepeated(line, bulletPrefix)
}

func stripOrdinal(line string) (string, bool) {
	return stripRepeated(line, ordinalPrefix)
}

// stripRepeated removes every leading occurrence of marker, so "- - flour"
// yields "flour". It reports false when line has no marker or nothing is left.
func stripRepeated(line string, marker *regexp.Regexp) (string, bool) {
	loc := marker.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	item := trimMarkers(line[loc[1]:], marker)
	return item, item != ""
}

func trimMarkers(s string, marker *regexp.Regexp) string {
	s = strings.TrimSpace(s)
	for {
		loc := marker.FindStringIndex(s)
		if loc == nil || loc[1] == 0 {
			return s
		}
		s = strings.TrimSpace(s[loc[1]:])
	}
}

// cleanName strips every leading list marker, ordinal and "Recipe N:" label
// from a title line.
func cleanName(line string) string {
	name := cleanLine(line)
	for {
		before := name
		name = bulletPrefix.ReplaceAllString(name, "")
		name = ordinalPrefix.ReplaceAllString(name, "")
		name = recipeLabel.ReplaceAllString(name, "")
		name = strings.TrimSpace(name)
		if name == before {
			break
		}
	}
	return strings.TrimSpace(strings.TrimRight(name, ":"))
}
