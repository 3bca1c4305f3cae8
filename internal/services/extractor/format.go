package extractor

import (
	"fmt"
	"strings"
)

// Format writes recipes back in the textual layout Parse reads: a title line,
// an "Ingredients:" list of "- " items and an "Instructions:" list of
// numbered steps, with a blank line between recipes.
func Format(recipes []Recipe) string {
	var sb strings.Builder
	for i, r := range recipes {
		if i > 0 {
			sb.WriteString("\n")
		}
		if r.Name != "" {
			sb.WriteString(r.Name)
			sb.WriteString("\n")
		}
		sb.WriteString("Ingredients:\n")
		for _, item := range r.Ingredients {
			sb.WriteString("- ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
		sb.WriteString("Instructions:\n")
		for n, step := range r.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", n+1, step)
		}
	}
	return sb.String()
}
