package ai

import (
	"fmt"
	"strings"
)

// Output layouts the generator can be asked for.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const roleSection = `<ROLE>
You are a creative home cook. Given a short list of ingredients someone has on hand, you invent practical recipes that use some or all of them.
</ROLE>`

const guidelinesSection = `<GUIDELINES>
For each recipe provide:
1. A recipe name
2. The list of ingredients needed, including quantities
3. Step-by-step cooking instructions

- Prefer the listed ingredients; common pantry staples (salt, pepper, oil, water) may be added.
- Keep every step short and actionable.
- Do not add commentary before or after the recipes.
</GUIDELINES>`

const textFormatSection = `<OUTPUT_FORMAT>
Write each recipe as a plain text block and separate recipes with one blank line. Use exactly this layout:

Recipe Name
Ingredients:
- quantity and ingredient
- quantity and ingredient
Instructions:
1. First step
2. Second step

Do not use markdown headings, bold text or blank lines inside a recipe.
</OUTPUT_FORMAT>`

const jsonFormatSection = `<OUTPUT_FORMAT>
Respond with only a JSON object with the following structure:

{
  "recipes": [
    {
      "name": "",
      "ingredients": ["quantity and ingredient"],
      "instructions": ["First step"]
    }
  ]
}
</OUTPUT_FORMAT>`

// SystemPrompt returns the instructions sent ahead of the user's ingredients.
func SystemPrompt(format string) string {
	var sb strings.Builder
	sb.WriteString(roleSection)
	sb.WriteString("\n\n")
	sb.WriteString(guidelinesSection)
	sb.WriteString("\n\n")
	if format == FormatJSON {
		sb.WriteString(jsonFormatSection)
	} else {
		sb.WriteString(textFormatSection)
	}
	return sb.String()
}

// BuildRecipePrompt builds the user message asking for count recipes.
func BuildRecipePrompt(ingredients []string, count int, format string) string {
	if count < 1 {
		count = 1
	}

	noun := "recipes"
	if count == 1 {
		noun = "recipe"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate %d creative %s using some or all of these ingredients: %s.\n", count, noun, strings.Join(ingredients, ", ")))
	if format == FormatJSON {
		sb.WriteString("Answer with the JSON object described in OUTPUT_FORMAT.")
	} else {
		sb.WriteString("Follow the text layout described in OUTPUT_FORMAT exactly.")
	}
	return sb.String()
}
