package llm

import (
	"fmt"
	"strings"

	"StepBoard/internal/state"
)

// SystemPrompt tells the model which tools and colors exist and the exact
// step-text format to answer in.
func SystemPrompt() string {
	kinds := make([]string, 0, 8)
	for _, k := range state.Kinds() {
		if k.Standard() {
			kinds = append(kinds, k.String())
		}
	}
	return fmt.Sprintf("You are a drawing program. The available shapes are %s. "+
		"The available colors are %s. Given a description, output the drawing steps "+
		"and nothing else. Follow the format exactly, for example: "+
		"Step 1, select drawing tool Rectangle;Step 2, select color black;"+
		"Step 3, draw a Rectangle, move shape to (406, 432), set width to 160px, set height to 143px;"+
		"Step 4, select drawing tool Triangle; and so on.",
		strings.Join(kinds, ", "), strings.Join(state.ColorNames, ", "))
}

// Prompt is the full prompt sent for description.
func Prompt(description string) string {
	return SystemPrompt() + "\n" + strings.TrimSpace(description)
}

// ExtractFinalAnswer drops a reasoning block ending in </think> and trims the
// rest.
func ExtractFinalAnswer(response string) string {
	if _, after, ok := strings.Cut(response, "</think>"); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(response)
}
