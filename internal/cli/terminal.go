package cli

import (
	"fmt"

	"github.com/bastiangx/wordspell/pkg/speller"
	"github.com/charmbracelet/lipgloss"
)

var (
	wordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	badStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#56949f", Dark: "#31748f"})
	dimStyle = lipgloss.NewStyle().Faint(true)
)

func formatCorrect(word string) string {
	return okStyle.Render("✓ " + word)
}

func formatMisspelled(word string) string {
	return badStyle.Render("✗ " + word)
}

// formatSuggestion renders one ranked line, with the weight and a
// completion mark when asked for.
func formatSuggestion(rank int, s speller.Suggestion, showWeights bool) string {
	line := fmt.Sprintf("%2d. %s", rank, wordStyle.Render(s.Value))
	if !showWeights {
		return line
	}
	detail := fmt.Sprintf("(weight: %.2f", s.Weight)
	if s.Completed == speller.CompletionTrue {
		detail += ", completion"
	}
	return line + " " + dimStyle.Render(detail+")")
}
