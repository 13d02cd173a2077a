package display

import (
	"fmt"
	"strings"

	"PriceBoard/internal/model"
)

// FormatBoard renders a PriceState as a plain-text board.
func FormatBoard(state *model.PriceState) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s prices (%d min)\n", state.Source, state.ResolutionMinutes))
	if state.Error != "" {
		b.WriteString(fmt.Sprintf("error: %s\n", state.Error))
	}
	if !state.OK && len(state.Points) == 0 {
		b.WriteString("no price data\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("now: %.3f %s/kWh [%s] at %s\n",
		state.CurrentPrice, state.Currency, state.CurrentLevel, state.CurrentStartsAt))
	if state.HasBaseline {
		b.WriteString(fmt.Sprintf("baseline: %.3f %s/kWh\n", state.Baseline, state.Currency))
	}

	for i := range state.Points {
		marker := "  "
		if i == state.CurrentIndex {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s  %.3f  %s\n",
			marker, state.Points[i].StartsAt, state.Points[i].Price, state.Points[i].Level))
	}
	return b.String()
}
