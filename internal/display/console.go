// Package display renders read-only PriceState snapshots. It never writes
// to cache or moving-average storage.
package display

import (
	"log"

	"PriceBoard/internal/model"
)

// ConsoleDisplay writes the formatted board to the process log.
type ConsoleDisplay struct{}

func NewConsoleDisplay() *ConsoleDisplay { return &ConsoleDisplay{} }

func (d *ConsoleDisplay) Render(state *model.PriceState) {
	log.Printf("[INFO] display update:\n%s", FormatBoard(state))
}
