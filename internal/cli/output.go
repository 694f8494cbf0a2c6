package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/tarottimer/internal/domain"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func checkFormat(format string) error {
	for _, f := range ValidFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cardLine renders one hourly card as a single text line.
func cardLine(c domain.DailyCard) string {
	orientation := "upright"
	if c.Reversed {
		orientation = "reversed"
	}
	return fmt.Sprintf("%02d:00  %-20s %-8s  %s", c.Hour, c.CardName, orientation, strings.Join(c.Keywords, ", "))
}

func writeCard(w io.Writer, format string, c domain.DailyCard) error {
	if format == "json" {
		return writeJSON(w, c)
	}
	_, err := fmt.Fprintln(w, cardLine(c))
	return err
}
