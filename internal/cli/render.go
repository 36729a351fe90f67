package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sensefold/sensefold/internal/model"
)

// renderResult writes the optional JSON output and prints the summary.
func renderResult(result *model.Result, jsonPath string, includeCollapsed bool) error {
	if jsonPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := os.WriteFile(jsonPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	printSummary(result, includeCollapsed)
	return nil
}

// printSummary renders the ranked senses to stdout.
func printSummary(result *model.Result, includeCollapsed bool) {
	fmt.Printf("%s (%s, %s mode)\n", result.Term, result.Lang, result.Mode)

	if len(result.Senses) == 0 {
		fmt.Println("  no senses found")
	}

	shown := 0
	hidden := 0
	for _, sense := range result.Senses {
		if sense.Collapsed && !includeCollapsed {
			hidden++
			continue
		}
		shown++

		constant := ""
		if sense.SemanticConstant != "" {
			constant = "  [" + sense.SemanticConstant + "]"
		}
		fmt.Printf("%2d. %s%s\n", shown, sense.DisplayGloss, constant)
		fmt.Printf("    confidence %s %.2f · %d witness(es)\n",
			confidenceBar(sense.Confidence), sense.Confidence, len(sense.Witnesses))
		for _, w := range sense.Witnesses {
			fmt.Printf("      - %s %s\n", w.Source, w.SenseRef)
		}
	}

	if hidden > 0 {
		fmt.Printf("  (%d low-confidence sense(s) hidden; use --all to show)\n", hidden)
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "note: %s %s %s\n", d.Kind, d.Source, d.Detail)
	}
}

// confidenceBar renders a 10-step bar for quick scanning.
func confidenceBar(confidence float64) string {
	filled := int(confidence * 10)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
