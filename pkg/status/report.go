package status

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// 📊 RenderSummary writes a human readable report of s to w
func RenderSummary(w io.Writer, s *RunSummary) error {
	counts := pterm.TableData{
		{"Metric", "Value"},
		{"Mode", s.Mode},
		{"Files scanned", strconv.Itoa(s.FilesScanned)},
		{"Files changed", strconv.Itoa(s.FilesChanged)},
		{"Files pending", strconv.Itoa(s.FilesPending)},
		{"False positives", strconv.Itoa(s.FalsePositives)},
		{"Errors", strconv.Itoa(len(s.Errors))},
		{"Residuals", strconv.Itoa(len(s.Residuals))},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(counts).Srender()
	if err != nil {
		return errors.Errorf("rendering summary table: %w", err)
	}
	fmt.Fprintln(w, table)

	if names := s.DefectNames(); len(names) > 0 {
		hits := pterm.TableData{{"Defect", "Hits"}}
		for _, name := range names {
			hits = append(hits, []string{name, strconv.Itoa(s.PatternHitCounts[name])})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(hits).Srender()
		if err != nil {
			return errors.Errorf("rendering hits table: %w", err)
		}
		fmt.Fprintln(w, table)
	}

	for _, e := range s.Errors {
		fmt.Fprintln(w, pterm.Error.Sprintf("%s: %s", e.Path, e.Message))
	}
	for _, r := range s.Residuals {
		if r.Applied {
			fmt.Fprintln(w, pterm.Warning.Sprintf("%s still has %d %s after rewrite", r.Path, r.Count, r.Defect))
			continue
		}
		fmt.Fprintln(w, pterm.Info.Sprintf("%s has %d %s (not written this run)", r.Path, r.Count, r.Defect))
	}

	return nil
}

// WriteJSON writes s as indented JSON
func WriteJSON(w io.Writer, s *RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return errors.Errorf("encoding summary: %w", err)
	}
	return nil
}
