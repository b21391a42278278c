// Package report renders batch processing results: CSV and YAML exports,
// aggregate summaries, and the console table the CLI prints.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// csvHeader is the stable CSV column set. Consumers parse by name, so order
// never changes.
var csvHeader = []string{
	"submission_id",
	"deal_id",
	"status",
	"companies_processed",
	"value_added",
	"error_reason",
}

// WriteCSV writes one row per result.
func WriteCSV(w io.Writer, results []types.ProcessingResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.SubmissionID,
			strconv.Itoa(r.DealID),
			string(r.Status),
			strconv.Itoa(r.CompaniesProcessed),
			fmt.Sprintf("%.2f", r.ValueAdded),
			r.ErrorReason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML writes the results as a YAML document.
func WriteYAML(w io.Writer, results []types.ProcessingResult) error {
	raw, err := yaml.MarshalWithOptions(results,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// WriteFile writes results to path, choosing the format from the file
// extension: .yaml/.yml for YAML, anything else CSV.
func WriteFile(path string, results []types.ProcessingResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return WriteYAML(f, results)
	default:
		return WriteCSV(f, results)
	}
}

// Stats aggregates a batch's results.
type Stats struct {
	Processed  int     `json:"processed" yaml:"processed"`
	Succeeded  int     `json:"succeeded" yaml:"succeeded"`
	Skipped    int     `json:"skipped" yaml:"skipped"`
	Failed     int     `json:"failed" yaml:"failed"`
	ValueAdded float64 `json:"value_added" yaml:"value_added"`
}

// HasFailures returns true when any submission ended in error.
func (s Stats) HasFailures() bool {
	return s.Failed > 0
}

// String renders a one-line run summary for logs.
func (s Stats) String() string {
	return fmt.Sprintf("%d processed (%d succeeded, %d skipped, %d failed), $%.2f added",
		s.Processed, s.Succeeded, s.Skipped, s.Failed, s.ValueAdded)
}

// Summary computes aggregate statistics over a batch.
func Summary(results []types.ProcessingResult) Stats {
	var s Stats
	s.Processed = len(results)
	for _, r := range results {
		switch r.Status {
		case types.StatusSuccess:
			s.Succeeded++
		case types.StatusSkipped:
			s.Skipped++
		case types.StatusError:
			s.Failed++
		}
		s.ValueAdded += r.ValueAdded
	}
	return s
}

// WriteTable renders results followed by the summary as console tables.
func WriteTable(w io.Writer, results []types.ProcessingResult) error {
	table := tablewriter.NewTable(w)
	table.Header("Submission", "Deal", "Status", "Companies", "Value Added", "Error")
	for _, r := range results {
		dealID := ""
		if r.DealID > 0 {
			dealID = strconv.Itoa(r.DealID)
		}
		err := table.Append(
			truncate(r.SubmissionID, 24),
			dealID,
			string(r.Status),
			strconv.Itoa(r.CompaniesProcessed),
			fmt.Sprintf("$%.2f", r.ValueAdded),
			truncate(r.ErrorReason, 48),
		)
		if err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	stats := Summary(results)
	_, err := fmt.Fprintf(w, "\n%s\n", stats.String())
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// Validate rejects report destinations the run would fail on at the end.
func Validate(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.NewConfigError("report", fmt.Sprintf("report directory %q does not exist", dir), err)
	}
	return nil
}
