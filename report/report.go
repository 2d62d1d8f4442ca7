// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/kbase/studyscan/studies"
)

// output formats
const (
	TextOutput = "text"
	JSONOutput = "json"
)

// options that control how a report is written
type Options struct {
	// output format (TextOutput or JSONOutput)
	Output string
	// if true, text output includes a per-study table of file statistics
	Details bool
	// if true, text output is colorized
	UseColors bool
}

// writes the given report to w in the format given by opts
func Write(w io.Writer, report studies.Report, opts Options) error {
	switch opts.Output {
	case JSONOutput:
		return writeJSON(w, report)
	case TextOutput, "":
		return writeText(w, report, opts)
	default:
		return fmt.Errorf("invalid output format: %s", opts.Output)
	}
}

// formats a pass percentage, which is undefined when no studies were processed
func FormatPercentage(report studies.Report) string {
	percentage, defined := report.Percentage()
	if !defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", percentage)
}

func writeJSON(w io.Writer, report studies.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeText(w io.Writer, report studies.Report, opts Options) error {
	if opts.Details {
		if err := writeDetailsTable(w, report, opts); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Studies passing the template check: %v\n", report.PassingStudies); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total studies: %d\n", report.TotalStudies); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Passing studies: %d\n", report.PassingCount); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Pass percentage: %s\n", FormatPercentage(report)); err != nil {
		return err
	}
	return nil
}

// writes one row per study with its file statistics and template status
func writeDetailsTable(w io.Writer, report studies.Report, opts Options) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Study", "Files", "Bytes", "Extensions", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var red, green, yellow func(...any) string
	if opts.UseColors {
		red = color.New(color.FgRed).SprintFunc()
		green = color.New(color.FgGreen).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
	} else {
		red = fmt.Sprint
		green = fmt.Sprint
		yellow = fmt.Sprint
	}

	var data [][]string
	for _, summary := range report.Studies {
		var status string
		switch {
		case summary.Passed:
			status = green("PASS")
		case summary.Usable:
			status = red(fmt.Sprintf("FAIL (missing %s)", strings.Join(summary.MissingFields, ", ")))
		default:
			status = yellow("NO FILES")
		}
		data = append(data, []string{
			summary.Id,
			strconv.Itoa(summary.NumFiles),
			strconv.FormatInt(summary.TotalBytes, 10),
			FormatExtensions(summary.Extensions),
			status,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formats per-extension statistics as "ext:count/bytes" pairs sorted by
// extension
func FormatExtensions(extensions map[string]studies.ExtensionStats) string {
	if len(extensions) == 0 {
		return "-"
	}
	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	slices.Sort(names)
	pairs := make([]string, len(names))
	for i, name := range names {
		stats := extensions[name]
		pairs[i] = fmt.Sprintf("%s:%d/%d", name, stats.Count, stats.TotalBytes)
	}
	return strings.Join(pairs, " ")
}
