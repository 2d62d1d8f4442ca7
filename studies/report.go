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

package studies

import (
	"time"

	"github.com/google/uuid"
)

// summary of a single study's contribution to a run
type StudySummary struct {
	// study accession
	Id string `json:"id"`
	// per-extension file statistics
	Extensions map[string]ExtensionStats `json:"extensions"`
	// total number of files and bytes across extensions
	NumFiles   int   `json:"num_files"`
	TotalBytes int64 `json:"total_bytes"`
	// true if the study has at least one file
	Usable bool `json:"usable"`
	// true if the study is usable and its metadata passed the template check
	Passed bool `json:"passed"`
	// template fields missing from the study's metadata (usable studies only)
	MissingFields []string `json:"missing_fields,omitempty"`
}

// the outcome of a single pipeline run
type Report struct {
	// identifier for the run
	RunId uuid.UUID `json:"run_id"`
	// search term used to find candidate studies
	Term string `json:"term"`
	// times at which the run started and finished
	StartTime time.Time `json:"start_time"`
	StopTime  time.Time `json:"stop_time"`
	// every candidate study, in search order
	Studies []StudySummary `json:"studies"`
	// studies with at least one file, in search order
	UsableStudies []string `json:"usable_studies"`
	// usable studies whose metadata passed the template check
	PassingStudies []string `json:"passing_studies"`
	// number of candidate studies processed
	TotalStudies int `json:"total_studies"`
	// number of studies that passed
	PassingCount int `json:"passing_count"`
	// passing/total as a percentage; null when no studies were processed
	PassPercentage *float64 `json:"pass_percentage"`
}

// Returns the pass percentage and true, or 0 and false if no studies were
// processed (in which case the percentage is undefined).
func (r Report) Percentage() (float64, bool) {
	if r.PassPercentage == nil {
		return 0, false
	}
	return *r.PassPercentage, true
}

// computes passing/total × 100, leaving it undefined for zero total
func passPercentage(passing, total int) *float64 {
	if total == 0 {
		return nil
	}
	percentage := float64(passing) / float64(total) * 100
	return &percentage
}
