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
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/databases"
)

// A Pipeline searches a repository for studies, aggregates their file
// statistics, and classifies them. Each call to Run is one sequential pass
// with its own aggregate state; the first error aborts the pass.
type Pipeline struct {
	// repository searched and queried for files and metadata
	Database databases.Database
	// exchanges Credential for a bearer token
	Tokens auth.TokenProvider
	// credential for the repository
	Credential auth.Credential
	// free-text search term
	Term string
}

// Runs the pipeline, returning a report, or an error (a *PipelineError) if any
// step fails, in which case no report is produced.
func (p Pipeline) Run() (Report, error) {
	report := Report{
		RunId:          uuid.New(),
		Term:           p.Term,
		StartTime:      time.Now(),
		Studies:        make([]StudySummary, 0),
		UsableStudies:  make([]string, 0),
		PassingStudies: make([]string, 0),
	}
	slog.Info(fmt.Sprintf("Starting study scan %s for '%s'...", report.RunId.String(), p.Term))

	// obtain a bearer token
	token, err := p.Tokens.AccessToken(p.Credential)
	if err != nil {
		return Report{}, &PipelineError{Step: "authentication", Err: err}
	}

	// find candidate studies
	hits, err := p.Database.SearchStudies(p.Term)
	if err != nil {
		return Report{}, &PipelineError{Step: "search", Err: err}
	}
	slog.Info(fmt.Sprintf("Search for '%s' returned %d studies", p.Term, len(hits)))

	// aggregate each study's files exactly once
	state := NewState()
	seen := make(map[string]bool)
	for _, hit := range hits {
		if seen[hit.Id] {
			slog.Warn(fmt.Sprintf("Study %s appeared more than once in search results; skipping", hit.Id))
			continue
		}
		seen[hit.Id] = true

		slog.Debug(fmt.Sprintf("Fetching files for study %s", hit.Id))
		files, err := p.Database.StudyFiles(hit.Id, token)
		if err != nil {
			return Report{}, &PipelineError{Step: "file listing", StudyId: hit.Id, Err: err}
		}
		state.Aggregate(hit.Id, files)
		report.TotalStudies++
		slog.Info(fmt.Sprintf("%s processed successfully", hit.Id))
	}

	// check the metadata of each usable study against the template
	report.UsableStudies = state.FilterStudiesWithFiles()
	slog.Info(fmt.Sprintf("usable studies: %v", report.UsableStudies))
	missingFields := make(map[string][]string)
	for _, studyId := range report.UsableStudies {
		metadata, err := p.Database.StudyMetadata(studyId, token)
		if err != nil {
			return Report{}, &PipelineError{Step: "metadata retrieval", StudyId: studyId, Err: err}
		}
		missing := MissingTemplateFields(metadata)
		if len(missing) == 0 {
			report.PassingStudies = append(report.PassingStudies, studyId)
			report.PassingCount++
		} else {
			slog.Debug(fmt.Sprintf("Study %s failed the template check (missing %v)", studyId, missing))
		}
		missingFields[studyId] = missing
	}

	// summarize
	for _, studyId := range state.Studies() {
		summary := StudySummary{
			Id:            studyId,
			Extensions:    state.Stats(studyId),
			Usable:        slices.Contains(report.UsableStudies, studyId),
			Passed:        slices.Contains(report.PassingStudies, studyId),
			MissingFields: missingFields[studyId],
		}
		for _, stats := range summary.Extensions {
			summary.NumFiles += stats.Count
			summary.TotalBytes += stats.TotalBytes
		}
		report.Studies = append(report.Studies, summary)
	}
	report.PassPercentage = passPercentage(report.PassingCount, report.TotalStudies)
	report.StopTime = time.Now()
	return report, nil
}
