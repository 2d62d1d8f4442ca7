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
	"maps"
	"slices"
	"strings"

	"github.com/kbase/studyscan/databases"
)

// file statistics for a single extension within a study
type ExtensionStats struct {
	// number of files with the extension
	Count int `json:"count"`
	// total size of those files in bytes
	TotalBytes int64 `json:"total_bytes"`
}

// State holds the per-study file aggregates for a single pipeline run: one
// mapping from study to per-extension file counts, one from study to
// per-extension byte totals. Both have the same studies and, for each study,
// the same extension keys. Studies are remembered in the order in which they
// were first aggregated. A State is owned by one run and isn't safe for
// concurrent use.
type State struct {
	order  []string
	counts map[string]map[string]int
	bytes  map[string]map[string]int64
}

// creates an empty aggregate state
func NewState() *State {
	return &State{
		order:  make([]string, 0),
		counts: make(map[string]map[string]int),
		bytes:  make(map[string]map[string]int64),
	}
}

// Returns the extension used to bucket the named file: everything after the
// final '.'. A name without a '.' is its own extension.
func Extension(fileName string) string {
	lastDot := strings.LastIndex(fileName, ".")
	if lastDot == -1 {
		return fileName
	}
	return fileName[lastDot+1:]
}

// Accumulates the given files into the study's count and byte totals. A study
// with no files is still recorded (with empty mappings). Files of any size,
// including zero bytes, are counted. Aggregating the same study twice adds to
// its existing totals, so callers aggregate each study once per run.
func (s *State) Aggregate(studyId string, files []databases.FileRecord) {
	counts, found := s.counts[studyId]
	if !found {
		counts = make(map[string]int)
		s.counts[studyId] = counts
		s.bytes[studyId] = make(map[string]int64)
		s.order = append(s.order, studyId)
	}
	bytes := s.bytes[studyId]
	for _, file := range files {
		extension := Extension(file.FileName)
		counts[extension] += 1
		bytes[extension] += file.FilesizeBytes
	}
}

// Returns the identifiers of studies having at least one extension with a
// positive file count, in aggregation order.
func (s *State) FilterStudiesWithFiles() []string {
	studies := make([]string, 0)
	for _, studyId := range s.order {
		for _, count := range s.counts[studyId] {
			if count > 0 {
				studies = append(studies, studyId)
				break
			}
		}
	}
	return studies
}

// returns all aggregated studies in aggregation order
func (s *State) Studies() []string {
	return slices.Clone(s.order)
}

// returns a copy of the per-extension file counts for the given study
func (s *State) Counts(studyId string) map[string]int {
	return maps.Clone(s.counts[studyId])
}

// returns a copy of the per-extension byte totals for the given study
func (s *State) Bytes(studyId string) map[string]int64 {
	return maps.Clone(s.bytes[studyId])
}

// returns the combined per-extension statistics for the given study
func (s *State) Stats(studyId string) map[string]ExtensionStats {
	stats := make(map[string]ExtensionStats, len(s.counts[studyId]))
	for extension, count := range s.counts[studyId] {
		stats[extension] = ExtensionStats{
			Count:      count,
			TotalBytes: s.bytes[studyId][extension],
		}
	}
	return stats
}
