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

package databases

import (
	"bytes"
	"encoding/json"
)

// a study hit returned by a repository's free-text search
type StudyHit struct {
	// unique identifier (accession) for the study
	Id string `json:"_id"`
	// the remaining search document, passed through untouched
	Source map[string]any `json:"_source,omitempty"`
}

// a file associated with a study
type FileRecord struct {
	// the name of the file, including any extension
	FileName string `json:"fileName"`
	// the size of the file in bytes
	FilesizeBytes int64 `json:"filesizeBytes"`
}

// Study metadata as returned by a repository. Only the fields consulted by
// the completeness template are kept, and they're kept raw so that a field
// that is present but null can be told apart from one with a value.
type StudyMetadata struct {
	BriefDescription     json.RawMessage `json:"briefDescription,omitempty"`
	ActualStartDate      json.RawMessage `json:"actualStartDate,omitempty"`
	ActualCompletionDate json.RawMessage `json:"actualCompletionDate,omitempty"`
	ActualEnrollment     json.RawMessage `json:"actualEnrollment,omitempty"`
	Endpoints            json.RawMessage `json:"endpoints,omitempty"`
}

// returns true if the given raw JSON field is absent or null
func IsNull(field json.RawMessage) bool {
	trimmed := bytes.TrimSpace(field)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Database defines the interface for a study repository that can be searched
// for studies and queried for their files and metadata. Every failure is
// reported as an error; nothing is retried.
type Database interface {
	// returns the study hits matching the given free-text term (first page only)
	SearchStudies(term string) ([]StudyHit, error)
	// returns the files associated with the given study, in repository order
	StudyFiles(studyId, token string) ([]FileRecord, error)
	// returns the (first) metadata record for the given study
	StudyMetadata(studyId, token string) (StudyMetadata, error)
}
