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

// This package contains testing utilities for studyscan.
package scantest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	"github.com/kbase/studyscan/databases"
)

// Enables DEBUG log messages for studyscan's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

// resources served by the fake ImmPort server
const (
	TokenResource    = "auth/token"
	SearchResource   = "shared/data/query/api/search/study"
	FilesResource    = "data/query/result/filePath"
	MetadataResource = "data/query/api/study/summary/"
)

// the token handed out by the fake ImmPort server
const Token = "test-access-token"

// Returns a YAML configuration pointing the ImmPort database at the given URL.
func Config(url string) string {
	return fmt.Sprintf(`
immport:
  name: ImmPort (test)
  organization: Test Organization
  url: %s
  token_resource: %s
  search_resource: %s
  files_resource: %s
  metadata_resource: %s
  page_size: 100
pipeline:
  term: malaria
`, url, TokenResource, SearchResource, FilesResource, MetadataResource)
}

//-------------------------
// ImmPort Test Fixture
//-------------------------

// This type implements an in-process stand-in for the ImmPort API. Studies
// listed in Studies are returned (in order) by any search; their files and
// metadata are served from Files and Metadata. Status overrides force a
// response code for a given study's file listing or metadata request.
type ImmPort struct {
	// username/password accepted by the token resource
	User, Password string
	// study accessions returned by search
	Studies []string
	// files per study accession
	Files map[string][]databases.FileRecord
	// raw metadata record (JSON object) per study accession
	Metadata map[string]string
	// forced status codes for file listing / metadata requests per study
	FilesStatus, MetadataStatus map[string]int
	// if non-empty, served verbatim as the body of every search response
	SearchBody string
	// raw file listing bodies served verbatim per study accession
	FilesBody map[string]string

	mu        sync.Mutex
	omitToken bool
	requests  []string
	headers   map[string]http.Header
	server    *httptest.Server
}

// Starts the fake ImmPort server. Call Close when finished.
func (f *ImmPort) Start() string {
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	return f.server.URL + "/"
}

// If omit is true, the token resource answers without an access_token field.
func (f *ImmPort) SetOmitToken(omit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitToken = omit
}

// Shuts down the fake ImmPort server.
func (f *ImmPort) Close() {
	if f.server != nil {
		f.server.Close()
	}
}

// Returns the request log, one "METHOD path?query" entry per request.
func (f *ImmPort) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Returns the headers of the most recent request for the given resource, or
// nil if it was never requested.
func (f *ImmPort) LastHeaders(resource string) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[resource].Clone()
}

// Returns the study accessions for which metadata was requested.
func (f *ImmPort) MetadataRequests() []string {
	studies := make([]string, 0)
	for _, request := range f.Requests() {
		if prefix := "GET /" + MetadataResource; strings.HasPrefix(request, prefix) {
			studies = append(studies, strings.TrimPrefix(request, prefix))
		}
	}
	return studies
}

func (f *ImmPort) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
	if r.URL.RawQuery != "" {
		entry += "?" + r.URL.RawQuery
	}
	f.requests = append(f.requests, entry)
	if f.headers == nil {
		f.headers = make(map[string]http.Header)
	}
	f.headers[strings.TrimPrefix(r.URL.Path, "/")] = r.Header.Clone()
}

func (f *ImmPort) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == TokenResource && r.Method == http.MethodPost:
		f.serveToken(w, r)
	case path == SearchResource && r.Method == http.MethodGet:
		f.serveSearch(w, r)
	case path == FilesResource && r.Method == http.MethodGet:
		if !f.authorized(w, r) {
			return
		}
		f.serveFiles(w, r)
	case strings.HasPrefix(path, MetadataResource) && r.Method == http.MethodGet:
		if !f.authorized(w, r) {
			return
		}
		f.serveMetadata(w, strings.TrimPrefix(path, MetadataResource))
	default:
		http.NotFound(w, r)
	}
}

func (f *ImmPort) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+Token {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *ImmPort) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != f.User || r.PostForm.Get("password") != f.Password {
		writeJson(w, http.StatusUnauthorized, map[string]any{
			"error":             "invalid_grant",
			"error_description": "Bad credentials",
		})
		return
	}
	f.mu.Lock()
	omitToken := f.omitToken
	f.mu.Unlock()
	if omitToken {
		writeJson(w, http.StatusOK, map[string]any{"token_type": "bearer"})
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"access_token": Token,
		"token_type":   "bearer",
	})
}

func (f *ImmPort) serveSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("term") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if f.SearchBody != "" {
		writeRaw(w, f.SearchBody)
		return
	}
	hits := make([]map[string]any, len(f.Studies))
	for i, study := range f.Studies {
		hits[i] = map[string]any{
			"_id":     study,
			"_source": map[string]any{"study_accession": study},
		}
	}
	writeJson(w, http.StatusOK, map[string]any{
		"hits": map[string]any{
			"total": len(hits),
			"hits":  hits,
		},
	})
}

func (f *ImmPort) serveFiles(w http.ResponseWriter, r *http.Request) {
	study := r.URL.Query().Get("studyAccession")
	if status, found := f.FilesStatus[study]; found {
		w.WriteHeader(status)
		return
	}
	if body, found := f.FilesBody[study]; found {
		writeRaw(w, body)
		return
	}
	files, found := f.Files[study]
	if !found {
		files = []databases.FileRecord{}
	}
	writeJson(w, http.StatusOK, files)
}

func (f *ImmPort) serveMetadata(w http.ResponseWriter, study string) {
	if status, found := f.MetadataStatus[study]; found {
		w.WriteHeader(status)
		return
	}
	record, found := f.Metadata[study]
	if !found {
		writeJson(w, http.StatusOK, []any{})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "[%s]", record)
}

func writeRaw(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}

func writeJson(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// a metadata record with all five template fields set
const CompleteMetadata = `{
  "briefDescription": "A study of malaria vaccine responses",
  "actualStartDate": "2015-03-01",
  "actualCompletionDate": "2017-09-30",
  "actualEnrollment": 120,
  "endpoints": "Antibody titers at day 28"
}`

// Returns a metadata record with all template fields set except the named
// one, which is set to null.
func MetadataWithNull(field string) string {
	record := map[string]any{
		"briefDescription":     "A study of malaria vaccine responses",
		"actualStartDate":      "2015-03-01",
		"actualCompletionDate": "2017-09-30",
		"actualEnrollment":     120,
		"endpoints":            "Antibody titers at day 28",
	}
	record[field] = nil
	data, _ := json.Marshal(record)
	return string(data)
}
