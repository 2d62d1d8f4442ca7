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

package config

const (
	DefaultImmPortURL       = "https://www.immport.org/"
	DefaultTokenResource    = "auth/token"
	DefaultSearchResource   = "shared/data/query/api/search/study"
	DefaultFilesResource    = "data/query/result/filePath"
	DefaultMetadataResource = "data/query/api/study/summary/"
	DefaultPageSize         = 100
)

// The ImmPort repository provides the study search, file listing, and study
// metadata resources. Credentials are never stored here: they come from the
// environment or a credential file (see the auth package).
type immportConfig struct {
	// the full name of the repository
	Name string `yaml:"name"`
	// the name of the organization hosting the repository
	Organization string `yaml:"organization"`
	// the base URL against which all resources are resolved
	URL string `yaml:"url"`
	// resource exchanging a username/password for a bearer token (POST)
	TokenResource string `yaml:"token_resource"`
	// free-text study search resource (GET)
	SearchResource string `yaml:"search_resource"`
	// per-study file listing resource (GET)
	FilesResource string `yaml:"files_resource"`
	// study metadata resource; the study accession is appended (GET)
	MetadataResource string `yaml:"metadata_resource"`
	// number of search hits requested (only the first page is fetched)
	PageSize int `yaml:"page_size"`
	// HTTP client timeout in seconds (0 leaves the transport default)
	Timeout int `yaml:"timeout"`
}

func defaultImmPortConfig() immportConfig {
	return immportConfig{
		Name:             "ImmPort",
		Organization:     "NIAID",
		URL:              DefaultImmPortURL,
		TokenResource:    DefaultTokenResource,
		SearchResource:   DefaultSearchResource,
		FilesResource:    DefaultFilesResource,
		MetadataResource: DefaultMetadataResource,
		PageSize:         DefaultPageSize,
	}
}
