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

package immport

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/config"
	"github.com/kbase/studyscan/databases"
)

// ImmPort study repository, appropriate for searching studies and fetching
// their files and metadata (implements the databases.Database and
// auth.TokenProvider interfaces)
type Database struct {
	// HTTP client used for all requests
	Client *http.Client
	// base URL against which resources are resolved
	BaseURL *url.URL
	// resource names
	TokenResource, SearchResource, FilesResource, MetadataResource string
	// number of search hits requested
	PageSize int
}

// creates an ImmPort database proxy from the current configuration
func NewDatabase() (*Database, error) {
	baseURL, err := url.Parse(config.ImmPort.URL)
	if err != nil {
		return nil, err
	}

	// NOTE: we prevent redirects from HTTPS -> HTTP!
	return &Database{
		Client:           databases.SecureHttpClient(time.Duration(config.ImmPort.Timeout) * time.Second),
		BaseURL:          baseURL,
		TokenResource:    config.ImmPort.TokenResource,
		SearchResource:   config.ImmPort.SearchResource,
		FilesResource:    config.ImmPort.FilesResource,
		MetadataResource: config.ImmPort.MetadataResource,
		PageSize:         config.ImmPort.PageSize,
	}, nil
}

const databaseName = "immport"

// fetches a bearer token from ImmPort using a credential
func (db *Database) AccessToken(credential auth.Credential) (string, error) {
	// the token request must be URL-encoded
	data := url.Values{}
	data.Set("username", credential.User)
	data.Set("password", credential.Password)
	resource := db.resourceURL(db.TokenResource, nil)
	slog.Debug(fmt.Sprintf("POST: %s", resource))
	request, err := http.NewRequest(http.MethodPost, resource, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := db.Client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case 200, 201:
		body, err := io.ReadAll(response.Body)
		if err != nil {
			return "", err
		}
		var tokenResponse struct {
			Token *string `json:"access_token"`
		}
		if err = json.Unmarshal(body, &tokenResponse); err != nil {
			return "", &databases.UnexpectedResponseError{
				Database: databaseName,
				Resource: db.TokenResource,
				Message:  err.Error(),
			}
		}
		if tokenResponse.Token == nil {
			return "", &databases.MissingTokenError{Database: databaseName}
		}
		return *tokenResponse.Token, nil
	case 401, 403:
		body, _ := io.ReadAll(response.Body)
		var errResponse struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		message := response.Status
		if json.Unmarshal(body, &errResponse) == nil {
			if errResponse.Description != "" {
				message = errResponse.Description
			} else if errResponse.Error != "" {
				message = errResponse.Error
			}
		}
		return "", &databases.UnauthorizedError{
			Database: databaseName,
			User:     credential.User,
			Message:  message,
		}
	case 503:
		return "", &databases.UnavailableError{Database: databaseName}
	default:
		return "", &databases.StatusError{
			Database:   databaseName,
			Resource:   db.TokenResource,
			StatusCode: response.StatusCode,
		}
	}
}

// searches for studies matching the given free-text term; only a single page
// of hits is requested
func (db *Database) SearchStudies(term string) ([]databases.StudyHit, error) {
	if term == "" {
		return nil, &databases.InvalidSearchParameter{
			Database: databaseName,
			Message:  "empty search term",
		}
	}

	p := url.Values{}
	p.Add("term", term)
	p.Add("pageSize", strconv.Itoa(db.PageSize))
	p.Add("fromRecord", "0")
	p.Add("sortField", "")
	p.Add("sortFieldDirection", "")

	body, err := db.get(db.SearchResource, p, map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var results struct {
		Hits *struct {
			Hits []databases.StudyHit `json:"hits"`
		} `json:"hits"`
	}
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, db.unexpected(db.SearchResource, err.Error())
	}
	if results.Hits == nil || results.Hits.Hits == nil {
		return nil, db.unexpected(db.SearchResource, "no hits found in search response")
	}
	for _, hit := range results.Hits.Hits {
		if hit.Id == "" {
			return nil, db.unexpected(db.SearchResource, "search hit has no _id")
		}
	}
	if len(results.Hits.Hits) >= db.PageSize {
		slog.Warn(fmt.Sprintf("Search for '%s' filled a page of %d hits; further studies are not retrieved",
			term, db.PageSize))
	}
	return results.Hits.Hits, nil
}

// fetches the list of files associated with the given study
func (db *Database) StudyFiles(studyId, token string) ([]databases.FileRecord, error) {
	p := url.Values{}
	p.Add("format", "csv")
	p.Add("studyAccession", studyId)

	body, err := db.get(db.FilesResource, p, db.authHeader(token))
	if err != nil {
		return nil, err
	}

	var entries []struct {
		FileName      *string `json:"fileName"`
		FilesizeBytes *int64  `json:"filesizeBytes"`
	}
	if err = json.Unmarshal(body, &entries); err != nil {
		return nil, db.unexpected(db.FilesResource, err.Error())
	}
	if entries == nil {
		return nil, db.unexpected(db.FilesResource,
			fmt.Sprintf("file listing for study %s is not a list", studyId))
	}
	files := make([]databases.FileRecord, len(entries))
	for i, entry := range entries {
		if entry.FileName == nil || entry.FilesizeBytes == nil {
			return nil, db.unexpected(db.FilesResource,
				fmt.Sprintf("file entry %d for study %s lacks fileName or filesizeBytes", i, studyId))
		}
		if *entry.FilesizeBytes < 0 {
			return nil, db.unexpected(db.FilesResource,
				fmt.Sprintf("file %s for study %s has negative size", *entry.FileName, studyId))
		}
		files[i] = databases.FileRecord{
			FileName:      *entry.FileName,
			FilesizeBytes: *entry.FilesizeBytes,
		}
	}
	return files, nil
}

// fetches the metadata record for the given study (the first of the list the
// repository returns)
func (db *Database) StudyMetadata(studyId, token string) (databases.StudyMetadata, error) {
	resource := strings.TrimSuffix(db.MetadataResource, "/") + "/" + studyId
	body, err := db.get(resource, url.Values{}, db.authHeader(token))
	if err != nil {
		return databases.StudyMetadata{}, err
	}

	var records []databases.StudyMetadata
	if err = json.Unmarshal(body, &records); err != nil {
		return databases.StudyMetadata{}, db.unexpected(resource, err.Error())
	}
	if len(records) == 0 {
		return databases.StudyMetadata{}, &databases.EmptyMetadataError{
			Database: databaseName,
			StudyId:  studyId,
		}
	}
	return records[0], nil
}

//====================
// Internal machinery
//====================

// resolves the given resource (and query parameters) against the base URL
func (db *Database) resourceURL(resource string, values url.Values) string {
	res := *db.BaseURL
	res.Path = strings.TrimSuffix(res.Path, "/") + "/" + strings.TrimPrefix(resource, "/")
	if values != nil {
		res.RawQuery = values.Encode()
	}
	return res.String()
}

// returns a header map with a bearer authorization header
func (db *Database) authHeader(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

func (db *Database) unexpected(resource, message string) error {
	return &databases.UnexpectedResponseError{
		Database: databaseName,
		Resource: resource,
		Message:  message,
	}
}

// performs a GET request on the given resource, returning the resulting
// response body and/or error; any status other than 200 is an error
func (db *Database) get(resource string, values url.Values, headers map[string]string) ([]byte, error) {
	res := db.resourceURL(resource, values)
	slog.Debug(fmt.Sprintf("GET: %s", res))
	req, err := http.NewRequest(http.MethodGet, res, http.NoBody)
	if err != nil {
		return nil, err
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := db.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case 200:
		return io.ReadAll(resp.Body)
	case 503:
		return nil, &databases.UnavailableError{
			Database: databaseName,
		}
	default:
		return nil, &databases.StatusError{
			Database:   databaseName,
			Resource:   resource,
			StatusCode: resp.StatusCode,
		}
	}
}
