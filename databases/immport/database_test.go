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
	"log"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/config"
	"github.com/kbase/studyscan/databases"
	"github.com/kbase/studyscan/scantest"
)

// fake ImmPort server shared by all tests
var fakeImmPort *scantest.ImmPort

var testCredential = auth.Credential{User: "testuser", Password: "testpassword"}

// this function gets called at the begіnning of a test session
func setup() {
	scantest.EnableDebugLogging()
	fakeImmPort = &scantest.ImmPort{
		User:     testCredential.User,
		Password: testCredential.Password,
		Studies:  []string{"SDY1", "SDY2", "SDY3"},
		Files: map[string][]databases.FileRecord{
			"SDY1": {
				{FileName: "a.csv", FilesizeBytes: 100},
				{FileName: "protocol.final.pdf", FilesizeBytes: 2048},
			},
		},
		Metadata: map[string]string{
			"SDY1": scantest.CompleteMetadata,
			"SDY3": scantest.MetadataWithNull("endpoints"),
		},
		FilesBody: map[string]string{
			"SDY4": `null`,
			"SDY5": `[{"fileName": "a.csv"}]`,
			"SDY6": `[{"filesizeBytes": 10}]`,
			"SDY7": `[{"fileName": "a.csv", "filesizeBytes": -1}]`,
			"SDY8": `<html>not json</html>`,
		},
		FilesStatus:    map[string]int{"SDY3": 500},
		MetadataStatus: map[string]int{"SDY2": 404},
	}
	fakeURL := fakeImmPort.Start()
	if err := config.Init([]byte(scantest.Config(fakeURL))); err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}
}

// this function gets called after all tests have been run
func breakdown() {
	fakeImmPort.Close()
}

func TestNewDatabase(t *testing.T) {
	assert := assert.New(t)
	db, err := NewDatabase()
	assert.NotNil(db, "ImmPort database not created")
	assert.Nil(err, "ImmPort database creation encountered an error")
	assert.Equal(100, db.PageSize)
}

func TestAccessToken(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	token, err := db.AccessToken(testCredential)
	assert.Nil(err)
	assert.Equal(scantest.Token, token)
}

func TestAccessTokenWithBadCredential(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	_, err := db.AccessToken(auth.Credential{User: "testuser", Password: "wrong"})
	assert.IsType(&databases.UnauthorizedError{}, err)
	assert.Equal("Bad credentials", err.(*databases.UnauthorizedError).Message)
}

func TestAccessTokenMissingTokenField(t *testing.T) {
	assert := assert.New(t)
	fakeImmPort.SetOmitToken(true)
	defer fakeImmPort.SetOmitToken(false)

	db, _ := NewDatabase()
	_, err := db.AccessToken(testCredential)
	assert.IsType(&databases.MissingTokenError{}, err)
}

func TestSearchStudies(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	hits, err := db.SearchStudies("malaria")
	assert.Nil(err)
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.Id
	}
	assert.Equal([]string{"SDY1", "SDY2", "SDY3"}, ids)
	assert.Equal("SDY1", hits[0].Source["study_accession"])

	// check the query parameters sent along
	var searchRequest string
	for _, request := range fakeImmPort.Requests() {
		if strings.Contains(request, scantest.SearchResource) {
			searchRequest = request
		}
	}
	assert.Contains(searchRequest, "term=malaria")
	assert.Contains(searchRequest, "pageSize=100")
	assert.Contains(searchRequest, "fromRecord=0")
	assert.Contains(searchRequest, "sortField=")
	assert.Contains(searchRequest, "sortFieldDirection=")
	assert.Equal("application/json",
		fakeImmPort.LastHeaders(scantest.SearchResource).Get("Content-Type"))
}

// starts a fake ImmPort server answering every search with the given body and
// returns a database pointed at it
func databaseWithSearchBody(t *testing.T, body string) *Database {
	fake := &scantest.ImmPort{SearchBody: body}
	fakeURL := fake.Start()
	t.Cleanup(fake.Close)
	db, err := NewDatabase()
	assert.Nil(t, err)
	db.BaseURL, err = url.Parse(fakeURL)
	assert.Nil(t, err)
	return db
}

func TestSearchStudiesWithMalformedResponses(t *testing.T) {
	assert := assert.New(t)
	bodies := map[string]string{
		"missing hits":       `{}`,
		"missing inner hits": `{"hits": {"total": 0}}`,
		"null inner hits":    `{"hits": {"hits": null}}`,
		"hit without _id":    `{"hits": {"hits": [{"_id": "SDY1"}, {"_source": {}}]}}`,
		"not json":           `<html>Service Temporarily Unavailable</html>`,
	}
	for name, body := range bodies {
		db := databaseWithSearchBody(t, body)
		_, err := db.SearchStudies("malaria")
		assert.IsType(&databases.UnexpectedResponseError{}, err, name)
	}
}

func TestSearchStudiesWithNoHits(t *testing.T) {
	assert := assert.New(t)
	db := databaseWithSearchBody(t, `{"hits": {"hits": []}}`)
	hits, err := db.SearchStudies("malaria")
	assert.Nil(err)
	assert.Equal(0, len(hits))
}

func TestSearchStudiesWithEmptyTerm(t *testing.T) {
	db, _ := NewDatabase()
	_, err := db.SearchStudies("")
	assert.IsType(t, &databases.InvalidSearchParameter{}, err)
}

func TestStudyFiles(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	files, err := db.StudyFiles("SDY1", scantest.Token)
	assert.Nil(err)
	assert.Equal([]databases.FileRecord{
		{FileName: "a.csv", FilesizeBytes: 100},
		{FileName: "protocol.final.pdf", FilesizeBytes: 2048},
	}, files)
}

func TestStudyFilesForStudyWithoutFiles(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	files, err := db.StudyFiles("SDY2", scantest.Token)
	assert.Nil(err)
	assert.Equal(0, len(files))
}

func TestStudyFilesFailure(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	_, err := db.StudyFiles("SDY3", scantest.Token)
	assert.IsType(&databases.StatusError{}, err)
	assert.Equal(500, err.(*databases.StatusError).StatusCode)
}

func TestStudyFilesWithMalformedResponses(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	for _, studyId := range []string{"SDY4", "SDY5", "SDY6", "SDY7", "SDY8"} {
		files, err := db.StudyFiles(studyId, scantest.Token)
		assert.Nil(files, studyId)
		assert.IsType(&databases.UnexpectedResponseError{}, err, studyId)
	}
}

func TestStudyFilesWithNullListing(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	_, err := db.StudyFiles("SDY4", scantest.Token)
	assert.IsType(&databases.UnexpectedResponseError{}, err)
	assert.Contains(err.Error(), "not a list")
}

func TestStudyFilesWithBadToken(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	_, err := db.StudyFiles("SDY1", "not-a-token")
	assert.IsType(&databases.StatusError{}, err)
	assert.Equal(401, err.(*databases.StatusError).StatusCode)
}

func TestStudyMetadata(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	metadata, err := db.StudyMetadata("SDY1", scantest.Token)
	assert.Nil(err)
	assert.False(databases.IsNull(metadata.BriefDescription))
	assert.Equal("120", string(metadata.ActualEnrollment))
}

func TestStudyMetadataWithNullField(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	metadata, err := db.StudyMetadata("SDY3", scantest.Token)
	assert.Nil(err)
	assert.True(databases.IsNull(metadata.Endpoints))
	assert.False(databases.IsNull(metadata.ActualStartDate))
}

func TestStudyMetadataFailure(t *testing.T) {
	assert := assert.New(t)
	db, _ := NewDatabase()
	_, err := db.StudyMetadata("SDY2", scantest.Token)
	assert.IsType(&databases.StatusError{}, err)
	assert.Equal(404, err.(*databases.StatusError).StatusCode)
}

func TestStudyMetadataEmptyList(t *testing.T) {
	db, _ := NewDatabase()
	_, err := db.StudyMetadata("SDY999", scantest.Token)
	assert.IsType(t, &databases.EmptyMetadataError{}, err)
}

// this runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	setup()
	status := m.Run()
	breakdown()
	os.Exit(status)
}
