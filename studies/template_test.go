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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbase/studyscan/databases"
	"github.com/kbase/studyscan/scantest"
)

// decodes a metadata record the way the repository client does
func decodeMetadata(t *testing.T, record string) databases.StudyMetadata {
	var metadata databases.StudyMetadata
	err := json.Unmarshal([]byte(record), &metadata)
	assert.Nil(t, err)
	return metadata
}

func TestTemplateCheckPassesCompleteRecord(t *testing.T) {
	metadata := decodeMetadata(t, scantest.CompleteMetadata)
	assert.True(t, TemplateCheck(metadata))
	assert.Equal(t, []string{}, MissingTemplateFields(metadata))
}

// each template field is individually required, whether null or absent
func TestTemplateCheckRequiresEachField(t *testing.T) {
	for _, field := range TemplateFields {
		metadata := decodeMetadata(t, scantest.MetadataWithNull(field))
		assert.False(t, TemplateCheck(metadata), "null %s passed the template check", field)
		assert.Equal(t, []string{field}, MissingTemplateFields(metadata))

		var record map[string]any
		json.Unmarshal([]byte(scantest.CompleteMetadata), &record)
		delete(record, field)
		data, _ := json.Marshal(record)
		metadata = decodeMetadata(t, string(data))
		assert.False(t, TemplateCheck(metadata), "absent %s passed the template check", field)
	}
}

func TestTemplateCheckFailsEmptyRecord(t *testing.T) {
	metadata := decodeMetadata(t, `{}`)
	assert.False(t, TemplateCheck(metadata))
	assert.Equal(t, TemplateFields, MissingTemplateFields(metadata))
}

// falsy-but-present values are not null
func TestTemplateCheckAcceptsFalsyValues(t *testing.T) {
	metadata := decodeMetadata(t, `{
		"briefDescription": "",
		"actualStartDate": "",
		"actualCompletionDate": "",
		"actualEnrollment": 0,
		"endpoints": []
	}`)
	assert.True(t, TemplateCheck(metadata))
}

func TestTemplateCheckIgnoresOtherFields(t *testing.T) {
	metadata := decodeMetadata(t, `{
		"briefDescription": "d", "actualStartDate": "s",
		"actualCompletionDate": "c", "actualEnrollment": 3, "endpoints": "e",
		"briefTitle": null, "studyAccession": "SDY1"
	}`)
	assert.True(t, TemplateCheck(metadata))
}
