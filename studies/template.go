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

	"github.com/kbase/studyscan/databases"
)

// the metadata fields a study must carry to pass the completeness template
var TemplateFields = []string{
	"briefDescription",
	"actualStartDate",
	"actualCompletionDate",
	"actualEnrollment",
	"endpoints",
}

// returns the raw value of the named template field
func templateField(metadata databases.StudyMetadata, field string) json.RawMessage {
	switch field {
	case "briefDescription":
		return metadata.BriefDescription
	case "actualStartDate":
		return metadata.ActualStartDate
	case "actualCompletionDate":
		return metadata.ActualCompletionDate
	case "actualEnrollment":
		return metadata.ActualEnrollment
	case "endpoints":
		return metadata.Endpoints
	}
	return nil
}

// returns the template fields that are absent or null in the given record
func MissingTemplateFields(metadata databases.StudyMetadata) []string {
	missing := make([]string, 0)
	for _, field := range TemplateFields {
		if databases.IsNull(templateField(metadata, field)) {
			missing = append(missing, field)
		}
	}
	return missing
}

// returns true iff every template field is present and non-null
func TemplateCheck(metadata databases.StudyMetadata) bool {
	return len(MissingTemplateFields(metadata)) == 0
}
