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

package frictionless

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"

	"github.com/kbase/studyscan/config"
	"github.com/kbase/studyscan/studies"
)

// indicates that a manifest failed Frictionless validation
type InvalidManifestError struct {
	Message string
}

func (e InvalidManifestError) Error() string {
	return fmt.Sprintf("Invalid study manifest: %s", e.Message)
}

// creates a data package with one resource for each study in the given report
// that passed its template check
func NewManifest(report studies.Report) (DataPackage, error) {
	source := DataSource{
		Title: config.ImmPort.Name,
		Path:  config.ImmPort.URL,
	}
	resources := make([]DataResource, 0, len(report.PassingStudies))
	for _, summary := range report.Studies {
		if !summary.Passed {
			continue
		}
		extra, err := json.Marshal(summary.Extensions)
		if err != nil {
			return DataPackage{}, err
		}
		name := strings.ToLower(summary.Id)
		resources = append(resources, DataResource{
			Bytes:     summary.TotalBytes,
			Extra:     extra,
			Format:    "json",
			Id:        summary.Id,
			MediaType: "application/json",
			Name:      name,
			Path:      fmt.Sprintf("studies/%s.json", name),
			Sources:   []DataSource{source},
			Title:     fmt.Sprintf("%s (%d files)", summary.Id, summary.NumFiles),
		})
	}
	return DataPackage{
		Contributors: []Contributor{
			{
				Organization: config.ImmPort.Organization,
				Path:         config.ImmPort.URL,
				Role:         "publisher",
				Title:        config.ImmPort.Name,
			},
		},
		Created:     report.StopTime.Format(time.RFC3339),
		Description: fmt.Sprintf("Studies matching '%s' that pass the metadata template check", report.Term),
		Keywords:    []string{"studyscan", "manifest", report.Term},
		Name:        "manifest",
		Profile:     "data-package",
		Resources:   resources,
		Sources:     []DataSource{source},
		Title:       fmt.Sprintf("Study scan %s", report.RunId.String()),
	}, nil
}

// validates the given data package and returns its Frictionless representation
func Validate(pkg DataPackage) (*datapackage.Package, error) {
	data, err := json.Marshal(pkg)
	if err != nil {
		return nil, err
	}
	manifest, err := datapackage.FromString(string(data), "manifest.json", validator.InMemoryLoader())
	if err != nil {
		return nil, &InvalidManifestError{Message: err.Error()}
	}
	return manifest, nil
}

// validates the given data package and writes it to the given file, creating
// any missing parent directories
func WriteManifest(pkg DataPackage, filename string) error {
	manifest, err := Validate(pkg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating manifest directory: %s", err.Error())
		}
	}
	if err := manifest.SaveDescriptor(filename); err != nil {
		return fmt.Errorf("creating manifest file: %s", err.Error())
	}
	slog.Info(fmt.Sprintf("Wrote manifest for %d studies to %s", len(pkg.Resources), filename))
	return nil
}
