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

package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/config"
	"github.com/kbase/studyscan/databases/immport"
	"github.com/kbase/studyscan/frictionless"
	"github.com/kbase/studyscan/report"
	"github.com/kbase/studyscan/studies"
)

// runCmd performs a single study scan and reports the results.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan the studies matching a search term and report their usability.",
	Long: `Obtain an ImmPort token, search for studies matching the configured term,
aggregate each study's files by extension, and check the metadata of every
study with files against the template. Any failure aborts the scan.`,
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScan(cmd.OutOrStdout())
	},
}

func runScan(w io.Writer) error {
	credential, err := auth.LoadCredential(config.Pipeline.CredentialFile)
	if err != nil {
		return err
	}
	db, err := immport.NewDatabase()
	if err != nil {
		return err
	}

	scan, err := studies.Pipeline{
		Database:   db,
		Tokens:     db,
		Credential: credential,
		Term:       config.Pipeline.Term,
	}.Run()
	if err != nil {
		return err
	}

	useColors := !viper.GetBool("no-color")
	if !useColors {
		color.NoColor = true
	}
	err = report.Write(w, scan, report.Options{
		Output:    viper.GetString("output"),
		Details:   viper.GetBool("details"),
		UseColors: useColors,
	})
	if err != nil {
		return err
	}

	if config.Pipeline.Manifest != "" {
		if scan.PassingCount == 0 {
			slog.Warn(fmt.Sprintf("No studies passed; not writing manifest %s", config.Pipeline.Manifest))
			return nil
		}
		manifest, err := frictionless.NewManifest(scan)
		if err != nil {
			return err
		}
		return frictionless.WriteManifest(manifest, config.Pipeline.Manifest)
	}
	return nil
}
