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
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kbase/studyscan/report"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Environment files to load if present")
	rootCmd.PersistentFlags().String("credential-file", "", "Path to a (possibly encrypted) credential file")
	rootCmd.PersistentFlags().String("term", "", "Search term for candidate studies (overrides configuration)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		log.Fatalf("Error binding root flags: %s", err)
	}

	// Bind all flags of runCmd to Viper
	runCmd.Flags().String("output", report.TextOutput, "Output format: text or json")
	runCmd.Flags().Bool("details", false, "Print per-study file statistics")
	runCmd.Flags().String("manifest", "", "Write a Frictionless manifest of passing studies to this file")
	runCmd.Flags().Bool("no-color", false, "Disable colorized output")
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		log.Fatalf("Error binding run flags: %s", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().Int("port", 0, "Port on which to serve (overrides configuration)")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		log.Fatalf("Error binding serve flags: %s", err)
	}
}
