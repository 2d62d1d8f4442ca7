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

// Package cmd defines the command-line interface for studyscan.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/config"
)

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "studyscan",
	Short: "Find ImmPort studies that are usable for analysis.",
	Long: `studyscan searches ImmPort for studies matching a term, summarizes the
files attached to each study, and checks the metadata of every study with
files against a five-field template.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command, returning any error encountered.
func Execute() error {
	return rootCmd.Execute()
}

// initConfig binds STUDYSCAN_* environment variables to flags.
func initConfig() {
	viper.SetEnvPrefix("STUDYSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// installs a JSON log handler at the given level
func enableLogging(level slog.Level) {
	logLevel := new(slog.LevelVar)
	logLevel.Set(level)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

// sharedSetup loads .env files and the configuration file, then applies
// flag/environment overrides.
func sharedSetup(_ *cobra.Command, _ []string) error {
	if viper.GetBool("debug") {
		enableLogging(slog.LevelDebug)
	} else {
		enableLogging(slog.LevelInfo)
	}

	if err := auth.LoadEnvFiles(viper.GetStringSlice("env-file")...); err != nil {
		return fmt.Errorf("loading environment files: %w", err)
	}

	var data []byte
	if configFile := viper.GetString("config"); configFile != "" {
		slog.Info(fmt.Sprintf("Reading configuration from '%s'...", configFile))
		var err error
		data, err = os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
	}
	if err := config.Init(data); err != nil {
		return fmt.Errorf("initializing configuration: %w", err)
	}

	if term := viper.GetString("term"); term != "" {
		config.Pipeline.Term = term
	}
	if manifest := viper.GetString("manifest"); manifest != "" {
		config.Pipeline.Manifest = manifest
	}
	if credentialFile := viper.GetString("credential-file"); credentialFile != "" {
		config.Pipeline.CredentialFile = credentialFile
	}
	return nil
}
