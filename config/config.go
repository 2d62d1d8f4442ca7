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

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// global config variables
var Service serviceConfig
var ImmPort immportConfig
var Pipeline pipelineConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service  serviceConfig  `yaml:"service"`
	ImmPort  immportConfig  `yaml:"immport"`
	Pipeline pipelineConfig `yaml:"pipeline"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.Port = DefaultPort
	conf.Service.MaxConnections = DefaultMaxConnections
	conf.ImmPort = defaultImmPortConfig()
	conf.Pipeline.Term = DefaultSearchTerm
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		slog.Error(fmt.Sprintf("Couldn't parse configuration data: %s", err))
		return err
	}

	// copy the config data into place
	Service = conf.Service
	ImmPort = conf.ImmPort
	Pipeline = conf.Pipeline

	return nil
}

// This helper validates the given service parameters, returning an
// error indicating success or failure.
func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("Invalid max_connections: %d (must be positive)",
			params.MaxConnections)
	}
	return nil
}

// This helper validates the ImmPort repository parameters.
func validateImmPortParameters(params immportConfig) error {
	baseURL, err := url.Parse(params.URL)
	if err != nil {
		return fmt.Errorf("Invalid ImmPort URL '%s': %s", params.URL, err.Error())
	}
	if !baseURL.IsAbs() || baseURL.Host == "" {
		return fmt.Errorf("Invalid ImmPort URL '%s' (must be absolute)", params.URL)
	}
	for name, resource := range map[string]string{
		"token_resource":    params.TokenResource,
		"search_resource":   params.SearchResource,
		"files_resource":    params.FilesResource,
		"metadata_resource": params.MetadataResource,
	} {
		if resource == "" {
			return fmt.Errorf("No ImmPort %s was given", name)
		}
	}
	if params.PageSize <= 0 {
		return fmt.Errorf("Invalid page_size: %d (must be positive)", params.PageSize)
	}
	if params.Timeout < 0 {
		return fmt.Errorf("Invalid timeout: %d (must be non-negative)", params.Timeout)
	}
	return nil
}

func validatePipelineParameters(params pipelineConfig) error {
	if params.Term == "" {
		return fmt.Errorf("No search term was given")
	}
	return nil
}

// This helper validates the configuration globals, returning an error that
// indicates success or failure.
func validateConfig() error {
	if err := validateServiceParameters(Service); err != nil {
		return err
	}
	if err := validateImmPortParameters(ImmPort); err != nil {
		return err
	}
	return validatePipelineParameters(Pipeline)
}

// Initializes the configuration using the given YAML byte data. Blank input
// yields the built-in defaults.
func Init(yamlData []byte) error {
	err := readConfig(yamlData)
	if err != nil {
		return err
	}
	return validateConfig()
}
