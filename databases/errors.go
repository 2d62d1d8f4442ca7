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

package databases

import (
	"fmt"
)

// indicates that a user could not be authorized to access a database
type UnauthorizedError struct {
	Database, Message, User string
}

func (e UnauthorizedError) Error() string {
	if e.User != "" {
		return fmt.Sprintf("Unable to authorize user '%s' for database '%s': %s", e.User, e.Database, e.Message)
	} else {
		return fmt.Sprintf("Unable to authorize user for database '%s': %s", e.Database, e.Message)
	}
}

// indicates that a database exists but is currently unavailable
type UnavailableError struct {
	Database string
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("Cannot reach database '%s': unavailable", e.Database)
}

// This error type is returned when an invalid search parameter is specified
type InvalidSearchParameter struct {
	Database, Message string
}

func (e InvalidSearchParameter) Error() string {
	return fmt.Sprintf("Invalid search parameter for database '%s': %s", e.Database, e.Message)
}

// indicates that a token response carried no access token
type MissingTokenError struct {
	Database string
}

func (e MissingTokenError) Error() string {
	return fmt.Sprintf("No access token was returned by database '%s'", e.Database)
}

// indicates that a database answered a request with a non-success status
type StatusError struct {
	Database, Resource string
	StatusCode         int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("Request for '%s' in database '%s' failed with status %d",
		e.Resource, e.Database, e.StatusCode)
}

// indicates that a response body didn't have the expected JSON shape
type UnexpectedResponseError struct {
	Database, Resource, Message string
}

func (e UnexpectedResponseError) Error() string {
	return fmt.Sprintf("Unexpected response for '%s' from database '%s': %s",
		e.Resource, e.Database, e.Message)
}

// indicates that a study metadata request returned an empty list
type EmptyMetadataError struct {
	Database, StudyId string
}

func (e EmptyMetadataError) Error() string {
	return fmt.Sprintf("No metadata was returned for study '%s' in database '%s'",
		e.StudyId, e.Database)
}

// this error type is emitted if an endpoint redirects an HTTPS request to an
// HTTP endpoint (it's NUTS that this can happen!)
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("The endpoint %s is attempting to downgrade an HTTPS request to HTTP",
		e.Endpoint)
}
