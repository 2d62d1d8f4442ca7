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

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/config"
	"github.com/kbase/studyscan/databases"
	"github.com/kbase/studyscan/studies"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var Version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// This type implements the StudyService interface, running a study scan
// against a repository for each request.
type scanService struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
	// repository scanned by each request
	Database databases.Database
	// token provider and credential used for each scan
	Tokens     auth.TokenProvider
	Credential auth.Credential
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *scanService) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
			Repository:    config.ImmPort.Name,
		},
	}, nil
}

type StudyScanOutput struct {
	Body studies.Report `doc:"Usability report for the studies matching the given term"`
}

type ScanStudiesInput struct {
	Term string `query:"term" example:"malaria" doc:"A free-text term used to search for candidate studies (default: the configured term)"`
	// true if the term parameter appeared in the request, even if empty
	termGiven bool
}

// records whether a term was given, so an explicitly empty term can be
// rejected rather than replaced by the configured one
func (input *ScanStudiesInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	_, input.termGiven = u.Query()["term"]
	return nil
}

// handler method for scanning the studies that match a search term
func (service *scanService) scanStudies(ctx context.Context,
	input *ScanStudiesInput) (*StudyScanOutput, error) {

	term := input.Term
	if !input.termGiven {
		term = config.Pipeline.Term
	}
	slog.Info(fmt.Sprintf("Scanning studies for '%s'...", term))
	report, err := studies.Pipeline{
		Database:   service.Database,
		Tokens:     service.Tokens,
		Credential: service.Credential,
		Term:       term,
	}.Run()
	if err != nil {
		var searchErr *databases.InvalidSearchParameter
		if errors.As(err, &searchErr) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error502BadGateway(err.Error())
	}
	return &StudyScanOutput{
		Body: report,
	}, nil
}

// returns the uptime for the service in seconds
func (service *scanService) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a study scanning service that queries the given database,
// obtaining tokens from the given provider with the given credential
func NewStudyScanService(db databases.Database, tokens auth.TokenProvider,
	credential auth.Credential) (StudyService, error) {

	if db == nil {
		return nil, fmt.Errorf("No database was specified.")
	}
	if tokens == nil {
		return nil, fmt.Errorf("No token provider was specified.")
	}

	service := new(scanService)
	service.Name = "studyscan"
	service.Version = Version
	service.Port = -1
	service.StartTime = time.Now()
	service.Database = db
	service.Tokens = tokens
	service.Credential = credential

	// set up routing
	service.Router = mux.NewRouter()
	service.API = humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(service.API, "/", service.getRoot)

	// API v1
	huma.Get(service.API, "/api/v1/studies", service.scanStudies)

	return service, nil
}

// starts the study scanning service
func (service *scanService) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *scanService) Shutdown(ctx context.Context) error {
	if service.Server != nil {
		return service.Server.Shutdown(ctx)
	}
	return nil
}

// closes down the service abruptly, freeing all resources
func (service *scanService) Close() {
	if service.Server != nil {
		service.Server.Close()
	}
}
