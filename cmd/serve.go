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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kbase/studyscan/auth"
	"github.com/kbase/studyscan/config"
	"github.com/kbase/studyscan/databases/immport"
	"github.com/kbase/studyscan/services"
)

// serveCmd runs the study scanning REST service until interrupted.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve study scans over a REST API.",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		credential, err := auth.LoadCredential(config.Pipeline.CredentialFile)
		if err != nil {
			return err
		}
		db, err := immport.NewDatabase()
		if err != nil {
			return err
		}
		service, err := services.NewStudyScanService(db, db, credential)
		if err != nil {
			return fmt.Errorf("creating the service: %w", err)
		}

		port := config.Service.Port
		if viper.GetInt("port") != 0 {
			port = viper.GetInt("port")
		}

		// Start the service in a goroutine so it doesn't block.
		errs := make(chan error, 1)
		go func() {
			errs <- service.Start(port)
		}()

		// Intercept the SIGINT, SIGHUP, SIGTERM, and SIGQUIT signals, shutting down
		// the service as gracefully as possible if they are encountered.
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan,
			syscall.SIGINT,
			syscall.SIGHUP,
			syscall.SIGTERM,
			syscall.SIGQUIT)

		// Block till we receive one of the above signals (or the service fails).
		select {
		case err := <-errs:
			return err
		case <-sigChan:
		}

		// Create a deadline to wait for.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Wait for connections to close until the deadline elapses.
		slog.Info("Shutting down")
		return service.Shutdown(ctx)
	},
}
