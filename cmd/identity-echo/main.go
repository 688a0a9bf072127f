/*
Copyright 2025 The Scalecheck Team.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/scalecheck-project/scalecheck/pkg/echo"
)

var addr string

func main() {
	flag.StringVar(&addr, "bind-address", ":8000", "The address the identity-echo server binds to.")
	klog.InitFlags(flag.CommandLine)
	defer klog.Flush()
	flag.Parse()

	identity := echo.ResolveIdentity()
	server := echo.NewHTTPServer(addr, identity)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		klog.InfoS("Starting identity-echo server", "address", addr, "identity", identity)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.Fatalf("identity-echo server failed: %v", err)
		}
	}()

	<-ctx.Done()
	klog.Info("Shutting down identity-echo server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		klog.ErrorS(err, "Failed to shut down identity-echo server")
	}
}
