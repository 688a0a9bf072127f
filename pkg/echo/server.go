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

// Package echo serves a stable per-instance identity token over HTTP. It is
// the reference probe target for the scaling verifier: every replica of an
// identity-echo deployment answers /scaling with a token that is stable for
// the replica's lifetime and distinct across replicas.
package echo

import (
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"github.com/scalecheck-project/scalecheck/pkg/constants"
	"github.com/scalecheck-project/scalecheck/pkg/utils"
)

type httpServer struct {
	identity string
}

// NewHTTPServer builds the identity-echo server for the given listen
// address and identity token.
func NewHTTPServer(addr, identity string) *http.Server {
	server := &httpServer{identity: identity}

	r := mux.NewRouter()
	r.HandleFunc("/scaling", server.scaling).Methods("GET")

	// Health related handlers
	r.HandleFunc("/healthz", server.healthz).Methods("GET")
	r.HandleFunc("/readyz", server.readyz).Methods("GET")

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

// ResolveIdentity picks the token this instance will echo: the
// SCALECHECK_IDENTITY override, else the hostname (the pod name under
// Kubernetes), else a process-lifetime UUID.
func ResolveIdentity() string {
	if identity := utils.LoadEnv(constants.EnvIdentity, ""); identity != "" {
		return identity
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return uuid.NewString()
}

func (s *httpServer) scaling(w http.ResponseWriter, r *http.Request) {
	klog.V(4).InfoS("serving identity probe", "identity", s.identity, "remote", r.RemoteAddr)
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, s.identity)
}

func (s *httpServer) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "healthy")
}

func (s *httpServer) readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ready")
}
