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

package sampler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// identity tokens are short hostnames or instance ids; anything beyond this
// is a misbehaving backend, not an identity.
const maxIdentityBytes = 4096

// IdentityExtractor derives an identity token from a probe response.
//
// Contract: the token must be stable across probes against the same backend
// instance and distinct across instances for the lifetime of one sampling
// pass. The extractor may return "" when the response carries no identity.
type IdentityExtractor func(status int, body []byte) string

// TrimmedBody is the default extractor: the response body with surrounding
// whitespace removed, e.g. a hostname or instance id echoed by the backend.
func TrimmedBody(_ int, body []byte) string {
	return strings.TrimSpace(string(body))
}

// HTTPProber probes a fixed URL with GET requests. Keep-alives are disabled
// so each probe opens a fresh connection and the load balancer is free to
// route it to any backend.
type HTTPProber struct {
	url     string
	client  *http.Client
	extract IdentityExtractor
}

// NewHTTPProber builds a prober for the given URL. A nil extract uses
// TrimmedBody.
func NewHTTPProber(url string, extract IdentityExtractor) *HTTPProber {
	if extract == nil {
		extract = TrimmedBody
	}
	transport := &http.Transport{
		DisableKeepAlives: true,
		MaxIdleConns:      0,
	}
	return &HTTPProber{
		url: url,
		client: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		extract: extract,
	}
}

// Probe implements the Probe contract against the configured URL.
func (p *HTTPProber) Probe(ctx context.Context) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return ProbeResult{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIdentityBytes))
	if err != nil {
		return ProbeResult{}, err
	}

	return ProbeResult{
		Status:   resp.StatusCode,
		Identity: p.extract(resp.StatusCode, body),
	}, nil
}
