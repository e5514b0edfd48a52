// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crmngr-cli/pkg/puppetfile"
)

const stdlibResponse = `{
  "slug": "puppetlabs-stdlib",
  "current_release": {"version": "4.20.0", "updated_at": "2017-08-01 10:31:22 -0700"},
  "releases": [{"version": "4.20.0"}, {"version": "4.19.0"}]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "crmngr/test" {
			t.Errorf("User-Agent = %q", ua)
		}
		switch r.URL.Path {
		case "/v3/modules/puppetlabs-stdlib":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(stdlibResponse))
		case "/v3/modules/broken-json":
			_, _ = w.Write([]byte("{not json"))
		case "/v3/modules/broken-date":
			_, _ = w.Write([]byte(`{"current_release": {"version": "1.0.0", "updated_at": "yesterday"}}`))
		case "/v3/modules/down-down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCurrentVersion(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	client := NewClient(WithBaseURL(srv.URL+"/"), WithUserAgent("crmngr/test"))

	v, err := client.CurrentVersion(context.Background(), "puppetlabs", "stdlib")
	if err != nil {
		t.Fatalf("CurrentVersion() error = %v", err)
	}
	if !v.Equal(puppetfile.Registry("4.20.0")) {
		t.Errorf("version = %v, want 4.20.0", v)
	}
	if got := v.Date.UTC().Format(time.DateOnly); got != "2017-08-01" {
		t.Errorf("date = %s, want 2017-08-01", got)
	}
	if got := v.Report(); got != "4.20.0 (2017-08-01)" {
		t.Errorf("Report() = %q", got)
	}
}

func TestCurrentVersion_Errors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	client := NewClient(WithBaseURL(srv.URL), WithUserAgent("crmngr/test"))

	tests := []struct {
		name      string
		namespace string
		module    string
		extra     error
	}{
		{name: "not_found", namespace: "nobody", module: "nothing", extra: ErrModuleNotFound},
		{name: "bad_status", namespace: "down", module: "down"},
		{name: "bad_json", namespace: "broken", module: "json"},
		{name: "bad_date", namespace: "broken", module: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := client.CurrentVersion(context.Background(), tt.namespace, tt.module)
			if !errors.Is(err, ErrForge) {
				t.Fatalf("error = %v, want ErrForge", err)
			}
			if tt.extra != nil && !errors.Is(err, tt.extra) {
				t.Errorf("error = %v, want %v", err, tt.extra)
			}
		})
	}
}

func TestHasVersion(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	client := NewClient(WithBaseURL(srv.URL), WithUserAgent("crmngr/test"))

	for version, want := range map[string]bool{"4.19.0": true, "4.20.0": true, "1.0.0": false} {
		got, err := client.HasVersion(context.Background(), "puppetlabs", "stdlib", version)
		if err != nil {
			t.Fatalf("HasVersion(%s) error = %v", version, err)
		}
		if got != want {
			t.Errorf("HasVersion(%s) = %v, want %v", version, got, want)
		}
	}

	if _, err := client.HasVersion(context.Background(), "nobody", "nothing", "1.0.0"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("HasVersion on unknown module error = %v", err)
	}
}
