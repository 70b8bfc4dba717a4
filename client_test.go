package milesight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

const testToken = "test-token"

func testCredentials() Credentials {
	return Credentials{
		Username: "apiuser",
		Password: "password",
		Key:      testKey,
		IV:       testIV,
	}
}

// newTestClient starts handler on an httptest server and returns a client
// pointed at it. The client logs to the returned buffer.
func newTestClient(t *testing.T, handler http.Handler, opts ...ClientOption) (*Client, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logs := &bytes.Buffer{}
	opts = append([]ClientOption{
		WithHTTPClient(server.Client()),
		WithLogger(zerolog.New(logs).Level(zerolog.DebugLevel)),
	}, opts...)

	c, err := New(server.URL, 0, testCredentials(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return c, logs
}

// authenticate sets a session token without a login round trip.
func authenticate(c *Client) {
	c.auth.update(testToken)
}

// fakeCollection serves records from an offset/limit list endpoint.
type fakeCollection struct {
	t *testing.T

	listField  string
	totalField string
	records    []Record
	// total overrides the reported count when non-zero.
	total int
	// failAt makes the request with this offset fail with status 500.
	failAt int

	mu       sync.Mutex
	requests []*http.Request
}

func newFakeCollection(t *testing.T, listField, totalField string, n int) *fakeCollection {
	t.Helper()

	records := make([]Record, n)
	for i := range records {
		records[i] = Record{"id": fmt.Sprintf("%d", i+1), "name": fmt.Sprintf("record-%d", i+1)}
	}

	return &fakeCollection{
		t:          t,
		listField:  listField,
		totalField: totalField,
		records:    records,
		failAt:     -1,
	}
}

func (f *fakeCollection) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		f.t.Errorf("invalid offset %q", r.URL.Query().Get("offset"))
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		f.t.Errorf("invalid limit %q", r.URL.Query().Get("limit"))
	}

	if offset == f.failAt {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}

	page := []Record{}
	if offset < len(f.records) {
		page = f.records[offset:min(offset+limit, len(f.records))]
	}

	total := len(f.records)
	if f.total != 0 {
		total = f.total
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		f.listField:  page,
		f.totalField: total,
	})
}

func (f *fakeCollection) offsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	offsets := make([]int, 0, len(f.requests))
	for _, r := range f.requests {
		n, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, n)
	}
	return offsets
}

func (f *fakeCollection) request(i int) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests[i]
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		port    int
		want    string
		wantErr bool
	}{
		{
			name:    "host with port",
			baseURL: "https://192.168.23.150",
			port:    8080,
			want:    "https://192.168.23.150:8080",
		},
		{
			name:    "port replaces port of base url",
			baseURL: "https://gateway.local:443",
			port:    8443,
			want:    "https://gateway.local:8443",
		},
		{
			name:    "zero port keeps base url",
			baseURL: "http://127.0.0.1:5000",
			port:    0,
			want:    "http://127.0.0.1:5000",
		},
		{
			name:    "trailing path is dropped",
			baseURL: "https://gateway.local/ui/",
			port:    443,
			want:    "https://gateway.local:443",
		},
		{
			name:    "missing scheme",
			baseURL: "192.168.23.150",
			port:    443,
			wantErr: true,
		},
		{
			name:    "invalid port",
			baseURL: "https://gateway.local",
			port:    70000,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL, tt.port, testCredentials())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if got := c.BaseURL().String(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("https://gateway.local", 443, testCredentials())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}

	transport, ok := c.httpClient.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport = %T, want *http.Transport", c.httpClient.Transport)
	}
	if !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("default transport should skip TLS verification")
	}

	if !strings.HasPrefix(c.userAgent, "go-milesight/") {
		t.Errorf("userAgent = %q, want go-milesight/ prefix", c.userAgent)
	}

	if c.IsAuthenticated() {
		t.Error("new client should not be authenticated")
	}
}

func TestNew_SelfSignedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"servs": []any{}})
	}))
	defer server.Close()

	c, err := New(server.URL, 0, testCredentials(), WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, _, err := c.PacketForwarder(context.Background()); err != nil {
		t.Errorf("PacketForwarder() error = %v, want nil against a self-signed server", err)
	}
}

func TestWithUserAgent(t *testing.T) {
	var got string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	}), WithUserAgent("exporter/1.0"))

	if _, err := c.NetworkServerSettings(context.Background()); err != nil {
		t.Fatalf("NetworkServerSettings() error = %v", err)
	}

	if got != "exporter/1.0" {
		t.Errorf("User-Agent = %q, want exporter/1.0", got)
	}
}
