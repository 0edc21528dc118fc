// Package integration contains tests that verify the interaction between
// annotation components. These tests use httptest servers and a real RPC
// server with full handler wiring but no external dependencies (Kafka,
// PostgreSQL, Redis).
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annotext/annotation-platform/internal/annotator/handler"
	annrpc "github.com/annotext/annotation-platform/internal/annotator/rpc"
	"github.com/annotext/annotation-platform/internal/dictionary"
	"github.com/annotext/annotation-platform/pkg/config"
	"github.com/annotext/annotation-platform/pkg/grpc"
	"github.com/annotext/annotation-platform/pkg/health"
	"github.com/annotext/annotation-platform/pkg/middleware"
	"github.com/annotext/annotation-platform/pkg/proto"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testRegistry(t *testing.T) *dictionary.Registry {
	t.Helper()
	reg := dictionary.NewRegistry()
	places := reg.Add("places")
	places.LoadTerm("the bronx")
	places.LoadTerm("new york")
	return reg
}

// newAnnotatorServer wires the HTTP handler the way cmd/annotator does,
// minus the external dependencies.
func newAnnotatorServer(t *testing.T, reg *dictionary.Registry) *httptest.Server {
	t.Helper()

	h := handler.New(reg, nil, nil, nil, config.AnnotatorConfig{
		MaxTextBytes: 1 << 20,
		MaxTokens:    10000,
	})

	checker := health.NewChecker()
	checker.Register("dictionaries", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/annotate", h.AnnotateText)
	mux.HandleFunc("POST /api/v1/annotate/tokens", h.AnnotateTokens)
	mux.HandleFunc("GET /api/v1/dictionaries", h.Dictionaries)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(5 * time.Second)(chain)
	chain = middleware.RequestID(chain)

	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

func TestAnnotateOverHTTP(t *testing.T) {
	srv := newAnnotatorServer(t, testRegistry(t))

	resp := postJSON(t, srv.URL+"/api/v1/annotate", map[string]string{
		"dictionary": "places",
		"text":       "I live in the Bronx",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("response missing X-Request-ID header")
	}

	var body struct {
		Dictionary string `json:"dictionary"`
		Matches    []struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"matches"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 1 || len(body.Matches) != 1 {
		t.Fatalf("expected 1 match, got %+v", body)
	}
	if body.Matches[0].Start != 10 || body.Matches[0].End != 19 {
		t.Errorf("match span = [%d,%d), want [10,19)", body.Matches[0].Start, body.Matches[0].End)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newAnnotatorServer(t, testRegistry(t))

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestCacheStatsReportsDisabled(t *testing.T) {
	srv := newAnnotatorServer(t, testRegistry(t))

	resp, err := http.Get(srv.URL + "/api/v1/cache/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "disabled" {
		t.Errorf("expected status=disabled without redis, got %q", body["status"])
	}
}

// ---------------------------------------------------------------------------
// RPC
// ---------------------------------------------------------------------------

func startRPCServer(t *testing.T, reg *dictionary.Registry) string {
	t.Helper()
	server := grpc.NewServer()
	annrpc.NewService(reg, nil).RegisterOn(server)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve("127.0.0.1:0") }()
	t.Cleanup(server.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for server.Addr() == nil {
		select {
		case err := <-errCh:
			t.Fatalf("rpc server failed to start: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("rpc server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return server.Addr().String()
}

func TestAnnotateOverRPC(t *testing.T) {
	addr := startRPCServer(t, testRegistry(t))

	client, err := grpc.Dial(addr)
	if err != nil {
		t.Fatalf("dialing rpc server: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp proto.AnnotateResponse
	err = client.Call(ctx, "Annotator.Annotate", &proto.AnnotateRequest{
		Dictionary: "places",
		Text:       "from the Bronx to New York",
	}, &resp)
	if err != nil {
		t.Fatalf("Annotate call: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 matches, got %+v", resp)
	}

	var list proto.ListDictionariesResponse
	if err := client.Call(ctx, "Annotator.ListDictionaries", &proto.ListDictionariesRequest{}, &list); err != nil {
		t.Fatalf("ListDictionaries call: %v", err)
	}
	if len(list.Dictionaries) != 1 || list.Dictionaries[0].Name != "places" {
		t.Errorf("unexpected dictionary listing: %+v", list)
	}
	if list.TotalTerms != 2 {
		t.Errorf("total_terms = %d, want 2", list.TotalTerms)
	}

	var loadResp proto.LoadTermsResponse
	err = client.Call(ctx, "Annotator.LoadTerms", &proto.LoadTermsRequest{
		Dictionary: "people",
		Terms:      []string{"patrice lopez", ""},
	}, &loadResp)
	if err != nil {
		t.Fatalf("LoadTerms call: %v", err)
	}
	if loadResp.Loaded != 1 {
		t.Errorf("loaded = %d, want 1 (blank terms are skipped)", loadResp.Loaded)
	}

	if err := client.Call(ctx, "Annotator.Annotate", &proto.AnnotateRequest{Dictionary: "nope", Text: "x"}, nil); err == nil {
		t.Error("expected error for unknown dictionary")
	}
}
