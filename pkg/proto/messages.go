// Package proto defines the shared message types used for internal RPC
// communication between annotation services.
//
// These types mirror the Protocol Buffer definitions in api/proto/ and are
// hand-written for zero-dependency usage. To regenerate from .proto files:
//
//	protoc --go_out=. --go-grpc_out=. api/proto/**/*.proto
//
// The hand-written types use JSON struct tags for serialization over the
// platform's lightweight JSON-over-TCP RPC layer (see pkg/grpc).
package proto

// ---------- Common ----------

// Match is a half-open or inclusive span in the annotated input, depending
// on the mode the annotation was produced in. Character-offset annotations
// use exclusive End; token-index annotations use inclusive End.
type Match struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Annotate ----------

// AnnotateRequest is the input to the Annotate RPC. Text is matched
// against the named dictionary and spans are reported as character offsets.
type AnnotateRequest struct {
	Dictionary string `json:"dictionary"`
	Text       string `json:"text"`
}

// AnnotateTokensRequest is the input to the AnnotateTokens RPC. Spans are
// reported as token indexes. When AsText is set the token stream is first
// reconstructed into running text and spans are character offsets into it.
type AnnotateTokensRequest struct {
	Dictionary string   `json:"dictionary"`
	Tokens     []string `json:"tokens"`
	AsText     bool     `json:"as_text"`
}

// AnnotateResponse is the output of the Annotate RPCs.
type AnnotateResponse struct {
	Dictionary string  `json:"dictionary"`
	Matches    []Match `json:"matches"`
	Count      int     `json:"count"`
	LatencyMs  int64   `json:"latency_ms"`
}

// ---------- Dictionaries ----------

// ListDictionariesRequest is the (empty) input to the ListDictionaries RPC.
type ListDictionariesRequest struct{}

// DictionaryInfo describes one loaded dictionary.
type DictionaryInfo struct {
	Name      string `json:"name"`
	TermCount int    `json:"term_count"`
}

// ListDictionariesResponse is the output of the ListDictionaries RPC.
type ListDictionariesResponse struct {
	Dictionaries []DictionaryInfo `json:"dictionaries"`
	TotalTerms   int              `json:"total_terms"`
}

// LoadTermsRequest is the input to the LoadTerms RPC. Terms are added to
// the named dictionary, creating it if it does not exist.
type LoadTermsRequest struct {
	Dictionary string   `json:"dictionary"`
	Terms      []string `json:"terms"`
}

// LoadTermsResponse is the output of the LoadTerms RPC.
type LoadTermsResponse struct {
	Dictionary string `json:"dictionary"`
	Loaded     int    `json:"loaded"`
}
