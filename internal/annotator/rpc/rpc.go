// Package rpc exposes the annotator over the internal JSON-over-TCP RPC
// layer so pipeline workers can annotate without going through HTTP.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annotext/annotation-platform/internal/dictionary"
	"github.com/annotext/annotation-platform/internal/matcher"
	"github.com/annotext/annotation-platform/pkg/grpc"
	"github.com/annotext/annotation-platform/pkg/metrics"
	"github.com/annotext/annotation-platform/pkg/proto"
)

type matcherPosition = matcher.OffsetPosition

// Service registers annotation methods on an RPC server.
type Service struct {
	registry *dictionary.Registry
	metrics  *metrics.Metrics
}

// NewService creates the RPC service backed by the given dictionary registry.
func NewService(reg *dictionary.Registry, m *metrics.Metrics) *Service {
	return &Service{registry: reg, metrics: m}
}

// RegisterOn installs all Annotator.* methods on the server.
func (s *Service) RegisterOn(server *grpc.Server) {
	server.Register("Annotator.Annotate", s.annotate)
	server.Register("Annotator.AnnotateTokens", s.annotateTokens)
	server.Register("Annotator.ListDictionaries", s.listDictionaries)
	server.Register("Annotator.LoadTerms", s.loadTerms)
	server.Register("Annotator.Health", s.health)
}

func (s *Service) annotate(ctx context.Context, req json.RawMessage) (any, error) {
	var in proto.AnnotateRequest
	if err := json.Unmarshal(req, &in); err != nil {
		return nil, fmt.Errorf("decoding annotate request: %w", err)
	}
	m, err := s.registry.Matcher(in.Dictionary)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	matches := m.Match(in.Text)
	s.observe("text", time.Since(start), len(matches))
	return s.response(in.Dictionary, matches, start), nil
}

func (s *Service) annotateTokens(ctx context.Context, req json.RawMessage) (any, error) {
	var in proto.AnnotateTokensRequest
	if err := json.Unmarshal(req, &in); err != nil {
		return nil, fmt.Errorf("decoding annotate tokens request: %w", err)
	}
	m, err := s.registry.Matcher(in.Dictionary)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	mode := "tokens"
	var matches []matcherPosition
	if in.AsText {
		mode = "tokens_as_text"
		matches = m.MatchTokensAsText(in.Tokens)
	} else {
		matches = m.MatchTokens(in.Tokens)
	}
	s.observe(mode, time.Since(start), len(matches))
	return s.response(in.Dictionary, matches, start), nil
}

func (s *Service) listDictionaries(ctx context.Context, req json.RawMessage) (any, error) {
	counts := s.registry.TermCounts()
	resp := proto.ListDictionariesResponse{
		Dictionaries: make([]proto.DictionaryInfo, 0, len(counts)),
	}
	for _, name := range s.registry.Names() {
		resp.Dictionaries = append(resp.Dictionaries, proto.DictionaryInfo{
			Name:      name,
			TermCount: counts[name],
		})
		resp.TotalTerms += counts[name]
	}
	return &resp, nil
}

func (s *Service) loadTerms(ctx context.Context, req json.RawMessage) (any, error) {
	var in proto.LoadTermsRequest
	if err := json.Unmarshal(req, &in); err != nil {
		return nil, fmt.Errorf("decoding load terms request: %w", err)
	}
	if in.Dictionary == "" {
		return nil, fmt.Errorf("dictionary name is required")
	}
	loaded := s.registry.LoadTerms(in.Dictionary, in.Terms)
	if s.metrics != nil {
		s.metrics.TermsLoadedTotal.WithLabelValues(in.Dictionary).Add(float64(loaded))
	}
	return &proto.LoadTermsResponse{Dictionary: in.Dictionary, Loaded: loaded}, nil
}

func (s *Service) health(ctx context.Context, req json.RawMessage) (any, error) {
	return &proto.HealthCheckResponse{Status: "SERVING"}, nil
}

func (s *Service) response(dict string, matches []matcherPosition, start time.Time) *proto.AnnotateResponse {
	resp := &proto.AnnotateResponse{
		Dictionary: dict,
		Matches:    make([]proto.Match, len(matches)),
		Count:      len(matches),
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	for i, m := range matches {
		resp.Matches[i] = proto.Match{Start: m.Start, End: m.End}
	}
	return resp
}

func (s *Service) observe(mode string, d time.Duration, matches int) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnnotateRequestsTotal.WithLabelValues(mode, "success").Inc()
	s.metrics.AnnotateLatency.WithLabelValues(mode).Observe(d.Seconds())
	s.metrics.MatchesPerRequest.Observe(float64(matches))
}
