// Package annotator holds the annotation service's event types and the
// buffered collector that ships them to Kafka.
package annotator

import "time"

type EventType string

const (
	EventAnnotate  EventType = "annotate"
	EventCacheHit  EventType = "cache_hit"
	EventCacheMiss EventType = "cache_miss"
	EventZeroMatch EventType = "zero_match"
)

// AnnotateEvent records one annotation request for downstream analytics.
type AnnotateEvent struct {
	Type       EventType `json:"type"`
	Dictionary string    `json:"dictionary"`
	Mode       string    `json:"mode"`
	Matches    int       `json:"matches"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}
