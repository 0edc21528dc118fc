// Package pipeline consumes documents from Kafka, annotates them against
// every loaded dictionary, and publishes annotation events downstream.
package pipeline

import (
	"time"

	"github.com/annotext/annotation-platform/internal/matcher"
)

// DocumentEvent is the inbound message on the document-annotate topic.
type DocumentEvent struct {
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// AnnotationEvent is published for each dictionary that matched a document.
type AnnotationEvent struct {
	DocumentID string                   `json:"document_id"`
	Dictionary string                   `json:"dictionary"`
	Matches    []matcher.OffsetPosition `json:"matches"`
	LatencyMs  int64                    `json:"latency_ms"`
	Timestamp  time.Time                `json:"timestamp"`
}
