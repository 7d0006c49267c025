package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/kwchan/clinic-booking-ai/internal/booking"
	"github.com/kwchan/clinic-booking-ai/internal/observability/metrics"
)

const maxExtractionRecords = 50

// EntityExtractionLLM is the slice of the LLM service the extractor needs.
type EntityExtractionLLM interface {
	ExtractEntities(ctx context.Context, message string, current map[string]any, recent string) (map[string]any, error)
}

// ExtractionRecord captures one extraction attempt for diagnostics.
type ExtractionRecord struct {
	Message          string         `json:"message"`
	Extracted        map[string]any `json:"extracted_entities"`
	ValidationErrors []string       `json:"validation_errors,omitempty"`
	Merged           bool           `json:"merged_successfully"`
	EntitiesBefore   map[string]any `json:"entities_before"`
	EntitiesAfter    map[string]any `json:"entities_after"`
	Timestamp        time.Time      `json:"timestamp"`
}

// ExtractionStats summarises extraction quality across the service.
type ExtractionStats struct {
	Total       int                `json:"total_extractions"`
	Successful  int                `json:"successful_extractions"`
	SuccessRate float64            `json:"success_rate"`
	Recent      []ExtractionRecord `json:"recent"`
}

// EntityExtractor orchestrates one extraction round: ask the LLM for
// entities, merge the accepted ones into the conversation, and record the
// attempt. It keeps a bounded history of recent attempts for diagnostics.
type EntityExtractor struct {
	llm     EntityExtractionLLM
	merger  *booking.Merger
	metrics *metrics.BookingMetrics

	mu         sync.Mutex
	records    []ExtractionRecord
	total      int
	successful int
}

// NewEntityExtractor builds an extractor. Metrics may be nil.
func NewEntityExtractor(llm EntityExtractionLLM, merger *booking.Merger, m *metrics.BookingMetrics) *EntityExtractor {
	return &EntityExtractor{
		llm:     llm,
		merger:  merger,
		metrics: m,
	}
}

// ExtractAndMerge runs one extraction round against the conversation's
// entities, updating them in place with every accepted value. It returns
// whether the round merged cleanly and the validation errors for rejected
// values. An error is returned only when the LLM itself is unreachable; an
// empty extraction is a normal outcome that leaves the entities untouched.
func (x *EntityExtractor) ExtractAndMerge(ctx context.Context, conv *Conversation, message string) (bool, []string, error) {
	before := conv.Entities.Map()

	extracted, err := x.llm.ExtractEntities(ctx, message, before, conv.RecentContext(6))
	if err != nil {
		x.metrics.ObserveExtraction("llm_error")
		return false, nil, err
	}

	record := ExtractionRecord{
		Message:        message,
		Extracted:      extracted,
		EntitiesBefore: before,
		Timestamp:      time.Now(),
	}

	if len(extracted) == 0 {
		record.EntitiesAfter = before
		x.push(record)
		x.metrics.ObserveExtraction("empty")
		return false, nil, nil
	}

	merged, errs := x.merger.Merge(conv.Entities, extracted)
	conv.Entities = merged

	record.ValidationErrors = errs
	record.Merged = len(errs) == 0
	record.EntitiesAfter = merged.Map()
	x.push(record)

	if record.Merged {
		x.metrics.ObserveExtraction("merged")
	} else {
		x.metrics.ObserveExtraction("rejected")
	}
	return record.Merged, errs, nil
}

// Quality returns the fraction of extraction rounds that merged cleanly,
// zero when nothing has been extracted yet.
func (x *EntityExtractor) Quality() float64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.total == 0 {
		return 0
	}
	return float64(x.successful) / float64(x.total)
}

// Stats returns the extraction counters and the most recent attempts.
func (x *EntityExtractor) Stats() ExtractionStats {
	x.mu.Lock()
	defer x.mu.Unlock()

	recent := x.records
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	out := make([]ExtractionRecord, len(recent))
	copy(out, recent)

	rate := 0.0
	if x.total > 0 {
		rate = float64(x.successful) / float64(x.total)
	}
	return ExtractionStats{
		Total:       x.total,
		Successful:  x.successful,
		SuccessRate: rate,
		Recent:      out,
	}
}

func (x *EntityExtractor) push(record ExtractionRecord) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.total++
	if record.Merged {
		x.successful++
	}
	x.records = append(x.records, record)
	if len(x.records) > maxExtractionRecords {
		x.records = x.records[len(x.records)-maxExtractionRecords:]
	}
}
