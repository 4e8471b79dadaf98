// Package perfstats brackets arbitrary operations with begin/end
// measurement calls and feeds the resulting durations both to Prometheus
// and to an append-only JSON-lines log, mirroring the statistics
// collaborator the ATG and worker packages consume.
package perfstats

import (
	"sync"
	"time"

	"github.com/charging-platform/cs-simulator/internal/metrics"
)

// Token is the opaque handle returned by BeginMeasure and required by
// EndMeasure to close out a measurement.
type Token struct {
	id    string
	start time.Time
}

// Sink receives a completed measurement. Storage implementations (see
// storage.go) and test doubles both satisfy this.
type Sink interface {
	Record(id string, start, end time.Time, duration time.Duration)
}

// Recorder is the begin/end measurement collaborator consumed by
// internal/atg and internal/worker.
type Recorder struct {
	mu    sync.Mutex
	sinks []Sink
}

// NewRecorder builds a Recorder that fans every completed measurement out
// to the given sinks (e.g. a JSON-lines file writer).
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks}
}

// BeginMeasure starts a measurement identified by id, returning a Token to
// pass to EndMeasure. Safe to call concurrently from multiple connector
// loops and dispatcher goroutines.
func (r *Recorder) BeginMeasure(id string) Token {
	return Token{id: id, start: time.Now()}
}

// EndMeasure closes out the measurement started by tok, recording its
// duration to Prometheus and to every configured sink.
func (r *Recorder) EndMeasure(id string, tok Token) time.Duration {
	end := time.Now()
	d := end.Sub(tok.start)

	metrics.OCPPRequestDuration.WithLabelValues(id).Observe(d.Seconds())

	r.mu.Lock()
	sinks := r.sinks
	r.mu.Unlock()
	for _, s := range sinks {
		s.Record(id, tok.start, end, d)
	}
	return d
}
