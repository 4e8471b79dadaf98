package perfstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	records []Record
}

func (m *memSink) Record(id string, start, end time.Time, duration time.Duration) {
	m.records = append(m.records, Record{ID: id, Start: start, End: end, Duration: duration.Seconds()})
}

func TestRecorderBracketsMeasurement(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink)

	tok := r.BeginMeasure("StartTransaction with ATG")
	time.Sleep(time.Millisecond)
	d := r.EndMeasure("StartTransaction with ATG", tok)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "StartTransaction with ATG", sink.records[0].ID)
	assert.Greater(t, d, time.Duration(0))
	assert.True(t, sink.records[0].End.After(sink.records[0].Start) || sink.records[0].End.Equal(sink.records[0].Start))
}

func TestRecorderFansOutToMultipleSinks(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	r := NewRecorder(a, b)

	tok := r.BeginMeasure("StopTransaction with ATG")
	r.EndMeasure("StopTransaction with ATG", tok)

	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)
}
