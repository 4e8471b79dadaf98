package perfstats

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Record is one line of the JSON-lines measurement log.
type Record struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration float64   `json:"durationSeconds"`
}

// FileStorage is the out-of-scope "statistics storage" collaborator named
// in the simulator's external interfaces, concretely implemented as a
// local append-only JSON-lines log.
type FileStorage struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileStorage opens (creating if necessary) the JSON-lines log at path
// for appending.
func NewFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileStorage{file: f, enc: json.NewEncoder(f)}, nil
}

// Record satisfies Sink, appending one JSON line per measurement.
func (s *FileStorage) Record(id string, start, end time.Time, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(Record{ID: id, Start: start, End: end, Duration: duration.Seconds()})
}

// Close flushes and closes the underlying file.
func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
