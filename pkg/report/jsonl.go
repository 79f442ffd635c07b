package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/matzehuels/bayesaudit/pkg/audit"
)

// JSONLRecorder writes one JSON object per line: a [StageDoc] per stage and
// a [ResultDoc] at the end. It is safe for concurrent use.
type JSONLRecorder struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONL creates a recorder writing to w. The caller owns w.
func NewJSONL(w io.Writer) *JSONLRecorder {
	return &JSONLRecorder{enc: json.NewEncoder(w)}
}

// CreateJSONL opens path for appending and records to it.
func CreateJSONL(path string) (*JSONLRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := NewJSONL(f)
	r.closer = f
	return r, nil
}

// RecordStage writes a stage line.
func (r *JSONLRecorder) RecordStage(_ context.Context, rep audit.StageReport) error {
	return r.write(NewStageDoc(rep))
}

// RecordResult writes the result line.
func (r *JSONLRecorder) RecordResult(_ context.Context, res *audit.Result) error {
	return r.write(NewResultDoc(res))
}

func (r *JSONLRecorder) write(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Close closes the file opened by [CreateJSONL]. It is a no-op for
// recorders created with [NewJSONL].
func (r *JSONLRecorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

var _ audit.Recorder = (*JSONLRecorder)(nil)
