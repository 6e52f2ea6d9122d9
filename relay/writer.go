package relay

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/go-kivik/nano"
)

// WriterPublisher writes each change record to an io.Writer as one line of
// JSON.
type WriterPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ Publisher = &WriterPublisher{}

// NewWriterPublisher returns a Publisher writing NDJSON to w.
func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{enc: json.NewEncoder(w)}
}

// Publish writes change. The database name is not included.
func (p *WriterPublisher) Publish(_ context.Context, _ string, change nano.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(change)
}
