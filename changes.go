package nano

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-kivik/nano/chttp"
	"github.com/go-kivik/nano/log"
)

// Rev names one leaf revision in a change record.
type Rev struct {
	Rev string `json:"rev"`
}

// Change is one record of a changes feed.
type Change struct {
	Seq     string          `json:"seq"`
	ID      string          `json:"id"`
	Changes []Rev           `json:"changes"`
	Deleted bool            `json:"deleted,omitempty"`
	Doc     json.RawMessage `json:"doc,omitempty"`
}

// UnmarshalJSON accepts both numeric and string sequences.
func (c *Change) UnmarshalJSON(data []byte) error {
	type alias Change
	var v struct {
		alias
		Seq sequenceID `json:"seq"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Change(v.alias)
	c.Seq = string(v.Seq)
	return nil
}

// ChangesBatch is one unit yielded by a ChangesFeed. A terminal batch, which
// has LastSeq set, is the last one of its feed. Continuous and eventsource
// feeds yield partial batches, with LastSeq nil, as records arrive.
type ChangesBatch struct {
	LastSeq *string  `json:"last_seq,omitempty"`
	Pending *int64   `json:"pending,omitempty"`
	Results []Change `json:"results"`
}

// Terminal reports whether this is the closing batch of the feed.
func (b *ChangesBatch) Terminal() bool {
	return b.LastSeq != nil
}

// Changes opens the database's changes feed. The response is consumed
// incrementally through the returned ChangesFeed, which must be closed.
//
// The feed is framed according to opts.Feed: a normal or longpoll feed yields
// exactly one terminal batch, while continuous and eventsource feeds yield a
// batch per burst of records received, until the server ends the feed, the
// context is cancelled, or the feed is closed. Dropped feeds are not
// reconnected; resume with Since set to ChangesFeed.LastSeq.
func (d *DB) Changes(ctx context.Context, opts *ChangesOptions) (*ChangesFeed, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	mode := opts.Mode()
	switch mode {
	case FeedNormal, FeedLongpoll, FeedContinuous, FeedEventSource:
	default:
		return nil, badArg("unknown feed mode %q", mode)
	}
	body, err := opts.body()
	if err != nil {
		return nil, err
	}
	method := http.MethodGet
	reqOpts := &chttp.Options{Query: opts.Values()}
	if body != nil {
		method = http.MethodPost
		reqOpts.JSON = body
	}
	if mode == FeedEventSource {
		reqOpts.Accept = "text/event-stream"
	}
	resp, err := d.client.DoError(ctx, method, d.path("_changes"), reqOpts)
	if err != nil {
		return nil, err
	}
	d.client.log.Debugf("changes feed for %s opened in %s mode", d.dbName, mode)
	return newChangesFeed(ctx, mode, resp.Body, d.client.log), nil
}

// ChangesBatch fetches the changes feed in normal mode, or longpoll mode if
// requested, and returns its single terminal batch.
func (d *DB) ChangesBatch(ctx context.Context, opts *ChangesOptions) (*ChangesBatch, error) {
	o := ChangesOptions{}
	if opts != nil {
		o = *opts
	}
	switch o.Mode() {
	case FeedNormal, FeedLongpoll:
	default:
		return nil, badArg("ChangesBatch requires a normal or longpoll feed, not %q", o.Mode())
	}
	feed, err := d.Changes(ctx, &o)
	if err != nil {
		return nil, err
	}
	defer feed.Close() // nolint: errcheck
	if !feed.Next() {
		if err := feed.Err(); err != nil {
			return nil, err
		}
		return nil, &chttp.DecodeError{Err: io.ErrUnexpectedEOF}
	}
	return feed.Batch(), nil
}

// framer splits a response body into batches. next returns io.EOF once the
// body is exhausted.
type framer interface {
	next() (*ChangesBatch, error)
}

// ChangesFeed is an open changes feed. Next and Batch must be called from a
// single goroutine. Close may be called from any goroutine.
type ChangesFeed struct {
	ctx    context.Context
	mode   FeedMode
	body   io.ReadCloser
	framer framer
	log    log.Logger
	stop   func() bool

	batch    *ChangesBatch
	lastSeq  string
	terminal bool
	done     bool
	err      error
	batches  int

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newChangesFeed(ctx context.Context, mode FeedMode, body io.ReadCloser, l log.Logger) *ChangesFeed {
	f := &ChangesFeed{
		ctx:  ctx,
		mode: mode,
		body: body,
		log:  l,
	}
	switch mode {
	case FeedContinuous:
		f.framer = newLineFramer(body, false)
	case FeedEventSource:
		f.framer = newLineFramer(body, true)
	default:
		f.framer = newObjectFramer(body)
	}
	f.stop = context.AfterFunc(ctx, func() {
		_ = f.closeBody()
	})
	return f
}

// Next advances to the next batch, blocking until one is available. It
// returns false when the feed has ended; Err then reports why, if the end
// was not a normal one.
func (f *ChangesFeed) Next() bool {
	if f.done {
		return false
	}
	if f.terminal {
		f.finish(nil)
		return false
	}
	batch, err := f.framer.next()
	if err != nil {
		f.finish(err)
		return false
	}
	f.batch = batch
	f.batches++
	for _, change := range batch.Results {
		if change.Seq != "" {
			f.lastSeq = change.Seq
		}
	}
	if batch.Terminal() {
		f.terminal = true
		f.lastSeq = *batch.LastSeq
	}
	f.log.Debugf("changes batch %d: %d records, terminal=%t", f.batches, len(batch.Results), batch.Terminal())
	return true
}

// Batch returns the batch read by the last successful call to Next.
func (f *ChangesFeed) Batch() *ChangesBatch {
	return f.batch
}

// Err returns the error, if any, that ended the feed. It is nil after the
// server ended the feed normally, or after Close.
func (f *ChangesFeed) Err() error {
	return f.err
}

// LastSeq returns the last sequence observed, from either a record or the
// terminal batch. It is empty until a sequence has been seen.
func (f *ChangesFeed) LastSeq() string {
	return f.lastSeq
}

// Mode returns the feed mode the feed was opened with.
func (f *ChangesFeed) Mode() FeedMode {
	return f.mode
}

// Close ends the feed and releases the connection. It is safe to call more
// than once, and concurrently with Next.
func (f *ChangesFeed) Close() error {
	f.closed.Store(true)
	f.stop()
	return f.closeBody()
}

// closeBody must not touch f.stop: it runs from the context callback, which
// may fire before newChangesFeed has returned.
func (f *ChangesFeed) closeBody() error {
	f.closeOnce.Do(func() {
		f.closeErr = f.body.Close()
	})
	return f.closeErr
}

func (f *ChangesFeed) finish(err error) {
	f.done = true
	switch {
	case err == io.EOF:
		err = nil
	case f.closed.Load():
		err = nil
	case f.ctx.Err() != nil:
		err = f.ctx.Err()
	}
	f.err = err
	f.stop()
	_ = f.closeBody()
	cause := "end of feed"
	if err != nil {
		cause = err.Error()
	} else if f.closed.Load() {
		cause = "closed"
	}
	f.log.Debugf("changes feed ended after %d batches: %s", f.batches, cause)
}
