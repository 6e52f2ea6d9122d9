package nano

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-kivik/nano/chttp"
)

// readRecorder remembers the first read error other than io.EOF, so that a
// decoder failure can be told apart from a transport failure.
type readRecorder struct {
	r   io.Reader
	err error
}

func (r *readRecorder) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}

func (r *readRecorder) wrap(err error) error {
	if r.err != nil {
		return &chttp.TransportError{Err: r.err}
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &chttp.DecodeError{Err: err}
}

// objectFramer decodes the single JSON object of a normal or longpoll feed,
// walking its tokens so that the results array is decoded record by record
// rather than buffered whole.
type objectFramer struct {
	rr   *readRecorder
	dec  *json.Decoder
	done bool
}

func newObjectFramer(body io.Reader) *objectFramer {
	rr := &readRecorder{r: body}
	return &objectFramer{
		rr:  rr,
		dec: json.NewDecoder(rr),
	}
}

func (o *objectFramer) next() (*ChangesBatch, error) {
	if o.done {
		return nil, io.EOF
	}
	o.done = true
	batch := &ChangesBatch{Results: []Change{}}
	if err := o.decode(batch); err != nil {
		return nil, o.rr.wrap(err)
	}
	if batch.LastSeq == nil {
		return nil, &chttp.DecodeError{Err: fmt.Errorf("changes response has no last_seq")}
	}
	return batch, nil
}

func (o *objectFramer) decode(batch *ChangesBatch) error {
	if err := consumeDelim(o.dec, json.Delim('{')); err != nil {
		return err
	}
	for o.dec.More() {
		t, err := o.dec.Token()
		if err != nil {
			return err
		}
		key, ok := t.(string)
		if !ok {
			// The JSON parser should never permit this
			return fmt.Errorf("unexpected token: (%T) %v", t, t)
		}
		if err := o.parseMember(batch, key); err != nil {
			return err
		}
	}
	return consumeDelim(o.dec, json.Delim('}'))
}

func (o *objectFramer) parseMember(batch *ChangesBatch, key string) error {
	switch key {
	case "results":
		if err := consumeDelim(o.dec, json.Delim('[')); err != nil {
			return err
		}
		for o.dec.More() {
			var change Change
			if err := o.dec.Decode(&change); err != nil {
				return err
			}
			batch.Results = append(batch.Results, change)
		}
		return consumeDelim(o.dec, json.Delim(']'))
	case "last_seq":
		var seq sequenceID
		if err := o.dec.Decode(&seq); err != nil {
			return err
		}
		s := string(seq)
		batch.LastSeq = &s
	case "pending":
		var pending int64
		if err := o.dec.Decode(&pending); err != nil {
			return err
		}
		batch.Pending = &pending
	default:
		// Unknown members are skipped.
		var skip json.RawMessage
		return o.dec.Decode(&skip)
	}
	return nil
}

// consumeDelim consumes the expected delimiter from the stream, or returns an
// error if an unexpected token was found.
func consumeDelim(dec *json.Decoder, expectedDelim json.Delim) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := t.(json.Delim)
	if !ok {
		return fmt.Errorf("unexpected token %T: %v", t, t)
	}
	if d != expectedDelim {
		return fmt.Errorf("unexpected JSON delimiter: %c", d)
	}
	return nil
}

// lineFramer splits a continuous feed, one JSON object per line, or an
// eventsource feed, one object per data line. Each call to next blocks until
// at least one record or the terminal line has been read, then also consumes
// any further complete lines already buffered, so that a burst of records
// received together becomes one batch.
type lineFramer struct {
	r   *bufio.Reader
	sse bool
	// event is the type of the SSE event being read.
	event   string
	pending error
	ended   bool
}

func newLineFramer(body io.Reader, sse bool) *lineFramer {
	return &lineFramer{
		r:   bufio.NewReaderSize(body, 64*1024),
		sse: sse,
	}
}

func (l *lineFramer) next() (*ChangesBatch, error) {
	if l.pending != nil {
		return nil, l.pending
	}
	if l.ended {
		return nil, io.EOF
	}
	batch := &ChangesBatch{}
	for {
		line, readErr := l.r.ReadBytes('\n')
		if len(line) > 0 {
			terminal, err := l.handle(line, batch)
			if err != nil {
				return nil, err
			}
			if terminal {
				l.ended = true
				return batch, nil
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				readErr = &chttp.TransportError{Err: readErr}
			}
			if len(batch.Results) > 0 {
				l.pending = readErr
				return batch, nil
			}
			return nil, readErr
		}
		if len(batch.Results) > 0 && !l.lineBuffered() {
			return batch, nil
		}
	}
}

// lineBuffered reports whether a complete line can be read without blocking.
func (l *lineFramer) lineBuffered() bool {
	n := l.r.Buffered()
	if n == 0 {
		return false
	}
	buf, _ := l.r.Peek(n)
	return bytes.IndexByte(buf, '\n') >= 0
}

func (l *lineFramer) handle(line []byte, batch *ChangesBatch) (bool, error) {
	line = bytes.TrimRight(line, "\r\n")
	if !l.sse {
		return decodeLine(line, batch)
	}
	if len(line) == 0 {
		l.event = ""
		return false, nil
	}
	field, value := line, []byte(nil)
	if i := bytes.IndexByte(line, ':'); i >= 0 {
		field, value = line[:i], bytes.TrimPrefix(line[i+1:], []byte(" "))
	}
	switch string(field) {
	case "event":
		l.event = string(value)
	case "data":
		if l.event == "heartbeat" {
			return false, nil
		}
		return decodeLine(value, batch)
	}
	// Comments, id and retry lines carry nothing the feed needs.
	return false, nil
}

// decodeLine decodes one record into batch, and reports whether it was the
// terminal last_seq line. Heartbeats and lines of at most one byte are
// skipped.
func decodeLine(line []byte, batch *ChangesBatch) (bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) <= 1 {
		return false, nil
	}
	var fl struct {
		ID      *string         `json:"id"`
		LastSeq json.RawMessage `json:"last_seq"`
		Pending *int64          `json:"pending"`
	}
	if err := json.Unmarshal(line, &fl); err != nil {
		return false, &chttp.DecodeError{Err: err}
	}
	if fl.ID == nil && len(fl.LastSeq) > 0 {
		var seq sequenceID
		if err := json.Unmarshal(fl.LastSeq, &seq); err != nil {
			return false, &chttp.DecodeError{Err: err}
		}
		s := string(seq)
		batch.LastSeq = &s
		batch.Pending = fl.Pending
		return true, nil
	}
	var change Change
	if err := json.Unmarshal(line, &change); err != nil {
		return false, &chttp.DecodeError{Err: err}
	}
	batch.Results = append(batch.Results, change)
	return false, nil
}
