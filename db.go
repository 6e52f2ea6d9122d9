package nano

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/go-kivik/nano/chttp"
)

var errInvalidDocument = errors.New("response is not a JSON document")

// DB is a handle to a single database. It holds no server-side state, and is
// safe for concurrent use.
type DB struct {
	client *Client
	dbName string
}

// Name returns the database name.
func (d *DB) Name() string {
	return d.dbName
}

// Client returns the client the handle was derived from.
func (d *DB) Client() *Client {
	return d.client
}

func (d *DB) path(segments ...string) string {
	return strings.Join(append([]string{chttp.EncodeDocID(d.dbName)}, segments...), "/")
}

func (d *DB) check() error {
	if d.dbName == "" {
		return missingArg("database name")
	}
	return nil
}

// Info returns the database's metadata.
func (d *DB) Info(ctx context.Context) (*DBInfo, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	info := &DBInfo{}
	if err := d.client.DoJSON(ctx, http.MethodGet, d.path(), nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Save creates or updates a document. With docID and rev set, the named
// revision is updated. With only docID set, the document is created, or a
// new revision written if the server allows it. With docID empty, a random
// UUID is generated as the ID, and rev is ignored.
func (d *DB) Save(ctx context.Context, docID, rev string, doc interface{}) (*DocResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	opts := &chttp.Options{JSON: doc}
	if docID == "" {
		docID = uuid.NewString()
	} else if rev != "" {
		opts.Query = encodeParams(optString("rev", Some(rev)))
	}
	result := &DocResult{}
	if err := d.client.DoJSON(ctx, http.MethodPut, d.path(chttp.EncodeDocID(docID)), opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches a document's raw JSON.
func (d *DB) Get(ctx context.Context, docID string, opts *GetOptions) (json.RawMessage, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if docID == "" {
		return nil, missingArg("docID")
	}
	resp, err := d.client.DoError(ctx, http.MethodGet, d.path(chttp.EncodeDocID(docID)), &chttp.Options{Query: opts.Values()})
	if err != nil {
		return nil, err
	}
	defer chttp.CloseBody(resp.Body)
	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &chttp.TransportError{Err: err}
	}
	if !json.Valid(doc) {
		return nil, &chttp.DecodeError{Err: errInvalidDocument}
	}
	return doc, nil
}

// GetInto fetches a document and unmarshals it into dest.
func (d *DB) GetInto(ctx context.Context, docID string, opts *GetOptions, dest interface{}) error {
	doc, err := d.Get(ctx, docID, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc, dest); err != nil {
		return &chttp.DecodeError{Err: err}
	}
	return nil
}

// Delete deletes the given revision of a document.
func (d *DB) Delete(ctx context.Context, docID, rev string) (*DocResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if docID == "" {
		return nil, missingArg("docID")
	}
	if rev == "" {
		return nil, missingArg("rev")
	}
	result := &DocResult{}
	opts := &chttp.Options{Query: encodeParams(optString("rev", Some(rev)))}
	if err := d.client.DoJSON(ctx, http.MethodDelete, d.path(chttp.EncodeDocID(docID)), opts, result); err != nil {
		return nil, err
	}
	return result, nil
}
