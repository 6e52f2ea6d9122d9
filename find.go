package nano

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-kivik/nano/chttp"
)

// Find runs a Mango query.
func (d *DB) Find(ctx context.Context, query *MangoQuery) (*FindResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if query == nil {
		return nil, missingArg("query")
	}
	result := &FindResult{}
	if err := d.client.DoJSON(ctx, http.MethodPost, d.path("_find"), &chttp.Options{JSON: query}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateIndex creates a Mango index. The result reports whether the index was
// created or already existed.
func (d *DB) CreateIndex(ctx context.Context, def *IndexDefinition) (*IndexResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if def == nil || len(def.Fields) == 0 {
		return nil, missingArg("index fields")
	}
	result := &IndexResult{}
	if err := d.client.DoJSON(ctx, http.MethodPost, d.path("_index"), &chttp.Options{JSON: def}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetIndexes lists the database's indexes, including the built-in _all_docs
// index.
func (d *DB) GetIndexes(ctx context.Context) (*IndexList, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	result := &IndexList{}
	if err := d.client.DoJSON(ctx, http.MethodGet, d.path("_index"), nil, result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteIndex deletes a json index. ddoc may be given with or without its
// "_design/" prefix.
func (d *DB) DeleteIndex(ctx context.Context, ddoc, name string) error {
	if err := d.check(); err != nil {
		return err
	}
	if ddoc == "" {
		return missingArg("ddoc")
	}
	if name == "" {
		return missingArg("name")
	}
	var result struct {
		OK bool `json:"ok"`
	}
	path := d.path("_index", chttp.EncodeDocID(strings.TrimPrefix(ddoc, "_design/")), "json", chttp.EncodeDocID(name))
	return d.client.DoJSON(ctx, http.MethodDelete, path, nil, &result)
}
