package nano

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-kivik/nano/chttp"
)

// BulkDocs writes several documents in one request. The result holds one
// entry per document, in request order. Rejection of individual documents is
// reported in those entries, not as an error.
func (d *DB) BulkDocs(ctx context.Context, docs []interface{}, opts *BulkDocsOptions) ([]BulkDocResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []interface{}{}
	}
	if opts == nil {
		opts = &BulkDocsOptions{}
	}
	body, err := encodeFields(
		anyField("docs", docs),
		optField("new_edits", opts.NewEdits),
	)
	if err != nil {
		return nil, &chttp.ArgError{Err: err}
	}
	resp, err := d.client.DoReq(ctx, http.MethodPost, d.path("_bulk_docs"), &chttp.Options{JSON: json.RawMessage(body)})
	if err != nil {
		return nil, err
	}
	defer chttp.CloseBody(resp.Body)
	// 417 Expectation Failed is sent when some documents were rejected by a
	// validation function. Its body is normally the usual result array.
	if resp.StatusCode == http.StatusExpectationFailed {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &chttp.TransportError{Err: err}
		}
		var results []BulkDocResult
		if json.Unmarshal(raw, &results) == nil {
			return results, nil
		}
		resp.Body = io.NopCloser(bytes.NewReader(raw))
	}
	if err := chttp.ResponseError(resp); err != nil {
		return nil, err
	}
	var results []BulkDocResult
	if err := chttp.DecodeJSON(resp, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// BulkGet fetches several documents, or specific revisions, in one request.
func (d *DB) BulkGet(ctx context.Context, refs []DocRef) (*BulkGetResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, missingArg("docs")
	}
	body := map[string][]DocRef{"docs": refs}
	result := &BulkGetResult{}
	if err := d.client.DoJSON(ctx, http.MethodPost, d.path("_bulk_get"), &chttp.Options{JSON: body}, result); err != nil {
		return nil, err
	}
	return result, nil
}
