package nano

import (
	"context"
	"net/http"

	"github.com/go-kivik/nano/chttp"
)

// AllDocs lists the documents of the database. The options are sent as the
// request body, so Keys may be arbitrarily long.
func (d *DB) AllDocs(ctx context.Context, opts *AllDocsOptions) (*AllDocsResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &AllDocsOptions{}
	}
	result := &AllDocsResult{}
	if err := d.client.DoJSON(ctx, http.MethodPost, d.path("_all_docs"), &chttp.Options{JSON: opts}, result); err != nil {
		return nil, err
	}
	return result, nil
}
