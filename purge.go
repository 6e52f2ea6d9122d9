package nano

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/go-kivik/nano/chttp"
)

// Purge permanently removes every known revision of the listed documents.
// The revisions are discovered by fetching each document's revision
// metadata, with up to the client's purge concurrency lookups in flight at
// once. Any failed lookup aborts the purge before it is sent.
func (d *DB) Purge(ctx context.Context, docIDs ...string) (*PurgeResult, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if len(docIDs) == 0 {
		return nil, missingArg("docIDs")
	}
	for _, id := range docIDs {
		if id == "" {
			return nil, missingArg("docID")
		}
	}

	revs := make([][]string, len(docIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.client.purgeConcurrency)
	for i, id := range docIDs {
		i, id := i, id
		g.Go(func() error {
			r, err := d.revisions(gctx, id)
			if err != nil {
				return err
			}
			revs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A document listed twice is purged once, with its revisions merged.
	body := make(map[string][]string, len(docIDs))
	for i, id := range docIDs {
		body[id] = appendUnique(body[id], revs[i]...)
	}
	d.client.log.Debugf("purging %d documents from %s", len(body), d.dbName)
	result := &PurgeResult{}
	if err := d.client.DoJSON(ctx, http.MethodPost, d.path("_purge"), &chttp.Options{JSON: body}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// revisions returns every revision listed in the document's _revs_info.
func (d *DB) revisions(ctx context.Context, docID string) ([]string, error) {
	opts := &GetOptions{Meta: Some(true), Deleted: Some(true)}
	var doc struct {
		RevsInfo []struct {
			Rev    string `json:"rev"`
			Status string `json:"status"`
		} `json:"_revs_info"`
	}
	if err := d.GetInto(ctx, docID, opts, &doc); err != nil {
		return nil, errors.WithMessagef(err, "revisions of %s", docID)
	}
	revs := make([]string, 0, len(doc.RevsInfo))
	for _, ri := range doc.RevsInfo {
		revs = append(revs, ri.Rev)
	}
	return revs, nil
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, have := range list {
			if have == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
