package test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-kivik/nano"
)

func TestServer(t *testing.T) {
	client := Client(t)
	ctx := context.Background()
	info, err := client.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.CouchDB != "Welcome" {
		t.Errorf("Unexpected welcome: %q", info.CouchDB)
	}
	db := TempDB(t, client)
	dbs, err := client.AllDBs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range dbs {
		found = found || name == db.Name()
	}
	if !found {
		t.Errorf("%s missing from %v", db.Name(), dbs)
	}
	_, created, err := client.CreateAndConnectDB(ctx, db.Name(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("Existing database reported as created")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	db := TempDB(t, Client(t))
	ctx := context.Background()
	doc := map[string]interface{}{"type": "user", "name": "Bob"}
	res, err := db.Save(ctx, "bob", "", doc)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := db.GetInto(ctx, "bob", nil, &got); err != nil {
		t.Fatal(err)
	}
	if got["_rev"] != res.Rev || got["name"] != "Bob" {
		t.Errorf("Unexpected document: %v", got)
	}
	if _, err := db.Save(ctx, "bob", "1-stale", doc); !nano.IsConflict(err) {
		t.Errorf("Expected a conflict, got %v", err)
	}
	del, err := db.Delete(ctx, "bob", res.Rev)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get(ctx, "bob", nil); !nano.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	var tombstone map[string]interface{}
	if err := db.GetInto(ctx, "bob", &nano.GetOptions{Rev: nano.Some(del.Rev)}, &tombstone); err != nil {
		t.Fatal(err)
	}
	if tombstone["_deleted"] != true {
		t.Errorf("Unexpected tombstone: %v", tombstone)
	}
}

func TestBulkMixed(t *testing.T) {
	db := TempDB(t, Client(t))
	ctx := context.Background()
	if _, err := db.Save(ctx, "taken", "", map[string]string{}); err != nil {
		t.Fatal(err)
	}
	results, err := db.BulkDocs(ctx, []interface{}{
		map[string]string{"_id": "new"},
		map[string]string{"_id": "taken"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Failed() || results[1].Error != "conflict" {
		t.Errorf("Unexpected results: %+v", results)
	}
	all, err := db.AllDocs(ctx, &nano.AllDocsOptions{Keys: []string{"new", "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Rows) != 2 || all.Rows[0].ID != "new" || all.Rows[1].Error != "not_found" {
		t.Errorf("Unexpected rows: %+v", all.Rows)
	}
}

func TestFind(t *testing.T) {
	db := TempDB(t, Client(t))
	ctx := context.Background()
	if _, err := db.BulkDocs(ctx, []interface{}{
		map[string]interface{}{"_id": "a", "type": "user", "age": 30},
		map[string]interface{}{"_id": "b", "type": "user", "age": 20},
		map[string]interface{}{"_id": "c", "type": "group"},
	}, nil); err != nil {
		t.Fatal(err)
	}
	idx, err := db.CreateIndex(ctx, &nano.IndexDefinition{
		Fields: []interface{}{"type", "age"},
		DDoc:   nano.Some("by-type"),
		Name:   nano.Some("type-age"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Result != "created" {
		t.Errorf("Unexpected result: %s", idx.Result)
	}
	result, err := db.Find(ctx, &nano.MangoQuery{
		Selector: map[string]interface{}{"type": "user", "age": map[string]int{"$gt": 0}},
		Sort:     []interface{}{map[string]string{"type": "asc"}, map[string]string{"age": "asc"}},
		Fields:   []string{"_id"},
	})
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, 0, len(result.Docs))
	for _, doc := range result.Docs {
		var d struct {
			ID string `json:"_id"`
		}
		_ = json.Unmarshal(doc, &d)
		ids = append(ids, d.ID)
	}
	if d := cmp.Diff([]string{"b", "a"}, ids); d != "" {
		t.Error(d)
	}
	if err := db.DeleteIndex(ctx, "by-type", "type-age"); err != nil {
		t.Fatal(err)
	}
	list, err := db.GetIndexes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if list.TotalRows != 1 {
		t.Errorf("Expected only the built-in index, got %+v", list.Indexes)
	}
}

func TestChangesContinuous(t *testing.T) {
	db := TempDB(t, Client(t))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	feed, err := db.Changes(ctx, &nano.ChangesOptions{
		Feed:      nano.Some(nano.FeedContinuous),
		Heartbeat: nano.Some(int64(1000)),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer feed.Close() // nolint: errcheck
	go func() {
		for _, id := range []string{"a", "b"} {
			_, _ = db.Save(ctx, id, "", map[string]string{})
		}
	}()
	var ids []string
	for len(ids) < 2 && feed.Next() {
		for _, change := range feed.Batch().Results {
			ids = append(ids, change.ID)
		}
	}
	if err := feed.Err(); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"a", "b"}, ids); d != "" {
		t.Error(d)
	}
	if feed.LastSeq() == "" {
		t.Error("No sequence recorded")
	}
}

func TestPurge(t *testing.T) {
	db := TempDB(t, Client(t))
	ctx := context.Background()
	res, err := db.Save(ctx, "doomed", "", map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	result, err := db.Purge(ctx, "doomed")
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(map[string][]string{"doomed": {res.Rev}}, result.Purged); d != "" {
		t.Error(d)
	}
	if _, err := db.Get(ctx, "doomed", &nano.GetOptions{Deleted: nano.Some(true)}); !nano.IsNotFound(err) {
		t.Errorf("Expected not found after purge, got %v", err)
	}
}
