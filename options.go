package nano

import (
	"encoding/json"
	"net/url"
)

// FeedMode is the streaming discipline requested from the _changes endpoint.
type FeedMode string

// Feed modes
const (
	// FeedNormal returns all past changes immediately, as a single object.
	FeedNormal FeedMode = "normal"
	// FeedLongpoll waits for at least one change, then returns a single
	// object.
	FeedLongpoll FeedMode = "longpoll"
	// FeedContinuous streams one JSON object per line until closed.
	FeedContinuous FeedMode = "continuous"
	// FeedEventSource streams changes as Server-Sent Events.
	FeedEventSource FeedMode = "eventsource"
)

// Values accepted by ChangesOptions.Style.
const (
	StyleMainOnly = "main_only"
	StyleAllDocs  = "all_docs"
)

// Built-in change filters, set automatically by ChangesOptions.DocIDs and
// ChangesOptions.Selector.
const (
	FilterDocIDs   = "_doc_ids"
	FilterSelector = "_selector"
	FilterDesign   = "_design"
	FilterView     = "_view"
)

// GetOptions are the query parameters of a single document fetch.
type GetOptions struct {
	Rev              Optional[string]
	Revs             Optional[bool]
	RevsInfo         Optional[bool]
	Conflicts        Optional[bool]
	DeletedConflicts Optional[bool]
	Deleted          Optional[bool]
	Meta             Optional[bool]
	Latest           Optional[bool]
	LocalSeq         Optional[bool]
	Attachments      Optional[bool]
	AttEncodingInfo  Optional[bool]
}

// Values returns the options encoded as query parameters.
func (o *GetOptions) Values() url.Values {
	if o == nil {
		return url.Values{}
	}
	return encodeParams(
		optString("rev", o.Rev),
		optBool("revs", o.Revs),
		optBool("revs_info", o.RevsInfo),
		optBool("conflicts", o.Conflicts),
		optBool("deleted_conflicts", o.DeletedConflicts),
		optBool("deleted", o.Deleted),
		optBool("meta", o.Meta),
		optBool("latest", o.Latest),
		optBool("local_seq", o.LocalSeq),
		optBool("attachments", o.Attachments),
		optBool("att_encoding_info", o.AttEncodingInfo),
	)
}

// CreateDBOptions are the query parameters of database creation.
type CreateDBOptions struct {
	Partitioned Optional[bool]
	// Q is the number of shards.
	Q Optional[int64]
	// N is the number of replicas of each shard.
	N Optional[int64]
}

// Values returns the options encoded as query parameters.
func (o *CreateDBOptions) Values() url.Values {
	if o == nil {
		return url.Values{}
	}
	return encodeParams(
		optBool("partitioned", o.Partitioned),
		optInt("q", o.Q),
		optInt("n", o.N),
	)
}

// AllDocsOptions are sent as the JSON body of POST /{db}/_all_docs.
type AllDocsOptions struct {
	Attachments     Optional[bool]
	AttEncodingInfo Optional[bool]
	Conflicts       Optional[bool]
	Descending      Optional[bool]
	IncludeDocs     Optional[bool]
	InclusiveEnd    Optional[bool]
	Sorted          Optional[bool]
	Stable          Optional[bool]
	UpdateSeq       Optional[bool]
	Limit           Optional[int64]
	Skip            Optional[int64]
	Key             Optional[string]
	StartKey        Optional[string]
	StartKeyDocID   Optional[string]
	EndKey          Optional[string]
	EndKeyDocID     Optional[string]
	// Keys restricts the result to the listed document IDs, when non-nil.
	Keys []string
}

// MarshalJSON encodes the set options as a JSON object.
func (o AllDocsOptions) MarshalJSON() ([]byte, error) {
	return encodeFields(
		optField("attachments", o.Attachments),
		optField("att_encoding_info", o.AttEncodingInfo),
		optField("conflicts", o.Conflicts),
		optField("descending", o.Descending),
		optField("include_docs", o.IncludeDocs),
		optField("inclusive_end", o.InclusiveEnd),
		optField("sorted", o.Sorted),
		optField("stable", o.Stable),
		optField("update_seq", o.UpdateSeq),
		optField("limit", o.Limit),
		optField("skip", o.Skip),
		optField("key", o.Key),
		optField("start_key", o.StartKey),
		optField("start_key_doc_id", o.StartKeyDocID),
		optField("end_key", o.EndKey),
		optField("end_key_doc_id", o.EndKeyDocID),
		listField("keys", o.Keys),
	)
}

// ChangesOptions are the parameters of a _changes request.
type ChangesOptions struct {
	// Feed selects the feed mode. Unset means FeedNormal.
	Feed Optional[FeedMode]
	// Since is the sequence to start from, or "now".
	Since      Optional[string]
	Conflicts  Optional[bool]
	Descending Optional[bool]
	Filter     Optional[string]
	// Heartbeat is the keep-alive period in milliseconds.
	Heartbeat       Optional[int64]
	IncludeDocs     Optional[bool]
	Attachments     Optional[bool]
	AttEncodingInfo Optional[bool]
	Limit           Optional[int64]
	Style           Optional[string]
	// Timeout is the maximum wait for a change, in milliseconds.
	Timeout     Optional[int64]
	View        Optional[string]
	SeqInterval Optional[int64]

	// DocIDs, when non-nil, restricts the feed to the listed documents. The
	// request is sent as a POST with filter=_doc_ids.
	DocIDs []string
	// Selector, when non-nil, restricts the feed to documents matching the
	// Mango selector. The request is sent as a POST with filter=_selector.
	Selector interface{}
}

// Mode returns the declared feed mode.
func (o *ChangesOptions) Mode() FeedMode {
	if o == nil {
		return FeedNormal
	}
	return o.Feed.Or(FeedNormal)
}

// Values returns the options encoded as query parameters.
func (o *ChangesOptions) Values() url.Values {
	if o == nil {
		return url.Values{}
	}
	filter := o.Filter
	switch {
	case o.DocIDs != nil:
		filter = Some(FilterDocIDs)
	case o.Selector != nil:
		filter = Some(FilterSelector)
	}
	return encodeParams(
		optString("feed", o.Feed),
		optString("since", o.Since),
		optBool("conflicts", o.Conflicts),
		optBool("descending", o.Descending),
		optString("filter", filter),
		optInt("heartbeat", o.Heartbeat),
		optBool("include_docs", o.IncludeDocs),
		optBool("attachments", o.Attachments),
		optBool("att_encoding_info", o.AttEncodingInfo),
		optInt("limit", o.Limit),
		optString("style", o.Style),
		optInt("timeout", o.Timeout),
		optString("view", o.View),
		optInt("seq_interval", o.SeqInterval),
	)
}

// body returns the POST body for filtered feeds, or nil for a plain GET.
func (o *ChangesOptions) body() (interface{}, error) {
	if o == nil {
		return nil, nil
	}
	switch {
	case o.DocIDs != nil && o.Selector != nil:
		return nil, badArg("DocIDs and Selector are mutually exclusive")
	case o.DocIDs != nil:
		return map[string][]string{"doc_ids": o.DocIDs}, nil
	case o.Selector != nil:
		return map[string]interface{}{"selector": o.Selector}, nil
	}
	return nil, nil
}

// BulkDocsOptions are the optional members of a _bulk_docs request.
type BulkDocsOptions struct {
	// NewEdits set to false stores the documents' revisions as given,
	// as replication does.
	NewEdits Optional[bool]
}

// MangoQuery is the body of a _find request.
type MangoQuery struct {
	// Selector is required. A nil selector is sent as {}.
	Selector interface{}
	// Sort is a list of field names, or {field: "asc"|"desc"} objects.
	Sort           []interface{}
	Fields         []string
	Limit          Optional[int64]
	Skip           Optional[int64]
	UseIndex       []string
	Conflicts      Optional[bool]
	R              Optional[int64]
	Bookmark       Optional[string]
	Update         Optional[bool]
	Stable         Optional[bool]
	ExecutionStats Optional[bool]
}

// MarshalJSON encodes the query, omitting unset members.
func (q MangoQuery) MarshalJSON() ([]byte, error) {
	selector := q.Selector
	if selector == nil {
		selector = json.RawMessage(`{}`)
	}
	return encodeFields(
		anyField("selector", selector),
		listField("sort", q.Sort),
		listField("fields", q.Fields),
		optField("limit", q.Limit),
		optField("skip", q.Skip),
		listField("use_index", q.UseIndex),
		optField("conflicts", q.Conflicts),
		optField("r", q.R),
		optField("bookmark", q.Bookmark),
		optField("update", q.Update),
		optField("stable", q.Stable),
		optField("execution_stats", q.ExecutionStats),
	)
}

// Index types
const (
	IndexTypeJSON = "json"
	IndexTypeText = "text"
)

// IndexDefinition is the body of a POST /{db}/_index request.
type IndexDefinition struct {
	// Fields lists the indexed fields, as names or {field: direction}
	// objects.
	Fields                []interface{}
	PartialFilterSelector interface{}
	DDoc                  Optional[string]
	Name                  Optional[string]
	// Type defaults to IndexTypeJSON.
	Type        Optional[string]
	Partitioned Optional[bool]
}

// MarshalJSON encodes the definition, omitting unset members.
func (d IndexDefinition) MarshalJSON() ([]byte, error) {
	index, err := encodeFields(
		listField("fields", d.Fields),
		anyField("partial_filter_selector", d.PartialFilterSelector),
	)
	if err != nil {
		return nil, err
	}
	return encodeFields(
		anyField("index", json.RawMessage(index)),
		optField("ddoc", d.DDoc),
		optField("name", d.Name),
		field{key: "type", value: d.Type.Or(IndexTypeJSON), set: true},
		optField("partitioned", d.Partitioned),
	)
}
