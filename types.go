package nano

import (
	"encoding/json"
)

// ServerInfo is the welcome message returned by GET /.
type ServerInfo struct {
	CouchDB  string   `json:"couchdb"`
	Version  string   `json:"version"`
	GitSHA   string   `json:"git_sha"`
	UUID     string   `json:"uuid"`
	Features []string `json:"features"`
	Vendor   struct {
		Name    string `json:"name"`
		Version string `json:"version,omitempty"`
	} `json:"vendor"`
}

// DBInfo describes a database, as returned by GET /{db}.
type DBInfo struct {
	DBName            string `json:"db_name"`
	PurgeSeq          string `json:"purge_seq"`
	UpdateSeq         string `json:"update_seq"`
	DocCount          int64  `json:"doc_count"`
	DocDelCount       int64  `json:"doc_del_count"`
	CompactRunning    bool   `json:"compact_running"`
	InstanceStartTime string `json:"instance_start_time"`
	Sizes             struct {
		File     int64 `json:"file"`
		External int64 `json:"external"`
		Active   int64 `json:"active"`
	} `json:"sizes"`
	Props struct {
		Partitioned bool `json:"partitioned,omitempty"`
	} `json:"props"`
	Cluster struct {
		Q int `json:"q"`
		N int `json:"n"`
		W int `json:"w"`
		R int `json:"r"`
	} `json:"cluster"`
}

// UnmarshalJSON accepts both numeric and string sequences.
func (i *DBInfo) UnmarshalJSON(data []byte) error {
	type alias DBInfo
	var v struct {
		alias
		PurgeSeq  sequenceID `json:"purge_seq"`
		UpdateSeq sequenceID `json:"update_seq"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*i = DBInfo(v.alias)
	i.PurgeSeq = string(v.PurgeSeq)
	i.UpdateSeq = string(v.UpdateSeq)
	return nil
}

// DocResult is the server's answer to a document write or delete.
type DocResult struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// AllDocsRow is one row of an _all_docs response.
type AllDocsRow struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Value struct {
		Rev     string `json:"rev"`
		Deleted bool   `json:"deleted,omitempty"`
	} `json:"value"`
	Doc json.RawMessage `json:"doc,omitempty"`
	// Error is set for a requested key with no matching document.
	Error string `json:"error,omitempty"`
}

// AllDocsResult is the response of an _all_docs request.
type AllDocsResult struct {
	TotalRows int64        `json:"total_rows"`
	Offset    int64        `json:"offset"`
	Rows      []AllDocsRow `json:"rows"`
	UpdateSeq *string      `json:"update_seq,omitempty"`
}

// UnmarshalJSON accepts both numeric and string sequences.
func (r *AllDocsResult) UnmarshalJSON(data []byte) error {
	type alias AllDocsResult
	var v struct {
		alias
		UpdateSeq json.RawMessage `json:"update_seq"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = AllDocsResult(v.alias)
	if seq := rawSeq(v.UpdateSeq); seq != "" {
		r.UpdateSeq = &seq
	}
	return nil
}

// BulkDocResult is the outcome of one document in a _bulk_docs request.
// Exactly one of Rev and Error is normally set.
type BulkDocResult struct {
	OK     bool   `json:"ok,omitempty"`
	ID     string `json:"id"`
	Rev    string `json:"rev,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Failed reports whether the server rejected this document.
func (r BulkDocResult) Failed() bool {
	return r.Error != ""
}

// DocRef identifies a document, and optionally a revision of it.
type DocRef struct {
	ID  string `json:"id"`
	Rev string `json:"rev,omitempty"`
}

// BulkGetError is the failure entry of a _bulk_get result.
type BulkGetError struct {
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// BulkGetDoc holds either a document or an error.
type BulkGetDoc struct {
	OK    json.RawMessage `json:"ok,omitempty"`
	Error *BulkGetError   `json:"error,omitempty"`
}

// BulkGetItem groups the results for one requested document ID.
type BulkGetItem struct {
	ID   string       `json:"id"`
	Docs []BulkGetDoc `json:"docs"`
}

// BulkGetResult is the response of a _bulk_get request.
type BulkGetResult struct {
	Results []BulkGetItem `json:"results"`
}

// ExecutionStats are returned by _find when requested.
type ExecutionStats struct {
	TotalKeysExamined       int64   `json:"total_keys_examined"`
	TotalDocsExamined       int64   `json:"total_docs_examined"`
	TotalQuorumDocsExamined int64   `json:"total_quorum_docs_examined"`
	ResultsReturned         int64   `json:"results_returned"`
	ExecutionTimeMs         float64 `json:"execution_time_ms"`
}

// FindResult is the response of a _find request.
type FindResult struct {
	Docs           []json.RawMessage `json:"docs"`
	Bookmark       string            `json:"bookmark,omitempty"`
	Warning        string            `json:"warning,omitempty"`
	ExecutionStats *ExecutionStats   `json:"execution_stats,omitempty"`
}

// IndexResult is the response of an index creation.
type IndexResult struct {
	// Result is "created" or "exists".
	Result string `json:"result"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

// Index describes an index known to the server.
type Index struct {
	DDoc        *string         `json:"ddoc"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Partitioned bool            `json:"partitioned,omitempty"`
	Def         json.RawMessage `json:"def"`
}

// IndexList is the response of GET /{db}/_index.
type IndexList struct {
	TotalRows int64   `json:"total_rows"`
	Indexes   []Index `json:"indexes"`
}

// PurgeResult is the response of a _purge request.
type PurgeResult struct {
	PurgeSeq *string             `json:"purge_seq"`
	Purged   map[string][]string `json:"purged"`
}

// UnmarshalJSON accepts a numeric, string or null purge sequence.
func (r *PurgeResult) UnmarshalJSON(data []byte) error {
	var v struct {
		PurgeSeq json.RawMessage     `json:"purge_seq"`
		Purged   map[string][]string `json:"purged"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Purged = v.Purged
	r.PurgeSeq = nil
	if seq := rawSeq(v.PurgeSeq); seq != "" {
		r.PurgeSeq = &seq
	}
	return nil
}
