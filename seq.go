package nano

import (
	"bytes"
	"encoding/json"
)

// sequenceID is a CouchDB update sequence, which is numeric on CouchDB 1.x
// and an opaque string from 2.0 on. Either form decodes to a string.
type sequenceID string

func (id *sequenceID) UnmarshalJSON(data []byte) error {
	switch {
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = sequenceID(s)
	case bytes.Equal(data, []byte("null")):
		*id = ""
	default:
		*id = sequenceID(data)
	}
	return nil
}

// rawSeq decodes a sequence which may be a JSON string, number or null.
func rawSeq(data json.RawMessage) string {
	var id sequenceID
	_ = id.UnmarshalJSON(bytes.TrimSpace(data))
	return string(id)
}
