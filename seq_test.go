package nano

import (
	"encoding/json"
	"testing"
)

func TestSequenceID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "numeric", input: `123`, expected: "123"},
		{name: "string", input: `"1-g1AAAAFTeJzLYWBg"`, expected: "1-g1AAAAFTeJzLYWBg"},
		{name: "null", input: `null`, expected: ""},
		{name: "zero string", input: `"0"`, expected: "0"},
		{name: "escaped string", input: `"12-g1\u0041A\/x"`, expected: "12-g1AA/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id sequenceID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatal(err)
			}
			if string(id) != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, id)
			}
			if got := rawSeq(json.RawMessage(tt.input)); got != tt.expected {
				t.Errorf("rawSeq: expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDBInfoSequences(t *testing.T) {
	var info DBInfo
	input := `{"db_name":"foo","update_seq":52,"purge_seq":"3-abc","doc_count":4}`
	if err := json.Unmarshal([]byte(input), &info); err != nil {
		t.Fatal(err)
	}
	if info.UpdateSeq != "52" || info.PurgeSeq != "3-abc" || info.DocCount != 4 || info.DBName != "foo" {
		t.Errorf("Unexpected result: %+v", info)
	}
}
