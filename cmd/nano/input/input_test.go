package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestJSONData(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "doc.yml")
	if err := os.WriteFile(yamlFile, []byte("foo: bar\nlist: [1, 2]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		input *Input
		want  string
		err   string
	}{
		{
			name:  "none",
			input: &Input{},
			err:   "no document data provided",
		},
		{
			name:  "data",
			input: &Input{data: `{"foo":"bar"}`},
			want:  `{"foo":"bar"}`,
		},
		{
			name:  "invalid json",
			input: &Input{data: `{"foo":`},
			err:   "invalid JSON input",
		},
		{
			name:  "yaml data",
			input: &Input{data: "foo: bar", yaml: true},
			want:  `{"foo":"bar"}`,
		},
		{
			name:  "yaml file",
			input: &Input{file: yamlFile},
			want:  `{"foo":"bar","list":[1,2]}`,
		},
		{
			name:  "stdin",
			input: &Input{file: "-", stdin: strings.NewReader(`["a","b"]`)},
			want:  `["a","b"]`,
		},
		{
			name:  "both",
			input: &Input{data: "{}", file: "-"},
			err:   "--data and --data-file are mutually exclusive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.JSONData()
			testy.Error(t, tt.err, err)
			if string(got) != tt.want {
				t.Errorf("Want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAs(t *testing.T) {
	in := &Input{data: `["a","b"]`}
	var ids []string
	if err := in.As(&ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[1] != "b" {
		t.Errorf("Unexpected result: %v", ids)
	}
	var obj map[string]string
	err := in.As(&obj)
	if err == nil {
		t.Error("Expected an error decoding an array into a map")
	}
}
