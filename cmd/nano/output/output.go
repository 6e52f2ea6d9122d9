// Package output renders command results.
package output

import (
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-kivik/nano/cmd/nano/errors"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formatter writes results in the selected format.
type Formatter struct {
	format string
	out    io.Writer
}

// New returns a JSON formatter writing to os.Stdout.
func New() *Formatter {
	return &Formatter{
		format: FormatJSON,
		out:    os.Stdout,
	}
}

// SetFormat selects the output format. An empty format selects JSON.
func (f *Formatter) SetFormat(format string) error {
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return errors.Codef(errors.ErrUsage, "unrecognized output format: %s", format)
	}
	f.format = format
	return nil
}

// SetOutput sets the destination of results.
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

// Writer returns the destination of results.
func (f *Formatter) Writer() io.Writer {
	return f.out
}

// Output writes v, which must be JSON-encodable.
func (f *Formatter) Output(v interface{}) error {
	if f.format == FormatYAML {
		return f.yaml(v)
	}
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// yaml converts v through JSON first, so that json tags and custom
// marshalers shape the output.
func (f *Formatter) yaml(v interface{}) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var obj interface{}
	if err := json.Unmarshal(buf, &obj); err != nil {
		return err
	}
	enc := yaml.NewEncoder(f.out)
	enc.SetIndent(2)
	if err := enc.Encode(obj); err != nil {
		return err
	}
	return enc.Close()
}

// OK writes {"ok": true}.
func (f *Formatter) OK() error {
	return f.Output(map[string]bool{"ok": true})
}
