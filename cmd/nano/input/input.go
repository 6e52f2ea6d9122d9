// Package input reads document data given on the command line.
package input

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/go-kivik/nano/cmd/nano/errors"
)

// Input holds the --data, --data-file and --yaml flags.
type Input struct {
	data  string
	file  string
	yaml  bool
	stdin io.Reader
}

// New returns an Input reading "-" from os.Stdin.
func New() *Input {
	return &Input{stdin: os.Stdin}
}

// ConfigFlags registers the input flags on pf.
func (i *Input) ConfigFlags(pf *pflag.FlagSet) {
	pf.StringVarP(&i.data, "data", "d", "", "JSON document data.")
	pf.StringVarP(&i.file, "data-file", "D", "", "Read document data from the named file. Use - for stdin. Assumed to be JSON, unless the file extension is .yaml or .yml, or the --yaml flag is used.")
	pf.BoolVar(&i.yaml, "yaml", false, "Treat input data as YAML")
}

// SetStdin sets the reader used for --data-file -.
func (i *Input) SetStdin(r io.Reader) {
	i.stdin = r
}

// HasInput reports whether any data was given.
func (i *Input) HasInput() bool {
	return i.data != "" || i.file != ""
}

func (i *Input) isYAML() bool {
	if i.yaml {
		return true
	}
	switch strings.ToLower(filepath.Ext(i.file)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (i *Input) read() ([]byte, error) {
	switch {
	case i.data != "" && i.file != "":
		return nil, errors.Code(errors.ErrUsage, "--data and --data-file are mutually exclusive")
	case i.data != "":
		return []byte(i.data), nil
	case i.file == "-":
		buf, err := io.ReadAll(i.stdin)
		return buf, errors.Code(errors.ErrUsage, err)
	case i.file != "":
		buf, err := os.ReadFile(i.file)
		return buf, errors.Code(errors.ErrUsage, err)
	}
	return nil, errors.Code(errors.ErrUsage, "no document data provided")
}

// JSONData returns the input as JSON, converting it from YAML if needed.
func (i *Input) JSONData() (json.RawMessage, error) {
	buf, err := i.read()
	if err != nil {
		return nil, err
	}
	if i.isYAML() {
		var obj interface{}
		if err := yaml.Unmarshal(buf, &obj); err != nil {
			return nil, errors.Code(errors.ErrUsage, err)
		}
		buf, err = json.Marshal(obj)
		if err != nil {
			return nil, errors.Code(errors.ErrUsage, err)
		}
	}
	if !json.Valid(buf) {
		return nil, errors.Code(errors.ErrUsage, "invalid JSON input")
	}
	return json.RawMessage(buf), nil
}

// As decodes the input into target.
func (i *Input) As(target interface{}) error {
	data, err := i.JSONData()
	if err != nil {
		return err
	}
	return errors.Code(errors.ErrUsage, json.Unmarshal(data, target))
}
