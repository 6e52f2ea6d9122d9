package cmd

import (
	"github.com/spf13/pflag"

	"github.com/go-kivik/nano"
)

// The *Opt helpers turn a flag into an option which is set only when the
// flag was given on the command line.

func boolOpt(fs *pflag.FlagSet, name string) nano.Optional[bool] {
	if !fs.Changed(name) {
		return nano.Optional[bool]{}
	}
	v, _ := fs.GetBool(name)
	return nano.Some(v)
}

func intOpt(fs *pflag.FlagSet, name string) nano.Optional[int64] {
	if !fs.Changed(name) {
		return nano.Optional[int64]{}
	}
	v, _ := fs.GetInt64(name)
	return nano.Some(v)
}

func stringOpt(fs *pflag.FlagSet, name string) nano.Optional[string] {
	if !fs.Changed(name) {
		return nano.Optional[string]{}
	}
	v, _ := fs.GetString(name)
	return nano.Some(v)
}
