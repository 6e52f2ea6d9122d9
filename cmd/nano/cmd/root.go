// Package cmd implements the nano command tree.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-kivik/nano"
	"github.com/go-kivik/nano/chttp"
	"github.com/go-kivik/nano/cmd/nano/config"
	"github.com/go-kivik/nano/cmd/nano/errors"
	"github.com/go-kivik/nano/cmd/nano/output"
	"github.com/go-kivik/nano/log"
)

type root struct {
	confFile string
	log      log.Logger
	conf     *config.Config
	cmd      *cobra.Command
	fmt      *output.Formatter
	trace    *chttp.ClientTrace

	parsedRequestTimeout time.Duration

	// transport, if set, replaces the default HTTP transport.
	transport http.RoundTripper
	// newBackOff returns the policy pacing --retry attempts.
	newBackOff func() backoff.BackOff
	// resolveHome is used to resolve ~ in the config file path
	resolveHome func(string) string
}

// Execute runs the command line, and exits with its status.
func Execute(ctx context.Context) {
	lg := log.New()
	root := rootCmd(lg)
	os.Exit(root.execute(ctx))
}

func (r *root) execute(ctx context.Context) int {
	ctx = chttp.WithClientTrace(ctx, r.clientTrace())
	err := r.cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	r.log.Error(err)
	return errors.InspectErrorCode(err)
}

func resolveHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	return filepath.Join(usr.HomeDir, path[2:])
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return errors.Code(errors.ErrUsage, fn(cmd, args))
	}
}

func rootCmd(lg log.Logger) *root {
	r := &root{
		log:         lg,
		fmt:         output.New(),
		resolveHome: resolveHome,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	r.cmd = &cobra.Command{
		Use:               "nano",
		Short:             "nano is a command-line client for CouchDB",
		Long:              `nano talks to a CouchDB node's HTTP API: databases, documents, bulk operations, Mango queries and changes feeds.`,
		PersistentPreRunE: r.init,
		Args:              usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	r.cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Code(errors.ErrUsage, err)
	})

	pf := r.cmd.PersistentFlags()
	pf.StringVar(&r.confFile, "config", "", "Path to config file (default "+config.DefaultFile+")")
	pf.String("dsn", "", "CouchDB server URL, optionally with credentials")
	pf.Bool("debug", false, "Enable debug output")
	pf.BoolP("verbose", "v", false, "Trace HTTP requests and responses")
	pf.StringP("output", "o", output.FormatJSON, "Output format. One of: json|yaml")
	pf.Int("retry", 0, "In case of transient connection errors, retry up to this many times. A negative value retries indefinitely.")
	pf.String("request-timeout", "", "The time limit for each request.")

	r.cmd.AddCommand(infoCmd(r))
	r.cmd.AddCommand(listDBsCmd(r))
	r.cmd.AddCommand(createDBCmd(r))
	r.cmd.AddCommand(deleteDBCmd(r))
	r.cmd.AddCommand(describeDBCmd(r))
	r.cmd.AddCommand(getDocCmd(r))
	r.cmd.AddCommand(putDocCmd(r))
	r.cmd.AddCommand(deleteDocCmd(r))
	r.cmd.AddCommand(allDocsCmd(r))
	r.cmd.AddCommand(bulkDocsCmd(r))
	r.cmd.AddCommand(bulkGetCmd(r))
	r.cmd.AddCommand(purgeCmd(r))
	r.cmd.AddCommand(findCmd(r))
	r.cmd.AddCommand(createIndexCmd(r))
	r.cmd.AddCommand(listIndexesCmd(r))
	r.cmd.AddCommand(deleteIndexCmd(r))
	r.cmd.AddCommand(changesCmd(r))

	return r
}

func parseDuration(val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	if d, err := strconv.ParseFloat(val, 64); err == nil {
		if d < 0 {
			return 0, errors.Code(errors.ErrUsage, "negative timeout not permitted")
		}
		return time.Duration(d * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.Code(errors.ErrUsage, err)
	}
	if d < 0 {
		return 0, errors.Code(errors.ErrUsage, "negative timeout not permitted")
	}
	return d, nil
}

func (r *root) init(cmd *cobra.Command, _ []string) error {
	r.log.SetOut(cmd.ErrOrStderr())
	r.log.SetErr(cmd.ErrOrStderr())

	filename, explicit := config.DefaultFile, false
	if r.confFile != "" {
		filename, explicit = r.confFile, true
	}
	conf, err := config.Load(viper.New(), r.resolveHome(filename), explicit, r.cmd.PersistentFlags(), r.log)
	if err != nil {
		return err
	}
	r.conf = conf
	r.log.SetDebug(conf.Debug)
	r.log.Debug("Debug mode enabled")

	r.parsedRequestTimeout, err = parseDuration(conf.RequestTimeout)
	if err != nil {
		return err
	}
	if err := r.fmt.SetFormat(conf.Output); err != nil {
		return err
	}
	r.fmt.SetOutput(cmd.OutOrStdout())
	r.setTrace()
	return nil
}

// client returns a client for the configured DSN.
func (r *root) client() (*nano.Client, error) {
	if r.conf.DSN == "" {
		return nil, errors.Code(errors.ErrUsage, "no server specified; use --dsn or "+config.EnvPrefix+"_DSN")
	}
	opts := []nano.Option{
		nano.WithHTTPClient(&http.Client{Transport: r.transport}),
		nano.WithLogger(r.log),
		nano.WithUserAgent("nano-cli"),
	}
	if n := r.conf.PurgeConcurrency; n != 0 {
		opts = append(opts, nano.WithPurgeConcurrency(n))
	}
	client, err := nano.New(r.conf.DSN, opts...)
	if err != nil {
		return nil, errors.Code(errors.ErrUsage, err)
	}
	r.log.Debugf("server: %s", client.URL())
	return client, nil
}

// db returns a handle to the named database.
func (r *root) db(name string) (*nano.DB, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}
	return client.DB(name), nil
}

// backOff returns the policy for --retry, or nil when retries are disabled.
func (r *root) backOff() backoff.BackOff {
	if r.conf.Retry == 0 {
		return nil
	}
	bo := r.newBackOff()
	if r.conf.Retry > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(r.conf.Retry))
	}
	return bo
}

// retry runs fn, retrying transport failures according to --retry. Each
// attempt is limited by --request-timeout.
func (r *root) retry(ctx context.Context, fn func(context.Context) error) error {
	attempt := func() error {
		if r.parsedRequestTimeout == 0 {
			return fn(ctx)
		}
		actx, cancel := context.WithTimeout(ctx, r.parsedRequestTimeout)
		defer cancel()
		return fn(actx)
	}
	bo := r.backOff()
	if bo == nil {
		return attempt()
	}
	var count int
	return backoff.RetryNotify(func() error {
		count++
		err := attempt()
		if err != nil && errors.InspectErrorCode(err) != errors.ErrConnection {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		msg := fmt.Sprintf("Warning: Transient problem: %s. Will retry in %s.", err, fmtDuration(wait))
		if remain := r.conf.Retry - count; r.conf.Retry > 0 && remain > 0 {
			msg += fmt.Sprintf(" %d retries left.", remain)
		}
		r.log.Info(msg)
	})
}

// nolint:gomnd
func fmtDuration(dur time.Duration) string {
	s := dur.Seconds()
	if s < 60 {
		return fmt.Sprintf("%0.2fs", s)
	}
	m := int(s / 60)
	s -= float64(m) * 60
	if m < 60 {
		return fmt.Sprintf("%dm%ds", m, int(s))
	}
	h := m / 60
	m -= h * 60
	return fmt.Sprintf("%dh%dm", h, m)
}
