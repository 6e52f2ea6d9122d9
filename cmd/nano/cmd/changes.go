package cmd

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/go-kivik/nano"
	"github.com/go-kivik/nano/cmd/nano/errors"
	"github.com/go-kivik/nano/relay"
)

// DefaultSubject is the NATS subject used by changes --follow --nats-url.
const DefaultSubject = "nano.{db}.changes"

type changes struct {
	*root
	docIDs  []string
	follow  bool
	natsURL string
	subject string
}

func changesCmd(r *root) *cobra.Command {
	c := &changes{root: r}
	cmd := &cobra.Command{
		Use:   "changes <database>",
		Short: "Read a database's changes feed",
		Long: `Read a database's changes feed. A normal or longpoll feed is printed as one result. A continuous or eventsource feed is printed as one JSON line per change, until the server ends it.

With --follow, the feed is read in continuous mode and reopened from the last sequence seen whenever it ends or the connection drops, until interrupted. Changes are printed, or published to NATS with --nats-url or --subject.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: c.RunE,
	}
	fs := cmd.Flags()
	fs.String("feed", string(nano.FeedNormal), "Feed mode: normal, longpoll, continuous or eventsource")
	fs.String("since", "", `Start after this sequence, or "now"`)
	fs.Int64("limit", 0, "Maximum number of changes")
	fs.Bool("include-docs", false, "Include document bodies")
	fs.Bool("conflicts", false, "Include conflicts, with --include-docs")
	fs.Bool("descending", false, "Return changes in descending order")
	fs.String("filter", "", "Filter function, as ddoc/name")
	fs.String("style", "", "main_only or all_docs")
	fs.Int64("heartbeat", 0, "Keep-alive period, in milliseconds")
	fs.Int64("timeout", 0, "Maximum wait for a change, in milliseconds")
	fs.StringSliceVar(&c.docIDs, "doc-ids", nil, "Only report changes to these documents")
	fs.BoolVar(&c.follow, "follow", false, "Follow the feed across reconnects")
	fs.StringVar(&c.natsURL, "nats-url", "", "Publish followed changes to this NATS server")
	fs.StringVar(&c.subject, "subject", "", "NATS subject; {db} is replaced by the database name (default "+DefaultSubject+")")
	return cmd
}

func (c *changes) options(cmd *cobra.Command) *nano.ChangesOptions {
	fs := cmd.Flags()
	opts := &nano.ChangesOptions{
		Since:       stringOpt(fs, "since"),
		Limit:       intOpt(fs, "limit"),
		IncludeDocs: boolOpt(fs, "include-docs"),
		Conflicts:   boolOpt(fs, "conflicts"),
		Descending:  boolOpt(fs, "descending"),
		Filter:      stringOpt(fs, "filter"),
		Style:       stringOpt(fs, "style"),
		Heartbeat:   intOpt(fs, "heartbeat"),
		Timeout:     intOpt(fs, "timeout"),
		DocIDs:      c.docIDs,
	}
	if fs.Changed("feed") {
		feed, _ := fs.GetString("feed")
		opts.Feed = nano.Some(nano.FeedMode(feed))
	}
	return opts
}

func (c *changes) RunE(cmd *cobra.Command, args []string) error {
	db, err := c.db(args[0])
	if err != nil {
		return err
	}
	opts := c.options(cmd)
	if c.follow {
		return c.runFollow(cmd.Context(), db, opts)
	}
	if c.natsURL != "" || c.subject != "" {
		return errors.Code(errors.ErrUsage, "--nats-url and --subject require --follow")
	}
	switch opts.Mode() {
	case nano.FeedNormal, nano.FeedLongpoll:
		return c.retry(cmd.Context(), func(ctx context.Context) error {
			batch, err := db.ChangesBatch(ctx, opts)
			if err != nil {
				return err
			}
			return c.fmt.Output(batch)
		})
	}
	feed, err := db.Changes(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer feed.Close() // nolint: errcheck
	pub := relay.NewWriterPublisher(c.fmt.Writer())
	for feed.Next() {
		for _, change := range feed.Batch().Results {
			if err := pub.Publish(cmd.Context(), db.Name(), change); err != nil {
				return errors.Code(errors.ErrUnknown, err)
			}
		}
	}
	return feed.Err()
}

func (c *changes) runFollow(ctx context.Context, db *nano.DB, opts *nano.ChangesOptions) error {
	if m, ok := opts.Feed.Get(); ok && m != nano.FeedContinuous {
		return errors.Codef(errors.ErrUsage, "--follow reads a continuous feed, not %s", m)
	}
	var pub relay.Publisher = relay.NewWriterPublisher(c.fmt.Writer())
	natsURL := c.natsURL
	if natsURL == "" && c.subject != "" {
		natsURL = c.conf.NATSURL
	}
	if natsURL != "" || c.subject != "" {
		subject := c.subject
		if subject == "" {
			subject = DefaultSubject
		}
		np, err := relay.NewNATSPublisher(natsURL, subject)
		if err != nil {
			return errors.Code(errors.ErrConnection, err)
		}
		defer np.Close() // nolint: errcheck
		pub = np
	}
	followOpts := []relay.Option{
		relay.WithChangesOptions(*opts),
		relay.WithLogger(c.log),
	}
	if bo := c.backOff(); bo != nil {
		followOpts = append(followOpts, relay.WithBackOff(func() backoff.BackOff { return bo }))
	}
	f := relay.NewFollower(db, pub, followOpts...)
	err := f.Run(ctx)
	c.log.Debugf("stopped following %s at %q", db.Name(), f.LastSeq())
	return err
}
