// Package relay follows a database's continuous changes feed across dropped
// connections, and forwards each change record to a Publisher.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/go-kivik/nano"
	"github.com/go-kivik/nano/chttp"
	"github.com/go-kivik/nano/log"
)

// Publisher receives change records, in feed order.
type Publisher interface {
	Publish(ctx context.Context, db string, change nano.Change) error
}

// errFeedEnded is returned by an attempt that ended without error, so that
// the follower reconnects.
var errFeedEnded = errors.New("changes feed ended")

// Follower consumes a database's changes feed and hands every record to a
// Publisher. A feed that ends, or fails with a transport error, is reopened
// from the last sequence seen. Remote rejections, decode errors and
// publisher failures stop the follower.
type Follower struct {
	db         *nano.DB
	pub        Publisher
	opts       nano.ChangesOptions
	newBackOff func() backoff.BackOff
	log        log.Logger

	lastSeq string
}

// Option configures a Follower.
type Option func(*Follower)

// WithChangesOptions sets the options used to open the feed. The feed mode
// is always continuous, and Since is replaced by the last sequence seen on
// every reconnect.
func WithChangesOptions(opts nano.ChangesOptions) Option {
	return func(f *Follower) {
		f.opts = opts
	}
}

// WithBackOff sets the policy pacing reconnects. fn is called once per run.
// The default is an exponential back-off which never gives up.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(f *Follower) {
		f.newBackOff = fn
	}
}

// WithLogger sets the logger used to report reconnects. The default is the
// database client's logger.
func WithLogger(l log.Logger) Option {
	return func(f *Follower) {
		f.log = l
	}
}

// NewFollower returns a Follower for db's changes feed.
func NewFollower(db *nano.DB, pub Publisher, opts ...Option) *Follower {
	f := &Follower{
		db:  db,
		pub: pub,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 0
			return bo
		},
		log: db.Client().Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if since, ok := f.opts.Since.Get(); ok {
		f.lastSeq = since
	}
	return f
}

// LastSeq returns the sequence of the last record published, or of the last
// terminal line received.
func (f *Follower) LastSeq() string {
	return f.lastSeq
}

// Run follows the feed until ctx is cancelled or a permanent failure occurs.
// Cancellation returns nil. If the back-off policy gives up, Run returns the
// last connection error, or nil if the last connection ended cleanly.
func (f *Follower) Run(ctx context.Context) error {
	bo := backoff.WithContext(f.newBackOff(), ctx)
	err := backoff.RetryNotify(func() error {
		progressed, err := f.follow(ctx)
		if progressed {
			bo.Reset()
		}
		return err
	}, bo, func(err error, wait time.Duration) {
		f.log.Infof("changes feed for %s interrupted: %s; resuming from %q in %s", f.db.Name(), err, f.lastSeq, wait)
	})
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, errFeedEnded) {
		return nil
	}
	return err
}

// follow runs one connection of the feed. It reports whether any sequence
// was observed, and returns a permanent error for failures a reconnect
// cannot fix.
func (f *Follower) follow(ctx context.Context) (bool, error) {
	opts := f.opts
	opts.Feed = nano.Some(nano.FeedContinuous)
	opts.Since = nano.Optional[string]{}
	if f.lastSeq != "" {
		opts.Since = nano.Some(f.lastSeq)
	}
	feed, err := f.db.Changes(ctx, &opts)
	if err != nil {
		return false, classify(ctx, err)
	}
	defer feed.Close() // nolint: errcheck

	progressed := false
	for feed.Next() {
		for _, change := range feed.Batch().Results {
			if err := f.pub.Publish(ctx, f.db.Name(), change); err != nil {
				if ctx.Err() != nil {
					return progressed, backoff.Permanent(ctx.Err())
				}
				return progressed, backoff.Permanent(pkgerrors.Wrapf(err, "publish change %s", change.Seq))
			}
			if change.Seq != "" {
				f.lastSeq = change.Seq
				progressed = true
			}
		}
		if batch := feed.Batch(); batch.Terminal() {
			f.lastSeq = *batch.LastSeq
			progressed = true
		}
	}
	if err := feed.Err(); err != nil {
		return progressed, classify(ctx, err)
	}
	if ctx.Err() != nil {
		return progressed, backoff.Permanent(ctx.Err())
	}
	return progressed, errFeedEnded
}

// classify marks errors which a reconnect cannot fix as permanent.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	var transportErr *chttp.TransportError
	if errors.As(err, &transportErr) {
		return err
	}
	return backoff.Permanent(err)
}
