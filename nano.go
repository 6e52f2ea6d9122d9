package nano

import (
	"net/http"

	"github.com/go-kivik/nano/chttp"
	"github.com/go-kivik/nano/log"
)

// Version is the current version of this package.
const Version = "0.1.0"

// DefaultPurgeConcurrency is the number of revision lookups DB.Purge runs at
// once, unless changed with WithPurgeConcurrency.
const DefaultPurgeConcurrency = 4

// Client is a handle to a CouchDB node. It is safe for concurrent use.
type Client struct {
	*chttp.Client

	log              log.Logger
	purgeConcurrency int
}

type settings struct {
	httpClient       *http.Client
	logger           log.Logger
	userAgents       []string
	auth             chttp.Authenticator
	purgeConcurrency int
}

// Option configures a Client.
type Option func(*settings)

// WithHTTPClient sets the *http.Client used for all requests. Its transport,
// and therefore its connection pool, is shared with the Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithLogger sets the logger that receives debug output for requests and
// change feeds. The default discards all output.
func WithLogger(l log.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithUserAgent appends ua to the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *settings) {
		s.userAgents = append(s.userAgents, ua)
	}
}

// WithAuth installs an authenticator, such as *chttp.CookieAuth, in place of
// the Basic Auth derived from DSN credentials.
func WithAuth(a chttp.Authenticator) Option {
	return func(s *settings) {
		s.auth = a
	}
}

// WithPurgeConcurrency sets how many revision lookups DB.Purge runs at once.
func WithPurgeConcurrency(n int) Option {
	return func(s *settings) {
		s.purgeConcurrency = n
	}
}

// New returns a Client for the CouchDB node at dsn.
func New(dsn string, opts ...Option) (*Client, error) {
	s := &settings{
		logger:           log.NewNil(),
		purgeConcurrency: DefaultPurgeConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.purgeConcurrency < 1 {
		return nil, badArg("purge concurrency must be positive, got %d", s.purgeConcurrency)
	}
	chttpClient, err := chttp.New(s.httpClient, dsn)
	if err != nil {
		return nil, err
	}
	chttpClient.UserAgents = append([]string{"nano/" + Version}, s.userAgents...)
	chttpClient.SetLogger(s.logger)
	if s.auth != nil {
		if err := chttpClient.SetAuth(s.auth); err != nil {
			return nil, err
		}
	}
	return &Client{
		Client:           chttpClient,
		log:              s.logger,
		purgeConcurrency: s.purgeConcurrency,
	}, nil
}

// Logger returns the logger the Client was configured with.
func (c *Client) Logger() log.Logger {
	return c.log
}
