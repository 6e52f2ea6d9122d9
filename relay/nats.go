package relay

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/go-kivik/nano"
)

// Message headers set on every published change.
const (
	HeaderDB  = "Nano-Db"
	HeaderSeq = "Nano-Seq"
)

const flushTimeout = 5 * time.Second

// natsConnect allows test injection.
var natsConnect = nats.Connect

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	PublishMsg(*nats.Msg) error
	FlushWithContext(context.Context) error
	Close()
}

// NATSPublisher publishes change records as JSON messages on a NATS subject.
// The subject may contain the placeholder "{db}", which is replaced by the
// database name. Every message carries the database name and sequence in
// the HeaderDB and HeaderSeq headers, and the pair as its Nats-Msg-Id, so
// that a JetStream stream drops records replayed after a reconnect.
type NATSPublisher struct {
	conn    natsConn
	subject string
}

var _ Publisher = &NATSPublisher{}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("relay: NATS subject required")
	}
	if url == "" {
		url = nats.DefaultURL
	}
	opts = append([]nats.Option{nats.Name("nano-relay")}, opts...)
	nc, err := natsConnect(url, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", url)
	}
	return newNATSPublisher(nc, subject), nil
}

func newNATSPublisher(conn natsConn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Publish sends change as one message.
func (p *NATSPublisher) Publish(_ context.Context, db string, change nano.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(strings.ReplaceAll(p.subject, "{db}", db))
	msg.Data = data
	msg.Header.Set(HeaderDB, db)
	msg.Header.Set(HeaderSeq, change.Seq)
	msg.Header.Set(nats.MsgIdHdr, db+"/"+change.Seq)
	return p.conn.PublishMsg(msg)
}

// Flush waits until the server has processed every published message.
func (p *NATSPublisher) Flush(ctx context.Context) error {
	return p.conn.FlushWithContext(ctx)
}

// Close flushes and closes the connection.
func (p *NATSPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	err := p.conn.FlushWithContext(ctx)
	p.conn.Close()
	return err
}
