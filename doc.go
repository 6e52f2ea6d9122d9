/*
Package nano is a typed client for the CouchDB HTTP API.

Options

Optional request parameters are set on the options types, such as
GetOptions and ChangesOptions, using Optional values. A field left at its
zero value is not sent at all, while a field set with Some is always sent,
even when it holds false or 0:

	opts := &nano.ChangesOptions{
		Feed:        nano.Some(nano.FeedContinuous),
		IncludeDocs: nano.Some(true),
		Limit:       nano.Some(int64(0)),
	}

Authentication

For most uses, you don't need to worry about authentication at all--just
include authentication credentials in your connection DSN. This will use
HTTP Basic authentication. To use CouchDB session cookies instead, pass a
*chttp.CookieAuth with WithAuth, and leave the credentials out of the DSN.

Errors

Every error returned by this package reports an HTTP status through
HTTPStatus: the server's status for a *chttp.HTTPError, 502 for a
*chttp.TransportError or *chttp.DecodeError, and 400 for a *chttp.ArgError.
IsNotFound, IsConflict and ErrorCode inspect remote rejections. The package
never retries a request.

Changes feeds

DB.Changes returns a ChangesFeed, which yields batches of change records as
they are decoded from the response:

	feed, err := db.Changes(ctx, opts)
	if err != nil {
		return err
	}
	defer feed.Close()
	for feed.Next() {
		for _, change := range feed.Batch().Results {
			fmt.Println(change.ID)
		}
	}
	return feed.Err()

The framing of the response is chosen from the requested feed mode. A
normal or longpoll feed yields a single terminal batch. A continuous or
eventsource feed yields a batch for each burst of records received, and ends
when the server closes it, the context is cancelled, or Close is called. To
resume a dropped feed, open a new one with Since set to the old feed's
LastSeq; the relay package does this automatically.
*/
package nano
