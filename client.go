package nano

import (
	"context"
	"net/http"

	"github.com/go-kivik/nano/chttp"
)

// Info returns the server's welcome message.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	info := &ServerInfo{}
	if err := c.DoJSON(ctx, http.MethodGet, "/", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

// AllDBs returns the names of all databases on the server.
func (c *Client) AllDBs(ctx context.Context) ([]string, error) {
	var allDBs []string
	err := c.DoJSON(ctx, http.MethodGet, "/_all_dbs", nil, &allDBs)
	return allDBs, err
}

// CreateDB creates a database.
func (c *Client) CreateDB(ctx context.Context, dbName string, opts *CreateDBOptions) error {
	if dbName == "" {
		return missingArg("dbName")
	}
	var result struct {
		OK bool `json:"ok"`
	}
	return c.DoJSON(ctx, http.MethodPut, chttp.EncodeDocID(dbName), &chttp.Options{Query: opts.Values()}, &result)
}

// DestroyDB deletes a database and all of its documents.
func (c *Client) DestroyDB(ctx context.Context, dbName string) error {
	if dbName == "" {
		return missingArg("dbName")
	}
	var result struct {
		OK bool `json:"ok"`
	}
	return c.DoJSON(ctx, http.MethodDelete, chttp.EncodeDocID(dbName), nil, &result)
}

// DB returns a handle to the named database. No request is made. An empty
// name yields a handle whose operations all fail.
func (c *Client) DB(dbName string) *DB {
	return &DB{
		client: c,
		dbName: dbName,
	}
}

// CreateAndConnectDB creates the named database and returns a handle to it.
// created is false, and err nil, when the database already existed. Any other
// failure is returned with a nil handle.
func (c *Client) CreateAndConnectDB(ctx context.Context, dbName string, opts *CreateDBOptions) (db *DB, created bool, err error) {
	err = c.CreateDB(ctx, dbName, opts)
	switch {
	case err == nil:
		return c.DB(dbName), true, nil
	case HTTPStatus(err) == http.StatusPreconditionFailed && ErrorCode(err) == "file_exists":
		c.log.Debugf("database %s already exists", dbName)
		return c.DB(dbName), false, nil
	}
	return nil, false, err
}
