// Package test runs integration tests against a live CouchDB server.
//
// With USETC set, a server is started with testcontainers. Otherwise the
// server at NANO_TEST_DSN is used, and without it the tests are skipped.
package test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/go-kivik/nano"
)

// DefaultImage is the CouchDB image started with USETC. Override it with
// NANO_TEST_IMAGE.
const DefaultImage = "couchdb:3"

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// DSN returns the address of the server under test, or skips t.
func DSN(t *testing.T) string {
	t.Helper()
	if os.Getenv("USETC") != "" {
		containerOnce.Do(func() {
			image := os.Getenv("NANO_TEST_IMAGE")
			if image == "" {
				image = DefaultImage
			}
			containerDSN, containerErr = startCouchDB(image)
		})
		if containerErr != nil {
			t.Fatal(containerErr)
		}
		return containerDSN
	}
	if dsn := os.Getenv("NANO_TEST_DSN"); dsn != "" {
		return dsn
	}
	t.Skip("neither USETC nor NANO_TEST_DSN set, skipping live tests")
	return ""
}

// startCouchDB starts a single-node server. The container lives until the
// test binary exits.
func startCouchDB(image string) (string, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"5984/tcp"},
		WaitingFor:   wait.ForHTTP("/").WithPort("5984/tcp").WithStartupTimeout(120 * time.Second),
		Env: map[string]string{
			"COUCHDB_USER":     "admin",
			"COUCHDB_PASSWORD": "abc123",
		},
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5984/tcp")
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("http://admin:abc123@%s:%s/", host, port.Port())
	for _, db := range []string{"_users", "_replicator"} {
		if err := put(dsn+db, nil); err != nil {
			return "", err
		}
	}
	return dsn, nil
}

func put(url string, body io.Reader) error {
	req, err := http.NewRequest(http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint: errcheck
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusPreconditionFailed:
		return nil
	}
	return fmt.Errorf("create %s: %s", url, resp.Status)
}

// Client returns a client for the server under test.
func Client(t *testing.T) *nano.Client {
	t.Helper()
	client, err := nano.New(DSN(t), nano.WithUserAgent("nano-test"))
	if err != nil {
		t.Fatal(err)
	}
	return client
}

// TempDB creates a database with a random name, which is destroyed when t
// ends.
func TempDB(t *testing.T, client *nano.Client) *nano.DB {
	t.Helper()
	name := "nano_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	db, _, err := client.CreateAndConnectDB(context.Background(), name, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := client.DestroyDB(context.Background(), name); err != nil && !nano.IsNotFound(err) {
			t.Errorf("destroy %s: %s", name, err)
		}
	})
	return db
}
