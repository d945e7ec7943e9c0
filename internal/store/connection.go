package store

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// ScopeName is the scope holding the four healthcare collections.
const ScopeName = "healthcare"

// Config carries the connection target for the document store.
type Config struct {
	URL      string
	Username string
	Password string
	Bucket   string
}

// Connection represents the Couchbase connection.
type Connection struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	bucketName string
}

// Connect opens the cluster connection and waits for the bucket to accept
// both KV and query traffic. A store that cannot be reached here is a fatal
// setup error for the whole run.
func Connect(cfg Config) (*Connection, error) {
	cluster, err := gocb.Connect(cfg.URL, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout:    60 * time.Second,
			KVTimeout:         5 * time.Second,
			QueryTimeout:      30 * time.Second,
			ManagementTimeout: 30 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Couchbase: %w", err)
	}

	bucket := cluster.Bucket(cfg.Bucket)

	err = bucket.WaitUntilReady(90*time.Second, &gocb.WaitUntilReadyOptions{
		Context: context.Background(),
		ServiceTypes: []gocb.ServiceType{
			gocb.ServiceTypeKeyValue,
			gocb.ServiceTypeQuery,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("couchbase bucket not ready: %w", err)
	}

	log.Info().
		Str("couchbase_url", cfg.URL).
		Str("bucket", cfg.Bucket).
		Msg("Couchbase connection initialized successfully")

	return &Connection{
		cluster:    cluster,
		bucket:     bucket,
		bucketName: cfg.Bucket,
	}, nil
}

// Close closes the Couchbase connection.
func (c *Connection) Close() error {
	if c.cluster != nil {
		return c.cluster.Close(nil)
	}
	return nil
}
