package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/schema"
)

// Collection binds a Couchbase collection to its registered declarative
// schema. Every write is validated against the schema before it reaches the
// store, so a non-conforming document is rejected per-operation instead of
// being persisted.
type Collection struct {
	conn   *Connection
	col    *gocb.Collection
	schema schema.Collection
}

// NewCollection opens a collection handle inside the healthcare scope.
func NewCollection(conn *Connection, s schema.Collection) *Collection {
	return &Collection{
		conn:   conn,
		col:    conn.bucket.Scope(ScopeName).Collection(s.Name),
		schema: s,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.schema.Name
}

// OrderedBulk executes the operations in order and stops at the first
// failure, reporting it in the result. The returned error is reserved for
// infrastructure problems (context cancellation); per-operation outcomes,
// including schema violations, live in the BulkResult.
func (c *Collection) OrderedBulk(ctx context.Context, ops []Op) (BulkResult, error) {
	result := BulkResult{FirstFailed: -1}

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("bulk write to %s aborted: %w", c.Name(), err)
		}

		if err := c.do(ctx, op); err != nil {
			result.FirstFailed = i
			result.Errors = append(result.Errors, OpError{
				Index: i,
				ID:    op.ID,
				Doc:   op.Doc,
				Err:   err,
			})
			return result, nil
		}
		result.Written++
	}
	return result, nil
}

func (c *Collection) do(ctx context.Context, op Op) error {
	if err := c.schema.Validate(op.Doc); err != nil {
		metrics.RecordStoreOperation(c.Name(), "insert", "schema_rejected")
		return err
	}

	start := time.Now()
	_, err := c.col.Insert(op.ID, op.Doc, &gocb.InsertOptions{Context: ctx})
	duration := time.Since(start)

	if err != nil {
		if op.Kind == OpInsertIfAbsent && errors.Is(err, gocb.ErrDocumentExists) {
			// Existing identity with a matching key: leave untouched.
			metrics.RecordStoreOperation(c.Name(), "insert", "exists")
			metrics.RecordStoreOperationDuration(c.Name(), duration)
			log.Debug().Str("doc_id", op.ID).Msg("Document already present, skipped")
			return nil
		}
		metrics.RecordStoreOperation(c.Name(), "insert", "error")
		metrics.RecordStoreOperationDuration(c.Name(), duration)
		return fmt.Errorf("failed to insert document %s: %w", op.ID, err)
	}

	metrics.RecordStoreOperation(c.Name(), "insert", "success")
	metrics.RecordStoreOperationDuration(c.Name(), duration)
	return nil
}
