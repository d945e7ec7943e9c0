package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/store"
)

// BulkCollection is the store capability the writer needs: ordered batch
// execution with per-operation outcomes.
type BulkCollection interface {
	Name() string
	OrderedBulk(ctx context.Context, ops []store.Op) (store.BulkResult, error)
}

// PatientCollection adds natural-key resolution on top of bulk writes.
type PatientCollection interface {
	BulkCollection
	ResolveKeys(ctx context.Context, keys []store.NaturalKey) (map[store.NaturalKey]string, error)
}

// WriteOrdered submits the operations as one ordered batch and applies the
// stop-and-resume recovery policy: when the batch halts at a failing
// operation, every reported error is logged with the offending document, and
// the remaining, not-yet-attempted operations are re-submitted one by one. No
// operation is attempted more than once, and no write failure escapes as an
// error; the returned count is the number of committed documents. The error
// return is reserved for infrastructure failures such as cancellation.
func WriteOrdered(ctx context.Context, coll BulkCollection, ops []store.Op) (int, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	result, err := coll.OrderedBulk(ctx, ops)
	if err != nil {
		return result.Written, err
	}

	if result.Ok() {
		log.Info().
			Int("count", result.Written).
			Str("collection", coll.Name()).
			Msg("Inserted documents")
		metrics.RecordDocumentsWritten(coll.Name(), result.Written)
		return result.Written, nil
	}

	log.Error().
		Int("op", result.FirstFailed).
		Int("total", len(ops)).
		Str("collection", coll.Name()).
		Err(result.Errors[0].Err).
		Msg("Bulk write interrupted")

	for _, opErr := range result.Errors {
		logFailedOp(coll.Name(), opErr)
	}

	written := result.Written
	remaining := ops[result.FirstFailed+1:]
	log.Info().
		Int("count", len(remaining)).
		Str("collection", coll.Name()).
		Msg("Retrying remaining operations individually...")

	for _, op := range remaining {
		single, err := coll.OrderedBulk(ctx, []store.Op{op})
		if err != nil {
			return written, err
		}
		if single.Ok() {
			written += single.Written
			metrics.RecordBulkRetry(coll.Name(), "success")
			continue
		}
		metrics.RecordBulkRetry(coll.Name(), "error")
		for _, opErr := range single.Errors {
			logFailedOp(coll.Name(), opErr)
		}
	}

	metrics.RecordDocumentsWritten(coll.Name(), written)
	return written, nil
}

// logFailedOp preserves the audit trail: the rejected document and the store
// error are logged verbatim.
func logFailedOp(collection string, opErr store.OpError) {
	event := log.Error().
		Str("collection", collection).
		Str("doc_id", opErr.ID).
		Str("store_error", opErr.Err.Error())
	if doc, err := json.Marshal(opErr.Doc); err == nil {
		event = event.RawJSON("document", doc)
	}
	event.Msg("Document rejected by store")
}
