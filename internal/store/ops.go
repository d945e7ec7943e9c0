package store

// OpKind selects the write semantics of a single operation.
type OpKind int

const (
	// OpInsert fails when the document key already exists.
	OpInsert OpKind = iota
	// OpInsertIfAbsent leaves an existing document untouched and reports
	// the operation as successful.
	OpInsertIfAbsent
)

// Op is one write operation within an ordered batch.
type Op struct {
	Kind OpKind
	ID   string
	Doc  map[string]interface{}
}

// OpError describes one failed operation reported by the store.
type OpError struct {
	Index int
	ID    string
	Doc   map[string]interface{}
	Err   error
}

// BulkResult reports the outcome of an ordered batch. Ordered semantics stop
// execution at the first failing operation, so FirstFailed also marks the
// boundary between attempted and unattempted operations.
type BulkResult struct {
	Written     int
	FirstFailed int // -1 when the whole batch succeeded
	Errors      []OpError
}

// Ok reports whether every operation in the batch was applied.
func (r BulkResult) Ok() bool {
	return r.FirstFailed < 0
}
