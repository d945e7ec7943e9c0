package pipeline

import (
	"context"
	"fmt"

	"stealthcompany.com/healthloader/internal/schema"
	"stealthcompany.com/healthloader/internal/store"
)

// fakeCollection is an in-memory stand-in for a store collection. It applies
// the same ordered, validate-before-write semantics as the Couchbase adapter:
// execution stops at the first failing operation.
type fakeCollection struct {
	schema   schema.Collection
	docs     map[string]map[string]interface{}
	attempts map[string]int
	rejectID string // force a store-level rejection for this op ID
}

func newFakeCollection(s schema.Collection) *fakeCollection {
	return &fakeCollection{
		schema:   s,
		docs:     make(map[string]map[string]interface{}),
		attempts: make(map[string]int),
	}
}

func (f *fakeCollection) Name() string {
	return f.schema.Name
}

func (f *fakeCollection) OrderedBulk(_ context.Context, ops []store.Op) (store.BulkResult, error) {
	result := store.BulkResult{FirstFailed: -1}
	for i, op := range ops {
		f.attempts[op.ID]++
		if err := f.apply(op); err != nil {
			result.FirstFailed = i
			result.Errors = append(result.Errors, store.OpError{
				Index: i, ID: op.ID, Doc: op.Doc, Err: err,
			})
			return result, nil
		}
		result.Written++
	}
	return result, nil
}

func (f *fakeCollection) apply(op store.Op) error {
	if op.ID == f.rejectID {
		return fmt.Errorf("document %s rejected by store", op.ID)
	}
	if err := f.schema.Validate(op.Doc); err != nil {
		return err
	}
	if _, exists := f.docs[op.ID]; exists {
		if op.Kind == store.OpInsertIfAbsent {
			return nil
		}
		return fmt.Errorf("document %s already exists", op.ID)
	}
	f.docs[op.ID] = op.Doc
	return nil
}

// fakePatients adds fingerprint resolution over the stored identity docs.
type fakePatients struct {
	*fakeCollection
}

func newFakePatients() *fakePatients {
	return &fakePatients{fakeCollection: newFakeCollection(schema.Patients)}
}

func (f *fakePatients) ResolveKeys(_ context.Context, keys []store.NaturalKey) (map[store.NaturalKey]string, error) {
	resolved := make(map[store.NaturalKey]string)
	for id, doc := range f.docs {
		key := store.NaturalKey{
			Name:      doc["Name"].(string),
			Age:       doc["Age"].(int),
			Gender:    doc["Gender"].(string),
			BloodType: doc["Blood Type"].(string),
			Condition: doc["Medical Condition"].(string),
		}
		for _, want := range keys {
			if key == want {
				resolved[key] = id
			}
		}
	}
	return resolved, nil
}
