package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/store"
)

// ResolveIdentities guarantees every valid record references a stored patient
// identity. For each distinct fingerprint in the chunk it issues one
// insert-if-absent operation, then requeries the store to map fingerprints to
// document ids and attaches the id to every record. Running the same chunk
// twice never creates a second identity for the same fingerprint.
//
// Records whose fingerprint cannot be resolved (a write failure upstream) are
// dropped with a warning. A failing requery is an infrastructure error and
// propagates.
func ResolveIdentities(ctx context.Context, patients PatientCollection, records []Record) ([]Record, error) {
	if len(records) == 0 {
		return records, nil
	}

	keys := distinctKeys(records)
	ops := make([]store.Op, len(keys))
	for i, key := range keys {
		ops[i] = key.InsertOp()
	}

	if _, err := WriteOrdered(ctx, patients, ops); err != nil {
		return nil, err
	}

	resolved, err := patients.ResolveKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("identity resolution failed: %w", err)
	}

	kept := make([]Record, 0, len(records))
	var dropped int
	for _, r := range records {
		id, ok := resolved[r.naturalKey()]
		if !ok {
			dropped++
			log.Warn().
				Str("name", *r.Name).
				Msg("Patient identity could not be resolved, dropping row")
			continue
		}
		r.PatientID = id
		kept = append(kept, r)
	}

	metrics.RecordResolution(len(kept), dropped)
	return kept, nil
}

// distinctKeys returns the unique fingerprints of the chunk in first-seen
// order, so write batches are deterministic for a given input.
func distinctKeys(records []Record) []store.NaturalKey {
	seen := make(map[store.NaturalKey]bool, len(records))
	keys := make([]store.NaturalKey, 0, len(records))
	for _, r := range records {
		key := r.naturalKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}
