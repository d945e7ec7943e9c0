package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/source"
)

// ChunkSource produces fixed-size batches of raw rows. NextChunk returns
// io.EOF once the source is exhausted. RowNum reports the current position in
// the source (1-based, header included) for read diagnostics.
type ChunkSource interface {
	NextChunk(size int) ([]source.Row, error)
	RowNum() int64
}

// Loader drives the batch ETL run: normalize, validate, resolve identities,
// fan out dependent records, write. Chunks are processed strictly
// sequentially; chunk N+1 is not read until every write for chunk N has
// returned.
type Loader struct {
	Source         ChunkSource
	ChunkSize      int
	Patients       PatientCollection
	Admissions     BulkCollection
	MedicalRecords BulkCollection
	Billing        BulkCollection
}

// Totals accumulates committed document counts over a run.
type Totals struct {
	Chunks         int
	Patients       int
	Admissions     int
	MedicalRecords int
	Billing        int
}

// Run processes the whole source. Row- and document-level failures are
// absorbed and logged; only source read errors, store connectivity errors and
// cancellation propagate.
func (l *Loader) Run(ctx context.Context) (Totals, error) {
	var totals Totals

	log.Info().Int("chunk_size", l.ChunkSize).Msg("Starting data load")

	for {
		if err := ctx.Err(); err != nil {
			return totals, fmt.Errorf("load aborted: %w", err)
		}

		chunk, err := l.Source.NextChunk(l.ChunkSize)
		if err == io.EOF {
			break
		}
		if err != nil {
			return totals, fmt.Errorf("failed to read source chunk near row %d: %w", l.Source.RowNum(), err)
		}

		if err := l.processChunk(ctx, chunk, &totals); err != nil {
			return totals, err
		}
		totals.Chunks++
	}

	log.Info().
		Int("chunks", totals.Chunks).
		Int("patients", totals.Patients).
		Int("admissions", totals.Admissions).
		Int("medical_records", totals.MedicalRecords).
		Int("billing", totals.Billing).
		Msg("Data load complete")
	return totals, nil
}

func (l *Loader) processChunk(ctx context.Context, chunk []source.Row, totals *Totals) error {
	start := time.Now()
	defer func() {
		metrics.RecordChunk(time.Since(start))
	}()

	records := NormalizeChunk(chunk)
	valid := ValidatePatients(records)
	if len(valid) == 0 {
		log.Warn().Int("rows", len(chunk)).Msg("No valid patients in this chunk, skipped")
		return nil
	}

	resolved, err := ResolveIdentities(ctx, l.Patients, valid)
	if err != nil {
		return err
	}
	// Count identities that actually resolved; a fingerprint whose write
	// failed drops its rows and must not inflate the summary.
	totals.Patients += len(distinctKeys(resolved))

	deps := BuildDependents(resolved)

	// Write order is fixed: admissions, medical records, billing. Identity
	// writes already happened during resolution, so a dependent never
	// references an unresolved identity.
	written, err := WriteOrdered(ctx, l.Admissions, deps.Admissions)
	if err != nil {
		return err
	}
	totals.Admissions += written

	written, err = WriteOrdered(ctx, l.MedicalRecords, deps.MedicalRecords)
	if err != nil {
		return err
	}
	totals.MedicalRecords += written

	written, err = WriteOrdered(ctx, l.Billing, deps.Billing)
	if err != nil {
		return err
	}
	totals.Billing += written

	log.Info().
		Int("rows", len(chunk)).
		Int("valid", len(valid)).
		Int("resolved", len(resolved)).
		Msg("Chunk processed")
	return nil
}
