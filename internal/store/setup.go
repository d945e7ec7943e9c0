package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/schema"
)

// Store bundles the four target collections of the pipeline.
type Store struct {
	Patients       *Patients
	Admissions     *Collection
	MedicalRecords *Collection
	Billing        *Collection
}

// Setup provisions the healthcare scope, its collections and secondary
// indexes, and binds each collection to its declarative schema. All steps are
// idempotent: an existing scope, collection or index is left as is.
func Setup(ctx context.Context, conn *Connection) (*Store, error) {
	if err := ensureScope(conn); err != nil {
		return nil, err
	}
	for _, s := range schema.All() {
		if err := ensureCollection(conn, s.Name); err != nil {
			return nil, err
		}
	}
	createIndexes(ctx, conn)

	return &Store{
		Patients:       NewPatients(conn),
		Admissions:     NewCollection(conn, schema.Admissions),
		MedicalRecords: NewCollection(conn, schema.MedicalRecords),
		Billing:        NewCollection(conn, schema.Billing),
	}, nil
}

func ensureScope(conn *Connection) error {
	err := conn.bucket.CollectionsV2().CreateScope(ScopeName, nil)
	if err != nil {
		if errors.Is(err, gocb.ErrScopeExists) {
			log.Debug().Str("scope", ScopeName).Msg("Scope already exists")
			return nil
		}
		return fmt.Errorf("failed to create scope %s: %w", ScopeName, err)
	}
	log.Info().Str("scope", ScopeName).Msg("Scope created")
	return nil
}

func ensureCollection(conn *Connection, name string) error {
	err := conn.bucket.CollectionsV2().CreateCollection(ScopeName, name, nil, nil)
	if err != nil {
		if errors.Is(err, gocb.ErrCollectionExists) {
			log.Debug().Str("collection", name).Msg("Collection already exists")
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	log.Info().Str("collection", name).Msg("Collection created with schema validation")
	return nil
}

// createIndexes creates the secondary indexes used by resolution and
// downstream analytics. The patients index serves the natural-key requery;
// uniqueness of the key itself is enforced by the deterministic document id.
func createIndexes(ctx context.Context, conn *Connection) {
	log.Info().Msg("Creating secondary indexes for efficient querying...")

	keyspace := func(coll string) string {
		return fmt.Sprintf("`%s`.`%s`.`%s`", conn.bucketName, ScopeName, coll)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_patients_natural_key ON " + keyspace("patients") +
			"(`Name`, `Age`, `Gender`, `Blood Type`, `Medical Condition`)",
		"CREATE INDEX IF NOT EXISTS idx_admissions_patient_date ON " + keyspace("admissions") +
			"(`patient_id`, `Date of Admission`)",
		"CREATE INDEX IF NOT EXISTS idx_medical_patient_doctor ON " + keyspace("medical_records") +
			"(`patient_id`, `Doctor`)",
		"CREATE INDEX IF NOT EXISTS idx_billing_patient_amount ON " + keyspace("billing") +
			"(`patient_id`, `Billing Amount`)",
	}

	for _, indexQuery := range indexes {
		_, err := conn.cluster.Query(indexQuery, &gocb.QueryOptions{Context: ctx})
		if err != nil {
			log.Warn().Err(err).Str("query", indexQuery).Msg("Failed to create index (may already exist)")
		} else {
			log.Debug().Str("query", indexQuery).Msg("Index created successfully")
		}
	}

	log.Info().Msg("Secondary indexes creation completed")
}
