package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/schema"
)

// Patients is the identity collection. On top of ordered bulk writes it
// resolves natural-key fingerprints to stored document identifiers.
type Patients struct {
	*Collection
}

// NewPatients opens the patients collection.
func NewPatients(conn *Connection) *Patients {
	return &Patients{Collection: NewCollection(conn, schema.Patients)}
}

type patientRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	BloodType string `json:"bloodType"`
	Condition string `json:"condition"`
}

// ResolveKeys queries the store for every identity whose five key fields
// match one of the given fingerprints and returns a fingerprint → document id
// mapping. Keys absent from the result were not persisted (write failure) and
// are dropped by the caller.
func (p *Patients) ResolveKeys(ctx context.Context, keys []NaturalKey) (map[NaturalKey]string, error) {
	resolved := make(map[NaturalKey]string, len(keys))
	if len(keys) == 0 {
		return resolved, nil
	}

	query, params := p.buildKeyQuery(keys)
	rows, err := p.conn.cluster.Query(query, p.queryOptions(ctx, params))
	if err != nil {
		metrics.RecordStoreOperation(p.Name(), "query", "error")
		return nil, fmt.Errorf("failed to resolve patient keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row patientRow
		if err := rows.Row(&row); err != nil {
			log.Warn().Err(err).Msg("Failed to read patient row")
			continue
		}
		key := NaturalKey{
			Name:      row.Name,
			Age:       row.Age,
			Gender:    row.Gender,
			BloodType: row.BloodType,
			Condition: row.Condition,
		}
		resolved[key] = row.ID
	}

	metrics.RecordStoreOperation(p.Name(), "query", "success")
	log.Debug().
		Int("requested", len(keys)).
		Int("resolved", len(resolved)).
		Msg("Resolved patient identities")
	return resolved, nil
}

// queryOptions binds the requery parameters. The identities were written over
// KV moments earlier in the same chunk and the GSI index updates
// asynchronously, so the query must wait for the index to catch up with its
// own mutations; NotBounded would miss just-inserted keys on a fresh store.
func (p *Patients) queryOptions(ctx context.Context, params []interface{}) *gocb.QueryOptions {
	return &gocb.QueryOptions{
		Context:              ctx,
		PositionalParameters: params,
		ScanConsistency:      gocb.QueryScanConsistencyRequestPlus,
	}
}

// buildKeyQuery assembles one N1QL statement matching any of the fingerprints
// as an OR disjunction of five-field predicates.
func (p *Patients) buildKeyQuery(keys []NaturalKey) (string, []interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"SELECT META(p).id AS id, p.`Name` AS name, p.`Age` AS age, "+
			"p.`Gender` AS gender, p.`Blood Type` AS bloodType, "+
			"p.`Medical Condition` AS condition "+
			"FROM `%s`.`%s`.`%s` AS p WHERE ",
		p.conn.bucketName, ScopeName, p.Name())

	params := make([]interface{}, 0, len(keys)*5)
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		n := len(params)
		fmt.Fprintf(&sb,
			"(p.`Name` = $%d AND p.`Age` = $%d AND p.`Gender` = $%d "+
				"AND p.`Blood Type` = $%d AND p.`Medical Condition` = $%d)",
			n+1, n+2, n+3, n+4, n+5)
		params = append(params, key.Name, key.Age, key.Gender, key.BloodType, key.Condition)
	}
	return sb.String(), params
}
