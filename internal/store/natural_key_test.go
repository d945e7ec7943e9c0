package store

import (
	"context"
	"strings"
	"testing"

	"github.com/couchbase/gocb/v2"

	"stealthcompany.com/healthloader/internal/schema"
)

func sampleKey() NaturalKey {
	return NaturalKey{
		Name:      "John Doe",
		Age:       35,
		Gender:    "Male",
		BloodType: "A+",
		Condition: "Diabetes",
	}
}

func TestDocIDIsDeterministic(t *testing.T) {
	a := sampleKey().DocID()
	b := sampleKey().DocID()
	if a != b {
		t.Errorf("same key produced different ids: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "patient::") {
		t.Errorf("id %s lacks the patient prefix", a)
	}
	// sha256 hex digest after the prefix.
	if len(a) != len("patient::")+64 {
		t.Errorf("id length = %d, want %d", len(a), len("patient::")+64)
	}
}

func TestDocIDDistinguishesKeys(t *testing.T) {
	base := sampleKey()

	variants := []NaturalKey{
		{Name: "Jane Doe", Age: 35, Gender: "Male", BloodType: "A+", Condition: "Diabetes"},
		{Name: "John Doe", Age: 36, Gender: "Male", BloodType: "A+", Condition: "Diabetes"},
		{Name: "John Doe", Age: 35, Gender: "Female", BloodType: "A+", Condition: "Diabetes"},
		{Name: "John Doe", Age: 35, Gender: "Male", BloodType: "A-", Condition: "Diabetes"},
		{Name: "John Doe", Age: 35, Gender: "Male", BloodType: "A+", Condition: "Asthma"},
	}

	for _, v := range variants {
		if v.DocID() == base.DocID() {
			t.Errorf("key %+v collides with base key", v)
		}
	}
}

func TestDocIDFieldBoundaries(t *testing.T) {
	// Field contents must not bleed across the join boundary.
	a := NaturalKey{Name: "AB", Age: 1, Gender: "C", BloodType: "D", Condition: "E"}
	b := NaturalKey{Name: "A", Age: 1, Gender: "BC", BloodType: "D", Condition: "E"}
	if a.DocID() == b.DocID() {
		t.Error("shifting characters between fields produced the same id")
	}
}

func TestInsertOpCarriesIdentityDocument(t *testing.T) {
	key := sampleKey()
	op := key.InsertOp()

	if op.Kind != OpInsertIfAbsent {
		t.Errorf("op kind = %v, want OpInsertIfAbsent", op.Kind)
	}
	if op.ID != key.DocID() {
		t.Errorf("op id = %s, want %s", op.ID, key.DocID())
	}
	if err := schema.Patients.Validate(op.Doc); err != nil {
		t.Errorf("identity document fails its own schema: %v", err)
	}
	if op.Doc["Medical Condition"] != "Diabetes" {
		t.Errorf("Medical Condition = %v, want Diabetes", op.Doc["Medical Condition"])
	}
}

func TestKeyQueryReadsItsOwnWrites(t *testing.T) {
	p := &Patients{Collection: &Collection{
		conn:   &Connection{bucketName: "healthcare-data"},
		schema: schema.Patients,
	}}

	_, params := p.buildKeyQuery([]NaturalKey{sampleKey()})
	opts := p.queryOptions(context.Background(), params)

	// Identities are inserted over KV immediately before the requery; without
	// request-plus consistency the index may not have caught up and a
	// just-written patient resolves to nothing.
	if opts.ScanConsistency != gocb.QueryScanConsistencyRequestPlus {
		t.Errorf("ScanConsistency = %v, want QueryScanConsistencyRequestPlus", opts.ScanConsistency)
	}
	if len(opts.PositionalParameters) != 5 {
		t.Errorf("positional parameters = %d, want 5", len(opts.PositionalParameters))
	}
}

func TestBuildKeyQuery(t *testing.T) {
	p := &Patients{Collection: &Collection{
		conn:   &Connection{bucketName: "healthcare-data"},
		schema: schema.Patients,
	}}

	keys := []NaturalKey{sampleKey(), {Name: "Jane Smith", Age: 42, Gender: "Female", BloodType: "B-", Condition: "Hypertension"}}
	query, params := p.buildKeyQuery(keys)

	if !strings.Contains(query, "FROM `healthcare-data`.`healthcare`.`patients`") {
		t.Errorf("query targets the wrong keyspace: %s", query)
	}
	if got := strings.Count(query, " OR "); got != 1 {
		t.Errorf("query has %d OR disjunctions, want 1 for two keys", got)
	}
	if len(params) != 10 {
		t.Fatalf("params = %d, want 10 (five per key)", len(params))
	}
	if params[0] != "John Doe" || params[1] != 35 || params[9] != "Hypertension" {
		t.Errorf("positional parameters out of order: %v", params)
	}
	if !strings.Contains(query, "$10") {
		t.Errorf("query is missing the last positional placeholder: %s", query)
	}
}
