package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// NaturalKey is the five-field fingerprint that identifies a patient. Two rows
// with byte-identical values on all five fields denote the same person. The
// type is comparable, so it doubles as a map key during resolution.
type NaturalKey struct {
	Name      string
	Age       int
	Gender    string
	BloodType string
	Condition string
}

// DocID derives the deterministic document key for this fingerprint. Because
// the key is a pure function of the natural key, a KV insert of an existing
// identity fails with a document-exists error instead of creating a duplicate,
// which is what makes re-ingestion idempotent.
func (k NaturalKey) DocID() string {
	canonical := strings.Join([]string{
		k.Name,
		strconv.Itoa(k.Age),
		k.Gender,
		k.BloodType,
		k.Condition,
	}, "\x1f")
	sum := sha256.Sum256([]byte(canonical))
	return "patient::" + hex.EncodeToString(sum[:])
}

// Doc builds the identity document. The fingerprint fields are the entire
// document; there is no other patient state.
func (k NaturalKey) Doc() map[string]interface{} {
	return map[string]interface{}{
		"Name":              k.Name,
		"Age":               k.Age,
		"Gender":            k.Gender,
		"Blood Type":        k.BloodType,
		"Medical Condition": k.Condition,
	}
}

// InsertOp builds the insert-if-absent operation for this fingerprint.
func (k NaturalKey) InsertOp() Op {
	return Op{Kind: OpInsertIfAbsent, ID: k.DocID(), Doc: k.Doc()}
}
