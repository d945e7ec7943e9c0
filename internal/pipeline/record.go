package pipeline

import (
	"time"

	"stealthcompany.com/healthloader/internal/store"
)

// Record is one normalized source row. Absent values (empty, null-like, or
// unparseable in the source) are nil pointers. Age and RoomNumber stay
// floating point until validation/coercion so that non-integral inputs can be
// rejected rather than silently truncated.
type Record struct {
	Name             *string
	Age              *float64
	Gender           *string
	BloodType        *string
	MedicalCondition *string

	AdmissionDate *time.Time
	AdmissionType *string
	RoomNumber    *float64
	DischargeDate *time.Time

	Doctor      *string
	Hospital    *string
	Medication  *string
	TestResults *string

	BillingAmount     *float64
	InsuranceProvider *string

	// PatientID is the resolved identity document id, set by the resolver.
	PatientID string
}

// naturalKey builds the five-field fingerprint of the record. It must only be
// called on validated records, where all key fields are present and Age is a
// whole number.
func (r Record) naturalKey() store.NaturalKey {
	return store.NaturalKey{
		Name:      *r.Name,
		Age:       int(*r.Age),
		Gender:    *r.Gender,
		BloodType: *r.BloodType,
		Condition: *r.MedicalCondition,
	}
}
