package pipeline

import (
	"math"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthloader/internal/metrics"
	"stealthcompany.com/healthloader/internal/schema"
)

// Enum sets and age bounds come from the same declarative schema the store
// enforces at write time, so both sides apply identical rules.
var (
	genders    = schema.Patients.EnumSet("Gender")
	bloodTypes = schema.Patients.EnumSet("Blood Type")
	conditions = schema.Patients.EnumSet("Medical Condition")

	ageMin = *schema.Patients.Fields["Age"].Min
	ageMax = *schema.Patients.Fields["Age"].Max
)

// ValidatePatients returns the subset of records that form admissible patient
// identities. Failing rows are dropped silently; they produce no identity and
// no dependent records. Records are never mutated, only excluded.
func ValidatePatients(records []Record) []Record {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		if isValidPatient(r) {
			valid = append(valid, r)
		}
	}

	log.Info().
		Int("kept", len(valid)).
		Int("total", len(records)).
		Msg("Patient validation completed")
	metrics.RecordValidation(len(valid), len(records)-len(valid))

	return valid
}

func isValidPatient(r Record) bool {
	if r.Name == nil {
		return false
	}
	if r.Age == nil || !isWhole(*r.Age) || *r.Age < ageMin || *r.Age > ageMax {
		return false
	}
	if r.Gender == nil || !genders[*r.Gender] {
		return false
	}
	if r.BloodType == nil || !bloodTypes[*r.BloodType] {
		return false
	}
	if r.MedicalCondition == nil || !conditions[*r.MedicalCondition] {
		return false
	}
	return true
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Trunc(f) == f
}
