package pipeline

import (
	"math"

	"github.com/google/uuid"

	"stealthcompany.com/healthloader/internal/store"
)

// Dependents holds the per-collection insert operations derived from one
// chunk of resolved records.
type Dependents struct {
	Admissions     []store.Op
	MedicalRecords []store.Op
	Billing        []store.Op
}

// BuildDependents derives zero-or-one admission, medical-record and billing
// operation per resolved record, per the presence gates of the data model.
func BuildDependents(records []Record) Dependents {
	var deps Dependents
	for _, r := range records {
		if op := admissionOp(r); op != nil {
			deps.Admissions = append(deps.Admissions, *op)
		}
		if op := medicalRecordOp(r); op != nil {
			deps.MedicalRecords = append(deps.MedicalRecords, *op)
		}
		if op := billingOp(r); op != nil {
			deps.Billing = append(deps.Billing, *op)
		}
	}
	return deps
}

// admissionOp requires both admission date and admission type. The room
// number is kept only when it is a finite, whole-valued number of at least 1;
// anything else is recorded as absent rather than dropping the admission.
func admissionOp(r Record) *store.Op {
	if r.AdmissionDate == nil || r.AdmissionType == nil {
		return nil
	}

	doc := map[string]interface{}{
		"patient_id":        r.PatientID,
		"Date of Admission": *r.AdmissionDate,
		"Admission Type":    *r.AdmissionType,
		"Room Number":       nil,
		"Discharge Date":    nil,
	}
	if room, ok := roomNumber(r.RoomNumber); ok {
		doc["Room Number"] = room
	}
	if r.DischargeDate != nil {
		doc["Discharge Date"] = *r.DischargeDate
	}

	return &store.Op{Kind: store.OpInsert, ID: "admission::" + uuid.NewString(), Doc: doc}
}

// medicalRecordOp requires both doctor and hospital.
func medicalRecordOp(r Record) *store.Op {
	if r.Doctor == nil || r.Hospital == nil {
		return nil
	}

	doc := map[string]interface{}{
		"patient_id":   r.PatientID,
		"Doctor":       *r.Doctor,
		"Hospital":     *r.Hospital,
		"Medication":   nil,
		"Test Results": nil,
	}
	if r.Medication != nil {
		doc["Medication"] = *r.Medication
	}
	if r.TestResults != nil {
		doc["Test Results"] = *r.TestResults
	}

	return &store.Op{Kind: store.OpInsert, ID: "medical::" + uuid.NewString(), Doc: doc}
}

// billingOp requires at least one of billing amount or insurance provider.
func billingOp(r Record) *store.Op {
	if r.BillingAmount == nil && r.InsuranceProvider == nil {
		return nil
	}

	doc := map[string]interface{}{
		"patient_id": r.PatientID,
	}
	if r.BillingAmount != nil {
		doc["Billing Amount"] = *r.BillingAmount
	}
	if r.InsuranceProvider != nil {
		doc["Insurance Provider"] = *r.InsuranceProvider
	}

	return &store.Op{Kind: store.OpInsert, ID: "billing::" + uuid.NewString(), Doc: doc}
}

// roomNumber coerces a raw numeric room value to an integer. It accepts only
// finite, whole-valued numbers of at least 1.
func roomNumber(v *float64) (int, bool) {
	if v == nil {
		return 0, false
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f || f < 1 {
		return 0, false
	}
	return int(f), true
}
