package schema

import (
	"fmt"
	"time"
)

// FieldType identifies the expected value type of a document field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeDouble FieldType = "double"
	TypeDate   FieldType = "date"
)

// Field is the declarative rule for one document field. Optional fields may be
// present with a nil value; required fields must be present and non-nil.
type Field struct {
	Type     FieldType
	Required bool
	Enum     []string
	Min      *float64
	Max      *float64
}

// Collection is a declarative validator for one target collection. The same
// structure drives both the in-process patient validation and the write-time
// enforcement at the store boundary.
type Collection struct {
	Name   string
	Fields map[string]Field
}

func f64(v float64) *float64 { return &v }

var (
	// Patients holds the natural-key fields of a patient identity.
	Patients = Collection{
		Name: "patients",
		Fields: map[string]Field{
			"Name":   {Type: TypeString, Required: true},
			"Age":    {Type: TypeInt, Required: true, Min: f64(0), Max: f64(125)},
			"Gender": {Type: TypeString, Required: true, Enum: []string{"Male", "Female"}},
			"Blood Type": {Type: TypeString, Required: true,
				Enum: []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}},
			"Medical Condition": {Type: TypeString, Required: true,
				Enum: []string{"Cancer", "Obesity", "Diabetes", "Asthma", "Hypertension", "Arthritis"}},
		},
	}

	Admissions = Collection{
		Name: "admissions",
		Fields: map[string]Field{
			"patient_id":        {Type: TypeString, Required: true},
			"Date of Admission": {Type: TypeDate, Required: true},
			"Admission Type": {Type: TypeString, Required: true,
				Enum: []string{"Urgent", "Emergency", "Elective"}},
			"Room Number":    {Type: TypeInt, Min: f64(1)},
			"Discharge Date": {Type: TypeDate},
		},
	}

	MedicalRecords = Collection{
		Name: "medical_records",
		Fields: map[string]Field{
			"patient_id": {Type: TypeString, Required: true},
			"Doctor":     {Type: TypeString, Required: true},
			"Hospital":   {Type: TypeString, Required: true},
			"Medication": {Type: TypeString},
			"Test Results": {Type: TypeString,
				Enum: []string{"Normal", "Abnormal", "Inconclusive"}},
		},
	}

	Billing = Collection{
		Name: "billing",
		Fields: map[string]Field{
			"patient_id":         {Type: TypeString, Required: true},
			"Billing Amount":     {Type: TypeDouble, Min: f64(0)},
			"Insurance Provider": {Type: TypeString},
		},
	}
)

// All lists every collection schema in setup order.
func All() []Collection {
	return []Collection{Patients, Admissions, MedicalRecords, Billing}
}

// EnumSet returns the enum values of a field as a lookup set. An empty map is
// returned for fields without an enum.
func (c Collection) EnumSet(field string) map[string]bool {
	set := make(map[string]bool)
	for _, v := range c.Fields[field].Enum {
		set[v] = true
	}
	return set
}

// Validate checks a document against the collection rules. It returns the
// first violation found, or nil when the document conforms.
func (c Collection) Validate(doc map[string]interface{}) error {
	for name, rule := range c.Fields {
		value, present := doc[name]
		if !present || value == nil {
			if rule.Required {
				return fmt.Errorf("collection %s: required field %q is missing", c.Name, name)
			}
			continue
		}
		if err := rule.check(value); err != nil {
			return fmt.Errorf("collection %s: field %q %w", c.Name, name, err)
		}
	}
	for name := range doc {
		if _, known := c.Fields[name]; !known {
			return fmt.Errorf("collection %s: unknown field %q", c.Name, name)
		}
	}
	return nil
}

func (r Field) check(value interface{}) error {
	switch r.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("has type %T, want string", value)
		}
		if len(r.Enum) > 0 && !contains(r.Enum, s) {
			return fmt.Errorf("value %q is not one of %v", s, r.Enum)
		}
	case TypeInt:
		n, ok := asInt(value)
		if !ok {
			return fmt.Errorf("has type %T, want integer", value)
		}
		return r.checkBounds(float64(n))
	case TypeDouble:
		f, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("has type %T, want number", value)
		}
		return r.checkBounds(f)
	case TypeDate:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("has type %T, want date", value)
		}
	}
	return nil
}

func (r Field) checkBounds(v float64) error {
	if r.Min != nil && v < *r.Min {
		return fmt.Errorf("value %v is below minimum %v", v, *r.Min)
	}
	if r.Max != nil && v > *r.Max {
		return fmt.Errorf("value %v is above maximum %v", v, *r.Max)
	}
	return nil
}

func asInt(value interface{}) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
