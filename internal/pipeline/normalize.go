package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"stealthcompany.com/healthloader/internal/source"
)

// nullLikeRe matches values that stand for "no value" in healthcare exports.
// The empty string matches too, so a missing column degrades to absent.
var nullLikeRe = regexp.MustCompile(`(?i)^(?:nan|none|null|n/?a|--|<na>)?$`)

// dateLayouts are tried in order when parsing admission and discharge dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// NormalizeChunk cleans a chunk of raw rows: trims whitespace, maps null-like
// tokens to absent, coerces dates and numerics (unparseable degrades to
// absent, never to an error), and applies the case conventions of the target
// schema. No row is dropped here.
func NormalizeChunk(rows []source.Row) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = normalizeRow(row)
	}
	return records
}

func normalizeRow(row source.Row) Record {
	return Record{
		Name:             titleCased(cleanText(row.Name)),
		Age:              parseNumber(row.Age),
		Gender:           capitalized(cleanText(row.Gender)),
		BloodType:        upperCased(cleanText(row.BloodType)),
		MedicalCondition: titleCased(cleanText(row.MedicalCondition)),

		AdmissionDate: parseDate(row.DateOfAdmission),
		AdmissionType: titleCased(cleanText(row.AdmissionType)),
		RoomNumber:    parseNumber(row.RoomNumber),
		DischargeDate: parseDate(row.DischargeDate),

		Doctor:      titleCased(cleanText(row.Doctor)),
		Hospital:    titleCased(cleanText(row.Hospital)),
		Medication:  titleCased(cleanText(row.Medication)),
		TestResults: titleCased(cleanText(row.TestResults)),

		BillingAmount:     parseNumber(row.BillingAmount),
		InsuranceProvider: titleCased(cleanText(row.InsuranceProvider)),
	}
}

// cleanText trims surrounding whitespace and maps null-like tokens to absent.
func cleanText(s string) *string {
	s = strings.TrimSpace(s)
	if nullLikeRe.MatchString(s) {
		return nil
	}
	return &s
}

func parseNumber(s string) *float64 {
	cleaned := cleanText(s)
	if cleaned == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseDate(s string) *time.Time {
	cleaned := cleanText(s)
	if cleaned == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *cleaned); err == nil {
			return &t
		}
	}
	return nil
}

func upperCased(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(*s)
	return &v
}

// capitalized upper-cases the first letter and lower-cases the rest, so
// "fEMale" becomes "Female".
func capitalized(s *string) *string {
	if s == nil {
		return nil
	}
	runes := []rune(strings.ToLower(*s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	v := string(runes)
	return &v
}

// titleCased upper-cases the first letter of every word and lower-cases the
// remainder, so "uRGENT" becomes "Urgent" and "john DOE" becomes "John Doe".
func titleCased(s *string) *string {
	if s == nil {
		return nil
	}
	var sb strings.Builder
	sb.Grow(len(*s))
	startOfWord := true
	for _, r := range *s {
		if !unicode.IsLetter(r) {
			startOfWord = true
			sb.WriteRune(r)
			continue
		}
		if startOfWord {
			sb.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	v := sb.String()
	return &v
}
