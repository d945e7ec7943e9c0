package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const fixtureCSV = `Name,Age,Gender,Blood Type,Medical Condition,Date of Admission,Admission Type,Room Number,Discharge Date,Doctor,Hospital,Medication,Test Results,Billing Amount,Insurance Provider
Alice,30,Female,A+,Asthma,2023-01-01,Urgent,101,,Dr. A,Gen,,,100.0,Aetna
Bob,40,Male,B+,Cancer,2023-01-02,Elective,102,,Dr. B,Gen,,,200.0,Cigna
Carol,50,Female,O-,Obesity,2023-01-03,Emergency,103,,Dr. C,Gen,,,300.0,UHC
`

func TestNextChunkRespectsSize(t *testing.T) {
	reader, err := Open(writeFixture(t, fixtureCSV))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	first, err := reader.NextChunk(2)
	if err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first chunk has %d rows, want 2", len(first))
	}
	if first[0].Name != "Alice" || first[1].Name != "Bob" {
		t.Errorf("first chunk rows = %q, %q; want Alice, Bob", first[0].Name, first[1].Name)
	}

	second, err := reader.NextChunk(2)
	if err != nil {
		t.Fatalf("second chunk: %v", err)
	}
	if len(second) != 1 || second[0].Name != "Carol" {
		t.Errorf("second chunk = %+v, want single Carol row", second)
	}

	if _, err := reader.NextChunk(2); err != io.EOF {
		t.Errorf("after exhaustion err = %v, want io.EOF", err)
	}
}

func TestHeaderMappingIsCaseInsensitive(t *testing.T) {
	csv := "name,AGE,gender,BLOOD TYPE,medical condition\nDave,22,Male,AB-,Arthritis\n"
	reader, err := Open(writeFixture(t, csv))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	rows, err := reader.NextChunk(10)
	if err != nil {
		t.Fatalf("NextChunk: %v", err)
	}
	row := rows[0]
	if row.Name != "Dave" || row.Age != "22" || row.BloodType != "AB-" || row.MedicalCondition != "Arthritis" {
		t.Errorf("row = %+v, header mapping failed", row)
	}
	// Columns missing from the file come back empty.
	if row.Doctor != "" || row.BillingAmount != "" {
		t.Errorf("missing columns should be empty, got Doctor=%q BillingAmount=%q", row.Doctor, row.BillingAmount)
	}
}

func TestBOMAndEmptyRowsAreSkipped(t *testing.T) {
	csv := "\xEF\xBB\xBFName,Age\nEve,28\n\nFrank,33\n"
	reader, err := Open(writeFixture(t, csv))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	rows, err := reader.NextChunk(10)
	if err != nil {
		t.Fatalf("NextChunk: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (empty row skipped)", len(rows))
	}
	if rows[0].Name != "Eve" {
		t.Errorf("BOM not stripped from header: first row Name = %q", rows[0].Name)
	}
}

func TestOpenIsRestartable(t *testing.T) {
	path := writeFixture(t, fixtureCSV)

	for run := 0; run < 2; run++ {
		reader, err := Open(path)
		if err != nil {
			t.Fatalf("Open run %d: %v", run, err)
		}
		rows, err := reader.NextChunk(10)
		reader.Close()
		if err != nil {
			t.Fatalf("NextChunk run %d: %v", run, err)
		}
		if len(rows) != 3 {
			t.Errorf("run %d rows = %d, want 3", run, len(rows))
		}
	}
}

func TestRowNumTracksFilePosition(t *testing.T) {
	reader, err := Open(writeFixture(t, fixtureCSV))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	if got := reader.RowNum(); got != 1 {
		t.Errorf("RowNum after header = %d, want 1", got)
	}

	if _, err := reader.NextChunk(2); err != nil {
		t.Fatalf("NextChunk: %v", err)
	}
	if got := reader.RowNum(); got != 3 {
		t.Errorf("RowNum after two data rows = %d, want 3", got)
	}
}

func TestNextChunkRejectsNonPositiveSize(t *testing.T) {
	reader, err := Open(writeFixture(t, fixtureCSV))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	if _, err := reader.NextChunk(0); err == nil {
		t.Error("NextChunk(0) succeeded, want error")
	}
}
