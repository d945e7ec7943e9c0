package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row carries the raw, uncleaned string values of one source record. A column
// missing from the file yields an empty string, which downstream normalization
// treats as absent.
type Row struct {
	Name              string
	Age               string
	Gender            string
	BloodType         string
	MedicalCondition  string
	DateOfAdmission   string
	AdmissionType     string
	RoomNumber        string
	DischargeDate     string
	Doctor            string
	Hospital          string
	Medication        string
	TestResults       string
	BillingAmount     string
	InsuranceProvider string
}

// Reader streams fixed-size chunks of rows from a delimited healthcare export.
// Each Open call restarts from the beginning of the file.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	colIdx map[string]int // lowercase header → column index
	rowNum int64
}

// Open opens the file and consumes its header row.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	r := &Reader{
		file:   file,
		csv:    reader,
		colIdx: make(map[string]int),
	}

	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	r.rowNum++

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		r.colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return nil
}

// NextChunk returns up to size rows. It returns io.EOF once the file is
// exhausted; a final short chunk is returned with a nil error and io.EOF
// follows on the next call.
func (r *Reader) NextChunk(size int) ([]Row, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	rows := make([]Row, 0, size)
	for len(rows) < size {
		record, err := r.csv.Read()
		if err == io.EOF {
			if len(rows) == 0 {
				return nil, io.EOF
			}
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", r.rowNum+1, err)
		}
		r.rowNum++

		// Skip empty rows
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		rows = append(rows, r.parseRow(record))
	}
	return rows, nil
}

func (r *Reader) parseRow(record []string) Row {
	return Row{
		Name:              r.valAt(record, "name"),
		Age:               r.valAt(record, "age"),
		Gender:            r.valAt(record, "gender"),
		BloodType:         r.valAt(record, "blood type"),
		MedicalCondition:  r.valAt(record, "medical condition"),
		DateOfAdmission:   r.valAt(record, "date of admission"),
		AdmissionType:     r.valAt(record, "admission type"),
		RoomNumber:        r.valAt(record, "room number"),
		DischargeDate:     r.valAt(record, "discharge date"),
		Doctor:            r.valAt(record, "doctor"),
		Hospital:          r.valAt(record, "hospital"),
		Medication:        r.valAt(record, "medication"),
		TestResults:       r.valAt(record, "test results"),
		BillingAmount:     r.valAt(record, "billing amount"),
		InsuranceProvider: r.valAt(record, "insurance provider"),
	}
}

func (r *Reader) valAt(record []string, col string) string {
	if i, ok := r.colIdx[col]; ok && i < len(record) {
		return record[i]
	}
	return ""
}

// RowNum returns the current file row number (1-based, header included).
func (r *Reader) RowNum() int64 {
	return r.rowNum
}

func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
