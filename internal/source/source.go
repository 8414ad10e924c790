// Package source reads the legacy spreadsheet export (CSV) into
// canonical records. Exports come out of an old Windows tool, so the
// reader tolerates Windows-1252 encoding, BOMs, either delimiter, and
// ragged rows. Parse problems become warnings, not errors: only a
// completely unreadable file aborts a run.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/mferreira/socioctl/internal/domain"
	"github.com/mferreira/socioctl/internal/normalize"
)

// Columns holds the discovered header name for each concern. Email is
// mandatory; anything else may be absent from a given export.
type Columns struct {
	MemberNumber string
	Name         string
	Email        string
	NIF          string
	Phone        string
	Address      string
	PostalCode   string
	City         string
	BirthDate    string
	Status       string
	MemberSince  string
}

// Result is a parsed source load.
type Result struct {
	Records  []domain.Record
	Columns  Columns
	Warnings []string
	// Rows dropped by the prefilters.
	ExcludedNIF int
	Duplicates  int
}

// Load reads and parses the export at path.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return Parse(data)
}

// Parse parses raw export bytes.
func Parse(data []byte) (*Result, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = sniffDelimiter(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty source file: no header row")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	cols, err := discoverColumns(headers)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	field := func(row []string, header string) string {
		if header == "" {
			return ""
		}
		i, ok := index[header]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	result := &Result{Columns: cols}
	seen := make(map[string]bool)
	rowNum := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		rec := normalize.Record(normalize.RawRow{
			MemberNumber: field(row, cols.MemberNumber),
			Name:         field(row, cols.Name),
			Email:        field(row, cols.Email),
			NIF:          field(row, cols.NIF),
			Phone:        field(row, cols.Phone),
			Address:      field(row, cols.Address),
			PostalCode:   field(row, cols.PostalCode),
			City:         field(row, cols.City),
			BirthDate:    field(row, cols.BirthDate),
			StatusLabel:  field(row, cols.Status),
			MemberSince:  field(row, cols.MemberSince),
		})

		if rec.NIF == normalize.ExcludedNIF {
			result.ExcludedNIF++
			continue
		}
		// Duplicates by member number are pre-collapsed, first wins.
		if rec.MemberNumber != "" {
			if seen[rec.MemberNumber] {
				result.Duplicates++
				continue
			}
			seen[rec.MemberNumber] = true
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// decode strips a BOM and converts legacy Windows-1252 bytes to UTF-8.
func decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source file: %w", err)
	}
	return decoded, nil
}

// sniffDelimiter picks ';' when the header line uses it instead of ','.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// discoverColumns matches headers by lower-cased substring, the same way
// the exports have always been consumed: column titles drift between
// exports but keep their keywords.
func discoverColumns(headers []string) (Columns, error) {
	find := func(keywords ...string) string {
		for _, h := range headers {
			lower := strings.ToLower(h)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					return h
				}
			}
		}
		return ""
	}

	cols := Columns{
		MemberNumber: find("sócio", "socio"),
		Email:        find("e-mail", "email"),
		BirthDate:    find("nascimento"),
		Name:         find("nome"),
		NIF:          find("nif"),
		Phone:        find("telefone", "telemóvel", "telemovel"),
		Address:      find("morada"),
		PostalCode:   find("postal"),
		City:         find("localidade"),
		Status:       find("estado"),
		MemberSince:  find("cliente desde", "desde"),
	}
	if cols.Email == "" {
		return cols, fmt.Errorf("no email column found in headers %v", headers)
	}
	return cols, nil
}
