// Package ledger is the append-only per-run record of classification and
// creation outcomes. One CSV row is written per processed record,
// whatever the outcome: the ledger is the only durable record of which
// temporary credential a member was assigned, and later repair passes
// (sweep, credential repair) read it back.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mferreira/socioctl/internal/domain"
)

const filePrefix = "migration_log_"

// Entry is one ledger row.
type Entry struct {
	RunID            string
	MemberNumber     string
	Name             string
	Email            string
	NIF              string
	UserID           string
	State            string
	Reason           string
	MembershipStatus string
	TempPassword     string
}

var header = []string{
	"run_id", "member_number", "name", "email", "nif",
	"user_id", "state", "reason", "membership_status", "temp_password",
}

// Writer appends entries to a new ledger file, one per run.
type Writer struct {
	file  *os.File
	csv   *csv.Writer
	runID string
	path  string
}

// NewWriter creates the ledger file for this run under dir and writes
// the header.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	name := filePrefix + time.Now().UTC().Format("20060102_150405") + ".csv"
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger file: %w", err)
	}

	w := &Writer{file: f, csv: csv.NewWriter(f), runID: uuid.NewString(), path: path}
	if err := w.csv.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write ledger header: %w", err)
	}
	w.csv.Flush()
	return w, w.csv.Error()
}

// RunID returns this run's identifier, stamped on every entry.
func (w *Writer) RunID() string {
	return w.runID
}

// Path returns the ledger file path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one entry and flushes so a terminated run still leaves
// every processed record on disk.
func (w *Writer) Append(e Entry) error {
	e.RunID = w.runID
	row := []string{
		e.RunID, e.MemberNumber, e.Name, e.Email, e.NIF,
		e.UserID, e.State, e.Reason, e.MembershipStatus, e.TempPassword,
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close closes the ledger file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Latest returns the newest ledger file in dir, or "" if none exist.
// File names embed a UTC timestamp, so lexical order is chronological.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.csv"))
	if err != nil {
		return "", fmt.Errorf("failed to list ledger files: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Read loads a ledger file. Reads are defensive: columns may be absent
// in files written by older runs, and missing values default to "".
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entries = append(entries, Entry{
			RunID:            field(row, "run_id"),
			MemberNumber:     field(row, "member_number"),
			Name:             field(row, "name"),
			Email:            field(row, "email"),
			NIF:              field(row, "nif"),
			UserID:           field(row, "user_id"),
			State:            field(row, "state"),
			Reason:           field(row, "reason"),
			MembershipStatus: field(row, "membership_status"),
			TempPassword:     field(row, "temp_password"),
		})
	}
	return entries, nil
}

// Index provides the lookups repair passes need, keyed by lower-cased
// email.
type Index struct {
	statusByEmail map[string]domain.MembershipStatus
	numberByEmail map[string]string
}

// BuildIndex builds the repair lookups from ledger entries. Later
// entries win, matching the append-only semantics of reruns.
func BuildIndex(entries []Entry) *Index {
	idx := &Index{
		statusByEmail: make(map[string]domain.MembershipStatus),
		numberByEmail: make(map[string]string),
	}
	for _, e := range entries {
		email := strings.ToLower(strings.TrimSpace(e.Email))
		if email == "" {
			continue
		}
		if e.MemberNumber != "" {
			idx.numberByEmail[email] = e.MemberNumber
		}
		if e.MembershipStatus != "" {
			if n, err := strconv.Atoi(e.MembershipStatus); err == nil {
				idx.statusByEmail[email] = domain.MembershipStatus(n)
			}
		}
	}
	return idx
}

// Status returns the intended membership status recorded for an email.
func (i *Index) Status(email string) (domain.MembershipStatus, bool) {
	s, ok := i.statusByEmail[strings.ToLower(strings.TrimSpace(email))]
	return s, ok
}

// NumberByEmail returns the email → member number mapping for credential
// repair.
func (i *Index) NumberByEmail() map[string]string {
	return i.numberByEmail
}
