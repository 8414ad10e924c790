// Package domain defines the core types shared across the migration engine:
// canonical member records, classifications, and per-record outcomes.
package domain

import (
	"strings"
	"time"
)

// MembershipStatus mirrors the integer enum used by the remote service.
type MembershipStatus int

const (
	StatusPending MembershipStatus = iota
	StatusActive
	StatusSuspended
	StatusCancelled
)

func (s MembershipStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSuspended:
		return "suspended"
	case StatusCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Record is the canonical form of one source row. Email is already
// trimmed and lower-cased; an empty Email means the source row had none.
type Record struct {
	MemberNumber string
	RawName      string
	FirstName    string
	LastName     string
	Email        string
	NIF          string
	Phone        string
	Address      string
	PostalCode   string
	City         string
	BirthDate    *time.Time
	Status       MembershipStatus
	MemberSince  *time.Time
}

// FullNameKey returns the lower-cased "first last" string used for
// duplicate matching against the target snapshot.
func (r Record) FullNameKey() string {
	return strings.ToLower(strings.TrimSpace(r.FirstName + " " + r.LastName))
}

// Classification is the matcher's verdict for one record.
type Classification int

const (
	ClassNew Classification = iota
	ClassSkipNoEmail
	ClassSkipExactDuplicate
	ClassInsertNameConflict
	// ClassManualReviewRequired marks records in shared-email sibling
	// groups. They are never auto-resolved by the migrate path.
	ClassManualReviewRequired
)

func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassSkipNoEmail:
		return "skip-no-email"
	case ClassSkipExactDuplicate:
		return "skip-exact-duplicate"
	case ClassInsertNameConflict:
		return "insert-name-conflict"
	case ClassManualReviewRequired:
		return "manual-review-required"
	default:
		return "unknown"
	}
}

// Admitted reports whether a record with this classification proceeds to
// the staged creation protocol.
func (c Classification) Admitted() bool {
	return c == ClassNew || c == ClassInsertNameConflict
}

// OutcomeState is the final per-record state recorded in the run ledger.
type OutcomeState string

const (
	StateInserted   OutcomeState = "INSERTED"
	StateIncomplete OutcomeState = "INSERTED_NO_PROFILE"
	StateSkipped    OutcomeState = "SKIPPED"
	StateFailed     OutcomeState = "FAILED"
	StateDryRun     OutcomeState = "DRY_RUN"
)

// Outcome is the result of running the staged creation protocol (or
// deciding not to) for one record.
type Outcome struct {
	State  OutcomeState
	UserID int64
	Reason string
}
