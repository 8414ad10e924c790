// Package snapshot builds a point-in-time, read-only view of the
// identities already present in the target database. Matching is done
// against this view for the whole run; the target is never re-read
// mid-run.
package snapshot

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rs/zerolog"
)

// Snapshot maps lower-cased email to the set of lower-cased full names
// seen under that email. An email legitimately owning several distinct
// names (shared family address) is expected, not an error.
type Snapshot struct {
	names    map[string]map[string]struct{}
	degraded bool
}

// Empty returns a snapshot with no entries. Matching against it
// classifies every record as new.
func Empty() *Snapshot {
	return &Snapshot{names: make(map[string]map[string]struct{})}
}

// Build reads every existing identity once. If the target is
// unreachable the build degrades to an empty snapshot and logs a
// warning: the run proceeds, trading duplicate risk for availability.
func Build(ctx context.Context, database *sql.DB, logger zerolog.Logger) *Snapshot {
	snap := Empty()
	if database == nil {
		snap.degraded = true
		logger.Warn().Msg("no target database; duplicate check disabled, all records will classify as new")
		return snap
	}

	rows, err := database.QueryContext(ctx, "SELECT Email, FirstName, LastName FROM Users")
	if err != nil {
		snap.degraded = true
		logger.Warn().Err(err).Msg("target unreachable; duplicate check disabled, all records will classify as new")
		return snap
	}
	defer rows.Close()

	for rows.Next() {
		var email, first, last string
		if err := rows.Scan(&email, &first, &last); err != nil {
			logger.Warn().Err(err).Msg("skipping unreadable identity row")
			continue
		}
		snap.add(email, first+" "+last)
	}
	if err := rows.Err(); err != nil {
		snap.degraded = true
		logger.Warn().Err(err).Msg("snapshot read interrupted; duplicate check may be incomplete")
	}

	logger.Info().Int("emails", len(snap.names)).Msg("target snapshot built")
	return snap
}

func (s *Snapshot) add(email, fullName string) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return
	}
	set, ok := s.names[key]
	if !ok {
		set = make(map[string]struct{})
		s.names[key] = set
	}
	set[strings.ToLower(strings.TrimSpace(fullName))] = struct{}{}
}

// Contains reports whether any identity holds the given email.
func (s *Snapshot) Contains(email string) bool {
	_, ok := s.names[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// HasName reports whether the given normalized full name is already
// registered under the email.
func (s *Snapshot) HasName(email, fullNameKey string) bool {
	set, ok := s.names[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return false
	}
	_, ok = set[fullNameKey]
	return ok
}

// Degraded reports whether the snapshot was built without target data.
func (s *Snapshot) Degraded() bool {
	return s.degraded
}

// Size returns the number of distinct emails in the snapshot.
func (s *Snapshot) Size() int {
	return len(s.names)
}
