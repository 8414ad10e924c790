package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mferreira/socioctl/internal/domain"
	"github.com/mferreira/socioctl/internal/ledger"
	"github.com/mferreira/socioctl/internal/remote"
)

// ProfileCreator is the slice of the remote client the sweeper needs.
type ProfileCreator interface {
	CreateMemberProfile(ctx context.Context, userID int64, req remote.MemberProfileRequest) error
}

// RepairReport tallies one sweep.
type RepairReport struct {
	Candidates int
	Repaired   int
	Defaulted  int // repaired with status defaulted to pending (not in ledger)
	Errors     int
}

// Sweeper finds users created within the operating window that lack a
// member profile and re-attempts only the second protocol step. The
// principal is never re-created. The candidate filter excludes users
// that already have a profile, so sweeping twice creates no duplicates.
type Sweeper struct {
	DB     *sql.DB
	Client ProfileCreator
	Logger zerolog.Logger
}

// Sweep repairs incomplete creations. The intended membership status
// comes from the run ledger index by lower-cased email; users absent
// from the ledger default to pending and are flagged in the report.
func (s *Sweeper) Sweep(ctx context.Context, idx *ledger.Index, since time.Time) (*RepairReport, error) {
	report := &RepairReport{}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT u.Id, u.Email, u.FirstName, u.LastName
		FROM Users u
		LEFT JOIN MemberProfiles mp ON mp.UserId = u.Id
		WHERE mp.Id IS NULL
		  AND u.CreatedAt >= ?
		ORDER BY u.Id
	`, since.UTC().Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return nil, fmt.Errorf("failed to query incomplete users: %w", err)
	}

	type candidate struct {
		id    int64
		email string
		name  string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var first, last string
		if err := rows.Scan(&c.id, &c.email, &first, &last); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan incomplete user: %w", err)
		}
		c.name = first + " " + last
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incomplete users: %w", err)
	}
	report.Candidates = len(candidates)

	for _, c := range candidates {
		status, found := idx.Status(c.email)
		if !found {
			status = domain.StatusPending
			report.Defaulted++
			s.Logger.Warn().Str("email", c.email).Str("name", c.name).
				Msg("user not in ledger; membership status defaulted to pending")
		}

		now := time.Now().UTC().Format("2006-01-02T15:04:05")
		req := remote.MemberProfileRequest{
			MembershipStatus:  int(status),
			MemberSince:       &now,
			PaymentPreference: "Monthly",
		}
		if err := s.Client.CreateMemberProfile(ctx, c.id, req); err != nil {
			report.Errors++
			s.Logger.Warn().Err(err).Int64("user_id", c.id).Str("name", c.name).
				Msg("failed to repair member profile")
			continue
		}
		report.Repaired++
		s.Logger.Info().Int64("user_id", c.id).Str("name", c.name).
			Int("status", int(status)).Msg("member profile repaired")
	}

	return report, nil
}
