// Package credential derives the deterministic temporary credential
// assigned to migrated members and repairs the stored form after the
// fact: the create-user endpoint discards the caller-supplied password
// and generates its own, so a corrective pass over the target store is
// the only way to make the published temporary credential actually work.
package credential

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	prefix = "CDP@Socio"
	// workFactor matches the service's own password hasher; repaired
	// hashes must be indistinguishable from ones it produced.
	workFactor = 12
	padWidth   = 6
)

// Temp returns the deterministic temporary credential for a member
// number: a fixed prefix plus the zero-padded number. The same member
// always gets the same credential, across runs and repair passes.
func Temp(memberNumber string) string {
	num := strings.TrimSpace(memberNumber)
	for len(num) < padWidth {
		num = "0" + num
	}
	return prefix + num
}

// Hash computes the storage-ready form of a credential.
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), workFactor)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(h), nil
}

// RepairResult tallies one repair pass.
type RepairResult struct {
	Candidates int
	Updated    int
	Unmatched  int
	Errors     int
}

// Repairer overwrites the service-generated password hashes of migrated
// users with the hash of their deterministic temporary credential.
type Repairer struct {
	DB     *sql.DB
	Logger zerolog.Logger
	DryRun bool
}

// Repair finds users created at or after since that still hold an
// activation token (meaning no human has set a password) and rewrites
// their stored hash. numberByEmail maps lower-cased email to member
// number; users absent from it are reported, not touched. The whole pass
// runs in one transaction and commits only if every update succeeded.
// Repaired rows lose their activation token, so a second pass finds no
// candidates: the repair is idempotent.
func (r *Repairer) Repair(ctx context.Context, numberByEmail map[string]string, since time.Time) (*RepairResult, error) {
	result := &RepairResult{}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT Id, Email, FirstName, LastName
		FROM Users
		WHERE CreatedAt >= ?
		  AND PasswordResetToken IS NOT NULL
		ORDER BY Id
	`, since.UTC().Format("2006-01-02T15:04:05Z"))
	if err != nil {
		return nil, fmt.Errorf("failed to query repair candidates: %w", err)
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
			return nil, fmt.Errorf("failed to scan repair candidate: %w", err)
		}
		c.email = strings.ToLower(strings.TrimSpace(c.email))
		c.name = first + " " + last
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repair candidates: %w", err)
	}
	result.Candidates = len(candidates)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range candidates {
		number, ok := numberByEmail[c.email]
		if !ok || number == "" {
			result.Unmatched++
			r.Logger.Warn().Str("email", c.email).Str("name", c.name).
				Msg("no member number for user; credential left as-is")
			continue
		}

		pwd := Temp(number)
		if r.DryRun {
			result.Updated++
			r.Logger.Info().Str("email", c.email).Str("password", pwd).Msg("dry-run: would repair credential")
			continue
		}

		hash, err := Hash(pwd)
		if err != nil {
			result.Errors++
			r.Logger.Error().Err(err).Str("email", c.email).Msg("failed to hash credential")
			continue
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE Users
			SET PasswordHash = ?,
			    PasswordResetToken = NULL,
			    PasswordResetTokenExpires = NULL
			WHERE Id = ?
		`, hash, c.id)
		if err != nil {
			result.Errors++
			r.Logger.Error().Err(err).Str("email", c.email).Msg("failed to update credential")
			continue
		}
		result.Updated++
		r.Logger.Debug().Int64("user_id", c.id).Str("email", c.email).Msg("credential repaired")
	}

	if r.DryRun {
		return result, nil
	}
	if result.Errors > 0 {
		return result, fmt.Errorf("rolled back: %d of %d updates failed", result.Errors, result.Candidates)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credential repairs: %w", err)
	}
	return result, nil
}
