// Package engine drives the two-step remote creation protocol and the
// reconciliation sweep that repairs its leftovers.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mferreira/socioctl/internal/credential"
	"github.com/mferreira/socioctl/internal/domain"
	"github.com/mferreira/socioctl/internal/ledger"
	"github.com/mferreira/socioctl/internal/match"
	"github.com/mferreira/socioctl/internal/remote"
	"github.com/mferreira/socioctl/internal/snapshot"
)

// Creator is the slice of the remote client the orchestrator needs.
type Creator interface {
	CreateUser(ctx context.Context, req remote.CreateUserRequest) (int64, error)
	CreateMemberProfile(ctx context.Context, userID int64, req remote.MemberProfileRequest) error
}

// Tally is the run outcome summary printed at the end of every run.
type Tally struct {
	Inserted   int
	Incomplete int
	Skipped    int
	Failed     int
	DryRun     int
}

// Orchestrator executes the staged creation protocol per admitted
// record. Records are processed sequentially: the target API has no
// documented concurrency limits and every step mutates remote state.
type Orchestrator struct {
	Client Creator
	Ledger *ledger.Writer
	Logger zerolog.Logger
	DryRun bool
	// Overrides pre-empts the matcher for specific member numbers,
	// e.g. shared-email records held back for manual review.
	Overrides map[string]domain.Classification
}

// Run classifies and processes every record against the snapshot,
// returning the tally. Individual remote failures never abort the batch.
func (o *Orchestrator) Run(ctx context.Context, records []domain.Record, snap *snapshot.Snapshot) (Tally, error) {
	var tally Tally
	for _, rec := range records {
		class, ok := o.Overrides[rec.MemberNumber]
		if !ok {
			class = match.Classify(rec, snap)
		}
		outcome, err := o.Process(ctx, rec, class)
		if err != nil {
			// Only ledger writes can error here; without the ledger the
			// run has no record of what it did, so stop.
			return tally, err
		}
		switch outcome.State {
		case domain.StateInserted:
			tally.Inserted++
		case domain.StateIncomplete:
			tally.Incomplete++
		case domain.StateSkipped:
			tally.Skipped++
		case domain.StateFailed:
			tally.Failed++
		case domain.StateDryRun:
			tally.DryRun++
		}
	}
	return tally, nil
}

// Process runs the protocol for one classified record:
//
//  1. create the user (principal). Failure is terminal for the record.
//  2. create the member profile (dependent). Failure is NOT terminal —
//     the user already exists remotely, so the record is kept as
//     INSERTED_NO_PROFILE for the sweeper to repair later.
//
// Exactly one ledger entry is appended per invocation, always carrying
// the temporary credential that was (or would have been) assigned.
func (o *Orchestrator) Process(ctx context.Context, rec domain.Record, class domain.Classification) (domain.Outcome, error) {
	entry := ledger.Entry{
		MemberNumber:     rec.MemberNumber,
		Name:             rec.RawName,
		Email:            rec.Email,
		NIF:              rec.NIF,
		MembershipStatus: strconv.Itoa(int(rec.Status)),
	}

	if !class.Admitted() {
		outcome := domain.Outcome{State: domain.StateSkipped, Reason: class.String()}
		entry.State = string(outcome.State)
		entry.Reason = outcome.Reason
		o.Logger.Info().Str("name", rec.RawName).Str("reason", outcome.Reason).Msg("skipped")
		return outcome, o.Ledger.Append(entry)
	}

	pwd := credential.Temp(rec.MemberNumber)
	entry.TempPassword = pwd

	if o.DryRun {
		outcome := domain.Outcome{State: domain.StateDryRun, Reason: class.String()}
		entry.State = string(outcome.State)
		entry.Reason = outcome.Reason
		o.Logger.Info().Str("name", rec.RawName).Msg("dry-run")
		return outcome, o.Ledger.Append(entry)
	}

	userID, err := o.Client.CreateUser(ctx, buildCreateUser(rec, pwd))
	if err != nil {
		outcome := domain.Outcome{State: domain.StateFailed, Reason: fmt.Sprintf("CreateUser: %v", err)}
		entry.State = string(outcome.State)
		entry.Reason = outcome.Reason
		o.Logger.Warn().Str("name", rec.RawName).Str("reason", outcome.Reason).Msg("create user failed")
		return outcome, o.Ledger.Append(entry)
	}
	entry.UserID = strconv.FormatInt(userID, 10)

	if err := o.Client.CreateMemberProfile(ctx, userID, buildMemberProfile(rec)); err != nil {
		// The principal exists; do not roll back, do not escalate.
		outcome := domain.Outcome{
			State:  domain.StateIncomplete,
			UserID: userID,
			Reason: fmt.Sprintf("MemberProfile: %v", err),
		}
		entry.State = string(outcome.State)
		entry.Reason = outcome.Reason
		o.Logger.Warn().Int64("user_id", userID).Str("name", rec.RawName).
			Str("reason", outcome.Reason).Msg("user created without member profile")
		return outcome, o.Ledger.Append(entry)
	}

	outcome := domain.Outcome{State: domain.StateInserted, UserID: userID, Reason: "ok"}
	entry.State = string(outcome.State)
	entry.Reason = outcome.Reason
	o.Logger.Info().Int64("user_id", userID).Str("name", rec.RawName).
		Str("class", class.String()).Msg("inserted")
	return outcome, o.Ledger.Append(entry)
}

func buildCreateUser(rec domain.Record, password string) remote.CreateUserRequest {
	return remote.CreateUserRequest{
		Email:      rec.Email,
		Password:   password,
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		Phone:      optional(rec.Phone),
		BirthDate:  optionalTime(rec.BirthDate),
		NIF:        optional(rec.NIF),
		Address:    optional(rec.Address),
		PostalCode: optional(rec.PostalCode),
		City:       optional(rec.City),
	}
}

func buildMemberProfile(rec domain.Record) remote.MemberProfileRequest {
	return remote.MemberProfileRequest{
		MembershipStatus:  int(rec.Status),
		MemberSince:       optionalTime(rec.MemberSince),
		PaymentPreference: "Monthly",
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02T15:04:05")
	return &s
}
