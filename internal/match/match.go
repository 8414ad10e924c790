// Package match classifies canonical records against the target
// snapshot. Matching is exact on normalized strings only; near-duplicate
// names intentionally pass through as new inserts.
package match

import (
	"github.com/mferreira/socioctl/internal/domain"
	"github.com/mferreira/socioctl/internal/snapshot"
)

// Classify decides what the migration should do with one record. It is a
// pure function of the record and the snapshot.
func Classify(rec domain.Record, snap *snapshot.Snapshot) domain.Classification {
	if rec.Email == "" {
		return domain.ClassSkipNoEmail
	}
	if !snap.Contains(rec.Email) {
		return domain.ClassNew
	}
	if snap.HasName(rec.Email, rec.FullNameKey()) {
		return domain.ClassSkipExactDuplicate
	}
	// Same email, different person: admitted as a new insert, never
	// silently merged.
	return domain.ClassInsertNameConflict
}
