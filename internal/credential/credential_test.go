package credential

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mferreira/socioctl/internal/testutil"
)

func TestTempIsDeterministic(t *testing.T) {
	assert.Equal(t, "CDP@Socio007879", Temp("7879"))
	assert.Equal(t, Temp("7879"), Temp("7879"))
	assert.Equal(t, "CDP@Socio000001", Temp("1"))
	assert.Equal(t, "CDP@Socio1234567", Temp("1234567"))
	assert.Equal(t, "CDP@Socio007879", Temp("  7879  "))
}

func TestHashVerifies(t *testing.T) {
	hash, err := Hash("CDP@Socio007879")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("CDP@Socio007879")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("CDP@Socio000000")))
}

func TestRepair(t *testing.T) {
	db := testutil.TempDB(t)
	id := testutil.InsertUser(t, db, "joao@example.com", "João", "Silva", "2026-02-23T10:00:00Z")
	_, err := db.Exec(
		"UPDATE Users SET PasswordHash = 'service-generated', PasswordResetToken = 'tok' WHERE Id = ?", id)
	require.NoError(t, err)
	// A user who already set their own password is never touched.
	testutil.InsertUser(t, db, "old@example.com", "Maria", "Costa", "2026-02-23T10:00:00Z")

	rep := &Repairer{DB: db, Logger: zerolog.Nop()}
	since := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	numbers := map[string]string{"joao@example.com": "7879"}

	result, err := rep.Repair(context.Background(), numbers, since)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Unmatched)

	var hash string
	var token *string
	require.NoError(t, db.QueryRow(
		"SELECT PasswordHash, PasswordResetToken FROM Users WHERE Id = ?", id).Scan(&hash, &token))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("CDP@Socio007879")))
	assert.Nil(t, token)

	// Second pass finds nothing: the activation token is gone.
	result, err = rep.Repair(context.Background(), numbers, since)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Candidates)
}

func TestRepairLeavesUnmatchedAlone(t *testing.T) {
	db := testutil.TempDB(t)
	id := testutil.InsertUser(t, db, "stray@example.com", "Rui", "Lopes", "2026-02-23T10:00:00Z")
	_, err := db.Exec(
		"UPDATE Users SET PasswordHash = 'service-generated', PasswordResetToken = 'tok' WHERE Id = ?", id)
	require.NoError(t, err)

	rep := &Repairer{DB: db, Logger: zerolog.Nop()}
	result, err := rep.Repair(context.Background(), map[string]string{}, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unmatched)
	assert.Equal(t, 0, result.Updated)

	var hash string
	require.NoError(t, db.QueryRow("SELECT PasswordHash FROM Users WHERE Id = ?", id).Scan(&hash))
	assert.Equal(t, "service-generated", hash)
}

func TestRepairDryRun(t *testing.T) {
	db := testutil.TempDB(t)
	id := testutil.InsertUser(t, db, "joao@example.com", "João", "Silva", "2026-02-23T10:00:00Z")
	_, err := db.Exec("UPDATE Users SET PasswordResetToken = 'tok' WHERE Id = ?", id)
	require.NoError(t, err)

	rep := &Repairer{DB: db, Logger: zerolog.Nop(), DryRun: true}
	result, err := rep.Repair(context.Background(),
		map[string]string{"joao@example.com": "7879"}, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	var token *string
	require.NoError(t, db.QueryRow("SELECT PasswordResetToken FROM Users WHERE Id = ?", id).Scan(&token))
	require.NotNil(t, token)
	assert.Equal(t, "tok", *token)
}
