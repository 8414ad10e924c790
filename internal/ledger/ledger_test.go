package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferreira/socioctl/internal/domain"
)

func TestWriteReadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.Append(Entry{
		MemberNumber:     "7879",
		Name:             "João Silva",
		Email:            "joao@example.com",
		NIF:              "123456789",
		UserID:           "42",
		State:            string(domain.StateInserted),
		Reason:           "ok",
		MembershipStatus: "1",
		TempPassword:     "CDP@Socio007879",
	}))
	require.NoError(t, w.Append(Entry{
		MemberNumber: "7880",
		Email:        "maria@example.com",
		State:        string(domain.StateSkipped),
		Reason:       "skip-exact-duplicate",
	}))
	require.NoError(t, w.Close())

	entries, err := Read(w.Path())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "joao@example.com", entries[0].Email)
	assert.Equal(t, "CDP@Socio007879", entries[0].TempPassword)
	assert.Equal(t, w.RunID(), entries[0].RunID)
	assert.Equal(t, string(domain.StateSkipped), entries[1].State)
}

func TestReadToleratesMissingColumns(t *testing.T) {
	// A ledger written by an older run without the membership_status and
	// temp_password columns must still be readable.
	dir := t.TempDir()
	path := filepath.Join(dir, "migration_log_20260101_000000.csv")
	old := "member_number,name,email,state\n7879,João Silva,joao@example.com,INSERTED\n"
	require.NoError(t, os.WriteFile(path, []byte(old), 0o644))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "joao@example.com", entries[0].Email)
	assert.Equal(t, "", entries[0].MembershipStatus)
	assert.Equal(t, "", entries[0].TempPassword)
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()

	got, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	for _, name := range []string{
		"migration_log_20260101_000000.csv",
		"migration_log_20260223_143000.csv",
		"migration_log_20260115_090000.csv",
		"unrelated.csv",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("email\n"), 0o644))
	}

	got, err = Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "migration_log_20260223_143000.csv"), got)
}

func TestBuildIndex(t *testing.T) {
	entries := []Entry{
		{Email: "Joao@Example.com", MemberNumber: "7879", MembershipStatus: "1"},
		{Email: "maria@example.com", MemberNumber: "7880", MembershipStatus: "3"},
		{Email: "maria@example.com", MemberNumber: "7880", MembershipStatus: "0"}, // rerun wins
		{Email: "", MemberNumber: "9999"},
		{Email: "nostatus@example.com", MemberNumber: "7881"},
	}
	idx := BuildIndex(entries)

	s, ok := idx.Status("joao@example.com")
	require.True(t, ok)
	assert.Equal(t, domain.StatusActive, s)

	s, ok = idx.Status("MARIA@example.com")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, s)

	_, ok = idx.Status("nostatus@example.com")
	assert.False(t, ok)

	assert.Equal(t, "7881", idx.NumberByEmail()["nostatus@example.com"])
}
