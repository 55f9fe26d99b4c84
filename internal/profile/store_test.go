package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() domain.UserProfile {
	p := Default()
	p.Name = "Asha Rao"
	p.Age = 41
	p.Insurance.HealthInsurance = &domain.Policy{
		PolicyType: "Family Floater",
		Coverage:   "₹10,00,000",
		ValidTill:  "2099-01-01",
		Features:   []string{"Annual health checkup"},
	}
	return p
}

func TestStoreFallsBackToDefault(t *testing.T) {
	t.Parallel()

	s := NewStore(context.Background(), NewFileBackend(filepath.Join(t.TempDir(), "missing.json")), nil)
	assert.Equal(t, "User", s.Current().Name)
}

func TestStoreReplaceAndReloadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user-profile.json")
	s := NewStore(context.Background(), NewFileBackend(path), nil)

	require.NoError(t, s.Replace(context.Background(), sampleProfile()))
	assert.Equal(t, "Asha Rao", s.Current().Name)

	again := NewStore(context.Background(), NewFileBackend(path), nil)
	got := again.Current()
	assert.Equal(t, "Asha Rao", got.Name)
	require.NotNil(t, got.Insurance.HealthInsurance)
	assert.True(t, got.Insurance.HealthInsurance.HasFeature("annual health checkup"))
}

func TestStoreRejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user-profile.json")
	s := NewStore(context.Background(), NewFileBackend(path), nil)

	bad := sampleProfile()
	bad.Name = ""
	assert.Error(t, s.Replace(context.Background(), bad))
	assert.Equal(t, "User", s.Current().Name, "failed replace keeps the published profile")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "invalid profile must not be persisted")
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user-profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Vikram\nage: 52\ncars: []\n"), 0o600))

	s := NewStore(context.Background(), NewFileBackend(path), nil)
	assert.Equal(t, "Vikram", s.Current().Name)
	assert.Equal(t, 52, s.Current().Age)

	require.NoError(t, os.WriteFile(path, []byte("name: Vikram S\nage: 53\n"), 0o600))
	p, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Vikram S", p.Name)
	assert.Equal(t, 53, s.Current().Age)
}

func TestReloadFailureKeepsCurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user-profile.json")
	s := NewStore(context.Background(), NewFileBackend(path), nil)
	require.NoError(t, s.Replace(context.Background(), sampleProfile()))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := s.Reload(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Asha Rao", s.Current().Name)
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "db", "profiles.db"))
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	_, err = b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoProfile)

	s := NewStore(context.Background(), b, nil)
	assert.Equal(t, "User", s.Current().Name)

	require.NoError(t, s.Replace(context.Background(), sampleProfile()))
	updated := sampleProfile()
	updated.Age = 42
	require.NoError(t, s.Replace(context.Background(), updated))

	loaded, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Age)
	assert.Equal(t, "Asha Rao", loaded.Name)
	require.NoError(t, b.Ping(context.Background()))
}
