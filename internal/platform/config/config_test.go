package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FillsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("storage: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, ModeDev, cfg.Mode)
	assert.Equal(t, ":8443", cfg.Server.Addr)
	assert.Equal(t, 14, cfg.Lending.LoanPeriodDays)
	assert.Equal(t, 5, cfg.Lending.MaxOpenLoans)
	assert.Equal(t, 7, cfg.Fees.ShortTierDays)
	assert.Equal(t, "0.25", cfg.Fees.ShortRate)
	assert.Equal(t, "1.00", cfg.Fees.LongRate)
	assert.Equal(t, "15.00", cfg.Fees.Cap)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestParse_EnvOverridesFile(t *testing.T) {
	t.Setenv("LIBRARY_STORAGE", "mysql")
	t.Setenv("LIBRARY_DB_HOST", "db.internal")
	t.Setenv("LIBRARY_DB_PORT", "3307")
	t.Setenv("LIBRARY_DB_NAME", "lib")

	cfg, err := Parse([]byte("storage: memory\ndatabase:\n  host: localhost\n"))
	require.NoError(t, err)
	assert.Equal(t, StorageMySQL, cfg.Storage)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 3307, cfg.DB.Port)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown mode", "mode: staging\nstorage: memory\n"},
		{"unknown storage", "storage: sqlite\n"},
		{"mysql without host", "storage: mysql\n"},
		{"release without secret", "mode: release\nstorage: memory\n"},
		{"bad timezone", "storage: memory\nfees:\n  timezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsRepositoryConfig(t *testing.T) {
	cfg, err := Load("../../../config/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.True(t, cfg.SeedSampleData)
	assert.Equal(t, "admin", cfg.Auth.BootstrapAdmin.ID)
}
