package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
)

const testProfiles = `
[local]
type = duckdb
path = /var/lib/priceplan/sales.db

[warehouse]
type = snowflake
account = acme-wh1
user = planner
password = secret
database = SALES
schema = PUBLIC
warehouse = COMPUTE_WH
table = DAILY_SALES

[lake]
type = s3
bucket = acme-sales-exports
prefix = daily/
region = eu-west-1
aws_profile = sales-reader

[broken]
path = /tmp/no-type.csv
`

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "absent.ini"))
	assert.Error(t, err)
}

func TestGetProfiles(t *testing.T) {
	registry, err := NewRegistry(writeProfiles(t, testProfiles))
	require.NoError(t, err)

	profiles, err := registry.GetProfiles(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []domain.SourceProfile{
		{Name: "local", Type: domain.SourceTypeDuckDB},
		{Name: "warehouse", Type: domain.SourceTypeSnowflake},
		{Name: "lake", Type: domain.SourceTypeS3},
		{Name: "broken", Type: ""},
	}, profiles)
}

func TestGetConfig(t *testing.T) {
	registry, err := NewRegistry(writeProfiles(t, testProfiles))
	require.NoError(t, err)

	t.Run("snowflake profile", func(t *testing.T) {
		cfg, err := registry.GetConfig(context.Background(), "warehouse")
		require.NoError(t, err)

		assert.Equal(t, domain.SourceTypeSnowflake, cfg.Profile.Type)
		assert.Equal(t, "acme-wh1", cfg.Account)
		assert.Equal(t, "planner", cfg.User)
		assert.Equal(t, "secret", cfg.Password)
		assert.Equal(t, "SALES", cfg.Database)
		assert.Equal(t, "PUBLIC", cfg.Schema)
		assert.Equal(t, "COMPUTE_WH", cfg.Warehouse)
		assert.Equal(t, "DAILY_SALES", cfg.Table)
	})

	t.Run("s3 profile", func(t *testing.T) {
		cfg, err := registry.GetConfig(context.Background(), "lake")
		require.NoError(t, err)

		assert.Equal(t, "acme-sales-exports", cfg.Bucket)
		assert.Equal(t, "daily/", cfg.Prefix)
		assert.Equal(t, "eu-west-1", cfg.Region)
		assert.Equal(t, "sales-reader", cfg.AWSProfile)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := registry.GetConfig(context.Background(), "nope")
		assert.ErrorContains(t, err, "profile nope not found")
	})

	t.Run("profile without a type", func(t *testing.T) {
		_, err := registry.GetConfig(context.Background(), "broken")
		assert.ErrorContains(t, err, "has no type")
	})
}
