package migration_test

import (
	"testing"

	"github.com/smallbiznis/motopos/internal/migration"
	"github.com/smallbiznis/motopos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsCreateSchemaAndAreRepeatable(t *testing.T) {
	db := testutil.NewDB(t)

	for _, table := range []string{"products", "exchange_rates", "sales", "sale_items", "sale_payments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, migration.Run(sqlDB, "sqlite"))
}

func TestUnsupportedDialect(t *testing.T) {
	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, migration.Run(sqlDB, "oracle"))
}
