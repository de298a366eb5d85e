package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	config, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)
	config.MaxConns = 64
	applyDefaults(config, false)

	assert.Equal(t, applicationName, config.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, int32(defaultMaxConns), config.MaxConns)
	assert.Equal(t, defaultConnectTimeout, config.ConnConfig.ConnectTimeout)

	config, err = pgxpool.ParseConfig("postgres://u:p@localhost:5432/db?application_name=custom&pool_max_conns=50")
	require.NoError(t, err)
	applyDefaults(config, true)

	assert.Equal(t, "custom", config.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, int32(50), config.MaxConns)
}

func TestErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgErrUniqueViolation})
	assert.True(t, isDuplicateKeyError(dup))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(nil))

	assert.True(t, isNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, isNotFoundError(errors.New("boom")))
}
