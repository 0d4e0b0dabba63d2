package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "public", "tracts", []string{"geoid"}, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFrom_SingleBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"public", "tracts"}, []string{"geoid", "name"}).WillReturnResult(2)

	rows := [][]any{{"24031700101", "7001.01"}, {"24031700102", "7001.02"}}
	n, err := CopyFrom(context.Background(), mock, "public", "tracts", []string{"geoid", "name"}, rows, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Batches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ident := pgx.Identifier{"census", "blocks"}
	mock.ExpectCopyFrom(ident, []string{"geoid"}).WillReturnResult(2)
	mock.ExpectCopyFrom(ident, []string{"geoid"}).WillReturnResult(2)
	mock.ExpectCopyFrom(ident, []string{"geoid"}).WillReturnResult(1)

	rows := [][]any{{"1"}, {"2"}, {"3"}, {"4"}, {"5"}}
	n, err := CopyFrom(context.Background(), mock, "census", "blocks", []string{"geoid"}, rows, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_ErrorReturnsPartialCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ident := pgx.Identifier{"public", "tracts"}
	mock.ExpectCopyFrom(ident, []string{"geoid"}).WillReturnResult(1)
	mock.ExpectCopyFrom(ident, []string{"geoid"}).WillReturnError(errors.New("disk full"))

	n, err := CopyFrom(context.Background(), mock, "public", "tracts", []string{"geoid"}, [][]any{{"1"}, {"2"}}, 1)
	require.Error(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, err.Error(), "public.tracts")
}
