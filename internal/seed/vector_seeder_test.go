package seed

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/polyseed/internal/config"
	"github.com/dbsmedya/polyseed/internal/datagen"
	"github.com/dbsmedya/polyseed/internal/logger"
	"github.com/dbsmedya/polyseed/internal/store"
)

func newMockVectorSeeder(t *testing.T, env string, batch int) (*VectorSeeder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	vs := store.NewVectorStore(config.VectorConfig{Dimensions: 4}, store.NewGuard(env))
	vs.SetDB(db)

	seeder := NewVectorSeeder(vs, datagen.New(), store.NewGuard(env), batch, logger.NewNop())
	return seeder, mock
}

func TestVectorSeeder_Execute(t *testing.T) {
	seeder, mock := newMockVectorSeeder(t, config.EnvDevelopment, 2)

	// 3 docs, batch size 2: one full batch and one remainder, each in its
	// own transaction with a metadata row plus an embedding per doc.
	for _, batchLen := range []int{2, 1} {
		mock.ExpectBegin()
		for i := 0; i < batchLen; i++ {
			mock.ExpectExec("INSERT INTO seed_vec_meta").
				WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
			mock.ExpectExec("INSERT INTO seed_vectors").
				WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
		}
		mock.ExpectCommit()
	}

	result := seeder.Execute(context.Background(), Options{VectorCount: 3, Scenario: "demo"})

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.RecordsCreated)
	assert.Empty(t, result.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorSeeder_FailedBatchRollsBackAlone(t *testing.T) {
	seeder, mock := newMockVectorSeeder(t, config.EnvDevelopment, 2)

	// First batch fails mid-insert and rolls back; the second commits.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO seed_vec_meta").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO seed_vec_meta").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO seed_vectors").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := seeder.Execute(context.Background(), Options{VectorCount: 3, Scenario: "demo"})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.RecordsCreated)
	assert.Len(t, result.Errors, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorSeeder_RollbackDeletesEmbeddingsThenMetadata(t *testing.T) {
	seeder, mock := newMockVectorSeeder(t, config.EnvDevelopment, 2)
	seeder.SetScenario("demo")

	mock.ExpectExec("DELETE FROM seed_vectors WHERE rowid IN").
		WithArgs("demo").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM seed_vec_meta WHERE scenario").
		WithArgs("demo").
		WillReturnResult(sqlmock.NewResult(0, 3))

	result := seeder.Rollback(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.RecordsCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorSeeder_RollbackRefusedInProduction(t *testing.T) {
	seeder, mock := newMockVectorSeeder(t, config.EnvProduction, 2)

	result := seeder.Rollback(context.Background())

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], store.ErrProductionGuard)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVectorSeeder_Validate(t *testing.T) {
	seeder, mock := newMockVectorSeeder(t, config.EnvDevelopment, 2)
	seeder.SetScenario("demo")

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seed_vec_meta WHERE scenario").
		WithArgs("demo").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	ok, err := seeder.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
