package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func productRows(id uuid.UUID, externalID, name string, stock, version int, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "external_id", "name", "stock", "active", "images", "variations", "version"}).
		AddRow(id, externalID, name, stock, active, "[]", "[]", version)
}

func TestGormProductRepository_FindByExternalID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE external_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("EXT-42", 1).
			WillReturnRows(productRows(productID, "EXT-42", "Widget", 5, 1, true))

		product, err := repo.FindByExternalID(context.Background(), "EXT-42")

		assert.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "EXT-42", product.ExternalID)
		assert.Equal(t, 5, product.Stock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown external ID", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE external_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByExternalID(context.Background(), "missing")

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByExternalIDs(t *testing.T) {
	t.Run("returns found products keyed by external ID", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		id1 := uuid.New()
		id2 := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "external_id", "name", "stock", "active", "images", "variations", "version"}).
			AddRow(id1, "A", "Alpha", 1, true, "[]", "[]", 1).
			AddRow(id2, "B", "Beta", 2, true, "[]", "[]", 3)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE external_id IN \(\$1,\$2,\$3\)`).
			WithArgs("A", "B", "C").
			WillReturnRows(rows)

		found, err := repo.FindByExternalIDs(context.Background(), []string{"A", "B", "C"})

		assert.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, id1, found["A"].ID)
		assert.Equal(t, 3, found["B"].Version)
		assert.NotContains(t, found, "C")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input short-circuits without query", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		found, err := repo.FindByExternalIDs(context.Background(), nil)

		assert.NoError(t, err)
		assert.Empty(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_Update(t *testing.T) {
	t.Run("advances version on successful compare-and-swap", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		product, err := catalog.NewProduct("EXT-1", "Widget")
		require.NoError(t, err)
		require.NoError(t, product.SetStock(9))

		mock.ExpectExec(`UPDATE "products" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Update(context.Background(), product)

		assert.NoError(t, err)
		assert.Equal(t, 2, product.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns concurrency conflict when row moved", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		product, err := catalog.NewProduct("EXT-1", "Widget")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "products" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Update(context.Background(), product)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, product.Version, "version must not advance on conflict")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_CreateBatch(t *testing.T) {
	t.Run("empty batch is a no-op", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		err := repo.CreateBatch(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_CountActive(t *testing.T) {
	t.Run("counts active products", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE active = \$1`).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(37))

		count, err := repo.CountActive(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, int64(37), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
