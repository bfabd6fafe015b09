package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/domain"
	"storefront/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestUpdateVersionedBumpsVersion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o := &models.Order{ID: 1, Status: domain.OrderStatusSucceeded, Version: 3}
	require.NoError(t, repo.UpdateVersioned(o))
	assert.Equal(t, uint(4), o.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVersionedDetectsStaleWriter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	// Another writer already bumped the version, so the CAS matches no rows.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	o := &models.Order{ID: 1, Status: domain.OrderStatusCanceled, Version: 3}
	err := repo.UpdateVersioned(o)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, uint(3), o.Version, "version must not advance on a lost race")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders`").
		WithArgs(domain.OrderStatusSucceeded, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.CountByStatus(domain.OrderStatusSucceeded)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueCents(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery("SELECT SUM\\(amount_cents - refund_amount_cents\\) FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(123450))

	total, err := repo.RevenueCents()
	require.NoError(t, err)
	assert.Equal(t, int64(123450), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueCentsEmptyTable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	// SUM over zero rows comes back NULL.
	mock.ExpectQuery("SELECT SUM\\(amount_cents - refund_amount_cents\\) FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

	total, err := repo.RevenueCents()
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIntentIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByIntentID("pi_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
