package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"webhook-service/models"
	"webhook-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var pendingColumns = []string{"transaction_id", "amount", "currency", "event", "timestamp"}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestFindPending_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	rows := sqlmock.NewRows(pendingColumns).
		AddRow("abc123", "49.90", "BRL", "payment_success", "2023-10-01T12:00:00Z")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending" WHERE transaction_id = $1`)).
		WithArgs("abc123", sqlmock.AnyArg()).
		WillReturnRows(rows)

	p, err := repo.FindPending(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "49.90", p.Amount)
	assert.Equal(t, "BRL", p.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPending_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending" WHERE transaction_id = $1`)).
		WithArgs("zzz999", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(pendingColumns))

	p, err := repo.FindPending(context.Background(), "zzz999")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestMove_ConfirmedSuccess(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending" WHERE transaction_id = $1 FOR UPDATE`)).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(pendingColumns).
			AddRow("abc123", "49.90", "BRL", "payment_success", "2023-10-01T12:00:00Z"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "confirmed"`)).
		WithArgs("abc123", "49.90", "BRL", "payment_success", "2023-10-01T12:00:00Z", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pending" WHERE transaction_id = $1`)).
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MoveToConfirmed(context.Background(), "abc123")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_CancelledTargetsCancelledTable(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending"`)).
		WithArgs("abc123a").
		WillReturnRows(sqlmock.NewRows(pendingColumns).
			AddRow("abc123a", "29.90", "BRL", "payment_success", "2023-10-01T12:00:00Z"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "cancelled"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pending"`)).
		WithArgs("abc123a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.MoveToCancelled(context.Background(), "abc123a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_NoPendingRowRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending"`)).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(pendingColumns))
	mock.ExpectRollback()

	err := repo.MoveToConfirmed(context.Background(), "gone")

	var me *repository.MoveError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, repository.MoveNotFound, me.Kind)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_DuplicatePendingRowsRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending"`)).
		WithArgs("dup").
		WillReturnRows(sqlmock.NewRows(pendingColumns).
			AddRow("dup", "1.00", "BRL", "payment_success", "2023-10-01T12:00:00Z").
			AddRow("dup", "1.00", "BRL", "payment_success", "2023-10-01T12:00:00Z"))
	mock.ExpectRollback()

	err := repo.MoveToCancelled(context.Background(), "dup")

	var me *repository.MoveError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, repository.MoveNotFound, me.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_InsertFailureRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending"`)).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(pendingColumns).
			AddRow("abc123", "49.90", "BRL", "payment_success", "2023-10-01T12:00:00Z"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "confirmed"`)).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	err := repo.MoveToConfirmed(context.Background(), "abc123")

	var me *repository.MoveError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, repository.MoveStorage, me.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_DeleteRaceRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending"`)).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(pendingColumns).
			AddRow("abc123", "49.90", "BRL", "payment_success", "2023-10-01T12:00:00Z"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "confirmed"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pending"`)).
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.MoveToConfirmed(context.Background(), "abc123")

	var me *repository.MoveError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, repository.MoveNotFound, me.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMove_UnknownDestination(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	err := repo.Move(context.Background(), "abc123", models.Destination("refunded"))

	var me *repository.MoveError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, repository.MoveStorage, me.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedPending_IgnoresConflicts(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "pending"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.SeedPending(context.Background(), []models.PaymentRecord{
		{TransactionID: "abc123", Amount: "49.90", Currency: "BRL", Event: "payment_success", Timestamp: "2023-10-01T12:00:00Z"},
		{TransactionID: "abc123", Amount: "49.90", Currency: "BRL", Event: "payment_success", Timestamp: "2023-10-01T12:00:00Z"},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedPending_Empty(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	n, err := repo.SeedPending(context.Background(), nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetAll(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "pending"`)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "confirmed"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cancelled"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.NoError(t, repo.ResetAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus_Cancelled(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "pending"`)).
		WithArgs("abc123a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(pendingColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "confirmed"`)).
		WithArgs("abc123a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(append(pendingColumns, "settled_at")))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cancelled"`)).
		WithArgs("abc123a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(pendingColumns).
			AddRow("abc123a", "29.90", "BRL", "payment_success", "2023-10-01T12:00:00Z"))

	status, err := repo.Status(context.Background(), "abc123a")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus_Unknown(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	for _, table := range []string{"pending", "confirmed", "cancelled"} {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "` + table + `"`)).
			WillReturnRows(sqlmock.NewRows(pendingColumns))
	}

	_, err := repo.Status(context.Background(), "zzz999")
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}
