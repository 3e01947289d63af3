package wallet

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryDeposit_ChainsDepositAndCashback(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance_cents FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(1000))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("pi_1", ReferenceTypePaymentIntent).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	// Deposit row: 1000 -> 5000.
	mock.ExpectExec(`INSERT INTO balance_transactions`).
		WithArgs(sqlmock.AnyArg(), 1, TypeDeposit, int64(4000), int64(1000),
			int64(5000), int64(100), sqlmock.AnyArg(), "pi_1", ReferenceTypePaymentIntent).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET balance_cents`).
		WithArgs(int64(5000), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Cashback row continues from the deposit's closing balance: 5000 -> 5100.
	mock.ExpectExec(`INSERT INTO balance_transactions`).
		WithArgs(sqlmock.AnyArg(), 1, TypeCashback, int64(100), int64(5000),
			int64(5100), int64(0), sqlmock.AnyArg(), "pi_1", ReferenceTypePaymentIntent).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET balance_cents`).
		WithArgs(int64(5100), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET cashback_cents`).
		WithArgs(int64(100), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Deposit(context.Background(), 1, 4000, 100, "pi_1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeposit_DuplicateIntentRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance_cents FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(5100))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("pi_1", ReferenceTypePaymentIntent).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Deposit(context.Background(), 1, 4000, 100, "pi_1")

	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryPayFromBalance_DebitsAndRecords(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance_cents FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(5000))
	mock.ExpectExec(`INSERT INTO balance_transactions`).
		WithArgs(sqlmock.AnyArg(), 1, TypePayment, int64(-3000), int64(5000),
			int64(2000), int64(0), sqlmock.AnyArg(), "ord-1", ReferenceTypeOrder).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET balance_cents`).
		WithArgs(int64(2000), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.PayFromBalance(context.Background(), 1, 3000, "ord-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryPayFromBalance_OverdraftRefused(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance_cents FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(100))
	mock.ExpectRollback()

	err := repo.PayFromBalance(context.Background(), 1, 300, "ord-1")

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRefundToBalance_Credits(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance_cents FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(2000))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ord-1", ReferenceTypeOrder, TypeRefund).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO balance_transactions`).
		WithArgs(sqlmock.AnyArg(), 1, TypeRefund, int64(3000), int64(2000),
			int64(5000), int64(0), sqlmock.AnyArg(), "ord-1", ReferenceTypeOrder).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET balance_cents`).
		WithArgs(int64(5000), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RefundToBalance(context.Background(), 1, 3000, "ord-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRefundToBalance_SecondRefundForOrderRefused(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance_cents FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(5000))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ord-1", ReferenceTypeOrder, TypeRefund).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.RefundToBalance(context.Background(), 1, 3000, "ord-1")

	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}
