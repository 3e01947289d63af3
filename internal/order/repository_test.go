package order

import (
	"context"
	"testing"
	"time"

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

func TestRepositoryClaim_WinnerAffectsOneRow(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(2, "ord-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.Claim(context.Background(), "ord-1", 2)

	assert.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryClaim_LoserAffectsNoRows(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(3, "ord-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.Claim(context.Background(), "ord-1", 3)

	assert.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkAwaitingReview_GuardsBoosterAndStatus(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs("ord-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkAwaitingReview(context.Background(), "ord-1", 2)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkCompleted_WrongStateAffectsNothing(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs("ord-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkCompleted(context.Background(), "ord-1", 1)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkRefunded_StoresReason(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs("ord-1", 1, "booster never showed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkRefunded(context.Background(), "ord-1", 1, "booster never showed")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_ReturnsCreatedAt(t *testing.T) {
	repo, mock := newTestRepo(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	o := &Order{
		ID:          "ord-1",
		CustomerID:  1,
		Game:        "League of Legends",
		Category:    "rank_boost",
		CurrentRank: "Gold II",
		TargetRank:  "Platinum IV",
		AmountCents: 10000,
		Currency:    "usd",
		Status:      StatusPending,
	}

	err := repo.Create(context.Background(), o)

	assert.NoError(t, err)
	assert.WithinDuration(t, now, o.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryEarnings_SumsCompletedOnly(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(SUM\(amount_cents\), 0\)`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).AddRow(3, 15000))

	resp, err := repo.Earnings(context.Background(), 2)

	assert.NoError(t, err)
	assert.Equal(t, 3, resp.CompletedOrders)
	assert.Equal(t, int64(15000), resp.TotalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}
