package payment

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"boostify/internal/audit"
	"boostify/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.InitDevelopment()
	os.Exit(m.Run())
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, t *Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockRepository) GetByOrderID(ctx context.Context, orderID string) (*Transaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockRepository) MarkTransferred(ctx context.Context, escrowID string) error {
	return m.Called(ctx, escrowID).Error(0)
}

func (m *MockRepository) MarkRefunded(ctx context.Context, escrowID, refundID string) error {
	return m.Called(ctx, escrowID, refundID).Error(0)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error) {
	args := m.Called(ctx, amountCents, currency, idempotencyKey, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Intent), args.Error(1)
}

func (m *MockProcessor) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Intent), args.Error(1)
}

func (m *MockProcessor) Refund(ctx context.Context, intentID string, amountCents int64) (string, error) {
	args := m.Called(ctx, intentID, amountCents)
	return args.String(0), args.Error(1)
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name        string
		total       int64
		wantFee     int64
		wantBooster int64
	}{
		{"even split", 10000, 5000, 5000},
		{"odd cent goes to platform", 101, 51, 50},
		{"single cent", 1, 1, 0},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, booster := SplitAmount(tt.total)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantBooster, booster)
			assert.Equal(t, tt.total, fee+booster)
		})
	}
}

func TestOpenEscrow_SplitsAndCaptures(t *testing.T) {
	repo := new(MockRepository)
	proc := new(MockProcessor)
	svc := NewService(repo, proc, audit.Nop())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(tr *Transaction) bool {
		return tr.TotalCents == 10000 &&
			tr.PlatformFeeCents == 5000 &&
			tr.BoosterCents == 5000 &&
			tr.PaymentStatus == StatusCaptured &&
			tr.PaymentIntentID.String == "pi_1"
	})).Return(nil)

	tr, err := svc.OpenEscrow(context.Background(), "ord-1", 1, 2, 10000, "usd", "pi_1")

	assert.NoError(t, err)
	assert.Equal(t, "ord-1", tr.OrderID)
	assert.NotEmpty(t, tr.ID)
	repo.AssertExpectations(t)
}

func TestSettleApprove_Transfers(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProcessor), audit.Nop())

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:            "esc-1",
		OrderID:       "ord-1",
		TotalCents:    10000,
		PaymentStatus: StatusCaptured,
	}, nil)
	repo.On("MarkTransferred", mock.Anything, "esc-1").Return(nil)

	tr, err := svc.SettleApprove(context.Background(), "ord-1")

	assert.NoError(t, err)
	assert.Equal(t, StatusTransferred, tr.PaymentStatus)
	repo.AssertExpectations(t)
}

func TestSettleApprove_MissingEscrow(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProcessor), audit.Nop())

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(nil, errors.New("sql: no rows in result set"))

	_, err := svc.SettleApprove(context.Background(), "ord-1")

	assert.ErrorIs(t, err, ErrEscrowNotFound)
}

func TestSettleApprove_AlreadyTransferredIsNoOp(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProcessor), audit.Nop())

	// An approve that flipped the escrow but died before the order row
	// retries through here; it must get the escrow back, not an error.
	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:            "esc-1",
		PaymentStatus: StatusTransferred,
	}, nil)

	tr, err := svc.SettleApprove(context.Background(), "ord-1")

	assert.NoError(t, err)
	assert.Equal(t, StatusTransferred, tr.PaymentStatus)
	repo.AssertNotCalled(t, "MarkTransferred", mock.Anything, mock.Anything)
}

func TestSettleApprove_RefundedEscrowRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProcessor), audit.Nop())

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:            "esc-1",
		PaymentStatus: StatusRefunded,
	}, nil)

	_, err := svc.SettleApprove(context.Background(), "ord-1")

	assert.ErrorIs(t, err, ErrNotCaptured)
	repo.AssertNotCalled(t, "MarkTransferred", mock.Anything, mock.Anything)
}

func TestSettleReject_RefundsCardPortion(t *testing.T) {
	repo := new(MockRepository)
	proc := new(MockProcessor)
	svc := NewService(repo, proc, audit.Nop())

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:              "esc-1",
		OrderID:         "ord-1",
		CustomerID:      1,
		TotalCents:      10000,
		PaymentStatus:   StatusCaptured,
		PaymentIntentID: sql.NullString{String: "pi_1", Valid: true},
	}, nil)
	proc.On("Refund", mock.Anything, "pi_1", int64(7000)).Return("re_1", nil)
	repo.On("MarkRefunded", mock.Anything, "esc-1", "re_1").Return(nil)

	tr, err := svc.SettleReject(context.Background(), "ord-1", 7000)

	assert.NoError(t, err)
	assert.Equal(t, StatusRefunded, tr.PaymentStatus)
	proc.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSettleReject_ProcessorFailureStillFlips(t *testing.T) {
	repo := new(MockRepository)
	proc := new(MockProcessor)
	sink := audit.NewMemorySink()
	svc := NewService(repo, proc, sink)

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:              "esc-1",
		OrderID:         "ord-1",
		CustomerID:      1,
		TotalCents:      10000,
		PaymentStatus:   StatusCaptured,
		PaymentIntentID: sql.NullString{String: "pi_1", Valid: true},
	}, nil)
	proc.On("Refund", mock.Anything, "pi_1", int64(10000)).Return("", errors.New("processor unavailable"))
	repo.On("MarkRefunded", mock.Anything, "esc-1", "").Return(nil)

	tr, err := svc.SettleReject(context.Background(), "ord-1", 10000)

	assert.NoError(t, err)
	assert.Equal(t, StatusRefunded, tr.PaymentStatus)

	var mismatches int
	for _, e := range sink.Events() {
		if e.Type == audit.EventRefundMismatch {
			mismatches++
		}
	}
	assert.Equal(t, 1, mismatches)
	repo.AssertExpectations(t)
}

func TestSettleReject_BalanceOnlySkipsProcessor(t *testing.T) {
	repo := new(MockRepository)
	proc := new(MockProcessor)
	svc := NewService(repo, proc, audit.Nop())

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:            "esc-1",
		OrderID:       "ord-1",
		TotalCents:    4000,
		PaymentStatus: StatusCaptured,
	}, nil)
	repo.On("MarkRefunded", mock.Anything, "esc-1", "").Return(nil)

	_, err := svc.SettleReject(context.Background(), "ord-1", 0)

	assert.NoError(t, err)
	proc.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleReject_AlreadyRefundedIsNoOp(t *testing.T) {
	repo := new(MockRepository)
	proc := new(MockProcessor)
	svc := NewService(repo, proc, audit.Nop())

	// A reject retried after a partial failure must not issue a second
	// processor refund.
	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:            "esc-1",
		PaymentStatus: StatusRefunded,
	}, nil)

	tr, err := svc.SettleReject(context.Background(), "ord-1", 1000)

	assert.NoError(t, err)
	assert.Equal(t, StatusRefunded, tr.PaymentStatus)
	proc.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleReject_TransferredEscrowRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProcessor), audit.Nop())

	repo.On("GetByOrderID", mock.Anything, "ord-1").Return(&Transaction{
		ID:            "esc-1",
		PaymentStatus: StatusTransferred,
	}, nil)

	_, err := svc.SettleReject(context.Background(), "ord-1", 1000)

	assert.ErrorIs(t, err, ErrNotCaptured)
	repo.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything, mock.Anything)
}
