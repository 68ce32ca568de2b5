package loan

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/domain/amort"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateLoan(ctx context.Context, clientID int64, l *Loan, installments []Installment) (*Loan, error) {
	ret := _m.Called(ctx, clientID, l, installments)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetInstallmentsByLoanID(ctx context.Context, loanID int64) ([]Installment, error) {
	ret := _m.Called(ctx, loanID)

	var r0 []Installment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Installment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetDueUnpaidInstallments(ctx context.Context, loanID int64, asOf time.Time) ([]Installment, error) {
	ret := _m.Called(ctx, loanID, asOf)

	var r0 []Installment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Installment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindOldestUnpaidInstallmentForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Installment, error) {
	ret := _m.Called(ctx, tx, loanID)

	var r0 *Installment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Installment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateInstallmentInTx(ctx context.Context, tx pgx.Tx, entry *Installment) error {
	ret := _m.Called(ctx, tx, entry)
	return ret.Error(0)
}

func (_m *MockRepository) ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, loanID int64, amount, principalPortion, interestPortion float64) error {
	ret := _m.Called(ctx, tx, loanID, amount, principalPortion, interestPortion)
	return ret.Error(0)
}

func (_m *MockRepository) CheckIfAllPaidInTx(ctx context.Context, tx pgx.Tx, loanID int64) (bool, error) {
	ret := _m.Called(ctx, tx, loanID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID int64, status LoanStatus) error {
	ret := _m.Called(ctx, tx, loanID, status)
	return ret.Error(0)
}

func (_m *MockRepository) UpdateLoanStatus(ctx context.Context, loanID int64, status LoanStatus) error {
	ret := _m.Called(ctx, loanID, status)
	return ret.Error(0)
}

func (_m *MockRepository) SettleLoan(ctx context.Context, loanID int64, settlementAmount float64, settlementDate time.Time) error {
	ret := _m.Called(ctx, loanID, settlementAmount, settlementDate)
	return ret.Error(0)
}

func (_m *MockRepository) GetAllActiveLoanIDs(ctx context.Context) ([]int64, error) {
	ret := _m.Called(ctx)

	var r0 []int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]int64)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) MarkOverdueInstallments(ctx context.Context, loanID int64, asOf time.Time) (int64, error) {
	ret := _m.Called(ctx, loanID, asOf)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	ret := _m.Called(ctx)

	var r0 pgx.Tx
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(pgx.Tx)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

func (_m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	ret := _m.Called(ctx, tx)
	return ret.Error(0)
}

type MockClientService struct {
	mock.Mock
}

func (_m *MockClientService) CreateClient(ctx context.Context, name, contact string) (*client.Client, error) {
	ret := _m.Called(ctx, name, contact)

	var r0 *client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*client.Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockClientService) GetClient(ctx context.Context, clientID int64) (*client.Client, error) {
	ret := _m.Called(ctx, clientID)

	var r0 *client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*client.Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockClientService) ListActiveClients(ctx context.Context) ([]*client.Client, error) {
	ret := _m.Called(ctx)

	var r0 []*client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*client.Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockClientService) UpdateCreditScore(ctx context.Context, clientID int64, score int) error {
	ret := _m.Called(ctx, clientID, score)
	return ret.Error(0)
}

func (_m *MockClientService) UpdateDelinquency(ctx context.Context, clientID int64, isDelinquent bool) error {
	ret := _m.Called(ctx, clientID, isDelinquent)
	return ret.Error(0)
}

func (_m *MockClientService) AssignLoanToClient(ctx context.Context, clientID int64, loanID int64) error {
	ret := _m.Called(ctx, clientID, loanID)
	return ret.Error(0)
}

func (_m *MockClientService) DeactivateClient(ctx context.Context, clientID int64) error {
	ret := _m.Called(ctx, clientID)
	return ret.Error(0)
}

func (_m *MockClientService) ReactivateClient(ctx context.Context, clientID int64) error {
	ret := _m.Called(ctx, clientID)
	return ret.Error(0)
}

func (_m *MockClientService) FindClientByLoan(ctx context.Context, loanID int64) (*client.Client, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *client.Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*client.Client)
	}
	return r0, ret.Error(1)
}

func newTestService(repo *MockRepository, cs *MockClientService) Service {
	calc := amort.NewCalculator(amort.DefaultConversionPolicy())
	return NewService(repo, cs, calc, nil, logger)
}

func testTerms() amort.Terms {
	return amort.Terms{
		Principal:        10000,
		AnnualRate:       15,
		InterestType:     amort.InterestFlat,
		TermLength:       12,
		TermUnit:         amort.UnitMonths,
		Frequency:        amort.FrequencyMonthly,
		DisbursementDate: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateLoan(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	clientID := int64(1)
	created := &Loan{ID: 42, ClientID: clientID, Principal: 10000}

	mockClientService.On("GetClient", ctx, clientID).Return(&client.Client{ClientID: clientID, Active: true}, nil)
	mockRepo.On("CreateLoan", ctx, clientID, mock.Anything, mock.Anything).Return(created, nil)
	mockClientService.On("AssignLoanToClient", ctx, clientID, created.ID).Return(nil)

	result, err := service.CreateLoan(ctx, clientID, testTerms())

	assert.NoError(t, err)
	assert.Equal(t, created, result)
	mockRepo.AssertExpectations(t)
	mockClientService.AssertExpectations(t)
}

func TestCreateLoan_InactiveClient(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	clientID := int64(2)

	mockClientService.On("GetClient", ctx, clientID).Return(&client.Client{ClientID: clientID, Active: false}, nil)

	result, err := service.CreateLoan(ctx, clientID, testTerms())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, client.ErrClientInactive)
	mockRepo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateLoan_ClientAlreadyHasActiveLoan(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	clientID := int64(3)
	existingLoanID := int64(7)

	mockClientService.On("GetClient", ctx, clientID).Return(&client.Client{
		ClientID: clientID,
		Active:   true,
		LoanID:   &existingLoanID,
	}, nil)
	mockRepo.On("GetLoanByID", ctx, existingLoanID).Return(&Loan{ID: existingLoanID, Status: StatusActive}, nil)
	mockRepo.On("GetInstallmentsByLoanID", ctx, existingLoanID).Return([]Installment{}, nil)

	result, err := service.CreateLoan(ctx, clientID, testTerms())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, client.ErrClientAlreadyHasLoan)
}

func TestCreateLoan_InvalidTerms(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	clientID := int64(4)

	mockClientService.On("GetClient", ctx, clientID).Return(&client.Client{ClientID: clientID, Active: true}, nil)

	terms := testTerms()
	terms.Principal = 0

	result, err := service.CreateLoan(ctx, clientID, terms)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockRepo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOutstanding(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)

	mockRepo.On("GetLoanByID", ctx, loanID).Return(&Loan{ID: loanID, OutstandingBalance: 500}, nil)
	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return([]Installment{}, nil)

	result, err := service.GetOutstanding(ctx, loanID)

	assert.NoError(t, err)
	assert.Equal(t, Money(500), result)
	mockRepo.AssertExpectations(t)
}

func TestGetLoan_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(99)

	mockRepo.On("GetLoanByID", ctx, loanID).Return(nil, pgx.ErrNoRows)

	result, err := service.GetLoan(ctx, loanID)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIsDelinquent(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)

	mockRepo.On("GetDueUnpaidInstallments", ctx, loanID, mock.Anything).Return([]Installment{{}, {}}, nil)

	result, err := service.IsDelinquent(ctx, loanID)

	assert.NoError(t, err)
	assert.True(t, result)
	mockRepo.AssertExpectations(t)
}

func TestIsDelinquent_SingleMissedInstallment(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)

	mockRepo.On("GetDueUnpaidInstallments", ctx, loanID, mock.Anything).Return([]Installment{{}}, nil)

	result, err := service.IsDelinquent(ctx, loanID)

	assert.NoError(t, err)
	assert.False(t, result)
}

func TestMakePayment(t *testing.T) {
	type TxMock struct {
		pgx.Tx
	}
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	amount := Money(100)
	tx := &TxMock{}
	entry := &Installment{DueAmount: amount, PrincipalPortion: 85, InterestPortion: 15}

	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("FindOldestUnpaidInstallmentForUpdate", ctx, tx, loanID).Return(entry, nil)
	mockRepo.On("UpdateInstallmentInTx", ctx, tx, entry).Return(nil)
	mockRepo.On("ApplyPaymentInTx", ctx, tx, loanID, amount, entry.PrincipalPortion, entry.InterestPortion).Return(nil)
	mockRepo.On("CheckIfAllPaidInTx", ctx, tx, loanID).Return(false, nil)
	mockRepo.On("CommitTx", ctx, tx).Return(nil)

	err := service.MakePayment(ctx, loanID, amount)

	assert.NoError(t, err)
	assert.Equal(t, InstallmentPaid, entry.Status)
	mockRepo.AssertExpectations(t)
}

func TestMakePayment_AmountMismatch(t *testing.T) {
	type TxMock struct {
		pgx.Tx
	}
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	tx := &TxMock{}

	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("FindOldestUnpaidInstallmentForUpdate", ctx, tx, loanID).Return(&Installment{DueAmount: 100}, nil)
	mockRepo.On("RollbackTx", ctx, tx).Return(nil)

	err := service.MakePayment(ctx, loanID, 50)

	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount)
	mockRepo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestMakePayment_LastInstallmentPaysOffLoan(t *testing.T) {
	type TxMock struct {
		pgx.Tx
	}
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	amount := Money(100)
	tx := &TxMock{}
	entry := &Installment{DueAmount: amount}

	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("FindOldestUnpaidInstallmentForUpdate", ctx, tx, loanID).Return(entry, nil)
	mockRepo.On("UpdateInstallmentInTx", ctx, tx, entry).Return(nil)
	mockRepo.On("ApplyPaymentInTx", ctx, tx, loanID, amount, entry.PrincipalPortion, entry.InterestPortion).Return(nil)
	mockRepo.On("CheckIfAllPaidInTx", ctx, tx, loanID).Return(true, nil)
	mockRepo.On("UpdateLoanStatusInTx", ctx, tx, loanID, StatusPaidOff).Return(nil)
	mockRepo.On("CommitTx", ctx, tx).Return(nil)

	err := service.MakePayment(ctx, loanID, amount)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestMakePayment_FullyPaidLoan(t *testing.T) {
	type TxMock struct {
		pgx.Tx
	}
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	tx := &TxMock{}

	mockRepo.On("BeginTx", ctx).Return(tx, nil)
	mockRepo.On("FindOldestUnpaidInstallmentForUpdate", ctx, tx, loanID).Return(nil, pgx.ErrNoRows)
	mockRepo.On("GetLoanByID", ctx, loanID).Return(&Loan{ID: loanID, Status: StatusPaidOff}, nil)
	mockRepo.On("RollbackTx", ctx, tx).Return(nil)

	err := service.MakePayment(ctx, loanID, 100)

	assert.ErrorIs(t, err, apperrors.ErrLoanFullyPaid)
}

func TestGetSchedule_ClassifiesInstallments(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	installments := []Installment{
		{Number: 1, DueDate: asOf.AddDate(0, -1, 0), Status: InstallmentPaid},
		{Number: 2, DueDate: asOf.AddDate(0, 0, -5), Status: InstallmentOverdue},
		{Number: 3, DueDate: asOf, Status: InstallmentPending},
		{Number: 4, DueDate: asOf.AddDate(0, 1, 0), Status: InstallmentPending},
	}

	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return(installments, nil)

	lines, err := service.GetSchedule(ctx, loanID, asOf)

	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, amort.StatusPaid, lines[0].Lifecycle)
	assert.Equal(t, amort.StatusOverdue, lines[1].Lifecycle)
	assert.Equal(t, amort.StatusDueToday, lines[2].Lifecycle)
	assert.Equal(t, amort.StatusUpcoming, lines[3].Lifecycle)
}

func TestGetSchedule_ProjectsWhenNotMaterialized(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(2)
	asOf := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)

	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return([]Installment{}, nil)
	mockRepo.On("GetLoanByID", ctx, loanID).Return(&Loan{
		ID:                 loanID,
		Status:             StatusActive,
		TermLength:         3,
		TermUnit:           amort.UnitMonths,
		Frequency:          amort.FrequencyMonthly,
		FirstRepaymentDate: asOf,
		InstallmentAmount:  958.33,
		PaidAmount:         958.33,
	}, nil)

	lines, err := service.GetSchedule(ctx, loanID, asOf)

	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, amort.StatusPaid, lines[0].Lifecycle)
	assert.Equal(t, InstallmentPaid, lines[0].Status)
	assert.Equal(t, amort.StatusUpcoming, lines[1].Lifecycle)
	assert.Equal(t, InstallmentPending, lines[1].Status)
	assert.Equal(t, asOf.AddDate(0, 2, 0), lines[2].DueDate)
	assert.InDelta(t, 958.33, lines[2].DueAmount, 0.001)
}

func TestProjectSchedule(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(3)
	asOf := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return([]Installment{}, nil)
	mockRepo.On("GetLoanByID", ctx, loanID).Return(&Loan{
		ID:                 loanID,
		Status:             StatusActive,
		TermLength:         2,
		TermUnit:           amort.UnitMonths,
		Frequency:          amort.FrequencyMonthly,
		FirstRepaymentDate: asOf.AddDate(0, 0, -7),
		InstallmentAmount:  500,
	}, nil)

	projected, err := service.ProjectSchedule(ctx, loanID, asOf)

	require.NoError(t, err)
	require.Len(t, projected, 2)
	assert.Equal(t, amort.StatusOverdue, projected[0].Status)
	assert.Equal(t, amort.StatusUpcoming, projected[1].Status)
	assert.InDelta(t, 500.0, projected[0].Amount, 0.001)
}

func TestProjectSchedule_LoanNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	mockRepo.On("GetLoanByID", ctx, int64(99)).Return(nil, pgx.ErrNoRows)

	projected, err := service.ProjectSchedule(ctx, int64(99), time.Now())

	assert.Nil(t, projected)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuoteSettlement_UsesLedger(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	disbursed := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	mockRepo.On("GetLoanByID", ctx, loanID).Return(&Loan{
		ID:                 loanID,
		Status:             StatusActive,
		OutstandingBalance: 1000,
		PrincipalDue:       800,
		InterestDue:        180,
		FeesDue:            20,
		DisbursementDate:   disbursed,
		MaturityDate:       disbursed.AddDate(0, 0, 100),
	}, nil)
	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return([]Installment{}, nil)

	quote, err := service.QuoteSettlement(ctx, loanID, disbursed.AddDate(0, 0, 50), true)

	require.NoError(t, err)
	assert.InDelta(t, 800.0, quote.OutstandingPrincipal, 0.001)
	assert.InDelta(t, 180.0, quote.OutstandingInterest, 0.001)
	assert.InDelta(t, 20.0, quote.PendingFees, 0.001)
	assert.InDelta(t, 90.0, quote.RebateAmount, 0.001)
	assert.InDelta(t, 910.0, quote.TotalSettlementAmount, 0.001)
}

func TestQuoteSettlement_RejectsClosedLoan(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)

	mockRepo.On("GetLoanByID", ctx, loanID).Return(&Loan{ID: loanID, Status: StatusSettled}, nil)
	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return([]Installment{}, nil)

	quote, err := service.QuoteSettlement(ctx, loanID, time.Now(), true)

	assert.Nil(t, quote)
	assert.ErrorIs(t, err, apperrors.ErrLoanNotActive)
}

func TestSettleLoan(t *testing.T) {
	mockRepo := new(MockRepository)
	mockClientService := new(MockClientService)
	service := newTestService(mockRepo, mockClientService)

	ctx := context.Background()
	loanID := int64(1)
	disbursed := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	settlementDate := disbursed.AddDate(0, 0, 50)

	activeLoan := &Loan{
		ID:                 loanID,
		ClientID:           9,
		Status:             StatusActive,
		OutstandingBalance: 1000,
		DisbursementDate:   disbursed,
		MaturityDate:       disbursed.AddDate(0, 0, 100),
	}

	mockRepo.On("GetLoanByID", ctx, loanID).Return(activeLoan, nil)
	mockRepo.On("GetInstallmentsByLoanID", ctx, loanID).Return([]Installment{}, nil)
	mockRepo.On("SettleLoan", ctx, loanID, mock.Anything, settlementDate).Return(nil)

	quote, err := service.SettleLoan(ctx, loanID, settlementDate, true)

	require.NoError(t, err)
	// Heuristic split: 200 interest, half the term remaining, 100 rebate.
	assert.InDelta(t, 100.0, quote.RebateAmount, 0.001)
	assert.InDelta(t, 900.0, quote.TotalSettlementAmount, 0.001)
	mockRepo.AssertExpectations(t)
}
