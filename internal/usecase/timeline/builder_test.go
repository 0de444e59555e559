package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

var day0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func onDay(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func newUpdate(accountID uuid.UUID, value int64, date time.Time, seq int) *domain.Update {
	return &domain.Update{
		ID:        uuid.New(),
		AccountID: accountID,
		Value:     decimal.NewFromInt(value),
		Date:      date,
		CreatedAt: date.Add(time.Duration(seq) * time.Millisecond),
	}
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.Empty(t, Build([]*domain.Update{}))
}

func TestBuild_SingleAccount(t *testing.T) {
	accountID := uuid.New()
	updates := []*domain.Update{
		newUpdate(accountID, 1000, onDay(0), 0),
		newUpdate(accountID, 1200, onDay(1), 1),
	}

	points := Build(updates)

	require.Len(t, points, 2)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(1000)))
	assert.True(t, points[1].Value.Equal(decimal.NewFromInt(1200)))
}

// Two accounts: A={day0:1000, day2:1200}, B={day0:500, day1:200, day2:150}.
// Replaying with carried-forward values yields running totals
// 1000, 1500, 1200, 1400, 1350.
func TestBuild_TwoAccountsCarryForward(t *testing.T) {
	// Fixed IDs so the same-timestamp tie-break (account ID ascending)
	// puts A before B on day 0.
	accountA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	accountB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	updates := []*domain.Update{
		newUpdate(accountB, 150, onDay(2), 4),
		newUpdate(accountA, 1000, onDay(0), 0),
		newUpdate(accountB, 200, onDay(1), 2),
		newUpdate(accountB, 500, onDay(0), 1),
		newUpdate(accountA, 1200, onDay(2), 3),
	}

	points := Build(updates)

	require.Len(t, points, 5)
	expected := []int64{1000, 1500, 1200, 1400, 1350}
	for i, want := range expected {
		assert.True(t, points[i].Value.Equal(decimal.NewFromInt(want)),
			"point %d: got %s, want %d", i, points[i].Value, want)
	}
}

// Output length equals input length and dates never decrease, for any
// ordering of the input.
func TestBuild_MonotoneDates(t *testing.T) {
	accountA := uuid.New()
	accountB := uuid.New()

	updates := []*domain.Update{
		newUpdate(accountA, 10, onDay(3), 0),
		newUpdate(accountB, 20, onDay(0), 1),
		newUpdate(accountA, 30, onDay(1), 2),
		newUpdate(accountB, 40, onDay(1), 3),
		newUpdate(accountA, 50, onDay(2), 4),
	}

	points := Build(updates)

	require.Len(t, points, len(updates))
	for i := 1; i < len(points); i++ {
		assert.False(t, points[i].Date.Before(points[i-1].Date))
	}
}

func TestBuild_SameDayMultiplePoints(t *testing.T) {
	accountID := uuid.New()
	updates := []*domain.Update{
		newUpdate(accountID, 100, onDay(0), 0),
		newUpdate(accountID, 150, onDay(0), 1),
	}

	points := Build(updates)

	// One point per input update even on a shared day; the second point
	// replaces the account's earlier value rather than adding to it.
	require.Len(t, points, 2)
	assert.True(t, points[1].Value.Equal(decimal.NewFromInt(150)))
}

func TestFilterFrom_ExactMatch(t *testing.T) {
	points := []domain.ChartDataPoint{
		{Date: onDay(0), Value: decimal.NewFromInt(1)},
		{Date: onDay(1), Value: decimal.NewFromInt(2)},
		{Date: onDay(2), Value: decimal.NewFromInt(3)},
	}

	filtered := FilterFrom(points, onDay(1))

	require.Len(t, filtered, 2)
	assert.True(t, filtered[0].Date.Equal(onDay(1)))
}

func TestFilterFrom_PrependsLatestPriorPoint(t *testing.T) {
	points := []domain.ChartDataPoint{
		{Date: onDay(0), Value: decimal.NewFromInt(1)},
		{Date: onDay(5), Value: decimal.NewFromInt(2)},
	}

	filtered := FilterFrom(points, onDay(3))

	// No point on day 3, so the latest point before it leads the result.
	require.Len(t, filtered, 2)
	assert.True(t, filtered[0].Date.Equal(onDay(0)))
	assert.True(t, filtered[1].Date.Equal(onDay(5)))
}

func TestFilterFrom_StartBeforeAllPoints(t *testing.T) {
	points := []domain.ChartDataPoint{
		{Date: onDay(2), Value: decimal.NewFromInt(1)},
	}

	filtered := FilterFrom(points, onDay(0))

	require.Len(t, filtered, 1)
}

func TestFilterFrom_Empty(t *testing.T) {
	assert.Empty(t, FilterFrom(nil, onDay(0)))
}

func TestSinceLastUpdate(t *testing.T) {
	points := []domain.ChartDataPoint{
		{Date: onDay(0), Value: decimal.NewFromInt(1)},
		{Date: onDay(1), Value: decimal.NewFromInt(2)},
		{Date: onDay(2), Value: decimal.NewFromInt(3)},
	}

	lastTwo := SinceLastUpdate(points)
	require.Len(t, lastTwo, 2)
	assert.True(t, lastTwo[0].Date.Equal(onDay(1)))

	single := SinceLastUpdate(points[:1])
	assert.Len(t, single, 1)

	assert.Empty(t, SinceLastUpdate(nil))
}

// MockAccountRepository is a mock implementation of AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, onlyActive bool) ([]*domain.Account, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) Names(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUpdateRepository is a mock implementation of UpdateRepository for testing
type MockUpdateRepository struct {
	mock.Mock
}

func (m *MockUpdateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Update, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Update), args.Error(1)
}

func (m *MockUpdateRepository) Create(ctx context.Context, update *domain.Update) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func (m *MockUpdateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUpdateRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockUpdateRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Update, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Update), args.Error(1)
}

func (m *MockUpdateRepository) ListByAccounts(ctx context.Context, accountIDs []uuid.UUID) ([]*domain.Update, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Update), args.Error(1)
}

func (m *MockUpdateRepository) LatestOnOrBefore(ctx context.Context, accountID uuid.UUID, t time.Time) (*domain.Update, error) {
	args := m.Called(ctx, accountID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Update), args.Error(1)
}

func (m *MockUpdateRepository) FirstAfter(ctx context.Context, accountID uuid.UUID, t time.Time) (*domain.Update, error) {
	args := m.Called(ctx, accountID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Update), args.Error(1)
}

func TestBuildPortfolio_ExcludesInactiveAccounts(t *testing.T) {
	ctx := context.Background()
	mockAccountRepo := new(MockAccountRepository)
	mockUpdateRepo := new(MockUpdateRepository)

	service := NewService(mockAccountRepo, mockUpdateRepo)

	activeID := uuid.New()
	inactiveID := uuid.New()
	closedAt := onDay(1)
	accounts := []*domain.Account{
		{ID: activeID, Name: "Active", IsActive: true},
		{ID: inactiveID, Name: "Closed", IsActive: false, ClosedAt: &closedAt},
	}

	mockAccountRepo.On("GetByIDs", ctx, []uuid.UUID{activeID, inactiveID}).Return(accounts, nil)
	mockUpdateRepo.On("ListByAccounts", ctx, []uuid.UUID{activeID}).Return([]*domain.Update{
		newUpdate(activeID, 750, onDay(0), 0),
	}, nil)

	points, err := service.BuildPortfolio(ctx, []uuid.UUID{activeID, inactiveID})

	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(750)))

	mockAccountRepo.AssertExpectations(t)
	mockUpdateRepo.AssertExpectations(t)
}

func TestBuildPortfolio_AllInactive(t *testing.T) {
	ctx := context.Background()
	mockAccountRepo := new(MockAccountRepository)
	mockUpdateRepo := new(MockUpdateRepository)

	service := NewService(mockAccountRepo, mockUpdateRepo)

	closedAt := onDay(1)
	inactiveID := uuid.New()
	mockAccountRepo.On("GetByIDs", ctx, []uuid.UUID{inactiveID}).Return([]*domain.Account{
		{ID: inactiveID, Name: "Closed", IsActive: false, ClosedAt: &closedAt},
	}, nil)

	points, err := service.BuildPortfolio(ctx, []uuid.UUID{inactiveID})

	require.NoError(t, err)
	assert.Empty(t, points)

	// No update fetch happens when every account is filtered out.
	mockUpdateRepo.AssertNotCalled(t, "ListByAccounts")
}
