package otp

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal-api/internal/domain"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) DeleteUnused(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockCodeStore) Create(ctx context.Context, c *domain.OTPCode) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCodeStore) FindUnused(ctx context.Context, userID, code string) (*domain.OTPCode, error) {
	args := m.Called(ctx, userID, code)
	if c, _ := args.Get(0).(*domain.OTPCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) MarkUsed(ctx context.Context, userID, otpID string, usedAt time.Time) error {
	return m.Called(ctx, userID, otpID, usedAt).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

func liveCode(userID, code string) *domain.OTPCode {
	return &domain.OTPCode{OTPID: "o1", UserID: userID, Code: code, Type: "email", ExpiresAt: t0.Add(DefaultTTL), CreatedAt: t0}
}

// --- GenerateCode ---

func TestGenerateCode_SixDigitsInRange(t *testing.T) {
	for range 500 {
		c, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, c, 6)
		n, err := strconv.Atoi(c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

// --- Issue ---

func TestIssue_DeletesUnusedThenCreates(t *testing.T) {
	codes := &mockCodeStore{}
	var order []string
	codes.On("DeleteUnused", mock.Anything, "u1").Run(func(mock.Arguments) { order = append(order, "delete") }).Return(nil)
	codes.On("Create", mock.Anything, mock.AnythingOfType("*domain.OTPCode")).Run(func(mock.Arguments) { order = append(order, "create") }).Return(nil)

	e := NewEngine(codes, nil, WithClock(clockAt(t0)))
	code, expiresAt, err := e.Issue(context.Background(), "u1", "email")

	require.NoError(t, err)
	assert.Equal(t, []string{"delete", "create"}, order)
	assert.Len(t, code, 6)
	assert.Equal(t, t0.Add(5*time.Minute), expiresAt)

	stored := codes.Calls[1].Arguments.Get(1).(*domain.OTPCode)
	assert.Equal(t, code, stored.Code)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "email", stored.Type)
	assert.False(t, stored.Used)
	assert.NotEmpty(t, stored.OTPID)
	assert.Equal(t, t0, stored.CreatedAt)
}

func TestIssue_CustomTTL(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("DeleteUnused", mock.Anything, "u1").Return(nil)
	codes.On("Create", mock.Anything, mock.Anything).Return(nil)

	e := NewEngine(codes, nil, WithClock(clockAt(t0)), WithTTL(10*time.Minute))
	_, expiresAt, err := e.Issue(context.Background(), "u1", "phone")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(10*time.Minute), expiresAt)
}

func TestIssue_StoreFailure(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("DeleteUnused", mock.Anything, "u1").Return(errors.New("db down"))

	e := NewEngine(codes, nil)
	_, _, err := e.Issue(context.Background(), "u1", "email")
	assert.ErrorContains(t, err, "db down")
	codes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Validate ---

func TestValidate_Success(t *testing.T) {
	codes := &mockCodeStore{}
	users := &mockUserStore{}
	codes.On("FindUnused", mock.Anything, "u1", "123456").Return(liveCode("u1", "123456"), nil)
	codes.On("MarkUsed", mock.Anything, "u1", "o1", t0.Add(time.Minute)).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "a@x.com", Name: "Ann"}, nil)

	e := NewEngine(codes, users, WithClock(clockAt(t0.Add(time.Minute))))
	u, err := e.Validate(context.Background(), "u1", "123456")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	codes.AssertExpectations(t)
}

func TestValidate_NotFound(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("FindUnused", mock.Anything, "u1", "000000").Return(nil, domain.ErrNotFound)

	e := NewEngine(codes, nil)
	_, err := e.Validate(context.Background(), "u1", "000000")

	assert.True(t, errors.Is(err, ErrInvalid))
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestValidate_ExpiredLeavesCodeUnused(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("FindUnused", mock.Anything, "u1", "123456").Return(liveCode("u1", "123456"), nil)

	e := NewEngine(codes, nil, WithClock(clockAt(t0.Add(6*time.Minute))))
	_, err := e.Validate(context.Background(), "u1", "123456")

	assert.True(t, errors.Is(err, ErrExpired))
	codes.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_ValidAtExactExpiry(t *testing.T) {
	codes := &mockCodeStore{}
	users := &mockUserStore{}
	codes.On("FindUnused", mock.Anything, "u1", "123456").Return(liveCode("u1", "123456"), nil)
	codes.On("MarkUsed", mock.Anything, "u1", "o1", mock.Anything).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	e := NewEngine(codes, users, WithClock(clockAt(t0.Add(DefaultTTL))))
	_, err := e.Validate(context.Background(), "u1", "123456")
	assert.NoError(t, err)
}

func TestValidate_LostRace(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("FindUnused", mock.Anything, "u1", "123456").Return(liveCode("u1", "123456"), nil)
	codes.On("MarkUsed", mock.Anything, "u1", "o1", mock.Anything).Return(domain.ErrNotFound)

	e := NewEngine(codes, nil, WithClock(clockAt(t0)))
	_, err := e.Validate(context.Background(), "u1", "123456")
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate_StoreFailureIsNotClientError(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("FindUnused", mock.Anything, "u1", "123456").Return(nil, errors.New("timeout"))

	e := NewEngine(codes, nil)
	_, err := e.Validate(context.Background(), "u1", "123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestValidate_OwnerMissing(t *testing.T) {
	codes := &mockCodeStore{}
	users := &mockUserStore{}
	codes.On("FindUnused", mock.Anything, "u1", "123456").Return(liveCode("u1", "123456"), nil)
	codes.On("MarkUsed", mock.Anything, "u1", "o1", mock.Anything).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	e := NewEngine(codes, users, WithClock(clockAt(t0)))
	_, err := e.Validate(context.Background(), "u1", "123456")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
