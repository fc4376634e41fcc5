package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal-api/internal/application/otp"
	"github.com/trade-journal-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOTPEngine struct{ mock.Mock }

func (m *mockOTPEngine) Issue(ctx context.Context, userID, channel string) (string, time.Time, error) {
	args := m.Called(ctx, userID, channel)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
func (m *mockOTPEngine) Validate(ctx context.Context, userID, code string) (*domain.User, error) {
	args := m.Called(ctx, userID, code)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
	email, sms bool
}

func (m *mockNotifier) CanSendEmail() bool { return m.email }
func (m *mockNotifier) CanSendSMS() bool   { return m.sms }
func (m *mockNotifier) SendOTPEmail(ctx context.Context, email, code, name string) error {
	return m.Called(ctx, email, code, name).Error(0)
}
func (m *mockNotifier) SendOTPSMS(ctx context.Context, phone, code string) error {
	return m.Called(ctx, phone, code).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, email, name string) (string, error) {
	args := m.Called(userID, email, name)
	return args.String(0), args.Error(1)
}

// --- builders ---

func strPtr(s string) *string { return &s }

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func testUser(t *testing.T) *domain.User {
	return &domain.User{UserID: "u1", Email: "a@x.com", Name: "Ann", PasswordHash: hashed(t, "pw1")}
}

func newService(us *mockUserStore, eng *mockOTPEngine, n *mockNotifier, jwt *mockJWTSigner, demo bool) Service {
	return NewService(ServiceDeps{
		UserRepo:     us,
		OTPEngine:    eng,
		Notifier:     n,
		JWTProvider:  jwt,
		DemoFallback: demo,
	})
}

func assertSafeMessage(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %v", err)
	assert.True(t, errors.Is(de.Kind, kind))
	assert.Equal(t, msg, de.Message)
}

// --- Login ---

func TestLogin_SendsEmail(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{email: true}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("123456", time.Now(), nil)
	n.On("SendOTPEmail", mock.Anything, "a@x.com", "123456", "Ann").Return(nil)

	d, err := newService(us, eng, n, nil, true).Login(context.Background(), LoginRequest{Email: "A@X.com", Password: "pw1"})

	require.NoError(t, err)
	assert.Equal(t, "u1", d.UserID)
	assert.Equal(t, "email", d.OTPMethod)
	assert.Equal(t, "a@x.com", d.Destination)
	assert.False(t, d.DemoMode())
	n.AssertExpectations(t)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(testUser(t), nil)
	eng := &mockOTPEngine{}
	svc := newService(us, eng, &mockNotifier{email: true}, nil, true)

	_, errUnknown := svc.Login(context.Background(), LoginRequest{Email: "ghost@x.com", Password: "pw1"})
	_, errWrong := svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "nope"})

	assertSafeMessage(t, errUnknown, domain.ErrUnauthorized, "Invalid email or password")
	assertSafeMessage(t, errWrong, domain.ErrUnauthorized, "Invalid email or password")
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	eng.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_StoreFailure(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))

	_, err := newService(us, nil, nil, nil, true).Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw1"})
	assertSafeMessage(t, err, domain.ErrInternal, "Login failed")
}

func TestLogin_PhoneRequestedWithoutPhoneFallsBackToEmail(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{email: true, sms: true}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("123456", time.Now(), nil)
	n.On("SendOTPEmail", mock.Anything, "a@x.com", "123456", "Ann").Return(nil)

	d, err := newService(us, eng, n, nil, true).Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw1", OTPMethod: "phone"})

	require.NoError(t, err)
	assert.Equal(t, "email", d.OTPMethod)
	n.AssertNotCalled(t, "SendOTPSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_PhoneDelivery(t *testing.T) {
	u := testUser(t)
	u.Phone = strPtr("+15550100")
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{email: true, sms: true}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(u, nil)
	eng.On("Issue", mock.Anything, "u1", "phone").Return("654321", time.Now(), nil)
	n.On("SendOTPSMS", mock.Anything, "+15550100", "654321").Return(nil)

	d, err := newService(us, eng, n, nil, true).Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw1", OTPMethod: "phone"})

	require.NoError(t, err)
	assert.Equal(t, "phone", d.OTPMethod)
	assert.Equal(t, "+15550100", d.Destination)
}

func TestLogin_DemoFallbackWhenNoTransport(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("123456", time.Now(), nil)

	d, err := newService(us, eng, n, nil, true).Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw1"})

	require.NoError(t, err)
	assert.True(t, d.DemoMode())
	assert.Equal(t, "123456", d.DemoOTP)
	n.AssertNotCalled(t, "SendOTPEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_NoTransportWithoutFallback(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("123456", time.Now(), nil)

	_, err := newService(us, eng, &mockNotifier{}, nil, false).Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw1"})
	assertSafeMessage(t, err, domain.ErrDelivery, "Failed to send OTP. Please try again.")
}

func TestLogin_DeliveryFailureKeepsCode(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{email: true}
	us.On("GetByEmail", mock.Anything, "a@x.com").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("123456", time.Now(), nil)
	n.On("SendOTPEmail", mock.Anything, "a@x.com", "123456", "Ann").Return(errors.New("smtp down"))

	_, err := newService(us, eng, n, nil, true).Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw1"})

	assertSafeMessage(t, err, domain.ErrDelivery, "Failed to send OTP. Please try again.")
	eng.AssertNumberOfCalls(t, "Issue", 1)
}

// --- ResendOTP ---

func TestResendOTP_UserNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := newService(us, nil, nil, nil, true).ResendOTP(context.Background(), ResendOTPRequest{UserID: "ghost"})
	assertSafeMessage(t, err, domain.ErrNotFound, "User not found")
}

func TestResendOTP_IssuesNewCode(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{email: true}
	us.On("Get", mock.Anything, "u1").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("222222", time.Now(), nil)
	n.On("SendOTPEmail", mock.Anything, "a@x.com", "222222", "Ann").Return(nil)

	d, err := newService(us, eng, n, nil, true).ResendOTP(context.Background(), ResendOTPRequest{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, "email", d.OTPMethod)
	eng.AssertExpectations(t)
}

func TestResendOTP_DeliveryFailure(t *testing.T) {
	us := &mockUserStore{}
	eng := &mockOTPEngine{}
	n := &mockNotifier{email: true}
	us.On("Get", mock.Anything, "u1").Return(testUser(t), nil)
	eng.On("Issue", mock.Anything, "u1", "email").Return("222222", time.Now(), nil)
	n.On("SendOTPEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom"))

	_, err := newService(us, eng, n, nil, true).ResendOTP(context.Background(), ResendOTPRequest{UserID: "u1"})
	assertSafeMessage(t, err, domain.ErrDelivery, "Failed to resend OTP. Please try again.")
}

// --- VerifyOTP ---

func TestVerifyOTP_Success(t *testing.T) {
	u := testUser(t)
	eng := &mockOTPEngine{}
	jwt := &mockJWTSigner{}
	eng.On("Validate", mock.Anything, "u1", "123456").Return(u, nil)
	jwt.On("Sign", "u1", "a@x.com", "Ann").Return("signed.jwt", nil)

	res, err := newService(nil, eng, nil, jwt, true).VerifyOTP(context.Background(), VerifyOTPRequest{UserID: "u1", OTP: "123456"})

	require.NoError(t, err)
	assert.Equal(t, "signed.jwt", res.Token)
	assert.Equal(t, u, res.User)
}

func TestVerifyOTP_PassesThroughClientErrors(t *testing.T) {
	eng := &mockOTPEngine{}
	eng.On("Validate", mock.Anything, "u1", "000000").Return(nil, otp.ErrInvalid)
	eng.On("Validate", mock.Anything, "u1", "111111").Return(nil, otp.ErrExpired)
	svc := newService(nil, eng, nil, nil, true)

	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: "u1", OTP: "000000"})
	assertSafeMessage(t, err, domain.ErrUnauthorized, "Invalid OTP. Please check and try again.")

	_, err = svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: "u1", OTP: "111111"})
	assertSafeMessage(t, err, domain.ErrUnauthorized, "OTP has expired. Please request a new one.")
}

func TestVerifyOTP_InternalFailure(t *testing.T) {
	eng := &mockOTPEngine{}
	eng.On("Validate", mock.Anything, "u1", "123456").Return(nil, errors.New("db down"))

	_, err := newService(nil, eng, nil, nil, true).VerifyOTP(context.Background(), VerifyOTPRequest{UserID: "u1", OTP: "123456"})
	assertSafeMessage(t, err, domain.ErrInternal, "OTP verification failed")
}
