package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
	"github.com/N4thh/homi-nah/internal/gateway"
	"github.com/N4thh/homi-nah/internal/notifier"
	"github.com/N4thh/homi-nah/internal/repository"
)

// MockPaymentRepository is a mock implementation of repository.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Payment, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetActiveByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter repository.ListFilter) ([]*domain.Payment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) UpdateFromStatus(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) error {
	args := m.Called(ctx, payment, expected)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountByOwnerAndStatus(ctx context.Context, ownerID string) (map[domain.PaymentStatus]int64, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.PaymentStatus]int64), args.Error(1)
}

// MockBookingRepository is a mock implementation of repository.BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdatePaymentOutcome(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

// MockConfigRepository is a mock implementation of repository.PaymentConfigRepository
type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) Create(ctx context.Context, config *domain.PaymentConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockConfigRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.PaymentConfig, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentConfig), args.Error(1)
}

func (m *MockConfigRepository) Update(ctx context.Context, config *domain.PaymentConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockConfigRepository) SetActive(ctx context.Context, ownerID string, active bool) error {
	args := m.Called(ctx, ownerID, active)
	return args.Error(0)
}

// MockCredentialResolver is a mock implementation of CredentialResolver
type MockCredentialResolver struct {
	mock.Mock
}

func (m *MockCredentialResolver) Resolve(ctx context.Context, ownerID string) (domain.Credentials, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(domain.Credentials), args.Error(1)
}

func (m *MockCredentialResolver) Invalidate(ownerID string) {
	m.Called(ownerID)
}

// MockGateway is a mock implementation of gateway.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateLink(ctx context.Context, req *gateway.CreateLinkRequest) (*gateway.PaymentLink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentLink), args.Error(1)
}

func (m *MockGateway) GetStatus(ctx context.Context, orderCode int64) (*gateway.PaymentInfo, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentInfo), args.Error(1)
}

func (m *MockGateway) Cancel(ctx context.Context, orderCode int64, reason string) error {
	args := m.Called(ctx, orderCode, reason)
	return args.Error(0)
}

func (m *MockGateway) VerifySignature(payload []byte, signature string) error {
	args := m.Called(payload, signature)
	return args.Error(0)
}

func (m *MockGateway) Name() string {
	return "test"
}

// stubGatewayFactory returns the same gateway for every credential set
type stubGatewayFactory struct {
	gw gateway.Gateway
}

func (f *stubGatewayFactory) New(creds domain.Credentials) gateway.Gateway {
	return f.gw
}

// MockNotifier is a mock implementation of notifier.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PaymentCreated(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockNotifier) PaymentSucceeded(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockNotifier) PaymentFailed(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockNotifier) PaymentCancelled(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockNotifier) PaymentExpired(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockNotifier) Close() error {
	args := m.Called()
	return args.Error(0)
}

var testCreds = domain.Credentials{
	ClientID:    "client-12345",
	APIKey:      "api-key-1234567890",
	ChecksumKey: "checksum-key-1234567890",
}

func testBooking() *domain.Booking {
	now := time.Now().UTC()
	return &domain.Booking{
		ID:            "booking-1",
		RenterID:      "renter-1",
		OwnerID:       "owner-1",
		HomeID:        "home-1",
		TotalPrice:    500000,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.BookingPaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func testCreatedPayment(t *testing.T) *domain.Payment {
	t.Helper()
	payment, err := domain.NewPayment("booking-1", "owner-1", "renter-1", 500000, "Booking #booking-1", 5*time.Minute)
	if err != nil {
		t.Fatalf("NewPayment() error = %v", err)
	}
	return payment
}

func testPendingPayment(t *testing.T) *domain.Payment {
	t.Helper()
	payment := testCreatedPayment(t)
	payment.SetGatewayInfo("link-1", "970422", "0123456789", "HOMI TEST")
	if err := payment.MarkPending("https://pay.test/web/link-1", "00020101021238570010A000000727"); err != nil {
		t.Fatalf("MarkPending() error = %v", err)
	}
	return payment
}

func testPaymentLink(orderCode int64) *gateway.PaymentLink {
	return &gateway.PaymentLink{
		PaymentLinkID: "link-1",
		OrderCode:     orderCode,
		Amount:        500000,
		Status:        "PENDING",
		CheckoutURL:   "https://pay.test/web/link-1",
		QRCode:        "00020101021238570010A000000727",
		BIN:           "970422",
		AccountNumber: "0123456789",
		AccountName:   "HOMI TEST",
	}
}

type paymentServiceMocks struct {
	payments *MockPaymentRepository
	bookings *MockBookingRepository
	resolver *MockCredentialResolver
	gateway  *MockGateway
}

func newTestPaymentService(events notifier.Notifier) (PaymentService, *paymentServiceMocks) {
	m := &paymentServiceMocks{
		payments: new(MockPaymentRepository),
		bookings: new(MockBookingRepository),
		resolver: new(MockCredentialResolver),
		gateway:  new(MockGateway),
	}
	validator := NewPaymentValidator(m.bookings, m.payments)
	service := NewPaymentService(m.payments, m.bookings, validator, m.resolver,
		&stubGatewayFactory{gw: m.gateway}, events, nil)
	return service, m
}

func (m *paymentServiceMocks) assertExpectations(t *testing.T) {
	m.payments.AssertExpectations(t)
	m.bookings.AssertExpectations(t)
	m.resolver.AssertExpectations(t)
	m.gateway.AssertExpectations(t)
}

func TestPaymentService_CreatePayment_Success(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)
	mocks.gateway.On("CreateLink", mock.Anything, mock.MatchedBy(func(req *gateway.CreateLinkRequest) bool {
		return req.Amount == 500000 && req.Description == "Booking #booking-1" && req.ReturnURL != ""
	})).Return(testPaymentLink(0), nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusCreated).Return(nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.NoError(t, err)
	assert.NotNil(t, payment)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	assert.Equal(t, int64(500000), payment.Amount)
	assert.Equal(t, "https://pay.test/web/link-1", payment.CheckoutURL)
	assert.Equal(t, "970422", payment.BankBIN)
	assert.Equal(t, "link-1", payment.GatewayTxnID)

	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_NotBookingRenter(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)

	payment, err := service.CreatePayment(context.Background(), "someone-else", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.Equal(t, domain.ErrNotBookingRenter, err)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_BookingCancelled(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	booking := testBooking()
	booking.Status = domain.BookingStatusCancelled
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.Equal(t, domain.ErrBookingCancelled, err)
}

func TestPaymentService_CreatePayment_BookingAlreadyPaid(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	booking := testBooking()
	booking.PaymentStatus = domain.BookingPaymentPaid
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.Equal(t, domain.ErrBookingAlreadyPaid, err)
}

func TestPaymentService_CreatePayment_AmountMismatch(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{
		BookingID: "booking-1",
		Amount:    999,
	})

	assert.Nil(t, payment)
	assert.Equal(t, domain.ErrAmountMismatch, err)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_NoCredentials(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(domain.Credentials{}, domain.ErrConfigNotFound)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.Equal(t, domain.ErrConfigNotFound, err)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_ReusesPendingPayment(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	existing := testPendingPayment(t)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(existing, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, payment.ID)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_ExpiredPendingReplaced(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	stale := testPendingPayment(t)
	stale.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(stale, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, stale, domain.PaymentStatusPending).Return(nil)
	mocks.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)
	mocks.gateway.On("CreateLink", mock.Anything, mock.Anything).Return(testPaymentLink(0), nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusCreated).Return(nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.NoError(t, err)
	assert.NotEqual(t, stale.ID, payment.ID)
	assert.Equal(t, domain.PaymentStatusExpired, stale.Status)
	assert.Equal(t, domain.CancelReasonTimeout, stale.CancelReason)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_InFlightAttemptConflicts(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	inFlight := testCreatedPayment(t)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(inFlight, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.ErrorIs(t, err, domain.ErrActivePaymentExists)
	mocks.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_LostInsertRaceReusesWinner(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	winner := testPendingPayment(t)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound).Once()
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.payments.On("Create", mock.Anything, mock.Anything).Return(domain.ErrActivePaymentExists)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(winner, nil).Once()

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.NoError(t, err)
	assert.Equal(t, winner.ID, payment.ID)
	mocks.gateway.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_LostInsertRaceWinnerInFlight(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	winner := testCreatedPayment(t)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound).Once()
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.payments.On("Create", mock.Anything, mock.Anything).Return(domain.ErrActivePaymentExists)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(winner, nil).Once()

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.ErrorIs(t, err, domain.ErrActivePaymentExists)
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_LinkCreationFailure(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)
	mocks.gateway.On("CreateLink", mock.Anything, mock.Anything).
		Return(nil, domain.NewGatewayError("create_link", "20", false, errors.New("declined")))
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatusFailed && p.FailureReason == domain.FailureReasonLinkCreation
	}), domain.PaymentStatusCreated).Return(nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.Nil(t, payment)
	assert.True(t, domain.IsGatewayError(err))
	mocks.assertExpectations(t)
}

func TestPaymentService_CreatePayment_RegeneratesCodesOnCollision(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(testBooking(), nil)
	mocks.payments.On("GetActiveByBookingID", mock.Anything, "booking-1").Return(nil, domain.ErrPaymentNotFound)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.payments.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateOrderCode).Once()
	mocks.payments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	mocks.gateway.On("CreateLink", mock.Anything, mock.Anything).Return(testPaymentLink(0), nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusCreated).Return(nil)

	payment, err := service.CreatePayment(context.Background(), "renter-1", &dto.CreatePaymentRequest{BookingID: "booking-1"})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	mocks.payments.AssertNumberOfCalls(t, "Create", 2)
	mocks.assertExpectations(t)
}

func TestPaymentService_GetPayment_AccessControl(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)

	got, err := service.GetPayment(context.Background(), "renter-1", payment.ID)
	assert.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	got, err = service.GetPayment(context.Background(), "owner-1", payment.ID)
	assert.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	got, err = service.GetPayment(context.Background(), "stranger", payment.ID)
	assert.Nil(t, got)
	assert.Equal(t, domain.ErrPaymentAccessDenied, err)
}

func TestPaymentService_ListPayments_RenterRole(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.RenterID == "renter-1" && f.OwnerID == "" && f.Limit == 20 && f.Offset == 0
	})).Return([]*domain.Payment{payment}, int64(1), nil)

	payments, total, err := service.ListPayments(context.Background(), &dto.PaymentListFilter{
		UserID: "renter-1",
		Role:   "renter",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, payments, 1)
	mocks.assertExpectations(t)
}

func TestPaymentService_ListPayments_OwnerRole(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	mocks.payments.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.OwnerID == "owner-1" && f.RenterID == "" && f.Status == domain.PaymentStatusSuccess
	})).Return([]*domain.Payment{}, int64(0), nil)

	_, _, err := service.ListPayments(context.Background(), &dto.PaymentListFilter{
		UserID: "owner-1",
		Role:   "owner",
		Status: "success",
	})

	assert.NoError(t, err)
	mocks.assertExpectations(t)
}

func TestPaymentService_ListPayments_UnknownRole(t *testing.T) {
	service, _ := newTestPaymentService(nil)

	_, _, err := service.ListPayments(context.Background(), &dto.PaymentListFilter{
		UserID: "user-1",
		Role:   "admin",
	})

	assert.Equal(t, domain.ErrPaymentAccessDenied, err)
}

func TestPaymentService_ListPayments_InvalidStatusFilter(t *testing.T) {
	service, _ := newTestPaymentService(nil)

	_, _, err := service.ListPayments(context.Background(), &dto.PaymentListFilter{
		UserID: "renter-1",
		Role:   "renter",
		Status: "refunded",
	})

	assert.Equal(t, domain.ErrInvalidPaymentStatus, err)
}

func TestPaymentService_ApplyGatewayEvent_Success(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	booking := testBooking()

	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)
	mocks.bookings.On("UpdatePaymentOutcome", mock.Anything, booking).Return(nil)
	events.On("PaymentSucceeded", mock.Anything, payment).Return(nil).Once()

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode:     payment.OrderCode,
		Status:        "PAID",
		TransactionID: "txn-99",
		Amount:        500000,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	assert.NotNil(t, got.PaidAt)
	assert.Equal(t, "txn-99", got.GatewayTxnID)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, domain.BookingPaymentPaid, booking.PaymentStatus)
	assert.NotNil(t, booking.PaymentDate)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_ReplayIsNoOp(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	if err := payment.MarkSuccess("txn-99"); err != nil {
		t.Fatalf("MarkSuccess() error = %v", err)
	}
	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode: payment.OrderCode,
		Status:    "PAID",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_LateSuccessAfterCancellation(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	if err := payment.MarkCancelled("cancelled_by_user"); err != nil {
		t.Fatalf("MarkCancelled() error = %v", err)
	}
	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode:     payment.OrderCode,
		Status:        "PAID",
		TransactionID: "txn-99",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, got.Status)
	assert.Nil(t, got.PaidAt)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_FailedStatus(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	booking := testBooking()

	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)
	mocks.bookings.On("UpdatePaymentOutcome", mock.Anything, booking).Return(nil)
	events.On("PaymentFailed", mock.Anything, payment).Return(nil).Once()

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode: payment.OrderCode,
		Status:    "CANCELLED",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, got.Status)
	assert.Equal(t, "cancelled", got.FailureReason)
	assert.Equal(t, domain.BookingPaymentFailed, booking.PaymentStatus)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_PendingKeepsState(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode: payment.OrderCode,
		Status:    "PROCESSING",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_UnknownKeepsState(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode: payment.OrderCode,
		Status:    "SOMETHING_NEW",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_RetriesOnConflict(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	first := testPendingPayment(t)
	second := testPendingPayment(t)
	second.ID = first.ID
	second.OrderCode = first.OrderCode
	booking := testBooking()

	mocks.payments.On("GetByOrderCode", mock.Anything, first.OrderCode).Return(first, nil).Once()
	mocks.payments.On("GetByOrderCode", mock.Anything, first.OrderCode).Return(second, nil).Once()
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusPending).
		Return(domain.ErrStatusConflict).Once()
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusPending).
		Return(nil).Once()
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)
	mocks.bookings.On("UpdatePaymentOutcome", mock.Anything, booking).Return(nil)
	events.On("PaymentSucceeded", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode: first.OrderCode,
		Status:    "PAID",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	mocks.payments.AssertNumberOfCalls(t, "GetByOrderCode", 2)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_ApplyGatewayEvent_ConflictSettledByOtherWriter(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	first := testPendingPayment(t)
	settled := testPendingPayment(t)
	settled.ID = first.ID
	settled.OrderCode = first.OrderCode
	if err := settled.MarkExpired(); err != nil {
		t.Fatalf("MarkExpired() error = %v", err)
	}

	mocks.payments.On("GetByOrderCode", mock.Anything, first.OrderCode).Return(first, nil).Once()
	mocks.payments.On("GetByOrderCode", mock.Anything, first.OrderCode).Return(settled, nil).Once()
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusPending).
		Return(domain.ErrStatusConflict).Once()

	got, err := service.ApplyGatewayEvent(context.Background(), &GatewayEvent{
		OrderCode: first.OrderCode,
		Status:    "PAID",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusExpired, got.Status)
	// The expiry writer won; no success notification goes out from this side
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_Success(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("Cancel", mock.Anything, payment.OrderCode, domain.CancelReasonUser).Return(nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	events.On("PaymentCancelled", mock.Anything, payment).Return(nil).Once()

	got, err := service.CancelPayment(context.Background(), "renter-1", payment.ID, "")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, got.Status)
	assert.Equal(t, domain.CancelReasonUser, got.CancelReason)
	assert.NotNil(t, got.CancelledAt)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_OwnerMayCancel(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("Cancel", mock.Anything, payment.OrderCode, "no longer renting").Return(nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)

	got, err := service.CancelPayment(context.Background(), "owner-1", payment.ID, "no longer renting")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, got.Status)
	assert.Equal(t, "no longer renting", got.CancelReason)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_StrangerDenied(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)

	got, err := service.CancelPayment(context.Background(), "stranger", payment.ID, "")

	assert.Nil(t, got)
	assert.Equal(t, domain.ErrPaymentAccessDenied, err)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_FinalizedIsNoOp(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	if err := payment.MarkSuccess("txn-99"); err != nil {
		t.Fatalf("MarkSuccess() error = %v", err)
	}
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)

	got, err := service.CancelPayment(context.Background(), "renter-1", payment.ID, "")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_GatewayFailureStillCancelsLocally(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("Cancel", mock.Anything, payment.OrderCode, domain.CancelReasonUser).
		Return(domain.NewGatewayError("cancel", "", true, errors.New("gateway timeout")))
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	events.On("PaymentCancelled", mock.Anything, payment).Return(nil).Once()

	got, err := service.CancelPayment(context.Background(), "renter-1", payment.ID, "")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, got.Status)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_TimeoutReasonExpires(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("Cancel", mock.Anything, payment.OrderCode, domain.CancelReasonTimeout).Return(nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	events.On("PaymentExpired", mock.Anything, payment).Return(nil).Once()

	got, err := service.CancelPayment(context.Background(), "renter-1", payment.ID, domain.CancelReasonTimeout)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusExpired, got.Status)
	assert.Equal(t, domain.CancelReasonTimeout, got.CancelReason)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_CancelPayment_LosesRaceToSuccess(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	won := testPendingPayment(t)
	won.ID = payment.ID
	won.OrderCode = payment.OrderCode
	if err := won.MarkSuccess("txn-99"); err != nil {
		t.Fatalf("MarkSuccess() error = %v", err)
	}

	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil).Once()
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("Cancel", mock.Anything, payment.OrderCode, domain.CancelReasonUser).Return(nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, mock.Anything, domain.PaymentStatusPending).
		Return(domain.ErrStatusConflict).Once()
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(won, nil).Once()

	got, err := service.CancelPayment(context.Background(), "renter-1", payment.ID, "")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	// The success writer already notified; the cancel side stays silent
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_RefreshPayment_AppliesSuccess(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	booking := testBooking()

	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("GetStatus", mock.Anything, payment.OrderCode).Return(&gateway.PaymentInfo{
		OrderCode:     payment.OrderCode,
		Status:        "PAID",
		Class:         gateway.StatusSuccess,
		Amount:        500000,
		AmountPaid:    500000,
		TransactionID: "txn-42",
	}, nil)
	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)
	mocks.bookings.On("UpdatePaymentOutcome", mock.Anything, booking).Return(nil)
	events.On("PaymentSucceeded", mock.Anything, payment).Return(nil).Once()

	got, err := service.RefreshPayment(context.Background(), "renter-1", payment.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	assert.Equal(t, "txn-42", got.GatewayTxnID)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_RefreshPayment_PollFailureReportsStored(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("GetStatus", mock.Anything, payment.OrderCode).
		Return(nil, domain.NewGatewayError("get_status", "", true, errors.New("gateway timeout")))

	got, err := service.RefreshPayment(context.Background(), "renter-1", payment.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_RefreshPayment_FinalizedSkipsPoll(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	if err := payment.MarkSuccess("txn-99"); err != nil {
		t.Fatalf("MarkSuccess() error = %v", err)
	}
	mocks.payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)

	got, err := service.RefreshPayment(context.Background(), "renter-1", payment.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_SweepExpiredPayments_ExpiresOverdue(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	payment.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	mocks.payments.On("ListExpiredPending", mock.Anything, mock.Anything, 100).
		Return([]*domain.Payment{payment}, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("GetStatus", mock.Anything, payment.OrderCode).Return(&gateway.PaymentInfo{
		OrderCode: payment.OrderCode,
		Status:    "PENDING",
		Class:     gateway.StatusPending,
		Amount:    500000,
	}, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	mocks.gateway.On("Cancel", mock.Anything, payment.OrderCode, domain.CancelReasonTimeout).Return(nil)
	events.On("PaymentExpired", mock.Anything, payment).Return(nil).Once()

	expired, err := service.SweepExpiredPayments(context.Background(), 100)

	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, domain.PaymentStatusExpired, payment.Status)
	assert.Equal(t, domain.CancelReasonTimeout, payment.CancelReason)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_SweepExpiredPayments_SuccessWins(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	payment.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	booking := testBooking()

	mocks.payments.On("ListExpiredPending", mock.Anything, mock.Anything, 100).
		Return([]*domain.Payment{payment}, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("GetStatus", mock.Anything, payment.OrderCode).Return(&gateway.PaymentInfo{
		OrderCode:     payment.OrderCode,
		Status:        "PAID",
		Class:         gateway.StatusSuccess,
		Amount:        500000,
		AmountPaid:    500000,
		TransactionID: "txn-7",
	}, nil)
	mocks.payments.On("GetByOrderCode", mock.Anything, payment.OrderCode).Return(payment, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	mocks.bookings.On("GetByID", mock.Anything, "booking-1").Return(booking, nil)
	mocks.bookings.On("UpdatePaymentOutcome", mock.Anything, booking).Return(nil)
	events.On("PaymentSucceeded", mock.Anything, payment).Return(nil).Once()

	expired, err := service.SweepExpiredPayments(context.Background(), 100)

	assert.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Equal(t, domain.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, domain.BookingPaymentPaid, booking.PaymentStatus)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_SweepExpiredPayments_TransientPollSkips(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	payment.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	mocks.payments.On("ListExpiredPending", mock.Anything, mock.Anything, 100).
		Return([]*domain.Payment{payment}, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("GetStatus", mock.Anything, payment.OrderCode).
		Return(nil, domain.NewGatewayError("get_status", "", true, errors.New("gateway timeout")))

	expired, err := service.SweepExpiredPayments(context.Background(), 100)

	assert.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	mocks.assertExpectations(t)
}

func TestPaymentService_SweepExpiredPayments_NoCredentialsExpiresLocally(t *testing.T) {
	events := new(MockNotifier)
	service, mocks := newTestPaymentService(events)

	payment := testPendingPayment(t)
	payment.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	mocks.payments.On("ListExpiredPending", mock.Anything, mock.Anything, 100).
		Return([]*domain.Payment{payment}, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").
		Return(domain.Credentials{}, domain.ErrConfigInactive)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).Return(nil)
	events.On("PaymentExpired", mock.Anything, payment).Return(nil).Once()

	expired, err := service.SweepExpiredPayments(context.Background(), 100)

	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, domain.PaymentStatusExpired, payment.Status)
	events.AssertExpectations(t)
	mocks.assertExpectations(t)
}

func TestPaymentService_SweepExpiredPayments_ConflictSkips(t *testing.T) {
	service, mocks := newTestPaymentService(nil)

	payment := testPendingPayment(t)
	payment.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	mocks.payments.On("ListExpiredPending", mock.Anything, mock.Anything, 100).
		Return([]*domain.Payment{payment}, nil)
	mocks.resolver.On("Resolve", mock.Anything, "owner-1").Return(testCreds, nil)
	mocks.gateway.On("GetStatus", mock.Anything, payment.OrderCode).Return(&gateway.PaymentInfo{
		OrderCode: payment.OrderCode,
		Status:    "PENDING",
		Class:     gateway.StatusPending,
	}, nil)
	mocks.payments.On("UpdateFromStatus", mock.Anything, payment, domain.PaymentStatusPending).
		Return(domain.ErrStatusConflict)

	expired, err := service.SweepExpiredPayments(context.Background(), 100)

	assert.NoError(t, err)
	assert.Equal(t, 0, expired)
	mocks.assertExpectations(t)
}
