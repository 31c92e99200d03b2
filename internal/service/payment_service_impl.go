package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
	"github.com/N4thh/homi-nah/internal/gateway"
	"github.com/N4thh/homi-nah/internal/metrics"
	"github.com/N4thh/homi-nah/internal/notifier"
	"github.com/N4thh/homi-nah/internal/repository"
	"github.com/N4thh/homi-nah/pkg/logger"
)

// applyAttempts bounds guarded status writes racing other writers: the
// losing side reloads and re-evaluates once before giving up.
const applyAttempts = 2

type paymentServiceImpl struct {
	payments  repository.PaymentRepository
	bookings  repository.BookingRepository
	validator *PaymentValidator
	resolver  CredentialResolver
	gateways  gateway.Factory
	notifier  notifier.Notifier
	config    *PaymentServiceConfig
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	validator *PaymentValidator,
	resolver CredentialResolver,
	gateways gateway.Factory,
	events notifier.Notifier,
	config *PaymentServiceConfig,
) PaymentService {
	if config == nil {
		config = DefaultPaymentServiceConfig()
	}
	if config.ExpiresIn <= 0 {
		config.ExpiresIn = 5 * time.Minute
	}
	if config.CodeRetries <= 0 {
		config.CodeRetries = 3
	}
	if events == nil {
		events = notifier.NewNoOpNotifier()
	}

	return &paymentServiceImpl{
		payments:  payments,
		bookings:  bookings,
		validator: validator,
		resolver:  resolver,
		gateways:  gateways,
		notifier:  events,
		config:    config,
	}
}

// CreatePayment starts checkout for a booking
func (s *paymentServiceImpl) CreatePayment(ctx context.Context, renterID string, req *dto.CreatePaymentRequest) (*domain.Payment, error) {
	booking, active, err := s.validator.ValidateForCreation(ctx, req.BookingID, renterID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAmount(booking, req.Amount); err != nil {
		return nil, err
	}

	creds, err := s.resolver.Resolve(ctx, booking.OwnerID)
	if err != nil {
		return nil, err
	}

	if active != nil {
		reusable, err := s.settleStalePayment(ctx, active)
		if err != nil {
			return nil, err
		}
		if reusable != nil {
			return reusable, nil
		}
	}

	payment, err := domain.NewPayment(booking.ID, booking.OwnerID, renterID, booking.TotalPrice,
		"Booking #"+booking.ID, s.config.ExpiresIn)
	if err != nil {
		return nil, err
	}
	if err := s.createWithFreshCodes(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrActivePaymentExists) {
			return s.reuseConcurrentPayment(ctx, booking.ID)
		}
		return nil, err
	}

	log := logger.Get()
	if err := s.notifier.PaymentCreated(ctx, payment); err != nil {
		log.Warn(fmt.Sprintf("Failed to publish payment created event: payment_id=%s, error=%v", payment.ID, err))
	}
	metrics.RecordPaymentCreated(ctx, payment.OwnerID, float64(payment.Amount))

	link, err := s.createGatewayLink(ctx, creds, payment, req)
	if err != nil {
		s.failLinkCreation(ctx, payment)
		return nil, err
	}

	from := payment.Status
	payment.SetGatewayInfo(link.PaymentLinkID, link.BIN, link.AccountNumber, link.AccountName)
	if err := payment.MarkPending(link.CheckoutURL, link.QRCode); err != nil {
		return nil, err
	}
	if err := s.payments.UpdateFromStatus(ctx, payment, from); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			// A webhook landed before the pending write; the stored row wins
			return s.payments.GetByID(ctx, payment.ID)
		}
		return nil, err
	}

	log.Info(fmt.Sprintf("Payment checkout created: payment_id=%s, order_code=%d, booking_id=%s",
		payment.ID, payment.OrderCode, payment.BookingID))
	return payment, nil
}

// settleStalePayment decides what to do with a booking's open payment.
// A live pending checkout is reused; anything else is finalized so a
// fresh payment can replace it. Returns the payment to reuse, if any.
func (s *paymentServiceImpl) settleStalePayment(ctx context.Context, active *domain.Payment) (*domain.Payment, error) {
	if active.Status == domain.PaymentStatusPending && active.CheckoutURL != "" && !active.IsExpired() {
		return active, nil
	}

	if active.IsExpired() {
		if err := s.expireLocally(ctx, active); err != nil && !errors.Is(err, domain.ErrStatusConflict) {
			return nil, err
		}
		return nil, nil
	}

	// A row still without a checkout link is a concurrent attempt that
	// has not finished gateway link creation. Tell the caller to retry;
	// an attempt that died is replaced once its window passes.
	return nil, domain.ErrActivePaymentExists
}

// reuseConcurrentPayment resolves an insert that lost to a concurrent
// checkout for the same booking. The winner's checkout is returned once
// it is ready; before that the caller gets a conflict and must retry.
func (s *paymentServiceImpl) reuseConcurrentPayment(ctx context.Context, bookingID string) (*domain.Payment, error) {
	current, err := s.payments.GetActiveByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			// The winner finalized in the gap; a retry starts clean
			return nil, domain.ErrActivePaymentExists
		}
		return nil, err
	}
	if current.Status == domain.PaymentStatusPending && current.CheckoutURL != "" && !current.IsExpired() {
		return current, nil
	}
	return nil, domain.ErrActivePaymentExists
}

// createWithFreshCodes inserts the payment, regenerating codes on
// unique-index collisions
func (s *paymentServiceImpl) createWithFreshCodes(ctx context.Context, payment *domain.Payment) error {
	err := s.payments.Create(ctx, payment)
	for attempt := 0; attempt < s.config.CodeRetries; attempt++ {
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrDuplicateOrderCode):
			payment.OrderCode = domain.NewOrderCode()
		case errors.Is(err, domain.ErrDuplicatePaymentCode):
			payment.PaymentCode = domain.NewPaymentCode()
		default:
			return err
		}
		err = s.payments.Create(ctx, payment)
	}
	return err
}

func (s *paymentServiceImpl) createGatewayLink(ctx context.Context, creds domain.Credentials, payment *domain.Payment, req *dto.CreatePaymentRequest) (*gateway.PaymentLink, error) {
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.config.ReturnURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.config.CancelURL
	}

	return s.gateways.New(creds).CreateLink(ctx, &gateway.CreateLinkRequest{
		OrderCode:   payment.OrderCode,
		Amount:      payment.Amount,
		Description: payment.Description,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		Items:       []gateway.Item{gateway.NewItem(payment.Description, 1, payment.Amount)},
	})
}

// failLinkCreation finalizes a payment whose gateway link could not be
// created. The booking stays untouched so the renter can retry.
func (s *paymentServiceImpl) failLinkCreation(ctx context.Context, payment *domain.Payment) {
	log := logger.Get()
	from := payment.Status
	if err := payment.MarkFailed(domain.FailureReasonLinkCreation); err != nil {
		log.Warn(fmt.Sprintf("Could not finalize payment after link failure: payment_id=%s, error=%v", payment.ID, err))
		return
	}
	if err := s.payments.UpdateFromStatus(ctx, payment, from); err != nil {
		log.Warn(fmt.Sprintf("Could not persist link creation failure: payment_id=%s, error=%v", payment.ID, err))
		return
	}
	s.notifyFailed(ctx, payment)
}

// GetPayment retrieves a payment visible to the user
func (s *paymentServiceImpl) GetPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.CanBeViewedBy(userID) {
		return nil, domain.ErrPaymentAccessDenied
	}
	return payment, nil
}

// GetPaymentByOrderCode retrieves a payment by its gateway order code
func (s *paymentServiceImpl) GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*domain.Payment, error) {
	return s.payments.GetByOrderCode(ctx, orderCode)
}

// ListPayments retrieves the user's payments, newest first
func (s *paymentServiceImpl) ListPayments(ctx context.Context, filter *dto.PaymentListFilter) ([]*domain.Payment, int64, error) {
	filter.SetDefaults()

	repoFilter := repository.ListFilter{
		Limit:  filter.PerPage,
		Offset: filter.Offset(),
	}
	switch filter.Role {
	case "renter":
		repoFilter.RenterID = filter.UserID
	case "owner":
		repoFilter.OwnerID = filter.UserID
	default:
		return nil, 0, domain.ErrPaymentAccessDenied
	}

	if filter.Status != "" {
		status := domain.PaymentStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, domain.ErrInvalidPaymentStatus
		}
		repoFilter.Status = status
	}

	return s.payments.List(ctx, repoFilter)
}

// RefreshPayment polls the gateway for the payment's current status.
// A failed poll reports the stored state; it never fails the payment.
func (s *paymentServiceImpl) RefreshPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsFinal() {
		return payment, nil
	}

	log := logger.Get()
	creds, err := s.resolver.Resolve(ctx, payment.OwnerID)
	if err != nil {
		log.Warn(fmt.Sprintf("Refresh could not resolve credentials: payment_id=%s, owner_id=%s, error=%v",
			payment.ID, payment.OwnerID, err))
		return payment, nil
	}

	info, err := s.gateways.New(creds).GetStatus(ctx, payment.OrderCode)
	if err != nil {
		log.Warn(fmt.Sprintf("Refresh status poll failed: payment_id=%s, order_code=%d, error=%v",
			payment.ID, payment.OrderCode, err))
		return payment, nil
	}

	return s.ApplyGatewayEvent(ctx, &GatewayEvent{
		OrderCode:     payment.OrderCode,
		Status:        info.Status,
		TransactionID: info.TransactionID,
		Amount:        info.Amount,
	})
}

// CancelPayment cancels an active payment on behalf of its renter or
// owner. Cancelling a finalized payment returns the current state.
func (s *paymentServiceImpl) CancelPayment(ctx context.Context, userID, paymentID, reason string) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsFinal() {
		return payment, nil
	}

	s.cancelAtGateway(ctx, payment, reason)

	for attempt := 0; attempt < applyAttempts; attempt++ {
		if payment.IsFinal() {
			return payment, nil
		}

		from := payment.Status
		if reason == domain.CancelReasonTimeout {
			err = payment.MarkExpired()
		} else {
			err = payment.MarkCancelled(reason)
		}
		if err != nil {
			return nil, err
		}

		if err = s.payments.UpdateFromStatus(ctx, payment, from); err == nil {
			s.notifyCancellation(ctx, payment)
			logger.Get().Info(fmt.Sprintf("Payment cancelled: payment_id=%s, order_code=%d, reason=%s",
				payment.ID, payment.OrderCode, payment.CancelReason))
			return payment, nil
		}
		if !errors.Is(err, domain.ErrStatusConflict) {
			return nil, err
		}

		if payment, err = s.payments.GetByID(ctx, paymentID); err != nil {
			return nil, err
		}
	}
	return nil, domain.ErrStatusConflict
}

// cancelAtGateway asks the provider to void the link. Failures only log;
// the local record is the source of truth.
func (s *paymentServiceImpl) cancelAtGateway(ctx context.Context, payment *domain.Payment, reason string) {
	log := logger.Get()
	creds, err := s.resolver.Resolve(ctx, payment.OwnerID)
	if err != nil {
		log.Warn(fmt.Sprintf("Cancel could not resolve credentials: payment_id=%s, owner_id=%s, error=%v",
			payment.ID, payment.OwnerID, err))
		return
	}

	if reason == "" {
		reason = domain.CancelReasonUser
	}
	if err := s.gateways.New(creds).Cancel(ctx, payment.OrderCode, reason); err != nil {
		log.Warn(fmt.Sprintf("Gateway cancel failed: payment_id=%s, order_code=%d, error=%v",
			payment.ID, payment.OrderCode, err))
	}
}

// ApplyGatewayEvent applies a provider-reported status change. Terminal
// payments absorb the event and return unchanged, which is what makes
// webhook replay and the cancel/success race safe.
func (s *paymentServiceImpl) ApplyGatewayEvent(ctx context.Context, event *GatewayEvent) (*domain.Payment, error) {
	log := logger.Get()
	class := gateway.ClassifyStatus(event.Status)

	for attempt := 0; attempt < applyAttempts; attempt++ {
		payment, err := s.payments.GetByOrderCode(ctx, event.OrderCode)
		if err != nil {
			return nil, err
		}

		if payment.IsFinal() {
			if class == gateway.StatusSuccess && !payment.IsSuccessful() {
				log.Warn(fmt.Sprintf("Gateway reports success for a finalized payment: order_code=%d, local_status=%s, gateway_status=%s",
					event.OrderCode, payment.Status, event.Status))
				metrics.RecordReconciliationDivergence(ctx, "late_success")
			}
			return payment, nil
		}

		switch class {
		case gateway.StatusSuccess:
			if event.Amount > 0 && event.Amount != payment.Amount {
				log.Warn(fmt.Sprintf("Gateway amount disagrees with payment: order_code=%d, payment_amount=%d, gateway_amount=%d",
					event.OrderCode, payment.Amount, event.Amount))
				metrics.RecordReconciliationDivergence(ctx, "amount_mismatch")
			}

			from := payment.Status
			if err := payment.MarkSuccess(event.TransactionID); err != nil {
				return nil, err
			}
			if err := s.payments.UpdateFromStatus(ctx, payment, from); err != nil {
				if errors.Is(err, domain.ErrStatusConflict) {
					continue
				}
				return nil, err
			}

			s.settleBooking(ctx, payment, true)
			if err := s.notifier.PaymentSucceeded(ctx, payment); err != nil {
				log.Warn(fmt.Sprintf("Failed to publish payment success event: payment_id=%s, error=%v", payment.ID, err))
			}
			metrics.RecordPaymentSucceeded(ctx, payment.OwnerID)
			log.Info(fmt.Sprintf("Payment confirmed: payment_id=%s, order_code=%d, transaction_id=%s",
				payment.ID, payment.OrderCode, payment.GatewayTxnID))
			return payment, nil

		case gateway.StatusFailed:
			from := payment.Status
			if err := payment.MarkFailed(failureReasonFromStatus(event.Status)); err != nil {
				return nil, err
			}
			if err := s.payments.UpdateFromStatus(ctx, payment, from); err != nil {
				if errors.Is(err, domain.ErrStatusConflict) {
					continue
				}
				return nil, err
			}

			s.settleBooking(ctx, payment, false)
			s.notifyFailed(ctx, payment)
			log.Info(fmt.Sprintf("Payment failed by gateway: payment_id=%s, order_code=%d, gateway_status=%s",
				payment.ID, payment.OrderCode, event.Status))
			return payment, nil

		case gateway.StatusPending:
			return payment, nil

		default:
			log.Warn(fmt.Sprintf("Unknown gateway status left payment untouched: order_code=%d, gateway_status=%q",
				event.OrderCode, event.Status))
			return payment, nil
		}
	}
	return nil, domain.ErrStatusConflict
}

// SweepExpiredPayments finalizes pending payments whose window has passed
func (s *paymentServiceImpl) SweepExpiredPayments(ctx context.Context, limit int) (int, error) {
	overdue, err := s.payments.ListExpiredPending(ctx, time.Now().UTC(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, payment := range overdue {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		if s.expireOverdue(ctx, payment) {
			expired++
		}
	}
	return expired, nil
}

// expireOverdue finalizes one overdue payment, checking the gateway one
// last time. A success report wins over expiry.
func (s *paymentServiceImpl) expireOverdue(ctx context.Context, payment *domain.Payment) bool {
	log := logger.Get()

	creds, err := s.resolver.Resolve(ctx, payment.OwnerID)
	if err != nil {
		// Without usable credentials no webhook could have been verified
		// either; expire on the local clock alone.
		log.Warn(fmt.Sprintf("Sweep could not resolve credentials: payment_id=%s, owner_id=%s, error=%v",
			payment.ID, payment.OwnerID, err))
		return s.finalizeExpiry(ctx, payment, nil)
	}

	gw := s.gateways.New(creds)
	info, err := gw.GetStatus(ctx, payment.OrderCode)
	if err != nil {
		if domain.IsGatewayTransient(err) {
			// Status unknown is not permission to cancel; retry next sweep
			log.Warn(fmt.Sprintf("Sweep status poll failed, skipping: payment_id=%s, order_code=%d, error=%v",
				payment.ID, payment.OrderCode, err))
			return false
		}
		log.Warn(fmt.Sprintf("Sweep status poll rejected: payment_id=%s, order_code=%d, error=%v",
			payment.ID, payment.OrderCode, err))
		return s.finalizeExpiry(ctx, payment, gw)
	}

	if info.Class == gateway.StatusSuccess {
		if _, err := s.ApplyGatewayEvent(ctx, &GatewayEvent{
			OrderCode:     payment.OrderCode,
			Status:        info.Status,
			TransactionID: info.TransactionID,
			Amount:        info.Amount,
		}); err != nil {
			log.Warn(fmt.Sprintf("Sweep could not apply gateway success: payment_id=%s, order_code=%d, error=%v",
				payment.ID, payment.OrderCode, err))
		}
		return false
	}

	return s.finalizeExpiry(ctx, payment, gw)
}

// finalizeExpiry expires the payment locally and, after winning the
// guarded write, voids the gateway link best-effort
func (s *paymentServiceImpl) finalizeExpiry(ctx context.Context, payment *domain.Payment, gw gateway.Gateway) bool {
	log := logger.Get()
	if err := s.expireLocally(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			// Another writer finalized the payment first
			return false
		}
		log.Warn(fmt.Sprintf("Sweep could not expire payment: payment_id=%s, error=%v", payment.ID, err))
		return false
	}

	if gw != nil {
		if err := gw.Cancel(ctx, payment.OrderCode, domain.CancelReasonTimeout); err != nil {
			log.Warn(fmt.Sprintf("Gateway cancel failed during sweep: payment_id=%s, order_code=%d, error=%v",
				payment.ID, payment.OrderCode, err))
		}
	}

	log.Info(fmt.Sprintf("Payment expired by sweep: payment_id=%s, order_code=%d, booking_id=%s",
		payment.ID, payment.OrderCode, payment.BookingID))
	return true
}

// expireLocally finalizes a payment whose window passed, guarded by the
// status the caller loaded
func (s *paymentServiceImpl) expireLocally(ctx context.Context, payment *domain.Payment) error {
	from := payment.Status
	if err := payment.MarkExpired(); err != nil {
		return err
	}
	if err := s.payments.UpdateFromStatus(ctx, payment, from); err != nil {
		return err
	}

	if err := s.notifier.PaymentExpired(ctx, payment); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to publish payment expired event: payment_id=%s, error=%v", payment.ID, err))
	}
	metrics.RecordPaymentExpired(ctx, payment.OwnerID)
	return nil
}

// settleBooking flips the booking's payment fields after a settlement.
// Failures only log; the payment row is the source of truth.
func (s *paymentServiceImpl) settleBooking(ctx context.Context, payment *domain.Payment, paid bool) {
	log := logger.Get()
	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		log.Warn(fmt.Sprintf("Failed to load booking for settlement: booking_id=%s, payment_id=%s, error=%v",
			payment.BookingID, payment.ID, err))
		return
	}

	if paid {
		paidAt := time.Now().UTC()
		if payment.PaidAt != nil {
			paidAt = *payment.PaidAt
		}
		err = booking.MarkPaid(paidAt)
	} else {
		err = booking.MarkPaymentFailed()
	}
	if err != nil {
		log.Warn(fmt.Sprintf("Booking rejected settlement: booking_id=%s, payment_id=%s, error=%v",
			payment.BookingID, payment.ID, err))
		return
	}

	if err := s.bookings.UpdatePaymentOutcome(ctx, booking); err != nil {
		log.Warn(fmt.Sprintf("Failed to persist booking settlement: booking_id=%s, payment_id=%s, error=%v",
			payment.BookingID, payment.ID, err))
	}
}

func (s *paymentServiceImpl) notifyFailed(ctx context.Context, payment *domain.Payment) {
	if err := s.notifier.PaymentFailed(ctx, payment); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to publish payment failed event: payment_id=%s, error=%v", payment.ID, err))
	}
	metrics.RecordPaymentFailed(ctx, payment.OwnerID, payment.FailureReason)
}

func (s *paymentServiceImpl) notifyCancellation(ctx context.Context, payment *domain.Payment) {
	log := logger.Get()
	if payment.Status == domain.PaymentStatusExpired {
		if err := s.notifier.PaymentExpired(ctx, payment); err != nil {
			log.Warn(fmt.Sprintf("Failed to publish payment expired event: payment_id=%s, error=%v", payment.ID, err))
		}
		metrics.RecordPaymentExpired(ctx, payment.OwnerID)
		return
	}

	if err := s.notifier.PaymentCancelled(ctx, payment); err != nil {
		log.Warn(fmt.Sprintf("Failed to publish payment cancelled event: payment_id=%s, error=%v", payment.ID, err))
	}
	metrics.RecordPaymentCancelled(ctx, payment.OwnerID, payment.CancelReason)
}

// failureReasonFromStatus records the provider's verdict on the payment
func failureReasonFromStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "gateway_reported_failure"
	}
	return status
}
