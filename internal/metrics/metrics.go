package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/N4thh/homi-nah/pkg/telemetry"
)

var (
	// Payment lifecycle counters
	PaymentsCreated   *telemetry.Counter
	PaymentsSucceeded *telemetry.Counter
	PaymentsFailed    *telemetry.Counter
	PaymentsCancelled *telemetry.Counter
	PaymentsExpired   *telemetry.Counter

	// Webhook counters
	WebhooksReceived  *telemetry.Counter
	WebhooksProcessed *telemetry.Counter
	WebhooksRejected  *telemetry.Counter

	// ReconciliationDivergence counts events where the gateway's ledger and
	// the local record disagree (success reported after a local terminal
	// state, or a webhook amount that does not match the stored amount).
	ReconciliationDivergence *telemetry.Counter

	RateLimitRejections *telemetry.Counter

	// Histograms
	PaymentAmount         *telemetry.Histogram
	WebhookProcessingTime *telemetry.Histogram
	SweepDuration         *telemetry.Histogram

	// Gauges
	PendingPayments *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all payment metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	PaymentsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_created_total",
		Description: "Total number of payments created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsSucceeded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_success_total",
		Description: "Total number of successful payments",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_failed_total",
		Description: "Total number of failed payments",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_cancelled_total",
		Description: "Total number of cancelled payments",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_expired_total",
		Description: "Total number of expired payments",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksReceived, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_webhooks_received_total",
		Description: "Total number of webhooks received",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksProcessed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_webhooks_processed_total",
		Description: "Total number of webhooks successfully processed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_webhooks_rejected_total",
		Description: "Total number of webhooks rejected before processing",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReconciliationDivergence, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_reconciliation_divergence_total",
		Description: "Events where gateway and local payment state disagree",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RateLimitRejections, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_rate_limit_rejected_total",
		Description: "Requests rejected by the rate limiter",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentAmount, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "payment_amount",
		Description: "Payment amounts distribution",
		Unit:        "VND",
	}, []float64{10_000, 50_000, 100_000, 250_000, 500_000, 1_000_000, 2_500_000, 5_000_000, 10_000_000, 50_000_000})
	if err != nil {
		return err
	}

	WebhookProcessingTime, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "payment_webhook_processing_seconds",
		Description: "Webhook processing duration",
		Unit:        "s",
	}, []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
	if err != nil {
		return err
	}

	SweepDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "payment_expiry_sweep_seconds",
		Description: "Duration of expiry sweeper runs",
		Unit:        "s",
	}, []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30})
	if err != nil {
		return err
	}

	PendingPayments, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "payment_pending",
		Description: "Current number of pending payments",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordPaymentCreated records a payment creation metric
func RecordPaymentCreated(ctx context.Context, ownerID string, amount float64) {
	if PaymentsCreated != nil {
		PaymentsCreated.Inc(ctx,
			attribute.String("owner_id", ownerID),
		)
	}
	if PaymentAmount != nil {
		PaymentAmount.Record(ctx, amount)
	}
	if PendingPayments != nil {
		PendingPayments.Inc(ctx)
	}
}

// RecordPaymentSucceeded records a successful payment metric
func RecordPaymentSucceeded(ctx context.Context, ownerID string) {
	if PaymentsSucceeded != nil {
		PaymentsSucceeded.Inc(ctx,
			attribute.String("owner_id", ownerID),
		)
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordPaymentFailed records a payment failure metric
func RecordPaymentFailed(ctx context.Context, ownerID, reason string) {
	if PaymentsFailed != nil {
		PaymentsFailed.Inc(ctx,
			attribute.String("owner_id", ownerID),
			attribute.String("reason", reason),
		)
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordPaymentCancelled records a payment cancellation metric
func RecordPaymentCancelled(ctx context.Context, ownerID, reason string) {
	if PaymentsCancelled != nil {
		PaymentsCancelled.Inc(ctx,
			attribute.String("owner_id", ownerID),
			attribute.String("reason", reason),
		)
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordPaymentExpired records a payment expiry metric
func RecordPaymentExpired(ctx context.Context, ownerID string) {
	if PaymentsExpired != nil {
		PaymentsExpired.Inc(ctx,
			attribute.String("owner_id", ownerID),
		)
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordWebhookReceived records a webhook receipt metric
func RecordWebhookReceived(ctx context.Context) {
	if WebhooksReceived != nil {
		WebhooksReceived.Inc(ctx)
	}
}

// RecordWebhookProcessed records a successful webhook processing metric
func RecordWebhookProcessed(ctx context.Context, status string, durationSeconds float64) {
	if WebhooksProcessed != nil {
		WebhooksProcessed.Inc(ctx,
			attribute.String("status", status),
		)
	}
	if WebhookProcessingTime != nil {
		WebhookProcessingTime.Record(ctx, durationSeconds)
	}
}

// RecordWebhookRejected records a webhook rejection metric
func RecordWebhookRejected(ctx context.Context, reason string) {
	if WebhooksRejected != nil {
		WebhooksRejected.Inc(ctx,
			attribute.String("reason", reason),
		)
	}
}

// RecordReconciliationDivergence records a gateway/local state disagreement
func RecordReconciliationDivergence(ctx context.Context, reason string) {
	if ReconciliationDivergence != nil {
		ReconciliationDivergence.Inc(ctx,
			attribute.String("reason", reason),
		)
	}
}

// RecordRateLimitRejected records a rate limiter rejection
func RecordRateLimitRejected(ctx context.Context, tier string) {
	if RateLimitRejections != nil {
		RateLimitRejections.Inc(ctx,
			attribute.String("tier", tier),
		)
	}
}

// RecordSweepDuration records an expiry sweep run
func RecordSweepDuration(ctx context.Context, durationSeconds float64, expired int) {
	if SweepDuration != nil {
		SweepDuration.Record(ctx, durationSeconds,
			attribute.Int("expired", expired),
		)
	}
}
