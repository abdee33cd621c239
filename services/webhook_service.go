package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"webhook-service/logger"
	"webhook-service/models"
	aws_pkg "webhook-service/pkg/aws"
	"webhook-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cancellation reasons carried on transition events.
const (
	reasonFieldMismatch = "field_mismatch"
	reasonInvalidData   = "invalid_data"
	reasonMissingFields = "missing_fields"
)

// PaymentWebhookService defines the webhook pipeline and the status query.
type PaymentWebhookService interface {
	// HandleWebhook authenticates, decodes and reconciles one webhook, then
	// confirms or cancels the payment. On success it returns the transaction id.
	HandleWebhook(ctx context.Context, token string, body []byte) (string, *ServiceError)
	// PaymentStatus reports which set holds transactionID.
	PaymentStatus(ctx context.Context, transactionID string) (string, *ServiceError)
}

type webhookServiceImpl struct {
	token      string
	repo       repository.PaymentRepository
	settlement SettlementNotifier
	events     EventPublisher
	metrics    MetricsRecorder
	logger     *zap.Logger
}

// NewWebhookService creates the webhook pipeline. token is the shared secret
// expected in X-Webhook-Token. events and metrics may be nil.
func NewWebhookService(
	token string,
	repo repository.PaymentRepository,
	settlement SettlementNotifier,
	events EventPublisher,
	metrics MetricsRecorder,
	logger *zap.Logger,
) PaymentWebhookService {
	return &webhookServiceImpl{
		token:      token,
		repo:       repo,
		settlement: settlement,
		events:     events,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, token string, body []byte) (string, *ServiceError) {
	log := s.log(ctx)

	if !Authenticate(token, s.token) {
		log.Warn("Webhook rejected", zap.Error(ErrUnauthorized))
		s.recordCount(aws_pkg.MetricWebhookRejected, "unauthorized")
		return "", &ServiceError{StatusCode: http.StatusBadRequest, Message: MsgUnauthorized, Err: ErrUnauthorized}
	}

	payload, err := DecodeFull(body)
	if err != nil {
		return "", s.handleMalformed(ctx, body, err)
	}

	pending, err := s.repo.FindPending(ctx, payload.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			log.Warn("No pending payment for webhook", zap.String("transaction_id", payload.TransactionID))
			s.recordCount(aws_pkg.MetricWebhookRejected, "lookup_miss")
			return "", &ServiceError{StatusCode: http.StatusBadRequest, Message: MsgPaymentMismatch, Err: err}
		}
		log.Error("Pending payment lookup failed", zap.String("transaction_id", payload.TransactionID), zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: MsgInternal, Err: err}
	}

	if err := ValidatePayment(pending.PaymentRecord, payload); err != nil {
		return "", s.handleMismatch(ctx, body, &pending.PaymentRecord, err)
	}

	return s.confirm(ctx, &pending.PaymentRecord)
}

func (s *webhookServiceImpl) PaymentStatus(ctx context.Context, transactionID string) (string, *ServiceError) {
	status, err := s.repo.Status(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return "", &ServiceError{StatusCode: http.StatusNotFound, Message: MsgNotFound, Err: err}
		}
		s.log(ctx).Error("Payment status lookup failed", zap.String("transaction_id", transactionID), zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: MsgInternal, Err: err}
	}
	return status, nil
}

// confirm notifies settlement first and only then moves the record. A failed
// call leaves the payment pending.
func (s *webhookServiceImpl) confirm(ctx context.Context, rec *models.PaymentRecord) (string, *ServiceError) {
	log := s.log(ctx).With(zap.String("transaction_id", rec.TransactionID))

	if err := s.settlement.Confirm(ctx, rec.TransactionID); err != nil {
		log.Error("Settlement confirm failed, payment left pending", zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusBadRequest, Message: MsgProcessingError, Err: err}
	}

	if err := s.repo.MoveToConfirmed(ctx, rec.TransactionID); err != nil {
		var me *repository.MoveError
		if errors.As(err, &me) && me.Kind == repository.MoveNotFound {
			log.Warn("Pending payment vanished before confirm", zap.Error(err))
			return "", &ServiceError{StatusCode: http.StatusNotFound, Message: MsgNotFound, Err: err}
		}
		log.Error("Failed to move payment to confirmed", zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: MsgInternal, Err: err}
	}

	log.Info("Payment confirmed")
	s.publishTransition(ctx, models.DestinationConfirmed, rec.TransactionID, rec, "")
	s.recordCount(aws_pkg.MetricWebhookConfirmed, "")
	s.recordAmount(rec)
	return rec.TransactionID, nil
}

// handleMismatch cancels a payment whose claim disagrees with the stored record.
func (s *webhookServiceImpl) handleMismatch(ctx context.Context, body []byte, stored *models.PaymentRecord, cause error) *ServiceError {
	log := s.log(ctx).With(zap.String("transaction_id", stored.TransactionID))

	reason := reasonFieldMismatch
	var ve *ValidationError
	if errors.As(cause, &ve) {
		if ve.Kind == InvalidData {
			reason = reasonInvalidData
		}
		log.Warn("Webhook does not match pending payment",
			zap.String("field", ve.Field),
			zap.String("stored", ve.Stored),
			zap.String("claimed", ve.Claimed),
		)
	}

	id, err := DecodeTransactionID(body)
	if err != nil {
		return s.handleMalformed(ctx, body, err)
	}

	if se := s.cancel(ctx, id, stored, reason); se != nil {
		return se
	}
	return &ServiceError{
		StatusCode: http.StatusBadRequest,
		Message:    MsgPaymentMismatch,
		Status:     models.StatusCancelled,
		Err:        cause,
	}
}

// handleMalformed cancels by transaction id alone when the body could not be
// fully decoded. Without an id nothing can be cancelled.
func (s *webhookServiceImpl) handleMalformed(ctx context.Context, body []byte, cause error) *ServiceError {
	log := s.log(ctx)

	id, err := DecodeTransactionID(body)
	if err != nil {
		log.Warn("Unrecoverable webhook payload", zap.Error(cause))
		s.recordCount(aws_pkg.MetricWebhookRejected, "invalid_payload")
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: MsgInvalidPayload, Err: cause}
	}

	log.Warn("Webhook payload incomplete, cancelling",
		zap.String("transaction_id", id),
		zap.Error(cause),
	)
	if se := s.cancel(ctx, id, nil, reasonMissingFields); se != nil {
		return se
	}
	return &ServiceError{
		StatusCode: http.StatusBadRequest,
		Message:    MsgMissingFields,
		Status:     models.StatusCancelled,
		Err:        cause,
	}
}

// cancel notifies settlement and then moves the record to cancelled. rec may
// be nil when the stored record was never read.
func (s *webhookServiceImpl) cancel(ctx context.Context, id string, rec *models.PaymentRecord, reason string) *ServiceError {
	log := s.log(ctx).With(zap.String("transaction_id", id), zap.String("reason", reason))

	if err := s.settlement.Cancel(ctx, id); err != nil {
		log.Error("Settlement cancel failed, payment left pending", zap.Error(err))
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: MsgProcessingError, Err: err}
	}

	if err := s.repo.MoveToCancelled(ctx, id); err != nil {
		log.Error("Failed to move payment to cancelled", zap.Error(err))
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: MsgProcessingError, Err: err}
	}

	log.Info("Payment cancelled")
	s.publishTransition(ctx, models.DestinationCancelled, id, rec, reason)
	s.recordCount(aws_pkg.MetricWebhookCancelled, reason)
	return nil
}

// publishTransition is non-fatal: the move has already committed.
func (s *webhookServiceImpl) publishTransition(ctx context.Context, dest models.Destination, id string, rec *models.PaymentRecord, reason string) {
	if s.events == nil {
		return
	}
	event := models.TransitionEvent{
		EventID:       uuid.NewString(),
		Type:          models.EventTypeFor(dest),
		TransactionID: id,
		Reason:        reason,
		Timestamp:     time.Now().UTC(),
	}
	if rec != nil {
		event.Amount = rec.Amount
		event.Currency = rec.Currency
	}
	if err := s.events.PublishTransition(ctx, event); err != nil {
		s.log(ctx).Error("Failed to publish transition event",
			zap.String("event_type", event.Type),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
		return
	}
	s.log(ctx).Debug("Transition event published", zap.String("event_type", event.Type), zap.String("transaction_id", id))
}

func (s *webhookServiceImpl) recordCount(metric, reason string) {
	if s.metrics == nil {
		return
	}
	dims := map[string]string{"Service": "webhook-service"}
	if reason != "" {
		dims["Reason"] = reason
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, metric, dims)
	}()
}

// recordAmount reports the settled amount. Amounts that do not parse as a
// decimal are skipped; they were already accepted by exact-string match.
func (s *webhookServiceImpl) recordAmount(rec *models.PaymentRecord) {
	if s.metrics == nil {
		return
	}
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return
	}
	value, _ := amount.Float64()
	dims := map[string]string{"Service": "webhook-service", "Currency": rec.Currency}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordValue(ctx, aws_pkg.MetricSettledAmount, value, dims)
	}()
}

func (s *webhookServiceImpl) log(ctx context.Context) *zap.Logger {
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		return s.logger.With(zap.String("request_id", rid))
	}
	return s.logger
}
