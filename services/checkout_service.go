package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"checkout-service/apperrors"
	"checkout-service/events"
	"checkout-service/models"
	aws_pkg "checkout-service/pkg/aws"
	"checkout-service/pricing"
	"checkout-service/providers"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorPolicy selects how much processor error detail reaches the client.
type ErrorPolicy string

const (
	// ErrorPolicyLegacy answers 500 for every failure. Create hides the
	// cause, capture echoes the processor's message.
	ErrorPolicyLegacy ErrorPolicy = "legacy"
	// ErrorPolicyUniform relays processor rejections with their status and
	// reports an unreachable processor as 502.
	ErrorPolicyUniform ErrorPolicy = "uniform"
)

// ParseErrorPolicy validates a configured policy name.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(s); p {
	case ErrorPolicyLegacy, ErrorPolicyUniform:
		return p, nil
	}
	return "", fmt.Errorf("invalid error policy %q (want %q or %q)", s, ErrorPolicyLegacy, ErrorPolicyUniform)
}

const (
	msgCreateFailed         = "Failed to create order."
	msgCaptureFailed        = "Failed to capture order."
	msgProcessorUnavailable = "Payment processor unavailable."
	msgInProgress           = "A request with this idempotency key is already in progress."
	msgKeyReused            = "Idempotency key was already used for a different request."

	// MaxIdempotencyKeyLength bounds client-supplied keys.
	MaxIdempotencyKeyLength = 128
)

// Client-facing error codes.
const (
	CodeProcessorUnavailable = "PROCESSOR_UNAVAILABLE"
	CodeInternal             = "INTERNAL"
	CodeValidation           = "VALIDATION_ERROR"
	CodeIdempotencyBusy      = "IDEMPOTENCY_IN_PROGRESS"
	CodeIdempotencyReused    = "IDEMPOTENCY_KEY_REUSED"
	CodeNotFound             = "NOT_FOUND"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
	Code       string // empty when the active policy hides it
}

func (e *ServiceError) Error() string { return e.Message }

// ProcessorResult is the processor reply relayed to the storefront.
type ProcessorResult struct {
	StatusCode int
	Body       json.RawMessage
	Replayed   bool
}

// CheckoutService defines the business logic interface.
type CheckoutService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey string) (*ProcessorResult, *ServiceError)
	CaptureOrder(ctx context.Context, orderID, idempotencyKey string) (*ProcessorResult, *ServiceError)
	ListTransactions(ctx context.Context, orderID string) ([]models.TransactionRecord, *ServiceError)
}

// MetricsRecorder is satisfied by *aws_pkg.MetricsClient.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// Dependencies wires a CheckoutService. Idempotency, Ledger, Publisher and
// Metrics are optional; leave them nil to disable the feature.
type Dependencies struct {
	Processor   providers.PaymentProcessor
	Pricer      pricing.Pricer
	Builder     *OrderBuilder
	Idempotency repository.IdempotencyStore
	Ledger      repository.TransactionRepository
	Publisher   events.Publisher
	Metrics     MetricsRecorder
	Policy      ErrorPolicy
	Logger      *zap.Logger

	// SideEffectTimeout bounds idempotency, ledger, event and metric writes
	// made after the processor answers. Defaults to DefaultSideEffectTimeout.
	SideEffectTimeout time.Duration
}

// DefaultSideEffectTimeout is the shared deadline for post-call bookkeeping.
const DefaultSideEffectTimeout = 2 * time.Second

type checkoutServiceImpl struct {
	processor   providers.PaymentProcessor
	pricer      pricing.Pricer
	builder     *OrderBuilder
	idempotency repository.IdempotencyStore
	ledger      repository.TransactionRepository
	publisher   events.Publisher
	metrics     MetricsRecorder
	policy      ErrorPolicy
	logger      *zap.Logger

	sideEffectTimeout time.Duration
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(deps Dependencies) CheckoutService {
	s := &checkoutServiceImpl{
		processor:   deps.Processor,
		pricer:      deps.Pricer,
		builder:     deps.Builder,
		idempotency: deps.Idempotency,
		ledger:      deps.Ledger,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		policy:      deps.Policy,
		logger:      deps.Logger,

		sideEffectTimeout: deps.SideEffectTimeout,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.policy == "" {
		s.policy = ErrorPolicyLegacy
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.sideEffectTimeout <= 0 {
		s.sideEffectTimeout = DefaultSideEffectTimeout
	}
	return s
}

// CreateOrder prices the cart, builds the payload for the requested contact
// preference and submits it to the processor.
func (s *checkoutServiceImpl) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, idempotencyKey string) (*ProcessorResult, *ServiceError) {
	if req == nil {
		return nil, validationError("Request body is required.")
	}
	pref, err := models.ParseContactPreference(req.Pref)
	if err != nil {
		return nil, validationError("Invalid contact preference: " + err.Error())
	}

	quote, err := s.pricer.Quote(ctx, req.Cart)
	if err != nil {
		if apperrors.IsValidation(err) {
			var appErr *apperrors.Error
			errors.As(err, &appErr)
			return nil, validationError(appErr.Message)
		}
		s.logger.Error("pricing failed", zap.Error(err))
		return nil, s.mapError(models.OperationCreate, apperrors.Internal("pricing failed", err))
	}

	payload := s.builder.Build(quote, pref)
	fingerprint, err := fingerprintOf(models.OperationCreate, payload)
	if err != nil {
		return nil, s.mapError(models.OperationCreate, apperrors.Internal("fingerprint failed", err))
	}

	call := checkoutCall{
		operation:   models.OperationCreate,
		pref:        pref,
		fingerprint: fingerprint,
	}
	return s.execute(ctx, call, idempotencyKey, func(ctx context.Context, opts providers.RequestOptions) (*providers.Response, error) {
		return s.processor.CreateOrder(ctx, payload, opts)
	})
}

// CaptureOrder finalizes a buyer-approved order. The order id is passed
// through; the processor decides whether it exists.
func (s *checkoutServiceImpl) CaptureOrder(ctx context.Context, orderID, idempotencyKey string) (*ProcessorResult, *ServiceError) {
	if orderID == "" {
		return nil, validationError("Order ID is required.")
	}
	fingerprint, err := fingerprintOf(models.OperationCapture, orderID)
	if err != nil {
		return nil, s.mapError(models.OperationCapture, apperrors.Internal("fingerprint failed", err))
	}

	call := checkoutCall{
		operation:   models.OperationCapture,
		orderID:     orderID,
		fingerprint: fingerprint,
	}
	return s.execute(ctx, call, idempotencyKey, func(ctx context.Context, opts providers.RequestOptions) (*providers.Response, error) {
		return s.processor.CaptureOrder(ctx, orderID, opts)
	})
}

// ListTransactions returns the ledger entries for a processor order id.
func (s *checkoutServiceImpl) ListTransactions(ctx context.Context, orderID string) ([]models.TransactionRecord, *ServiceError) {
	if s.ledger == nil {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Transaction history is not enabled.", Code: CodeNotFound}
	}
	if orderID == "" {
		return nil, validationError("Order ID is required.")
	}
	records, err := s.ledger.FindByProcessorOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("ledger lookup failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load transactions.", Code: CodeInternal}
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}
	return records, nil
}

// ---- shared call path ----

type checkoutCall struct {
	operation   string
	orderID     string
	pref        models.ContactPreference
	fingerprint string
}

type processorFunc func(ctx context.Context, opts providers.RequestOptions) (*providers.Response, error)

func (s *checkoutServiceImpl) execute(ctx context.Context, call checkoutCall, clientKey string, do processorFunc) (*ProcessorResult, *ServiceError) {
	if len(clientKey) > MaxIdempotencyKeyLength {
		return nil, validationError(fmt.Sprintf("Idempotency key must be at most %d characters.", MaxIdempotencyKeyLength))
	}

	key := clientKey
	if key == "" {
		key = uuid.NewString()
	}

	claimed := false
	if clientKey != "" && s.idempotency != nil {
		cached, err := s.idempotency.Begin(ctx, call.operation, key, call.fingerprint)
		switch {
		case errors.Is(err, repository.ErrRequestInProgress):
			return nil, &ServiceError{StatusCode: http.StatusConflict, Message: msgInProgress, Code: CodeIdempotencyBusy}
		case errors.Is(err, repository.ErrFingerprintMismatch):
			return nil, &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: msgKeyReused, Code: CodeIdempotencyReused}
		case err != nil:
			s.logger.Warn("idempotency store unavailable, continuing without replay",
				zap.String("operation", call.operation), zap.Error(err))
		case cached != nil:
			s.logger.Info("replaying stored response",
				zap.String("operation", call.operation), zap.String("idempotency_key", key))
			s.recordMetric(ctx, aws_pkg.MetricReplays, call.operation)
			return &ProcessorResult{StatusCode: cached.StatusCode, Body: cached.Body, Replayed: true}, nil
		default:
			claimed = true
		}
	}

	// The processor call and its bookkeeping outlive a disconnecting client.
	detached := context.WithoutCancel(ctx)
	opts := providers.RequestOptions{Prefer: providers.PreferMinimal, RequestID: key}

	resp, err := do(detached, opts)

	bookkeeping, cancel := context.WithTimeout(detached, s.sideEffectTimeout)
	defer cancel()

	if err != nil {
		if claimed {
			if relErr := s.idempotency.Release(bookkeeping, call.operation, key); relErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(relErr))
			}
		}
		return nil, s.handleProcessorError(bookkeeping, call, key, err)
	}

	if call.orderID == "" {
		call.orderID = orderIDFromBody(resp.Body)
	}

	if claimed {
		if err := s.idempotency.Complete(bookkeeping, call.operation, key, call.fingerprint,
			repository.CachedResponse{StatusCode: resp.StatusCode, Body: resp.Body}); err != nil {
			s.logger.Warn("failed to store idempotent response", zap.String("idempotency_key", key), zap.Error(err))
		}
	}

	s.logger.Info("processor call succeeded",
		zap.String("operation", call.operation),
		zap.String("order_id", call.orderID),
		zap.Int("status", resp.StatusCode),
	)

	s.recordTransaction(bookkeeping, &models.TransactionRecord{
		Operation:         call.operation,
		ProcessorOrderID:  call.orderID,
		ContactPreference: call.pref,
		StatusCode:        resp.StatusCode,
		Outcome:           models.OutcomeSucceeded,
		IdempotencyKey:    key,
	})
	s.publish(bookkeeping, models.CheckoutEvent{
		EventType:         successEventType(call.operation),
		Operation:         call.operation,
		OrderID:           call.orderID,
		StatusCode:        resp.StatusCode,
		ContactPreference: call.pref,
		Timestamp:         time.Now().UTC(),
	})
	s.recordMetric(bookkeeping, successMetric(call.operation), call.operation)

	return &ProcessorResult{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

func (s *checkoutServiceImpl) handleProcessorError(ctx context.Context, call checkoutCall, key string, err error) *ServiceError {
	appErr := classifyProcessorError(err)

	status := http.StatusBadGateway
	outcome := models.OutcomeFailed
	var errorName string
	fields := []zap.Field{
		zap.String("operation", call.operation),
		zap.String("order_id", call.orderID),
		zap.String("kind", string(appErr.Kind)),
		zap.Error(err),
	}

	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		errorName = apiErr.Name
		fields = append(fields,
			zap.Int("status", apiErr.StatusCode),
			zap.String("debug_id", apiErr.DebugID),
			zap.String("issue", apiErr.Issue()),
		)
		if appErr.Kind == apperrors.KindProcessorRejected {
			outcome = models.OutcomeRejected
		}
	}
	s.logger.Error("processor call failed", fields...)

	s.recordTransaction(ctx, &models.TransactionRecord{
		Operation:         call.operation,
		ProcessorOrderID:  call.orderID,
		ContactPreference: call.pref,
		StatusCode:        status,
		Outcome:           outcome,
		ErrorName:         errorName,
		IdempotencyKey:    key,
	})
	s.publish(ctx, models.CheckoutEvent{
		EventType:         "order_failed",
		Operation:         call.operation,
		OrderID:           call.orderID,
		StatusCode:        status,
		ContactPreference: call.pref,
		ErrorName:         errorName,
		Timestamp:         time.Now().UTC(),
	})
	s.recordMetric(ctx, aws_pkg.MetricOrdersFailed, call.operation)

	return s.mapError(call.operation, appErr)
}

// classifyProcessorError sorts a processor failure into a rejection the
// client can act on or an outage it cannot. Auth failures are ours, not the
// client's, so they count as outages.
func classifyProcessorError(err error) *apperrors.Error {
	var apiErr *providers.APIError
	if !errors.As(err, &apiErr) {
		return apperrors.New(http.StatusBadGateway, apperrors.KindProcessorUnavailable, msgProcessorUnavailable, err)
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
		return apperrors.New(http.StatusBadGateway, apperrors.KindProcessorUnavailable, msgProcessorUnavailable, err)
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apperrors.New(apiErr.StatusCode, apperrors.KindProcessorRejected, apiErr.Message, err)
	default:
		return apperrors.New(http.StatusBadGateway, apperrors.KindProcessorUnavailable, msgProcessorUnavailable, err)
	}
}

// mapError applies the configured ErrorPolicy.
func (s *checkoutServiceImpl) mapError(operation string, appErr *apperrors.Error) *ServiceError {
	if appErr.Kind == apperrors.KindValidation {
		return validationError(appErr.Message)
	}

	generic := msgCreateFailed
	if operation == models.OperationCapture {
		generic = msgCaptureFailed
	}

	if s.policy == ErrorPolicyLegacy {
		if operation == models.OperationCapture {
			var apiErr *providers.APIError
			if errors.As(appErr, &apiErr) && apiErr.Message != "" {
				return &ServiceError{StatusCode: http.StatusInternalServerError, Message: apiErr.Message}
			}
		}
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: generic}
	}

	switch appErr.Kind {
	case apperrors.KindProcessorRejected:
		var apiErr *providers.APIError
		code := ""
		if errors.As(appErr, &apiErr) {
			code = apiErr.Name
		}
		msg := appErr.Message
		if msg == "" {
			msg = http.StatusText(appErr.Code)
		}
		return &ServiceError{StatusCode: appErr.Code, Message: msg, Code: code}
	case apperrors.KindProcessorUnavailable:
		return &ServiceError{StatusCode: http.StatusBadGateway, Message: msgProcessorUnavailable, Code: CodeProcessorUnavailable}
	default:
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: generic, Code: CodeInternal}
	}
}

// ---- side effects; failures are logged only ----

func (s *checkoutServiceImpl) recordTransaction(ctx context.Context, record *models.TransactionRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		s.logger.Warn("failed to write transaction record",
			zap.String("operation", record.Operation),
			zap.String("order_id", record.ProcessorOrderID),
			zap.Error(err),
		)
	}
}

func (s *checkoutServiceImpl) publish(ctx context.Context, event models.CheckoutEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish checkout event",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func (s *checkoutServiceImpl) recordMetric(ctx context.Context, name, operation string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCount(ctx, name, map[string]string{"Operation": operation}); err != nil {
		s.logger.Debug("failed to record metric", zap.String("metric", name), zap.Error(err))
	}
}

// ---- helpers ----

func validationError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg, Code: CodeValidation}
}

func fingerprintOf(operation string, v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(operation+"\n"), b...))
	return hex.EncodeToString(sum[:]), nil
}

// orderIDFromBody reads the processor's order id from a create reply. A
// missing or unreadable id is not an error.
func orderIDFromBody(body json.RawMessage) string {
	if len(body) == 0 {
		return ""
	}
	var partial struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &partial); err != nil {
		return ""
	}
	return partial.ID
}

func successEventType(operation string) string {
	if operation == models.OperationCapture {
		return "order_captured"
	}
	return "order_created"
}

func successMetric(operation string) string {
	if operation == models.OperationCapture {
		return aws_pkg.MetricOrdersCaptured
	}
	return aws_pkg.MetricOrdersCreated
}
