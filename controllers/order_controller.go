package controllers

import (
	"errors"
	"io"
	"net/http"

	"checkout-service/models"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderPayPalRequestID is accepted as an alias so clients already
	// speaking the processor's header keep working.
	HeaderPayPalRequestID = "PayPal-Request-Id"
	HeaderReplayed        = "Idempotent-Replayed"
)

// MaxOrderBodyBytes caps a create order body. Carts are small JSON lists.
const MaxOrderBodyBytes = 1 << 20

// OrderController handles HTTP requests for checkout orders.
type OrderController struct {
	checkoutService services.CheckoutService
	logger          *zap.Logger
}

// NewOrderController creates a new OrderController.
func NewOrderController(svc services.CheckoutService, logger *zap.Logger) *OrderController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderController{checkoutService: svc, logger: logger}
}

// CreateOrder handles POST /api/orders
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req models.CreateOrderRequest
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, MaxOrderBodyBytes)
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oc.logger.Debug("rejecting create order body", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, &services.ServiceError{StatusCode: http.StatusRequestEntityTooLarge, Message: "Request body is too large.", Code: services.CodeValidation})
			return
		}
		msg := "Invalid request body."
		if errors.Is(err, io.EOF) {
			msg = "Request body is required."
		}
		respondError(ctx, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: msg, Code: services.CodeValidation})
		return
	}

	result, svcErr := oc.checkoutService.CreateOrder(ctx.Request.Context(), &req, idempotencyKey(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	relay(ctx, result)
}

// CaptureOrder handles POST /api/orders/:orderID/capture
func (oc *OrderController) CaptureOrder(ctx *gin.Context) {
	orderID := ctx.Param("orderID")
	if orderID == "" {
		respondError(ctx, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "Order ID is required.", Code: services.CodeValidation})
		return
	}

	result, svcErr := oc.checkoutService.CaptureOrder(ctx.Request.Context(), orderID, idempotencyKey(ctx))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	relay(ctx, result)
}

// ListTransactions handles GET /api/orders/:orderID/transactions
func (oc *OrderController) ListTransactions(ctx *gin.Context) {
	orderID := ctx.Param("orderID")

	records, svcErr := oc.checkoutService.ListTransactions(ctx.Request.Context(), orderID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order_id": orderID, "transactions": records})
}

// relay writes the processor's status and body unchanged.
func relay(ctx *gin.Context, result *services.ProcessorResult) {
	if result.Replayed {
		ctx.Header(HeaderReplayed, "true")
	}
	if len(result.Body) == 0 {
		ctx.Status(result.StatusCode)
		return
	}
	ctx.Data(result.StatusCode, "application/json; charset=utf-8", result.Body)
}

func respondError(ctx *gin.Context, svcErr *services.ServiceError) {
	body := gin.H{"error": svcErr.Message}
	if svcErr.Code != "" {
		body["code"] = svcErr.Code
	}
	ctx.AbortWithStatusJSON(svcErr.StatusCode, body)
}

func idempotencyKey(ctx *gin.Context) string {
	if k := ctx.GetHeader(HeaderIdempotencyKey); k != "" {
		return k
	}
	return ctx.GetHeader(HeaderPayPalRequestID)
}
