package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	exchangeratedomain "github.com/smallbiznis/motopos/internal/exchangerate/domain"
	"github.com/smallbiznis/motopos/internal/label"
	productdomain "github.com/smallbiznis/motopos/internal/product/domain"
	"github.com/smallbiznis/motopos/internal/providers/pdf"
	saledomain "github.com/smallbiznis/motopos/internal/sale/domain"
	"github.com/smallbiznis/motopos/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, productdomain.ErrSKUExhausted):
		return http.StatusConflict, errorPayload{
			Type:    "sku_exhausted",
			Message: err.Error(),
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, productdomain.ErrSKUConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "sku already in use",
		}
	case isBusinessRuleError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    businessRuleCode(err),
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger's error_type and error_code.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationSentinels = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPageToken,
	label.ErrEmptyCode,
	pdf.ErrEmptySheet,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidStock,
	productdomain.ErrInvalidID,
	productdomain.ErrInvalidSKU,
	exchangeratedomain.ErrInvalidRate,
	exchangeratedomain.ErrInvalidCurrency,
	exchangeratedomain.ErrInvalidAmount,
	saledomain.ErrEmptySale,
	saledomain.ErrInvalidQuantity,
	saledomain.ErrInvalidPrice,
	saledomain.ErrInvalidPaymentMethod,
	saledomain.ErrInvalidPaymentAmount,
	saledomain.ErrInvalidCurrency,
	saledomain.ErrInvalidID,
	saledomain.ErrInvalidRange,
}

func validationErrorCode(err error) (string, bool) {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

var businessRuleSentinels = []error{
	productdomain.ErrInsufficientStock,
	saledomain.ErrInsufficientStock,
	saledomain.ErrInactiveProduct,
	saledomain.ErrUnderpaid,
	saledomain.ErrRateUnavailable,
	saledomain.ErrProductNotFound,
}

func isBusinessRuleError(err error) bool {
	return businessRuleCode(err) != ""
}

func businessRuleCode(err error) string {
	for _, sentinel := range businessRuleSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, exchangeratedomain.ErrNotFound),
		errors.Is(err, saledomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "empty_sale":
		return "a sale needs at least one item"
	case "empty_code":
		return "code is required"
	case "empty_label_sheet":
		return "at least one product is required"
	default:
		return "invalid value"
	}
}
