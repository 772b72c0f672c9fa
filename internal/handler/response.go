package handler

import (
	"errors"
	"net/http"

	"github.com/travisim/Farmify-sub001/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Response is the shared API envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"` // stable error kind
	Data    interface{} `json:"data"`
}

// SuccessResponse writes a success envelope.
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes a plain error envelope.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// AppErrorResponse maps a logic-layer error onto the envelope: stable kind,
// human-readable reason, and for financial-amount errors the boundary value
// that would have made the request valid.
func AppErrorResponse(c *gin.Context, err error) {
	kind := apperr.KindOf(err)

	var data interface{}
	var fe *apperr.FundingExceededError
	if errors.As(err, &fe) {
		data = gin.H{
			"requested":          fe.Requested,
			"remaining_capacity": fe.Remaining,
		}
	}
	var se *apperr.StateTransitionError
	if errors.As(err, &se) {
		data = gin.H{"current_status": se.Current}
	}
	var pe *apperr.PartialDistributionError
	if errors.As(err, &pe) {
		data = gin.H{"failed_recipients": pe.FailedRecipients}
	}

	c.JSON(statusForKind(kind), Response{
		Success: false,
		Message: err.Error(),
		Error:   string(kind),
		Data:    data,
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindFundingExceeded, apperr.KindInvalidStateTransition:
		return http.StatusConflict
	case apperr.KindLedgerSubmissionFailed:
		return http.StatusBadGateway
	case apperr.KindPartialDistributionFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}
