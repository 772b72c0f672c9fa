package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/logic"

	"github.com/gin-gonic/gin"
)

// SettlementHandler serves the settlement and distribution endpoints.
type SettlementHandler struct {
	settlements  *logic.SettlementLogic
	distribution *logic.DistributionLogic
}

// NewSettlementHandler creates the settlement handler.
func NewSettlementHandler(settlements *logic.SettlementLogic, distribution *logic.DistributionLogic) *SettlementHandler {
	return &SettlementHandler{settlements: settlements, distribution: distribution}
}

// GetSettlement returns a project's settlement record.
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	record, err := h.settlements.GetSettlement(c.Param("id"))
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "settlement fetched", ToSettlementResponse(record))
}

// SubmitRevenueProof accepts the farmer's harvest revenue claim with its
// proof document.
func (h *SettlementHandler) SubmitRevenueProof(c *gin.Context) {
	var req SubmitRevenueProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	document, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "document must be base64 encoded")
		return
	}

	record, err := h.settlements.SubmitRevenueProof(c.Request.Context(), c.Param("id"),
		req.FarmerAddress, req.RevenueAmount, document, req.Checksum)
	if err != nil {
		AppErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "revenue proof submitted", ToSettlementResponse(record))
}

// VerifySettlement records the admin verification decision.
func (h *SettlementHandler) VerifySettlement(c *gin.Context) {
	var req VerifySettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.settlements.VerifySettlement(c.Request.Context(), c.Param("id"),
		req.AdminAddress, req.ConfirmedRevenue, req.FarmerChecksum, req.AdminChecksum)
	if err != nil {
		AppErrorResponse(c, err)
		return
	}

	message := "settlement verified"
	if record.ChecksumMismatch {
		message = "settlement verified with checksum mismatch"
	}
	SuccessResponse(c, http.StatusOK, message, ToSettlementResponse(record))
}

// Distribute runs a distribution pass for a verified settlement. Partial
// failures answer 207 with the per-leg outcomes and the recipients that
// still need a retry.
func (h *SettlementHandler) Distribute(c *gin.Context) {
	rows, err := h.distribution.Distribute(c.Request.Context(), c.Param("id"))
	if err != nil {
		var pe *apperr.PartialDistributionError
		if errors.As(err, &pe) {
			c.JSON(http.StatusMultiStatus, Response{
				Success: false,
				Message: err.Error(),
				Error:   string(apperr.KindPartialDistributionFailure),
				Data: gin.H{
					"distributions":     ToDistributionResponseList(rows),
					"failed_recipients": pe.FailedRecipients,
				},
			})
			return
		}
		AppErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "profit distributed", ToDistributionResponseList(rows))
}

// GetDistributions lists the payout legs of a project's settlement.
func (h *SettlementHandler) GetDistributions(c *gin.Context) {
	rows, err := h.distribution.ListDistributions(c.Param("id"))
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "distributions fetched", ToDistributionResponseList(rows))
}
