package handler

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/travisim/Farmify-sub001/internal/logic"

	"github.com/gin-gonic/gin"
)

// InvestmentHandler serves the investment endpoints.
type InvestmentHandler struct {
	funding *logic.FundingLogic
}

// NewInvestmentHandler creates the investment handler.
func NewInvestmentHandler(funding *logic.FundingLogic) *InvestmentHandler {
	return &InvestmentHandler{funding: funding}
}

// Invest submits a pre-signed investment transaction to the ledger and
// credits the funding cache once it validates. A queued outcome answers
// 202 with the transaction hash; the reconciliation job finishes the job.
func (h *InvestmentHandler) Invest(c *gin.Context) {
	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	blob, err := hex.DecodeString(req.SignedBlob)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "signed_blob must be hex encoded")
		return
	}

	record, pending, err := h.funding.Invest(c.Request.Context(), c.Param("id"),
		req.InvestorAddress, req.Amount, blob)
	if err != nil {
		AppErrorResponse(c, err)
		return
	}
	if pending != nil {
		SuccessResponse(c, http.StatusAccepted, "investment queued pending ledger validation", gin.H{
			"tx_hash": pending.TxHash,
		})
		return
	}

	SuccessResponse(c, http.StatusCreated, "investment recorded", ToInvestmentResponse(record))
}

// RecordInvestment records an already validated ledger transaction.
// Replaying a recorded transaction hash answers 200 with the existing
// record instead of an error.
func (h *InvestmentHandler) RecordInvestment(c *gin.Context) {
	var req RecordInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ledgerTime := time.Now().UTC()
	if req.LedgerTime != nil {
		ledgerTime = *req.LedgerTime
	}

	record, err := h.funding.RecordInvestment(c.Param("id"),
		req.InvestorAddress, req.Amount, req.TxHash, ledgerTime)
	if err != nil {
		AppErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "investment recorded", ToInvestmentResponse(record))
}
