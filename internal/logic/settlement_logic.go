package logic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/docstore"
	"github.com/travisim/Farmify-sub001/internal/logger"
	"github.com/travisim/Farmify-sub001/internal/model"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementLogic owns the SettlementRecord lifecycle:
// none -> pending_verification -> verified -> completed. Transitions are
// applied as guarded updates conditioned on the current status, so a
// record can never move backward regardless of request interleaving.
type SettlementLogic struct {
	db      *gorm.DB
	gateway xrpl.Gateway
	docs    docstore.Store
	wallet  string // platform wallet used for memo transactions
}

// NewSettlementLogic creates the settlement logic.
func NewSettlementLogic(db *gorm.DB, gateway xrpl.Gateway, docs docstore.Store, wallet string) *SettlementLogic {
	return &SettlementLogic{db: db, gateway: gateway, docs: docs, wallet: wallet}
}

// revenueProofMemo is the metadata attached to the submission transaction.
type revenueProofMemo struct {
	TokenID  string          `json:"token_id"`
	Revenue  decimal.Decimal `json:"revenue"`
	Checksum string          `json:"checksum"`
	CID      string          `json:"cid"`
}

// verificationMemo is the metadata attached to the verification transaction.
type verificationMemo struct {
	TokenID          string          `json:"token_id"`
	ConfirmedRevenue decimal.Decimal `json:"confirmed_revenue"`
	Verifier         string          `json:"verifier"`
	ChecksumMatch    bool            `json:"checksum_match"`
}

// GetSettlement returns the settlement record for a project, if any.
func (s *SettlementLogic) GetSettlement(tokenID string) (*model.SettlementRecord, error) {
	project, err := s.findProject(tokenID)
	if err != nil {
		return nil, err
	}

	var record model.SettlementRecord
	if err := s.db.Where("project_id = ?", project.ID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "project %s has no settlement record", tokenID)
		}
		return nil, err
	}
	return &record, nil
}

// SubmitRevenueProof stores the harvest document, anchors the revenue claim
// on the ledger and upserts the settlement record in pending_verification.
// A farmer may resubmit while still pending (the pending record is
// overwritten); once verified or completed the settlement is closed and
// resubmission fails.
func (s *SettlementLogic) SubmitRevenueProof(ctx context.Context, tokenID, farmerAddress string,
	revenueAmount decimal.Decimal, document []byte, checksum string) (*model.SettlementRecord, error) {

	if revenueAmount.Sign() <= 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "revenue amount must be positive")
	}
	if len(document) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "revenue proof document is required")
	}
	computed := docstore.Checksum(document)
	if checksum == "" {
		checksum = computed
	} else if checksum != computed {
		return nil, apperr.New(apperr.KindInvalidInput,
			"document checksum does not match document contents")
	}

	project, err := s.findProject(tokenID)
	if err != nil {
		return nil, err
	}
	if project.FarmerAddress != farmerAddress {
		return nil, apperr.New(apperr.KindUnauthorized,
			"only the project farmer may submit a revenue proof")
	}

	// Resubmission is only allowed while the record is still pending.
	var existing model.SettlementRecord
	err = s.db.Where("project_id = ?", project.ID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status != model.SettlementStatusPendingVerification {
			return nil, &apperr.StateTransitionError{
				ProjectID: project.ID,
				Requested: "submit revenue proof (already settled)",
				Current:   string(existing.Status),
			}
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	cid, err := s.docs.Store(ctx, document)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerSubmissionFailed, err,
			"failed to store revenue proof document")
	}

	memo, err := json.Marshal(revenueProofMemo{
		TokenID:  tokenID,
		Revenue:  revenueAmount,
		Checksum: checksum,
		CID:      cid,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.SubmitFromWallet(ctx, s.wallet, &xrpl.TxSpec{
		Type:  "AccountSet",
		Memos: []xrpl.Memo{{Type: "farmify/revenue-proof", Data: string(memo)}},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerSubmissionFailed, err,
			"failed to anchor revenue proof on ledger")
	}
	if result.Outcome() != xrpl.OutcomeSuccess {
		return nil, apperr.New(apperr.KindLedgerSubmissionFailed,
			"ledger did not accept revenue proof transaction: %s", result.EngineResult)
	}

	now := time.Now().UTC()
	record := &model.SettlementRecord{
		ProjectID:     project.ID,
		FarmerAddress: farmerAddress,
		Status:        model.SettlementStatusPendingVerification,
		RevenueAmount: revenueAmount,
		ProofCID:      cid,
		ProofChecksum: checksum,
		SubmitTxHash:  result.Hash,
		SubmittedAt:   &now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if existing.ID != 0 {
			// Overwrite the pending record, guarded on it still pending.
			res := tx.Model(&model.SettlementRecord{}).
				Where("id = ? AND status = ?", existing.ID, model.SettlementStatusPendingVerification).
				Updates(map[string]interface{}{
					"farmer_address": farmerAddress,
					"revenue_amount": revenueAmount,
					"proof_cid":      cid,
					"proof_checksum": checksum,
					"submit_tx_hash": result.Hash,
					"submitted_at":   &now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &apperr.StateTransitionError{
					ProjectID: project.ID,
					Requested: "submit revenue proof (already settled)",
					Current:   "verified",
				}
			}
			record.ID = existing.ID
		} else {
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.Project{}).
			Where("id = ?", project.ID).
			Update("status", model.ProjectStatusSettling).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("revenue proof submitted for project %s: amount=%s cid=%s tx=%s",
		tokenID, revenueAmount.String(), cid, result.Hash)
	return record, nil
}

// VerifySettlement records the admin's verification decision on the ledger
// and moves the record to verified, freezing the revenue amount at the
// confirmed value. A checksum mismatch between the farmer's and the
// admin's recomputation is surfaced on the record as a warning, not a
// rejection; a human verifier may override it deliberately.
func (s *SettlementLogic) VerifySettlement(ctx context.Context, tokenID, adminAddress string,
	confirmedRevenue decimal.Decimal, farmerChecksum, adminChecksum string) (*model.SettlementRecord, error) {

	if confirmedRevenue.Sign() <= 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "confirmed revenue must be positive")
	}
	if adminAddress == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "verifier address is required")
	}

	project, err := s.findProject(tokenID)
	if err != nil {
		return nil, err
	}

	var record model.SettlementRecord
	if err := s.db.Where("project_id = ?", project.ID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.StateTransitionError{
				ProjectID: project.ID,
				Requested: "verify settlement",
				Current:   "none",
			}
		}
		return nil, err
	}
	if record.Status != model.SettlementStatusPendingVerification {
		return nil, &apperr.StateTransitionError{
			ProjectID: project.ID,
			Requested: "verify settlement",
			Current:   string(record.Status),
		}
	}

	mismatch := farmerChecksum != adminChecksum
	if mismatch {
		logger.Warn("checksum mismatch on settlement for project %s: farmer=%s admin=%s",
			tokenID, farmerChecksum, adminChecksum)
	}

	memo, err := json.Marshal(verificationMemo{
		TokenID:          tokenID,
		ConfirmedRevenue: confirmedRevenue,
		Verifier:         adminAddress,
		ChecksumMatch:    !mismatch,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.SubmitFromWallet(ctx, s.wallet, &xrpl.TxSpec{
		Type:  "AccountSet",
		Memos: []xrpl.Memo{{Type: "farmify/settlement-verified", Data: string(memo)}},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLedgerSubmissionFailed, err,
			"failed to anchor verification on ledger")
	}
	if result.Outcome() != xrpl.OutcomeSuccess {
		return nil, apperr.New(apperr.KindLedgerSubmissionFailed,
			"ledger did not accept verification transaction: %s", result.EngineResult)
	}

	now := time.Now().UTC()
	res := s.db.Model(&model.SettlementRecord{}).
		Where("id = ? AND status = ?", record.ID, model.SettlementStatusPendingVerification).
		Updates(map[string]interface{}{
			"status":            model.SettlementStatusVerified,
			"revenue_amount":    confirmedRevenue,
			"verifier_address":  adminAddress,
			"verify_tx_hash":    result.Hash,
			"verified_at":       &now,
			"checksum_mismatch": mismatch,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent request won the transition.
		var current model.SettlementRecord
		if err := s.db.First(&current, record.ID).Error; err != nil {
			return nil, err
		}
		return nil, &apperr.StateTransitionError{
			ProjectID: project.ID,
			Requested: "verify settlement",
			Current:   string(current.Status),
		}
	}

	if err := s.db.First(&record, record.ID).Error; err != nil {
		return nil, err
	}
	logger.Info("settlement verified for project %s: revenue=%s verifier=%s tx=%s",
		tokenID, confirmedRevenue.String(), adminAddress, result.Hash)
	return &record, nil
}

// MarkCompleted moves a verified settlement to the terminal completed
// status. Called by the distribution recorder after a distribution pass
// has been attempted; completion records that the pass settled, not that
// every payout leg succeeded.
func (s *SettlementLogic) MarkCompleted(settlementID uint) (*model.SettlementRecord, error) {
	var record model.SettlementRecord
	if err := s.db.First(&record, settlementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "settlement %d not found", settlementID)
		}
		return nil, err
	}

	res := s.db.Model(&model.SettlementRecord{}).
		Where("id = ? AND status = ?", settlementID, model.SettlementStatusVerified).
		Update("status", model.SettlementStatusCompleted)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if record.Status == model.SettlementStatusCompleted {
			// Already terminal; idempotent for distribution re-runs.
			return &record, nil
		}
		return nil, &apperr.StateTransitionError{
			ProjectID: record.ProjectID,
			Requested: "mark settlement completed",
			Current:   string(record.Status),
		}
	}

	if err := s.db.Model(&model.Project{}).
		Where("id = ?", record.ProjectID).
		Update("status", model.ProjectStatusSettled).Error; err != nil {
		return nil, err
	}

	if err := s.db.First(&record, settlementID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *SettlementLogic) findProject(tokenID string) (*model.Project, error) {
	var project model.Project
	if err := s.db.Where("token_id = ?", tokenID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "project %s not found", tokenID)
		}
		return nil, err
	}
	return &project, nil
}
