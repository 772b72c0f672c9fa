package logic

import (
	"context"
	"testing"
	"time"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/model"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInvestmentAccumulates(t *testing.T) {
	db := newTestDB(t)
	funding := NewFundingLogic(db, newStubGateway())
	seedProject(t, db, "FARM-001", "rFarmer1", "1000")

	amounts := []string{"150", "250.5", "99.499999"}
	total := decimal.Zero
	for i, amount := range amounts {
		record, err := funding.RecordInvestment("FARM-001", "rInvestorA",
			dec(t, amount), txHash(t, i), time.Now())
		require.NoError(t, err)
		assert.True(t, record.Amount.Equal(dec(t, amount)))
		total = total.Add(dec(t, amount))
	}

	project, err := funding.GetProject("FARM-001")
	require.NoError(t, err)
	assert.True(t, project.AccumulatedFunding.Equal(total),
		"accumulated %s, want %s", project.AccumulatedFunding, total)
	assert.Equal(t, int64(3), project.InvestorCount)

	// Accumulated funding always equals the sum of committed investments.
	investments, err := funding.ListInvestments("FARM-001")
	require.NoError(t, err)
	sum := decimal.Zero
	for _, inv := range investments {
		sum = sum.Add(inv.Amount)
	}
	assert.True(t, project.AccumulatedFunding.Equal(sum))
}

func TestRecordInvestmentFundingExceeded(t *testing.T) {
	db := newTestDB(t)
	funding := NewFundingLogic(db, newStubGateway())
	seedProject(t, db, "FARM-002", "rFarmer1", "1000")

	_, err := funding.RecordInvestment("FARM-002", "rInvestorA", dec(t, "400"), txHash(t, 1), time.Now())
	require.NoError(t, err)
	_, err = funding.RecordInvestment("FARM-002", "rInvestorB", dec(t, "500"), txHash(t, 2), time.Now())
	require.NoError(t, err)

	_, err = funding.RecordInvestment("FARM-002", "rInvestorC", dec(t, "200"), txHash(t, 3), time.Now())
	require.Error(t, err)

	var fe *apperr.FundingExceededError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Remaining.Equal(dec(t, "100")),
		"remaining capacity %s, want 100", fe.Remaining)
	assert.True(t, fe.Requested.Equal(dec(t, "200")))

	// The rejected investment must leave no trace.
	project, err := funding.GetProject("FARM-002")
	require.NoError(t, err)
	assert.True(t, project.AccumulatedFunding.Equal(dec(t, "900")))
	assert.Equal(t, int64(2), project.InvestorCount)
}

func TestRecordInvestmentDuplicateHashIsNoOp(t *testing.T) {
	db := newTestDB(t)
	funding := NewFundingLogic(db, newStubGateway())
	seedProject(t, db, "FARM-003", "rFarmer1", "1000")

	hash := txHash(t, 1)
	first, err := funding.RecordInvestment("FARM-003", "rInvestorA", dec(t, "400"), hash, time.Now())
	require.NoError(t, err)

	// A retried request with the same hash returns the original record and
	// changes nothing, even with a different amount in the payload.
	replay, err := funding.RecordInvestment("FARM-003", "rInvestorA", dec(t, "999"), hash, time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)
	assert.True(t, replay.Amount.Equal(dec(t, "400")))

	project, err := funding.GetProject("FARM-003")
	require.NoError(t, err)
	assert.True(t, project.AccumulatedFunding.Equal(dec(t, "400")))
	assert.Equal(t, int64(1), project.InvestorCount)
}

func TestRecordInvestmentClosesFundedProject(t *testing.T) {
	db := newTestDB(t)
	funding := NewFundingLogic(db, newStubGateway())
	seedProject(t, db, "FARM-004", "rFarmer1", "500")

	_, err := funding.RecordInvestment("FARM-004", "rInvestorA", dec(t, "500"), txHash(t, 1), time.Now())
	require.NoError(t, err)

	project, err := funding.GetProject("FARM-004")
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusFunded, project.Status)

	// A funded project accepts no further investment.
	_, err = funding.RecordInvestment("FARM-004", "rInvestorB", dec(t, "1"), txHash(t, 2), time.Now())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))
}

func TestRecordInvestmentValidation(t *testing.T) {
	db := newTestDB(t)
	funding := NewFundingLogic(db, newStubGateway())
	seedProject(t, db, "FARM-005", "rFarmer1", "1000")

	tests := []struct {
		name     string
		tokenID  string
		investor string
		amount   string
		hash     string
		wantKind apperr.Kind
	}{
		{"zero amount", "FARM-005", "rInvestorA", "0", txHash(t, 1), apperr.KindInvalidInput},
		{"negative amount", "FARM-005", "rInvestorA", "-5", txHash(t, 2), apperr.KindInvalidInput},
		{"missing investor", "FARM-005", "", "10", txHash(t, 3), apperr.KindInvalidInput},
		{"missing hash", "FARM-005", "rInvestorA", "10", "", apperr.KindInvalidInput},
		{"unknown project", "FARM-404", "rInvestorA", "10", txHash(t, 4), apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := funding.RecordInvestment(tt.tokenID, tt.investor, dec(t, tt.amount), tt.hash, time.Now())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestInvestRecordsOnLedgerSuccess(t *testing.T) {
	db := newTestDB(t)
	gateway := newStubGateway()
	funding := NewFundingLogic(db, gateway)
	seedProject(t, db, "FARM-006", "rFarmer1", "1000")

	blob := []byte("signed-investment-blob")
	record, pending, err := funding.Invest(context.Background(), "FARM-006", "rInvestorA", dec(t, "250"), blob)
	require.NoError(t, err)
	require.Nil(t, pending)
	require.NotNil(t, record)
	assert.Equal(t, xrpl.TxHash(blob), record.TxHash)

	project, err := funding.GetProject("FARM-006")
	require.NoError(t, err)
	assert.True(t, project.AccumulatedFunding.Equal(dec(t, "250")))
}

func TestInvestQueuedOutcomeParksSubmission(t *testing.T) {
	db := newTestDB(t)
	gateway := newStubGateway()
	gateway.submitEngineResult = "terQUEUED"
	funding := NewFundingLogic(db, gateway)
	seedProject(t, db, "FARM-007", "rFarmer1", "1000")

	blob := []byte("queued-investment-blob")
	record, pending, err := funding.Invest(context.Background(), "FARM-007", "rInvestorA", dec(t, "250"), blob)
	require.NoError(t, err)
	assert.Nil(t, record)
	require.NotNil(t, pending)
	assert.Equal(t, xrpl.TxHash(blob), pending.TxHash)

	// No cache credit until the ledger confirms.
	project, err := funding.GetProject("FARM-007")
	require.NoError(t, err)
	assert.True(t, project.AccumulatedFunding.IsZero())
	assert.Equal(t, int64(0), project.InvestorCount)
}

func TestInvestRejectedOutcome(t *testing.T) {
	db := newTestDB(t)
	gateway := newStubGateway()
	gateway.submitEngineResult = "tecUNFUNDED_PAYMENT"
	funding := NewFundingLogic(db, gateway)
	seedProject(t, db, "FARM-008", "rFarmer1", "1000")

	_, _, err := funding.Invest(context.Background(), "FARM-008", "rInvestorA", dec(t, "250"), []byte("blob"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindLedgerSubmissionFailed, apperr.KindOf(err))

	project, err := funding.GetProject("FARM-008")
	require.NoError(t, err)
	assert.True(t, project.AccumulatedFunding.IsZero())
}

func TestListInvestmentsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	funding := NewFundingLogic(db, newStubGateway())
	project := seedProject(t, db, "FARM-009", "rFarmer1", "1000")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		inv := &model.Investment{
			ProjectID:       project.ID,
			InvestorAddress: "rInvestorA",
			Amount:          dec(t, "10"),
			TxHash:          txHash(t, i),
			LedgerTime:      base.Add(time.Duration(i) * time.Minute),
		}
		inv.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(inv).Error)
	}

	investments, err := funding.ListInvestments("FARM-009")
	require.NoError(t, err)
	require.Len(t, investments, 3)
	for i := 1; i < len(investments); i++ {
		assert.False(t, investments[i].CreatedAt.After(investments[i-1].CreatedAt),
			"investments must be ordered newest first")
	}
}

func txHash(t *testing.T, n int) string {
	t.Helper()
	return xrpl.TxHash([]byte{byte(n), byte(n >> 8), 'x'})
}
