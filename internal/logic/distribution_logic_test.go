package logic

import (
	"context"
	"testing"
	"time"

	"github.com/travisim/Farmify-sub001/internal/apperr"
	"github.com/travisim/Farmify-sub001/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const platformAddress = "rPlatformTreasury"

func newDistributionFixture(t *testing.T, gateway *stubGateway) (*FundingLogic, *SettlementLogic, *DistributionLogic) {
	t.Helper()
	db := newTestDB(t)
	funding := NewFundingLogic(db, gateway)
	settlements := NewSettlementLogic(db, gateway, &stubDocStore{}, testWallet)
	distribution := NewDistributionLogic(db, gateway, settlements, testWallet, platformAddress,
		dec(t, "0.10"), dec(t, "0.50"), 2)
	return funding, settlements, distribution
}

// Seeds a verified settlement with two investors holding 300 and 700.
func seedVerifiedSettlement(t *testing.T, funding *FundingLogic, settlements *SettlementLogic, tokenID string) {
	t.Helper()
	ctx := context.Background()

	project := &model.Project{
		TokenID:       tokenID,
		FarmerAddress: "rFarmer1",
		Title:         "Durian orchard",
		FundingGoal:   dec(t, "1000"),
	}
	require.NoError(t, funding.CreateProject(project))

	_, err := funding.RecordInvestment(tokenID, "rInvestorA", dec(t, "300"), txHash(t, 1001), time.Now())
	require.NoError(t, err)
	_, err = funding.RecordInvestment(tokenID, "rInvestorB", dec(t, "700"), txHash(t, 1002), time.Now())
	require.NoError(t, err)

	_, err = settlements.SubmitRevenueProof(ctx, tokenID, "rFarmer1",
		dec(t, "10000"), []byte("harvest receipts"), "")
	require.NoError(t, err)
	_, err = settlements.VerifySettlement(ctx, tokenID, "rAdmin1", dec(t, "10000"), "", "")
	require.NoError(t, err)
}

func TestDistributeFullPass(t *testing.T) {
	gateway := newStubGateway()
	funding, settlements, distribution := newDistributionFixture(t, gateway)
	seedVerifiedSettlement(t, funding, settlements, "FARM-201")

	rows, err := distribution.Distribute(context.Background(), "FARM-201")
	require.NoError(t, err)
	require.Len(t, rows, 4) // two investors, farmer, platform

	byRecipient := make(map[string]model.ProfitDistribution)
	total := decimal.Zero
	for _, row := range rows {
		assert.Equal(t, model.PayoutStatusCompleted, row.Status)
		assert.NotEmpty(t, row.TxHash)
		require.NotNil(t, row.PaidAt)
		byRecipient[row.RecipientAddress] = row
		total = total.Add(row.Amount)
	}

	// revenue 10000, fee 10% -> 1000; remainder 9000, farmer 50% -> 4500;
	// pool 4500 split 300:700 -> 1350 and 3150.
	assert.True(t, byRecipient["rInvestorA"].Amount.Equal(dec(t, "1350")))
	assert.True(t, byRecipient["rInvestorB"].Amount.Equal(dec(t, "3150")))
	assert.True(t, byRecipient["rFarmer1"].Amount.Equal(dec(t, "4500")))
	assert.True(t, byRecipient[platformAddress].Amount.Equal(dec(t, "1000")))
	assert.True(t, total.Equal(dec(t, "10000")), "plan total %s, want 10000", total)

	record, err := settlements.GetSettlement("FARM-201")
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusCompleted, record.Status)
}

func TestDistributePartialFailureAndRetry(t *testing.T) {
	gateway := newStubGateway()
	funding, settlements, distribution := newDistributionFixture(t, gateway)
	seedVerifiedSettlement(t, funding, settlements, "FARM-202")
	ctx := context.Background()

	gateway.failDestinations["rInvestorB"] = "tecNO_DST"

	rows, err := distribution.Distribute(ctx, "FARM-202")
	require.Error(t, err)
	var pe *apperr.PartialDistributionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"rInvestorB"}, pe.FailedRecipients)
	require.Len(t, rows, 4, "one failed leg must not abort the others")

	// The pass still completes the settlement.
	record, err := settlements.GetSettlement("FARM-202")
	require.NoError(t, err)
	assert.Equal(t, model.SettlementStatusCompleted, record.Status)

	var failedRow model.ProfitDistribution
	for _, row := range rows {
		if row.RecipientAddress == "rInvestorB" {
			failedRow = row
		}
	}
	assert.Equal(t, model.PayoutStatusFailed, failedRow.Status)
	assert.Contains(t, failedRow.FailReason, "tecNO_DST")

	firstPassPaymentsA := gateway.payments("rInvestorA")

	// Retry after the destination recovers: only the failed leg is paid,
	// the completed legs are never touched again.
	delete(gateway.failDestinations, "rInvestorB")
	rows, err = distribution.Distribute(ctx, "FARM-202")
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, model.PayoutStatusCompleted, row.Status)
	}
	assert.Equal(t, firstPassPaymentsA, gateway.payments("rInvestorA"),
		"already completed recipient must not be paid again")
	assert.Equal(t, 2, gateway.payments("rInvestorB"))
}

func TestDistributeRequiresVerifiedSettlement(t *testing.T) {
	gateway := newStubGateway()
	funding, settlements, distribution := newDistributionFixture(t, gateway)
	ctx := context.Background()

	project := &model.Project{
		TokenID:       "FARM-203",
		FarmerAddress: "rFarmer1",
		Title:         "Rice terraces",
		FundingGoal:   dec(t, "1000"),
	}
	require.NoError(t, funding.CreateProject(project))

	// No settlement record at all.
	_, err := distribution.Distribute(ctx, "FARM-203")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Pending is not enough.
	_, err = settlements.SubmitRevenueProof(ctx, "FARM-203", "rFarmer1",
		dec(t, "500"), []byte("doc"), "")
	require.NoError(t, err)
	_, err = distribution.Distribute(ctx, "FARM-203")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))
}

func TestDistributeTwiceWithoutFailuresIsRejected(t *testing.T) {
	gateway := newStubGateway()
	funding, settlements, distribution := newDistributionFixture(t, gateway)
	seedVerifiedSettlement(t, funding, settlements, "FARM-204")
	ctx := context.Background()

	_, err := distribution.Distribute(ctx, "FARM-204")
	require.NoError(t, err)

	// Everything is paid; a second pass has nothing to do.
	_, err = distribution.Distribute(ctx, "FARM-204")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))

	// And nobody got paid twice.
	assert.Equal(t, 1, gateway.payments("rInvestorA"))
	assert.Equal(t, 1, gateway.payments("rInvestorB"))
	assert.Equal(t, 1, gateway.payments("rFarmer1"))
}

func TestDistributeZeroInvestors(t *testing.T) {
	gateway := newStubGateway()
	funding, settlements, distribution := newDistributionFixture(t, gateway)
	ctx := context.Background()

	project := &model.Project{
		TokenID:       "FARM-205",
		FarmerAddress: "rFarmer1",
		Title:         "Chili greenhouse",
		FundingGoal:   dec(t, "1000"),
	}
	require.NoError(t, funding.CreateProject(project))
	_, err := settlements.SubmitRevenueProof(ctx, "FARM-205", "rFarmer1",
		dec(t, "1000"), []byte("doc"), "")
	require.NoError(t, err)
	_, err = settlements.VerifySettlement(ctx, "FARM-205", "rAdmin1", dec(t, "1000"), "", "")
	require.NoError(t, err)

	rows, err := distribution.Distribute(ctx, "FARM-205")
	require.NoError(t, err)
	require.Len(t, rows, 2) // farmer and platform only

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	assert.True(t, total.Equal(dec(t, "1000")))

	byRole := make(map[model.RecipientRole]model.ProfitDistribution)
	for _, row := range rows {
		byRole[row.Role] = row
	}
	// fee 100, remainder 900, farmer share 450 plus the unclaimed pool 450.
	assert.True(t, byRole[model.RoleFarmer].Amount.Equal(dec(t, "900")))
	assert.True(t, byRole[model.RolePlatform].Amount.Equal(dec(t, "100")))
}
