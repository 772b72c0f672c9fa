package payout

import (
	"fmt"
	"sort"

	"github.com/travisim/Farmify-sub001/internal/model"

	"github.com/shopspring/decimal"
)

// amountPlaces is the fractional precision of the settlement currency
// (XRP drops).
const amountPlaces = 6

// Line is one payout leg of a distribution plan.
type Line struct {
	Recipient string              `json:"recipient"`
	Role      model.RecipientRole `json:"role"`
	Amount    decimal.Decimal     `json:"amount"`
}

// Plan is the computed set of payout legs for one settlement. The line
// amounts always sum to exactly the settlement revenue.
type Plan struct {
	SettlementID uint            `json:"settlement_id"`
	Revenue      decimal.Decimal `json:"revenue"`
	Lines        []Line          `json:"lines"`
}

// Total returns the sum of all line amounts.
func (p *Plan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Lines {
		total = total.Add(line.Amount)
	}
	return total
}

// ComputePlan derives the payout plan from a verified settlement and the
// project's investments. Pure function, no side effects.
//
// The platform fee comes off the top; the farmer share comes off the
// remainder; the rest is the investor pool split proportionally by amount
// invested, one line per distinct investor. All arithmetic is decimal,
// truncated to 6 fractional digits per line; whatever rounding residual is
// left accrues to the platform line so the emitted total always equals the
// revenue exactly. With no investors the whole pool goes to the farmer.
func ComputePlan(settlement *model.SettlementRecord, investments []model.Investment,
	platformFeePct, farmerSharePct decimal.Decimal, platformAddress string) (*Plan, error) {

	revenue := settlement.RevenueAmount
	if revenue.Sign() <= 0 {
		return nil, fmt.Errorf("settlement %d has non-positive revenue %s", settlement.ID, revenue.String())
	}
	one := decimal.NewFromInt(1)
	if platformFeePct.Sign() < 0 || platformFeePct.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("platform fee percentage %s out of range [0,1)", platformFeePct.String())
	}
	if farmerSharePct.Sign() < 0 || farmerSharePct.GreaterThan(one) {
		return nil, fmt.Errorf("farmer share percentage %s out of range [0,1]", farmerSharePct.String())
	}

	platformFee := revenue.Mul(platformFeePct).Truncate(amountPlaces)
	remainder := revenue.Sub(platformFee)
	farmerPayout := remainder.Mul(farmerSharePct).Truncate(amountPlaces)
	investorPool := remainder.Sub(farmerPayout)

	// Group investments by investor so one investor holding several
	// records gets a single payout leg.
	byInvestor := make(map[string]decimal.Decimal)
	totalInvested := decimal.Zero
	for _, inv := range investments {
		byInvestor[inv.InvestorAddress] = byInvestor[inv.InvestorAddress].Add(inv.Amount)
		totalInvested = totalInvested.Add(inv.Amount)
	}

	plan := &Plan{SettlementID: settlement.ID, Revenue: revenue}

	distributed := decimal.Zero
	if totalInvested.Sign() > 0 {
		addresses := make([]string, 0, len(byInvestor))
		for addr := range byInvestor {
			addresses = append(addresses, addr)
		}
		sort.Strings(addresses)

		for _, addr := range addresses {
			share := investorPool.Mul(byInvestor[addr]).Div(totalInvested).Truncate(amountPlaces)
			if share.Sign() <= 0 {
				continue
			}
			plan.Lines = append(plan.Lines, Line{
				Recipient: addr,
				Role:      model.RoleInvestor,
				Amount:    share,
			})
			distributed = distributed.Add(share)
		}
	} else {
		// No investors on record: the pool accrues to the farmer.
		farmerPayout = farmerPayout.Add(investorPool)
		distributed = investorPool
	}

	if farmerPayout.Sign() > 0 {
		plan.Lines = append(plan.Lines, Line{
			Recipient: settlement.FarmerAddress,
			Role:      model.RoleFarmer,
			Amount:    farmerPayout,
		})
	}

	// Truncation residual from the investor legs is added to the platform
	// line, keeping the plan total exactly equal to the revenue.
	residual := investorPool.Sub(distributed)
	platformLine := platformFee.Add(residual)
	if platformLine.Sign() > 0 {
		plan.Lines = append(plan.Lines, Line{
			Recipient: platformAddress,
			Role:      model.RolePlatform,
			Amount:    platformLine,
		})
	}

	return plan, nil
}
