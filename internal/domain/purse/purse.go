// Package purse splits a race purse between the connections of a runner.
package purse

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultFlatJockeyFee is the riding fee paid on a non-winning mount.
const DefaultFlatJockeyFee = 500

var (
	hundred = decimal.NewFromInt(100)

	// placingShares holds the percent of the purse for places 1 to 5.
	placingShares = [...]decimal.Decimal{
		decimal.NewFromInt(60),
		decimal.NewFromInt(20),
		decimal.NewFromInt(10),
		decimal.NewFromInt(5),
		decimal.NewFromInt(3),
	}
	// otherShare applies to every placing after 5th, regardless of field size.
	otherShare = decimal.NewFromInt(2)

	winJockeyPct = decimal.NewFromInt(10)
	trainerPct   = decimal.NewFromInt(10)
	groomPct     = decimal.NewFromInt(1)
)

// Breakdown is the split of a purse for one runner.
type Breakdown struct {
	GrossPurse      decimal.Decimal `json:"grossPurse"`
	Placing         int             `json:"placing"`
	SharePct        decimal.Decimal `json:"placingSharePct"`
	Share           decimal.Decimal `json:"placingShare"`
	JockeyFee       decimal.Decimal `json:"jockeyFee"`
	TrainerFee      decimal.Decimal `json:"trainerFee"`
	GroomTip        decimal.Decimal `json:"groomTip"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetToOwner      decimal.Decimal `json:"netToOwner"`
	NetYieldPct     decimal.Decimal `json:"netYieldPct"`
}

// Distributor computes breakdowns under a fee policy.
type Distributor struct {
	flatJockeyFee decimal.Decimal
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithFlatJockeyFee sets the riding fee for non-winning placings. Negative
// fees are ignored.
func WithFlatJockeyFee(fee decimal.Decimal) Option {
	return func(d *Distributor) {
		if !fee.IsNegative() {
			d.flatJockeyFee = fee
		}
	}
}

// NewDistributor returns a Distributor with the default fee policy.
func NewDistributor(opts ...Option) *Distributor {
	d := &Distributor{flatJockeyFee: decimal.NewFromInt(DefaultFlatJockeyFee)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SharePct returns the percent of the purse paid to placing.
func SharePct(placing int) decimal.Decimal {
	if placing >= 1 && placing <= len(placingShares) {
		return placingShares[placing-1]
	}
	return otherShare
}

// Distribute splits gross for a runner finishing at placing. The flat riding
// fee is not capped by the share, so a low placing in a small purse can net
// the owner a negative amount.
func (d *Distributor) Distribute(gross decimal.Decimal, placing int) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, fmt.Errorf("%w: %s", ErrNegativePurse, gross)
	}
	if placing < 1 {
		return Breakdown{}, fmt.Errorf("%w: got %d", ErrInvalidPlacing, placing)
	}

	pct := SharePct(placing)
	share := percent(gross, pct)

	jockey := d.flatJockeyFee
	if placing == 1 {
		jockey = percent(share, winJockeyPct)
	}
	trainer := percent(share, trainerPct)
	groom := percent(share, groomPct)
	deductions := jockey.Add(trainer).Add(groom)
	net := share.Sub(deductions)

	yield := decimal.Zero
	if !gross.IsZero() {
		yield = net.Div(gross).Mul(hundred)
	}

	return Breakdown{
		GrossPurse:      gross,
		Placing:         placing,
		SharePct:        pct,
		Share:           share,
		JockeyFee:       jockey,
		TrainerFee:      trainer,
		GroomTip:        groom,
		TotalDeductions: deductions,
		NetToOwner:      net,
		NetYieldPct:     yield,
	}, nil
}

var defaultDistributor = NewDistributor()

// Distribute uses the default fee policy.
func Distribute(gross decimal.Decimal, placing int) (Breakdown, error) {
	return defaultDistributor.Distribute(gross, placing)
}

func percent(v, pct decimal.Decimal) decimal.Decimal {
	return v.Mul(pct).Div(hundred)
}
