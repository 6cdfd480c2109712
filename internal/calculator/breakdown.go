package calculator

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fairshare/internal/models"
)

// GrantValue is a grant enriched with its monetary value.
type GrantValue struct {
	models.Grant
	Value float64 `json:"value"`
}

// Breakdown summarizes one shareholder's holdings.
type Breakdown struct {
	ShareholderID   int          `json:"shareholderID"`
	Name            string       `json:"name"`
	GrantsIssued    int          `json:"grantsIssued"`
	Grants          []GrantValue `json:"grants"`
	CommonShares    float64      `json:"commonShares"`
	PreferredShares float64      `json:"preferredShares"`
	TotalShares     float64      `json:"totalShares"`
	TotalValue      float64      `json:"totalValue"`
	FormattedValue  string       `json:"formattedValue"`
}

func (l Ledger) grantValue(g models.Grant) decimal.Decimal {
	return decimal.NewFromInt(g.Amount).Mul(decimal.NewFromFloat(l.ShareValues.Multiplier(g.Type)))
}

// GrantValues returns the shareholder's grants in issuance order, each with
// value = amount × value per share (1.0 when the type has no value).
// Grant IDs missing from the ledger are skipped.
func GrantValues(l Ledger, sh models.Shareholder) []GrantValue {
	out := make([]GrantValue, 0, len(sh.Grants))
	for _, id := range sh.Grants {
		g, ok := l.Grants[id]
		if !ok {
			continue
		}
		out = append(out, GrantValue{Grant: g, Value: l.grantValue(g).InexactFloat64()})
	}
	return out
}

// ShareholderBreakdown computes per-grant values and totals split by
// share type for one shareholder.
func ShareholderBreakdown(l Ledger, sh models.Shareholder) Breakdown {
	b := Breakdown{
		ShareholderID: sh.ID,
		Name:          sh.Name,
		GrantsIssued:  len(sh.Grants),
		Grants:        GrantValues(l, sh),
	}

	common, preferred, shares, total := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, gv := range b.Grants {
		amount := decimal.NewFromInt(gv.Amount)
		switch gv.Type {
		case models.ShareCommon:
			common = common.Add(amount)
		case models.SharePreferred:
			preferred = preferred.Add(amount)
		}
		shares = shares.Add(amount)
		total = total.Add(l.grantValue(gv.Grant))
	}
	b.CommonShares = common.InexactFloat64()
	b.PreferredShares = preferred.InexactFloat64()
	b.TotalShares = shares.InexactFloat64()
	b.TotalValue = total.InexactFloat64()
	b.FormattedValue = FormatUSD(total)
	return b
}

// MarketCap sums, over every share type with a defined value, the total
// amount of grants of that type times its value per share. Types without a
// value are skipped.
func MarketCap(l Ledger) decimal.Decimal {
	shares := make(map[models.ShareType]decimal.Decimal)
	for _, g := range l.Grants {
		shares[g.Type] = shares[g.Type].Add(decimal.NewFromInt(g.Amount))
	}

	total := decimal.Zero
	for t, count := range shares {
		value, ok := l.ShareValues.Value(t)
		if !ok {
			continue
		}
		total = total.Add(count.Mul(decimal.NewFromFloat(value)))
	}
	return total
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FormatUSD renders d as US dollars, e.g. "$1,000.00". Amounts too large
// for go-money's int64 cents are grouped by hand.
func FormatUSD(d decimal.Decimal) string {
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return formatLargeUSD(cents)
	}
	return money.New(cents.IntPart(), money.USD).Display()
}

func formatLargeUSD(cents decimal.Decimal) string {
	sign := ""
	if cents.IsNegative() {
		sign = "-"
		cents = cents.Neg()
	}
	digits := cents.String()
	whole, frac := digits[:len(digits)-2], digits[len(digits)-2:]

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
