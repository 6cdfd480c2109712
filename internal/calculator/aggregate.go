package calculator

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fairshare/internal/models"
)

// Mode selects how grants are grouped into buckets.
type Mode string

const (
	ModeGroup     Mode = "group"
	ModeInvestor  Mode = "investor"
	ModeShareType Mode = "sharetype"
)

// Bucket is one slice of an ownership chart.
type Bucket struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Ledger is the read-only input to every aggregation.
type Ledger struct {
	Shareholders map[int]models.Shareholder
	Grants       map[int]models.Grant

	// ShareValues holds the company's value per share type. Nil when no
	// company exists.
	ShareValues models.ShareValues
}

// grantAmount returns the contribution of one grant: its share count, or
// share count × value per share when byValue is set.
// Grants that do not exist contribute nothing.
func (l Ledger) grantAmount(grantID int, byValue bool) decimal.Decimal {
	g, ok := l.Grants[grantID]
	if !ok {
		return decimal.Zero
	}
	amount := decimal.NewFromInt(g.Amount)
	if byValue {
		amount = amount.Mul(decimal.NewFromFloat(l.ShareValues.Multiplier(g.Type)))
	}
	return amount
}

func (l Ledger) sumGrants(grantIDs []int, byValue bool) decimal.Decimal {
	total := decimal.Zero
	for _, id := range grantIDs {
		total = total.Add(l.grantAmount(id, byValue))
	}
	return total
}

func (l Ledger) shareholdersByID() []models.Shareholder {
	ids := slices.Sorted(maps.Keys(l.Shareholders))
	out := make([]models.Shareholder, len(ids))
	for i, id := range ids {
		out[i] = l.Shareholders[id]
	}
	return out
}

// ByGroup sums the grants attached to the shareholders of each group.
// Groups whose sum is zero are omitted.
func ByGroup(l Ledger, byValue bool) []Bucket {
	sums := make(map[models.Group]decimal.Decimal, len(models.Groups))
	for _, sh := range l.Shareholders {
		sums[sh.Group] = sums[sh.Group].Add(l.sumGrants(sh.Grants, byValue))
	}

	buckets := []Bucket{}
	for _, g := range models.Groups {
		if sum := sums[g]; sum.IsPositive() {
			buckets = append(buckets, Bucket{X: string(g), Y: sum.InexactFloat64()})
		}
	}
	return buckets
}

// ByInvestor sums each shareholder's grants, in ascending ID order.
// Shareholders whose sum is zero are omitted.
func ByInvestor(l Ledger, byValue bool) []Bucket {
	buckets := []Bucket{}
	for _, sh := range l.shareholdersByID() {
		if sum := l.sumGrants(sh.Grants, byValue); sum.IsPositive() {
			buckets = append(buckets, Bucket{X: sh.Name, Y: sum.InexactFloat64()})
		}
	}
	return buckets
}

// ByShareType sums every grant of each canonical share type, including
// grants not attached to any shareholder. Unlike ByGroup and ByInvestor,
// both types are always reported, even when zero.
func ByShareType(l Ledger, byValue bool) []Bucket {
	sums := make(map[models.ShareType]decimal.Decimal, len(models.ShareTypes))
	for id, g := range l.Grants {
		sums[g.Type] = sums[g.Type].Add(l.grantAmount(id, byValue))
	}

	buckets := make([]Bucket, 0, len(models.ShareTypes))
	for _, t := range models.ShareTypes {
		buckets = append(buckets, Bucket{X: string(t), Y: sums[t].InexactFloat64()})
	}
	return buckets
}

// Aggregate dispatches to the aggregation for mode. Unknown modes yield an
// empty result.
func Aggregate(mode Mode, l Ledger, byValue bool) []Bucket {
	switch mode {
	case ModeGroup:
		return ByGroup(l, byValue)
	case ModeInvestor:
		return ByInvestor(l, byValue)
	case ModeShareType:
		return ByShareType(l, byValue)
	default:
		return []Bucket{}
	}
}
