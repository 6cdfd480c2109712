package calculator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fairshare/internal/models"
)

func TestMarketCap(t *testing.T) {
	tests := []struct {
		name   string
		ledger Ledger
		want   string
	}{
		{
			name: "undefined preferred is skipped",
			ledger: Ledger{
				Grants: map[int]models.Grant{
					1: {ID: 1, Amount: 500, Type: models.ShareCommon},
					2: {ID: 2, Amount: 300, Type: models.SharePreferred},
				},
				ShareValues: models.ShareValues{"common": ptr(2), "preferred": nil},
			},
			want: "1000",
		},
		{
			name:   "both types valued",
			ledger: sampleLedger(),
			want:   "12800",
		},
		{
			name: "no company",
			ledger: Ledger{
				Grants: map[int]models.Grant{1: {ID: 1, Amount: 500, Type: models.ShareCommon}},
			},
			want: "0",
		},
		{
			name: "fractional values",
			ledger: Ledger{
				Grants:      map[int]models.Grant{1: {ID: 1, Amount: 3, Type: models.ShareCommon}},
				ShareValues: models.ShareValues{"common": ptr(0.1)},
			},
			want: "0.3",
		},
		{
			name:   "share totals beyond int64",
			ledger: hugeLedger(),
			want:   "9223372036854775808",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarketCap(tt.ledger)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MarketCap() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestShareholderBreakdown(t *testing.T) {
	l := sampleLedger()

	got := ShareholderBreakdown(l, l.Shareholders[1])
	want := Breakdown{
		ShareholderID: 1,
		Name:          "Ada",
		GrantsIssued:  2,
		Grants: []GrantValue{
			{Grant: l.Grants[1], Value: 2000},
			{Grant: l.Grants[2], Value: 2000},
		},
		CommonShares:    1000,
		PreferredShares: 500,
		TotalShares:     1500,
		TotalValue:      4000,
		FormattedValue:  "$4,000.00",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ShareholderBreakdown() mismatch (-want +got):\n%s", diff)
	}
}

func TestGrantValuesWithoutCompany(t *testing.T) {
	l := sampleLedger()
	l.ShareValues = nil

	got := GrantValues(l, l.Shareholders[2])
	if len(got) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(got))
	}
	if got[0].Value != 2000 {
		t.Errorf("value = %v, want 2000 (multiplier 1.0)", got[0].Value)
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1000", "$1,000.00"},
		{"1234.567", "$1,234.57"},
		{"9223372036854775808", "$9,223,372,036,854,775,808.00"},
		{"-92233720368547758.09", "-$92,233,720,368,547,758.09"},
		{"123456789012345678.5", "$123,456,789,012,345,678.50"},
	}
	for _, tt := range tests {
		if got := FormatUSD(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatUSD(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func hugeLedger() Ledger {
	return Ledger{
		Shareholders: map[int]models.Shareholder{
			1: {ID: 1, Name: "Whale", Group: models.GroupInvestor, Grants: []int{1, 2}},
		},
		Grants: map[int]models.Grant{
			1: {ID: 1, Amount: 1 << 62, Type: models.ShareCommon},
			2: {ID: 2, Amount: 1 << 62, Type: models.ShareCommon},
		},
		ShareValues: models.ShareValues{"common": ptr(1)},
	}
}

func TestShareholderBreakdownLargeTotals(t *testing.T) {
	l := hugeLedger()
	b := ShareholderBreakdown(l, l.Shareholders[1])

	if b.CommonShares <= 0 || b.TotalShares <= 0 {
		t.Fatalf("share totals = %v/%v, want positive", b.CommonShares, b.TotalShares)
	}
	if b.TotalShares != b.TotalValue {
		t.Errorf("TotalShares = %v, want %v", b.TotalShares, b.TotalValue)
	}
	if want := "$9,223,372,036,854,775,808.00"; b.FormattedValue != want {
		t.Errorf("FormattedValue = %q, want %q", b.FormattedValue, want)
	}
	if got := FormatUSD(MarketCap(l)); got != b.FormattedValue {
		t.Errorf("market cap %q disagrees with breakdown %q", got, b.FormattedValue)
	}
}
