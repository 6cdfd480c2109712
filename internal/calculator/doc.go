// Package calculator derives ownership views from the cap table.
//
// All functions are pure: they read a Ledger and return new values. Sums are
// computed with decimal arithmetic and converted to float64 only in the
// returned buckets, so value-weighted totals do not accumulate rounding
// noise across many grants.
package calculator
