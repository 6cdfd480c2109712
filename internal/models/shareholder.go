package models

import "slices"

// Group classifies a shareholder.
type Group string

const (
	GroupEmployee Group = "employee"
	GroupFounder  Group = "founder"
	GroupInvestor Group = "investor"
)

// Groups lists every group in the order ownership views report them.
var Groups = []Group{GroupInvestor, GroupFounder, GroupEmployee}

// Valid reports whether g is one of the three known groups.
func (g Group) Valid() bool {
	return slices.Contains(Groups, g)
}

// Shareholder represents a party holding one or more grants.
type Shareholder struct {
	// ID is assigned by the store (max existing ID + 1).
	ID int `json:"id"`

	// Name is the display name of the shareholder.
	Name string `json:"name"`

	// Email optionally links the shareholder to a registered User.
	Email string `json:"email,omitempty"`

	// Grants holds the IDs of the grants issued to this shareholder, in
	// issuance order. The Grant records themselves live in the grant store.
	Grants []int `json:"grants"`

	// Group is one of employee, founder or investor.
	Group Group `json:"group"`
}

// Clone returns a copy whose Grants slice is independent of s.
func (s Shareholder) Clone() Shareholder {
	s.Grants = slices.Clone(s.Grants)
	if s.Grants == nil {
		s.Grants = []int{}
	}
	return s
}

// HasGrant reports whether grantID is already attached to s.
func (s Shareholder) HasGrant(grantID int) bool {
	return slices.Contains(s.Grants, grantID)
}
