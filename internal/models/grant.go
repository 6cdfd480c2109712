package models

import "slices"

// ShareType is a class of equity.
type ShareType string

const (
	ShareCommon    ShareType = "common"
	SharePreferred ShareType = "preferred"
)

// ShareTypes lists the canonical share types in reporting order.
var ShareTypes = []ShareType{ShareCommon, SharePreferred}

// Valid reports whether t is a canonical share type.
func (t ShareType) Valid() bool {
	return slices.Contains(ShareTypes, t)
}

// Grant represents an issuance of shares to a shareholder.
type Grant struct {
	// ID is unique across the whole grant store, not per shareholder.
	ID int `json:"id"`

	// Name describes the occasion (e.g. "Series A", "Signing bonus").
	Name string `json:"name"`

	// Amount is the number of shares issued. Must be positive.
	Amount int64 `json:"amount"`

	// Issued is the issue date as provided by the client.
	Issued string `json:"issued"`

	// Type is the class of shares issued.
	Type ShareType `json:"type"`
}
