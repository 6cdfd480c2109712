package models

// User represents a registered user account.
//
// Sign-in is passwordless, so the email is the only credential. There is at
// most one user per email.
type User struct {
	// Email is the user's email address (unique).
	Email string `json:"email"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// ShareholderID links the account to the shareholder record that
	// represents this user on the cap table. Nil until a shareholder is
	// created with the user's email.
	ShareholderID *int `json:"shareholderID,omitempty"`
}

// Clone returns a copy that shares no memory with u.
func (u User) Clone() User {
	if u.ShareholderID != nil {
		id := *u.ShareholderID
		u.ShareholderID = &id
	}
	return u
}

// IsLinked reports whether the user already has a shareholder record.
func (u User) IsLinked() bool {
	return u.ShareholderID != nil
}
