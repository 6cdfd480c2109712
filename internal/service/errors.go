package service

import (
	"errors"

	"connectrpc.com/connect"
)

var (
	ErrShareholderNotFound = errors.New("shareholder not found")
	ErrCompanyNotFound     = errors.New("company not found")
	ErrAlreadyLinked       = errors.New("user already has a shareholder")
	ErrUnknownGrant        = errors.New("grant does not exist")
	ErrDuplicateGrant      = errors.New("grant listed more than once")
	ErrGrantAttached       = errors.New("grant already attached to a shareholder")
	ErrInvalidGroup        = errors.New("group must be one of employee, founder, investor")
	ErrInvalidShareType    = errors.New("type must be one of common, preferred")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrMissingName         = errors.New("name is required")
)

// asConnectError passes classified errors through and marks everything else
// as internal.
func asConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(connect.CodeInternal, err)
}
