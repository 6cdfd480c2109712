// Package onboarding implements the signup draft: a pure reducer over the
// company, user, shareholders and grants entered before anything is saved,
// and the commit step that submits a finished draft.
package onboarding

import (
	"errors"
	"fmt"
	"maps"

	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/storage/memory"
)

// FounderID is the shareholder ID reserved for the person setting up the
// account.
const FounderID = 0

var (
	// ErrUnknownShareholder is returned by AddGrant for a shareholder ID that
	// is not in the draft.
	ErrUnknownShareholder = errors.New("unknown shareholder")
	// ErrUnknownAction is returned for an action type the reducer does not
	// handle.
	ErrUnknownAction = errors.New("unknown action")
)

// Draft is the onboarding aggregate.
type Draft struct {
	CompanyName  string                     `json:"companyName"`
	ShareTypes   models.ShareValues         `json:"shareTypes"`
	UserName     string                     `json:"userName"`
	Email        string                     `json:"email"`
	Shareholders map[int]models.Shareholder `json:"shareholders"`
	Grants       map[int]models.Grant       `json:"grants"`
}

// NewDraft returns an empty draft offering the canonical share types with no
// values set.
func NewDraft() Draft {
	return Draft{
		ShareTypes:   models.DefaultShareValues(),
		Shareholders: map[int]models.Shareholder{},
		Grants:       map[int]models.Grant{},
	}
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := d
	out.ShareTypes = d.ShareTypes.Clone()
	if out.ShareTypes == nil {
		out.ShareTypes = models.ShareValues{}
	}
	out.Shareholders = make(map[int]models.Shareholder, len(d.Shareholders))
	for id, sh := range d.Shareholders {
		out.Shareholders[id] = sh.Clone()
	}
	out.Grants = maps.Clone(d.Grants)
	if out.Grants == nil {
		out.Grants = map[int]models.Grant{}
	}
	return out
}

// Reduce applies action to d and returns the resulting draft. d is never
// modified; on error the returned draft is d itself.
func Reduce(d Draft, action Action) (Draft, error) {
	next := d.Clone()

	switch a := action.(type) {
	case UpdateUser:
		next.UserName = a.Name
		founder, ok := next.Shareholders[FounderID]
		if ok {
			founder.Name = a.Name
		} else {
			founder = models.Shareholder{ID: FounderID, Name: a.Name, Grants: []int{}, Group: models.GroupFounder}
		}
		next.Shareholders[FounderID] = founder

	case UpdateEmail:
		next.Email = a.Email

	case UpdateCompany:
		next.CompanyName = a.Name

	case UpdateShareTypes:
		if a.NewKey != nil {
			if *a.NewKey != a.Key {
				next.ShareTypes[*a.NewKey] = next.ShareTypes[a.Key]
				delete(next.ShareTypes, a.Key)
			}
		} else {
			next.ShareTypes[a.Key] = a.Value
		}

	case AddShareholder:
		id := memory.NextID(next.Shareholders)
		next.Shareholders[id] = models.Shareholder{
			ID:     id,
			Name:   a.Name,
			Email:  a.Email,
			Group:  a.Group,
			Grants: []int{},
		}

	case AddGrant:
		sh, ok := next.Shareholders[a.ShareholderID]
		if !ok {
			return d, fmt.Errorf("add grant: shareholder %d: %w", a.ShareholderID, ErrUnknownShareholder)
		}
		id := memory.NextID(next.Grants)
		g := a.Grant
		g.ID = id
		next.Grants[id] = g
		sh.Grants = append(sh.Grants, id)
		next.Shareholders[a.ShareholderID] = sh

	default:
		return d, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	return next, nil
}

// ReduceAll applies actions in order, stopping at the first error.
func ReduceAll(d Draft, actions []Action) (Draft, error) {
	for i, a := range actions {
		next, err := Reduce(d, a)
		if err != nil {
			return d, fmt.Errorf("action %d (%s): %w", i, a.Type(), err)
		}
		d = next
	}
	return d, nil
}
