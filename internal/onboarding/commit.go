package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/mmynk/fairshare/internal/models"
)

// ErrIncomplete is returned when a draft is missing fields the commit needs.
var ErrIncomplete = errors.New("draft is incomplete")

// Backend is what Commit needs from the API service.
type Backend interface {
	Register(ctx context.Context, email, name string) (models.User, error)
	CreateShareholder(ctx context.Context, sh models.Shareholder) (models.Shareholder, error)
	CreateGrant(ctx context.Context, shareholderID *int, g models.Grant) (models.Grant, error)
	CreateCompany(ctx context.Context, c models.Company) (models.Company, error)
}

// Result reports what a commit created.
type Result struct {
	User models.User `json:"user"`

	// ShareholderIDs maps draft shareholder IDs to the IDs the store assigned.
	ShareholderIDs map[int]int `json:"shareholderIDs"`

	// GrantIDs maps draft grant IDs to the IDs the store assigned.
	GrantIDs map[int]int `json:"grantIDs"`
}

// Validate checks the fields the signup steps require before submission.
func (d Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.UserName) == "" {
		missing = append(missing, "userName")
	}
	if strings.TrimSpace(d.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(d.CompanyName) == "" {
		missing = append(missing, "companyName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// Commit submits a finished draft: the user first, then shareholders in ID
// order (the founder carries the draft email so the account links to it),
// then each grant attached to the shareholder it was drafted under, then the
// company. The first failure aborts the commit and is returned; records
// created before it are kept.
func Commit(ctx context.Context, d Draft, backend Backend) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}

	user, err := backend.Register(ctx, d.Email, d.UserName)
	if err != nil {
		return Result{}, fmt.Errorf("register user: %w", err)
	}

	res := Result{
		User:           user,
		ShareholderIDs: make(map[int]int, len(d.Shareholders)),
		GrantIDs:       make(map[int]int, len(d.Grants)),
	}

	owner := make(map[int]int, len(d.Grants))
	for _, draftID := range slices.Sorted(maps.Keys(d.Shareholders)) {
		sh := d.Shareholders[draftID]
		for _, gid := range sh.Grants {
			owner[gid] = draftID
		}

		input := models.Shareholder{Name: sh.Name, Email: sh.Email, Group: sh.Group, Grants: []int{}}
		if draftID == FounderID {
			input.Email = d.Email
		}
		created, err := backend.CreateShareholder(ctx, input)
		if err != nil {
			return res, fmt.Errorf("create shareholder %q: %w", sh.Name, err)
		}
		res.ShareholderIDs[draftID] = created.ID
		if draftID == FounderID {
			id := created.ID
			res.User.ShareholderID = &id
		}
	}

	for _, draftID := range slices.Sorted(maps.Keys(d.Grants)) {
		g := d.Grants[draftID]
		var target *int
		if shDraftID, ok := owner[draftID]; ok {
			id := res.ShareholderIDs[shDraftID]
			target = &id
		}
		created, err := backend.CreateGrant(ctx, target, g)
		if err != nil {
			return res, fmt.Errorf("create grant %q: %w", g.Name, err)
		}
		res.GrantIDs[draftID] = created.ID
	}

	if _, err := backend.CreateCompany(ctx, models.Company{Name: d.CompanyName, ShareTypes: d.ShareTypes.Clone()}); err != nil {
		return res, fmt.Errorf("create company: %w", err)
	}

	slog.Info("Onboarding committed",
		"email", user.Email,
		"shareholders", len(res.ShareholderIDs),
		"grants", len(res.GrantIDs),
	)
	return res, nil
}
