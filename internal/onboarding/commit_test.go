package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mmynk/fairshare/internal/models"
)

// fakeBackend records calls and hands out IDs starting at 100 so draft IDs
// and store IDs never coincide.
type fakeBackend struct {
	users        []models.User
	shareholders map[int]models.Shareholder
	grants       map[int]models.Grant
	company      *models.Company
	failCompany  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{shareholders: map[int]models.Shareholder{}, grants: map[int]models.Grant{}}
}

func (f *fakeBackend) Register(_ context.Context, email, name string) (models.User, error) {
	u := models.User{Email: email, Name: name}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeBackend) CreateShareholder(_ context.Context, sh models.Shareholder) (models.Shareholder, error) {
	sh.ID = 100 + len(f.shareholders)
	f.shareholders[sh.ID] = sh
	return sh, nil
}

func (f *fakeBackend) CreateGrant(_ context.Context, shareholderID *int, g models.Grant) (models.Grant, error) {
	g.ID = 200 + len(f.grants)
	f.grants[g.ID] = g
	if shareholderID != nil {
		sh := f.shareholders[*shareholderID]
		sh.Grants = append(sh.Grants, g.ID)
		f.shareholders[*shareholderID] = sh
	}
	return g, nil
}

func (f *fakeBackend) CreateCompany(_ context.Context, c models.Company) (models.Company, error) {
	if f.failCompany != nil {
		return models.Company{}, f.failCompany
	}
	f.company = &c
	return c, nil
}

func completeDraft(t *testing.T) Draft {
	t.Helper()
	d, err := ReduceAll(NewDraft(), []Action{
		UpdateUser{Name: "Ada"},
		UpdateEmail{Email: "ada@example.com"},
		UpdateCompany{Name: "Acme"},
		UpdateShareTypes{Key: "common", Value: floatPtr(2)},
		AddShareholder{Name: "VC", Group: models.GroupInvestor},
		AddGrant{ShareholderID: 1, Grant: models.Grant{Name: "Series A", Amount: 500, Type: models.SharePreferred}},
		AddGrant{ShareholderID: FounderID, Grant: models.Grant{Name: "Founding", Amount: 1000, Type: models.ShareCommon}},
	})
	if err != nil {
		t.Fatalf("ReduceAll failed: %v", err)
	}
	return d
}

func TestCommit(t *testing.T) {
	backend := newFakeBackend()

	res, err := Commit(context.Background(), completeDraft(t), backend)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if len(backend.users) != 1 || backend.users[0].Email != "ada@example.com" {
		t.Fatalf("unexpected users: %+v", backend.users)
	}
	if diff := cmp.Diff(map[int]int{0: 100, 1: 101}, res.ShareholderIDs); diff != "" {
		t.Errorf("shareholder id map (-want +got):\n%s", diff)
	}
	if res.User.ShareholderID == nil || *res.User.ShareholderID != 100 {
		t.Errorf("user should be linked to founder 100, got %v", res.User.ShareholderID)
	}

	founder := backend.shareholders[100]
	if founder.Email != "ada@example.com" {
		t.Errorf("founder email = %q, want draft email", founder.Email)
	}
	if diff := cmp.Diff([]int{201}, founder.Grants); diff != "" {
		t.Errorf("founder grants (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{200}, backend.shareholders[101].Grants); diff != "" {
		t.Errorf("investor grants (-want +got):\n%s", diff)
	}

	if backend.company == nil || backend.company.Name != "Acme" {
		t.Fatalf("company not created: %+v", backend.company)
	}
	if v, ok := backend.company.ShareTypes.Value(models.ShareCommon); !ok || v != 2 {
		t.Errorf("company common value = %v, want 2", v)
	}
}

func TestCommitIncompleteDraft(t *testing.T) {
	backend := newFakeBackend()
	d := mustReduce(t, NewDraft(), UpdateUser{Name: "Ada"})

	_, err := Commit(context.Background(), d, backend)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if len(backend.users) != 0 {
		t.Error("nothing should be submitted for an incomplete draft")
	}
}

func TestCommitPropagatesFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failCompany = errors.New("boom")

	_, err := Commit(context.Background(), completeDraft(t), backend)
	if !errors.Is(err, backend.failCompany) {
		t.Fatalf("expected company error, got %v", err)
	}
}
