package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fairshare/internal/calculator"
	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/storage/memory"
)

// Store is the transactional entity store the services read and write.
type Store interface {
	Update(fn func(tx *memory.Tx) error) error
	View(fn func(tx *memory.Tx) error) error
}

// CapTableService applies cap-table operations to the entity store.
// Errors are *connect.Error values carrying the failure class.
type CapTableService struct {
	store Store
}

// NewCapTableService creates a new CapTableService over store.
func NewCapTableService(store Store) *CapTableService {
	return &CapTableService{store: store}
}

// ShareholderDetail is a shareholder with its grants resolved and valued.
type ShareholderDetail struct {
	models.Shareholder
	GrantsData []calculator.GrantValue `json:"grantsData"`
}

// MarketCapResult is the company's market capitalization.
type MarketCapResult struct {
	MarketCap float64 `json:"marketCap"`
	Formatted string  `json:"formatted"`
}

// EditShareholderRequest carries the editable fields of a shareholder.
type EditShareholderRequest struct {
	ID    int          `json:"id"`
	Name  string       `json:"name"`
	Group models.Group `json:"group"`
}

// CreateCompany replaces the company record.
func (s *CapTableService) CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	slog.Info("CreateCompany request received", "name", c.Name, "share_types", c.ShareTypes.Keys())

	if strings.TrimSpace(c.Name) == "" {
		return models.Company{}, connect.NewError(connect.CodeInvalidArgument, ErrMissingName)
	}
	if c.ShareTypes == nil {
		c.ShareTypes = models.ShareValues{}
	}

	if err := s.store.Update(func(tx *memory.Tx) error {
		return tx.PutCompany(c)
	}); err != nil {
		slog.Error("CreateCompany failed", "error", err)
		return models.Company{}, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Company created", "name", c.Name)
	return c.Clone(), nil
}

// GetCompany returns the company record.
func (s *CapTableService) GetCompany(ctx context.Context) (models.Company, error) {
	var (
		company models.Company
		ok      bool
	)
	if err := s.store.View(func(tx *memory.Tx) error {
		company, ok = tx.Company()
		return nil
	}); err != nil {
		return models.Company{}, asConnectError(err)
	}
	if !ok {
		return models.Company{}, connect.NewError(connect.CodeNotFound, ErrCompanyNotFound)
	}
	return company, nil
}

// CreateShareholder adds a shareholder with the next free ID. When sh.Email
// belongs to a registered user, the user is linked to the new shareholder;
// if that user is already linked, nothing is written and a conflict is
// returned.
func (s *CapTableService) CreateShareholder(ctx context.Context, sh models.Shareholder) (models.Shareholder, error) {
	slog.Info("CreateShareholder request received",
		"name", sh.Name,
		"group", sh.Group,
		"grants_count", len(sh.Grants),
	)

	if strings.TrimSpace(sh.Name) == "" {
		return models.Shareholder{}, connect.NewError(connect.CodeInvalidArgument, ErrMissingName)
	}
	if !sh.Group.Valid() {
		return models.Shareholder{}, connect.NewError(connect.CodeInvalidArgument, ErrInvalidGroup)
	}
	if sh.Grants == nil {
		sh.Grants = []int{}
	}

	var created models.Shareholder
	err := s.store.Update(func(tx *memory.Tx) error {
		if err := checkGrantsFree(tx, sh.Grants); err != nil {
			return err
		}

		user, linked := tx.User(sh.Email)
		linked = linked && sh.Email != ""
		if linked && user.IsLinked() {
			return connect.NewError(connect.CodeAlreadyExists,
				fmt.Errorf("%w: %s is shareholder %d", ErrAlreadyLinked, sh.Email, *user.ShareholderID))
		}

		sh.ID = tx.NextShareholderID()
		if err := tx.PutShareholder(sh); err != nil {
			return err
		}
		if linked {
			id := sh.ID
			user.ShareholderID = &id
			if err := tx.PutUser(user); err != nil {
				return err
			}
		}
		created = sh.Clone()
		return nil
	})
	if err != nil {
		slog.Warn("CreateShareholder failed", "name", sh.Name, "error", err)
		return models.Shareholder{}, asConnectError(err)
	}

	slog.Info("Shareholder created", "shareholder_id", created.ID, "email", created.Email)
	return created, nil
}

// CreateGrant adds a grant with the next free ID. When shareholderID names
// an existing shareholder the grant is appended to its list; otherwise the
// grant is stored unattached.
func (s *CapTableService) CreateGrant(ctx context.Context, shareholderID *int, g models.Grant) (models.Grant, error) {
	attrs := []any{"name", g.Name, "amount", g.Amount, "type", g.Type}
	if shareholderID != nil {
		attrs = append(attrs, "shareholder_id", *shareholderID)
	}
	slog.Info("CreateGrant request received", attrs...)

	if !g.Type.Valid() {
		return models.Grant{}, connect.NewError(connect.CodeInvalidArgument, ErrInvalidShareType)
	}
	if g.Amount <= 0 {
		return models.Grant{}, connect.NewError(connect.CodeInvalidArgument, ErrInvalidAmount)
	}

	attached := false
	err := s.store.Update(func(tx *memory.Tx) error {
		g.ID = tx.NextGrantID()
		if err := tx.PutGrant(g); err != nil {
			return err
		}
		if shareholderID == nil {
			return nil
		}
		sh, ok := tx.Shareholder(*shareholderID)
		if !ok {
			return nil
		}
		sh.Grants = append(sh.Grants, g.ID)
		attached = true
		return tx.PutShareholder(sh)
	})
	if err != nil {
		slog.Error("CreateGrant failed", "error", err)
		return models.Grant{}, asConnectError(err)
	}

	if attached {
		slog.Info("Grant created", "grant_id", g.ID, "shareholder_id", *shareholderID)
	} else {
		slog.Info("Grant created unattached", "grant_id", g.ID)
	}
	return g, nil
}

// ListGrants returns every grant keyed by ID.
func (s *CapTableService) ListGrants(ctx context.Context) (map[int]models.Grant, error) {
	var grants map[int]models.Grant
	if err := s.store.View(func(tx *memory.Tx) error {
		grants = tx.Grants()
		return nil
	}); err != nil {
		return nil, asConnectError(err)
	}
	return grants, nil
}

// ListShareholders returns every shareholder keyed by ID.
func (s *CapTableService) ListShareholders(ctx context.Context) (map[int]models.Shareholder, error) {
	var shareholders map[int]models.Shareholder
	if err := s.store.View(func(tx *memory.Tx) error {
		shareholders = tx.Shareholders()
		return nil
	}); err != nil {
		return nil, asConnectError(err)
	}
	return shareholders, nil
}

// GetShareholder returns a shareholder with its grants valued at the
// company's share prices.
func (s *CapTableService) GetShareholder(ctx context.Context, id int) (ShareholderDetail, error) {
	ledger, sh, err := s.shareholderLedger(id)
	if err != nil {
		return ShareholderDetail{}, err
	}
	return ShareholderDetail{
		Shareholder: sh,
		GrantsData:  calculator.GrantValues(ledger, sh),
	}, nil
}

// ShareholderSummary returns the per-type breakdown of one shareholder.
func (s *CapTableService) ShareholderSummary(ctx context.Context, id int) (calculator.Breakdown, error) {
	ledger, sh, err := s.shareholderLedger(id)
	if err != nil {
		return calculator.Breakdown{}, err
	}
	return calculator.ShareholderBreakdown(ledger, sh), nil
}

// EditShareholder changes a shareholder's name and group. Grants and ID are
// left untouched.
func (s *CapTableService) EditShareholder(ctx context.Context, req EditShareholderRequest) (models.Shareholder, error) {
	slog.Info("EditShareholder request received",
		"shareholder_id", req.ID,
		"name", req.Name,
		"group", req.Group,
	)

	if strings.TrimSpace(req.Name) == "" {
		return models.Shareholder{}, connect.NewError(connect.CodeInvalidArgument, ErrMissingName)
	}
	if !req.Group.Valid() {
		return models.Shareholder{}, connect.NewError(connect.CodeInvalidArgument, ErrInvalidGroup)
	}

	var updated models.Shareholder
	err := s.store.Update(func(tx *memory.Tx) error {
		sh, ok := tx.Shareholder(req.ID)
		if !ok {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %d", ErrShareholderNotFound, req.ID))
		}
		sh.Name = req.Name
		sh.Group = req.Group
		updated = sh
		return tx.PutShareholder(sh)
	})
	if err != nil {
		slog.Warn("EditShareholder failed", "shareholder_id", req.ID, "error", err)
		return models.Shareholder{}, asConnectError(err)
	}

	slog.Info("Shareholder updated", "shareholder_id", updated.ID)
	return updated, nil
}

// GrantStats aggregates grants by mode. Value weighting applies only when
// byValue is set and a company exists.
func (s *CapTableService) GrantStats(ctx context.Context, mode calculator.Mode, byValue bool) ([]calculator.Bucket, error) {
	ledger, hasCompany, err := s.ledger()
	if err != nil {
		return nil, err
	}
	buckets := calculator.Aggregate(mode, ledger, byValue && hasCompany)

	slog.Debug("GrantStats computed",
		"mode", mode,
		"by_value", byValue && hasCompany,
		"buckets", len(buckets),
	)
	return buckets, nil
}

// MarketCap returns the company's market capitalization.
func (s *CapTableService) MarketCap(ctx context.Context) (MarketCapResult, error) {
	ledger, _, err := s.ledger()
	if err != nil {
		return MarketCapResult{}, err
	}
	total := calculator.MarketCap(ledger)
	return MarketCapResult{
		MarketCap: total.InexactFloat64(),
		Formatted: calculator.FormatUSD(total),
	}, nil
}

// ledger takes a consistent copy of everything the calculator reads.
func (s *CapTableService) ledger() (calculator.Ledger, bool, error) {
	var (
		l          calculator.Ledger
		hasCompany bool
	)
	err := s.store.View(func(tx *memory.Tx) error {
		l.Shareholders = tx.Shareholders()
		l.Grants = tx.Grants()
		var c models.Company
		if c, hasCompany = tx.Company(); hasCompany {
			l.ShareValues = c.ShareTypes
		}
		return nil
	})
	if err != nil {
		slog.Error("Reading ledger failed", "error", err)
		return calculator.Ledger{}, false, asConnectError(err)
	}
	return l, hasCompany, nil
}

func (s *CapTableService) shareholderLedger(id int) (calculator.Ledger, models.Shareholder, error) {
	l, _, err := s.ledger()
	if err != nil {
		return l, models.Shareholder{}, err
	}
	sh, ok := l.Shareholders[id]
	if !ok {
		return l, models.Shareholder{}, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %d", ErrShareholderNotFound, id))
	}
	return l, sh, nil
}

// checkGrantsFree rejects grant lists that name a grant twice, name a grant
// that does not exist, or name a grant another shareholder already holds.
func checkGrantsFree(tx *memory.Tx, grants []int) error {
	seen := make(map[int]bool, len(grants))
	for _, gid := range grants {
		if seen[gid] {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %d", ErrDuplicateGrant, gid))
		}
		seen[gid] = true
		if _, ok := tx.Grant(gid); !ok {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %d", ErrUnknownGrant, gid))
		}
	}

	for _, id := range tx.ShareholderIDs() {
		holder, _ := tx.Shareholder(id)
		for _, gid := range grants {
			if holder.HasGrant(gid) {
				return connect.NewError(connect.CodeInvalidArgument,
					fmt.Errorf("%w: grant %d belongs to shareholder %d", ErrGrantAttached, gid, id))
			}
		}
	}
	return nil
}
