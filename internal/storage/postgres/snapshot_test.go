package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/mmynk/fairshare/internal/config"
	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/storage"
)

func newMockStore(t *testing.T) (*SnapshotStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	store := NewSnapshotStore(mock, nil)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	return store, mock
}

func TestSnapshotStore_EnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(createStateTable)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotStore_Save(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertSnapshot)).
		WithArgs(storage.SnapshotKey, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	snap := storage.Snapshot{
		Shareholders: map[int]models.Shareholder{1: {ID: 1, Name: "Ada", Grants: []int{}, Group: models.GroupFounder}},
		Users:        map[string]models.User{},
		Grants:       map[int]models.Grant{},
	}
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotStore_SaveError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(upsertSnapshot)).
		WithArgs(storage.SnapshotKey, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)

	if err := store.Save(context.Background(), storage.Snapshot{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
}

func TestSnapshotStore_Load(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	payload := []byte(`{"shareholders":{"1":{"id":1,"name":"Ada","grants":[7],"group":"founder"}},"users":{},"grants":{"7":{"id":7,"name":"Founding","amount":1000,"issued":"2024-01-01","type":"common"}},"company":{"name":"Acme","shareTypes":{"common":2,"preferred":null}}}`)
	rows := pgxmock.NewRows([]string{"payload"}).AddRow(payload)
	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs(storage.SnapshotKey).
		WillReturnRows(rows)

	snap, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored snapshot")
	}
	if snap.Shareholders[1].Name != "Ada" || snap.Grants[7].Amount != 1000 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Company == nil || snap.Company.ShareTypes.Multiplier(models.ShareCommon) != 2 {
		t.Fatalf("unexpected company %+v", snap.Company)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotStore_LoadEmpty(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs(storage.SnapshotKey).
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot")
	}
}

func TestSnapshotStore_SavedAt(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectSavedAt)).
		WithArgs(storage.SnapshotKey).
		WillReturnRows(pgxmock.NewRows([]string{"saved_at"}).AddRow(want))
	mock.ExpectQuery(regexp.QuoteMeta(selectSavedAt)).
		WithArgs(storage.SnapshotKey).
		WillReturnError(pgx.ErrNoRows)

	got, err := store.SavedAt(context.Background())
	if err != nil {
		t.Fatalf("SavedAt returned error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("SavedAt = %v, want %v", got, want)
	}

	if _, err := store.SavedAt(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotStore_CloseInvokesHook(t *testing.T) {
	t.Parallel()

	closed := false
	store := NewSnapshotStore(nil, func() { closed = true })
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !closed {
		t.Fatal("expected close hook to run")
	}
}

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DatabaseConfig{
		Host:            "db.local",
		Port:            5432,
		User:            "fairshare",
		Password:        "secret",
		Name:            "captable",
		SSLMode:         "disable",
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: 10 * time.Minute,
	}

	poolCfg, err := BuildPoolConfig(cfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}
	if poolCfg.MaxConns != 8 || poolCfg.MinConns != 2 {
		t.Fatalf("unexpected pool sizes: max=%d min=%d", poolCfg.MaxConns, poolCfg.MinConns)
	}
	if poolCfg.MaxConnLifetime != 10*time.Minute {
		t.Fatalf("unexpected lifetime %v", poolCfg.MaxConnLifetime)
	}
	if poolCfg.ConnConfig.Host != "db.local" || poolCfg.ConnConfig.Database != "captable" {
		t.Fatalf("unexpected conn config %+v", poolCfg.ConnConfig)
	}
}
