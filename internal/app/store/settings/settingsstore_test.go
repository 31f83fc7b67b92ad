package settingsstore_test

import (
	"errors"
	"testing"

	settingsstore "github.com/ideaslab/server/internal/app/store/settings"
	"github.com/ideaslab/server/internal/domain/models"
	"github.com/ideaslab/server/internal/testutil"
)

func setupStore(t *testing.T) *settingsstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := settingsstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return store
}

func TestSetAndGet(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Set(ctx, "welcomeChannel", "chan-1", models.SettingTypeChannel); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, err := store.Get(ctx, "welcomeChannel")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "chan-1" {
		t.Errorf("value = %q, want %q", v, "chan-1")
	}

	// Set on an existing key overwrites.
	if err := store.Set(ctx, "welcomeChannel", "chan-2", models.SettingTypeChannel); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err = store.Get(ctx, "welcomeChannel")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if v != "chan-2" {
		t.Errorf("value = %q, want %q", v, "chan-2")
	}
}

func TestGet_NotFound(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, settingsstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetOrDefault(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v, err := store.GetOrDefault(ctx, "missing", "fallback")
	if err != nil {
		t.Fatalf("get or default: %v", err)
	}
	if v != "fallback" {
		t.Errorf("value = %q, want %q", v, "fallback")
	}

	if err := store.Set(ctx, "present", "actual", models.SettingTypeString); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err = store.GetOrDefault(ctx, "present", "fallback")
	if err != nil {
		t.Fatalf("get or default: %v", err)
	}
	if v != "actual" {
		t.Errorf("value = %q, want %q", v, "actual")
	}
}

func TestList_SortedByKey(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Set(ctx, "welcomeMessage", "hi", models.SettingTypeString); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "memberRole", "role-1", models.SettingTypeRole); err != nil {
		t.Fatalf("set: %v", err)
	}

	rows, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].Key != "memberRole" || rows[1].Key != "welcomeMessage" {
		t.Errorf("keys = [%s, %s], want sorted order", rows[0].Key, rows[1].Key)
	}
}
