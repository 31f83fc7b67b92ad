package poststore_test

import (
	"errors"
	"testing"

	poststore "github.com/ideaslab/server/internal/app/store/posts"
	"github.com/ideaslab/server/internal/domain/models"
	"github.com/ideaslab/server/internal/testutil"
)

func setupStore(t *testing.T) *poststore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return store
}

func TestCreateAndGetByThreadID(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Post{
		DiscordID:  "thread-1",
		AuthorID:   "100",
		Title:      "An idea",
		CategoryID: "forum-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected an assigned id")
	}

	p, err := store.GetByThreadID(ctx, "thread-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Title != "An idea" || p.AuthorID != "100" {
		t.Errorf("post = %+v", p)
	}
}

func TestGetByThreadID_NotFound(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByThreadID(ctx, "untracked"); !errors.Is(err, poststore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreate_DuplicateThread(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Post{DiscordID: "thread-1", AuthorID: "100", Title: "First"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, models.Post{DiscordID: "thread-1", AuthorID: "200", Title: "Replay"})
	if !errors.Is(err, poststore.ErrDuplicateThread) {
		t.Errorf("err = %v, want ErrDuplicateThread", err)
	}
}
