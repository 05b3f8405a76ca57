package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"photoShare/internal/db"
)

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

func newPostDeps(t *testing.T, name string) (*UserRepository, *PostRepository) {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	users := NewUserRepository(d)
	if _, err := users.Create(context.Background(), "admin", "12345"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return users, NewPostRepository(d)
}

func TestPostRepository_FeedIsNewestFirst(t *testing.T) {
	_, posts := newPostDeps(t, "postorder")
	posts = posts.WithClock(stepClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), time.Second))
	ctx := context.Background()

	if _, err := posts.Create(ctx, "admin", "/static/a.png", "first"); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := posts.Create(ctx, "admin", "/static/b.png", "second"); err != nil {
		t.Fatalf("create second: %v", err)
	}

	feed, err := posts.ListFeed(ctx)
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	var captions []string
	for _, p := range feed {
		captions = append(captions, p.Caption)
	}
	if !reflect.DeepEqual(captions, []string{"second", "first"}) {
		t.Fatalf("feed order = %v, want [second first]", captions)
	}
}

func TestPostRepository_StrictlyDescendingForIncreasingTimes(t *testing.T) {
	_, posts := newPostDeps(t, "postdesc")
	// Sub-second steps check that fractional seconds survive storage.
	posts = posts.WithClock(stepClock(time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), 250*time.Millisecond))
	ctx := context.Background()

	const n = 12
	for i := 0; i < n; i++ {
		if _, err := posts.Create(ctx, "admin", fmt.Sprintf("/static/%d.png", i), fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	feed, err := posts.ListFeed(ctx)
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if len(feed) != n {
		t.Fatalf("feed len = %d, want %d", len(feed), n)
	}
	for i := 1; i < len(feed); i++ {
		if !feed[i-1].CreatedAt.After(feed[i].CreatedAt) {
			t.Fatalf("feed not strictly descending at %d: %v then %v", i, feed[i-1].CreatedAt, feed[i].CreatedAt)
		}
	}
	if feed[0].Caption != fmt.Sprintf("p%d", n-1) {
		t.Fatalf("newest post = %q", feed[0].Caption)
	}
}

func TestPostRepository_TiesBreakByID(t *testing.T) {
	_, posts := newPostDeps(t, "postties")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	posts = posts.WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	a, err := posts.Create(ctx, "admin", "/static/a.png", "a")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := posts.Create(ctx, "admin", "/static/b.png", "b")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	feed, err := posts.ListFeed(ctx)
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if feed[0].ID != b.ID || feed[1].ID != a.ID {
		t.Fatalf("tie order = [%d %d], want [%d %d]", feed[0].ID, feed[1].ID, b.ID, a.ID)
	}
}

func TestPostRepository_ListFeedIsIdempotent(t *testing.T) {
	_, posts := newPostDeps(t, "postidem")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := posts.Create(ctx, "admin", "/static/x.png", ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	first, err := posts.ListFeed(ctx)
	if err != nil {
		t.Fatalf("list 1: %v", err)
	}
	second, err := posts.ListFeed(ctx)
	if err != nil {
		t.Fatalf("list 2: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("feed changed without writes:\n%v\n%v", first, second)
	}
}

func TestPostRepository_CreateReturnsStoredPost(t *testing.T) {
	_, posts := newPostDeps(t, "postcreate")
	at := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	posts = posts.WithClock(func() time.Time { return at })

	p, err := posts.Create(context.Background(), "admin", "/static/admin_1.jpg", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.Username != "admin" || p.ImagePath != "/static/admin_1.jpg" || p.Caption != "" {
		t.Fatalf("unexpected post: %+v", p)
	}
	feed, err := posts.ListFeed(context.Background())
	if err != nil || len(feed) != 1 {
		t.Fatalf("list: %v len=%d", err, len(feed))
	}
	if !reflect.DeepEqual(feed[0], *p) {
		t.Fatalf("stored post %+v differs from returned %+v", feed[0], *p)
	}
}

func TestPostRepository_UnknownAuthorIsPersistenceError(t *testing.T) {
	_, posts := newPostDeps(t, "postfk")
	_, err := posts.Create(context.Background(), "ghost", "/static/g.png", "boo")
	if err == nil || !IsPersistence(err) {
		t.Fatalf("expected persistence error for unknown author, got %v", err)
	}
}

func TestPostRepository_ConcurrentCreates(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "concurrent.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()
	if _, err := NewUserRepository(d).Create(ctx, "admin", "12345"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	posts := NewPostRepository(d)

	const workers, perWorker = 4, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := posts.Create(ctx, "admin", fmt.Sprintf("/static/%d_%d.png", w, i), "c"); err != nil {
					errs <- err
				}
				if _, err := posts.ListFeed(ctx); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent op: %v", err)
	}
	feed, err := posts.ListFeed(ctx)
	if err != nil || len(feed) != workers*perWorker {
		t.Fatalf("feed len=%d err=%v", len(feed), err)
	}
	seen := map[int64]bool{}
	for _, p := range feed {
		if seen[p.ID] {
			t.Fatalf("duplicate id %d", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestPostRepository_CountByUser(t *testing.T) {
	_, repo := newPostDeps(t, "postcount")
	ctx := context.Background()

	if n, err := repo.CountByUser(ctx, "admin"); err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}
	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, "admin", fmt.Sprintf("/static/%d.png", i), ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if n, err := repo.CountByUser(ctx, "admin"); err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
	if n, err := repo.CountByUser(ctx, "nobody"); err != nil || n != 0 {
		t.Fatalf("unknown author count = %d, %v", n, err)
	}
}
