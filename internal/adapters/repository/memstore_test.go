package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSession(id string) model.Session {
	t := model.NewTable(2)
	t.Rows[0] = model.PlayerRow("Ann", "18:00")
	return model.Session{ID: id, Label: "2026-10-19", Table: t}
}

func TestMemoryStoreCRUD(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		Convey("When a session is created", func() {
			So(store.Create(ctx, newSession("a")), ShouldBeNil)

			Convey("Then it can be read back", func() {
				got, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(got.Table.Rows[0].Name(), ShouldEqual, "Ann")
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then a second create with the same id fails", func() {
				So(errors.Is(store.Create(ctx, newSession("a")), ErrExists), ShouldBeTrue)
			})

			Convey("Then saved changes replace the stored copy", func() {
				got, _ := store.Get(ctx, "a")
				got.Label = "renamed"
				So(store.Save(ctx, got), ShouldBeNil)

				again, _ := store.Get(ctx, "a")
				So(again.Label, ShouldEqual, "renamed")
			})

			Convey("Then callers cannot mutate the stored table", func() {
				got, _ := store.Get(ctx, "a")
				got.Table.Rows[0][model.ColName] = model.Text("Mallory")

				again, _ := store.Get(ctx, "a")
				So(again.Table.Rows[0].Name(), ShouldEqual, "Ann")
			})

			Convey("Then delete removes it", func() {
				So(store.Delete(ctx, "a"), ShouldBeNil)
				_, err := store.Get(ctx, "a")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(errors.Is(store.Delete(ctx, "a"), ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When saving or creating invalid sessions", func() {
			So(errors.Is(store.Save(ctx, newSession("missing")), ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.Create(ctx, model.Session{}), ErrNoID), ShouldBeTrue)
		})
	})
}

func TestMemoryStoreEviction(t *testing.T) {
	Convey("Given a store bounded to two sessions", t, func() {
		ctx := context.Background()
		store := NewMemoryStore(WithCapacity(2))
		So(store.Create(ctx, newSession("a")), ShouldBeNil)
		So(store.Create(ctx, newSession("b")), ShouldBeNil)

		Convey("When the oldest was touched before a third is created", func() {
			_, err := store.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(store.Create(ctx, newSession("c")), ShouldBeNil)

			Convey("Then the least recently used session is evicted", func() {
				So(store.Count(ctx), ShouldEqual, 2)
				_, err := store.Get(ctx, "b")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				_, err = store.Get(ctx, "a")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMemoryStoreExpiry(t *testing.T) {
	Convey("Given a store with a one hour idle ttl", t, func() {
		ctx := context.Background()
		clock := &fakeClock{t: time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)}
		store := NewMemoryStore(WithTTL(time.Hour), WithClock(clock.Now))
		So(store.Create(ctx, newSession("old")), ShouldBeNil)
		clock.Advance(45 * time.Minute)
		So(store.Create(ctx, newSession("new")), ShouldBeNil)

		Convey("When the first session goes idle past the ttl", func() {
			clock.Advance(30 * time.Minute)

			Convey("Then a sweep removes only that session", func() {
				So(store.Sweep(ctx), ShouldEqual, 1)
				So(store.Count(ctx), ShouldEqual, 1)
				_, err := store.Get(ctx, "new")
				So(err, ShouldBeNil)
			})

			Convey("Then reads treat it as gone", func() {
				_, err := store.Get(ctx, "old")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})

			Convey("Then its id can be reused", func() {
				So(store.Create(ctx, newSession("old")), ShouldBeNil)
			})
		})

		Convey("When sessions keep being used", func() {
			clock.Advance(50 * time.Minute)
			_, err := store.Get(ctx, "new")
			So(err, ShouldBeNil)
			clock.Advance(50 * time.Minute)

			Convey("Then access refreshes the idle timer", func() {
				_, err := store.Get(ctx, "new")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMemoryStoreRun(t *testing.T) {
	Convey("Given a running sweeper", t, func() {
		clock := &fakeClock{t: time.Now()}
		store := NewMemoryStore(WithTTL(time.Minute), WithSweepInterval(5*time.Millisecond), WithClock(clock.Now))
		ctx, cancel := context.WithCancel(context.Background())
		So(store.Create(ctx, newSession("a")), ShouldBeNil)

		done := make(chan error, 1)
		go func() { done <- store.Run(ctx) }()

		Convey("When the session expires", func() {
			clock.Advance(2 * time.Minute)
			deadline := time.Now().Add(time.Second)
			for store.Count(ctx) > 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			cancel()

			Convey("Then it is swept in the background and Run stops on cancel", func() {
				So(store.Count(context.Background()), ShouldEqual, 0)
				So(<-done, ShouldBeNil)
			})
		})
	})
}
