package cachedstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/windevexpert/windevexpert/internal/adapter/ristretto"
	"github.com/windevexpert/windevexpert/internal/domain"
	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/product"
	"github.com/windevexpert/windevexpert/internal/port/database"
)

// fakeStore serves one course and one product and counts lookups.
type fakeStore struct {
	database.Store
	course      course.Course
	product     product.Product
	courseGets  atomic.Int32
	productGets atomic.Int32
	release     chan struct{}
}

func (f *fakeStore) GetCourse(_ context.Context, id string) (*course.Course, error) {
	f.courseGets.Add(1)
	if f.release != nil {
		<-f.release
	}
	if id != f.course.ID {
		return nil, domain.ErrNotFound
	}
	c := f.course
	return &c, nil
}

func (f *fakeStore) UpdateCourse(_ context.Context, _ string, req course.UpdateRequest) (*course.Course, error) {
	f.course.Apply(req, time.Now().UTC(), func() string { return "l" })
	c := f.course
	return &c, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (*product.Product, error) {
	f.productGets.Add(1)
	if id != f.product.ID {
		return nil, domain.ErrNotFound
	}
	p := f.product
	return &p, nil
}

func (f *fakeStore) DeleteProduct(context.Context, string) error { return nil }

func newStore(t *testing.T, inner *fakeStore) *Store {
	t.Helper()
	c, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return New(inner, c, time.Minute)
}

func sampleCourse() course.Course {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return course.Course{
		ID: "c1", Title: "WinDev", Slug: "windev", Status: course.StatusDraft,
		Tags:      []string{"a"},
		Lessons:   []course.Lesson{{ID: "l1", CourseID: "c1", Title: "Intro", Position: 1}},
		CreatedAt: at, UpdatedAt: at,
	}
}

func TestGetCourseReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &fakeStore{course: sampleCourse()}
	s := newStore(t, inner)

	first, err := s.GetCourse(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.GetCourse(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if n := inner.courseGets.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached copy differs:\n%s", diff)
	}
	second.Lessons[0].Title = "changed"
	if first.Lessons[0].Title != "Intro" {
		t.Error("callers must not share slices")
	}
}

func TestUpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &fakeStore{course: sampleCourse()}
	s := newStore(t, inner)

	if _, err := s.GetCourse(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	title := "WinDev 2026"
	if _, err := s.UpdateCourse(ctx, "c1", course.UpdateRequest{Title: &title}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetCourse(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != title {
		t.Errorf("title = %q, want fresh value", got.Title)
	}
	if n := inner.courseGets.Load(); n != 2 {
		t.Errorf("backend called %d times, want 2", n)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &fakeStore{product: product.Product{ID: "p1"}}
	s := newStore(t, inner)

	for range 2 {
		if _, err := s.GetProduct(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if n := inner.productGets.Load(); n != 2 {
		t.Errorf("backend called %d times, want 2", n)
	}

	if _, err := s.GetProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if n := inner.productGets.Load(); n != 4 {
		t.Errorf("delete did not invalidate: %d backend calls", n)
	}
}

func TestConcurrentMissesCollapse(t *testing.T) {
	ctx := context.Background()
	inner := &fakeStore{course: sampleCourse(), release: make(chan struct{})}
	s := newStore(t, inner)

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for range callers {
		go func() {
			defer done.Done()
			started.Done()
			if _, err := s.GetCourse(ctx, "c1"); err != nil {
				t.Error(err)
			}
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	done.Wait()

	if n := inner.courseGets.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}
