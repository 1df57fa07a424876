package course

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{name: "valid", req: CreateRequest{Title: "WinDev 28"}},
		{name: "missing title", req: CreateRequest{Title: "  "}, wantErr: true},
		{name: "bad status", req: CreateRequest{Title: "A", Status: "live"}, wantErr: true},
		{name: "negative price", req: CreateRequest{Title: "A", Price: -1}, wantErr: true},
		{name: "lesson without title", req: CreateRequest{Title: "A", Lessons: []LessonInput{{}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateRequest_Defaults(t *testing.T) {
	req := CreateRequest{Title: "Formation WinDev avancée"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Slug != "formation-windev-avancee" {
		t.Errorf("slug = %q", req.Slug)
	}
	if req.Status != StatusDraft {
		t.Errorf("status = %q", req.Status)
	}
	if req.Tags == nil {
		t.Error("tags should default to an empty slice")
	}
}

func TestNewAndApply(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	req := CreateRequest{
		Title:  "HFSQL",
		Status: StatusPublished,
		Lessons: []LessonInput{
			{Title: "Introduction", IsFree: true},
			{Title: "Réplication"},
		},
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	c := New("c1", req, now, seqID())
	if !c.IsPublished {
		t.Error("published course should have isPublished")
	}
	if len(c.Lessons) != 2 || c.Lessons[1].Position != 2 || c.Lessons[0].CourseID != "c1" {
		t.Fatalf("unexpected lessons: %+v", c.Lessons)
	}

	archived := StatusArchived
	later := now.Add(time.Hour)
	if replaced := c.Apply(UpdateRequest{Status: &archived}, later, seqID()); replaced {
		t.Error("lessons should be kept when not provided")
	}
	if c.IsPublished || c.Status != StatusArchived || !c.UpdatedAt.Equal(later) {
		t.Errorf("unexpected course after status update: %+v", c)
	}

	lessons := []LessonInput{{Title: "Unique"}}
	if replaced := c.Apply(UpdateRequest{Lessons: &lessons}, later, seqID()); !replaced {
		t.Error("lessons should be replaced")
	}
	if len(c.Lessons) != 1 || c.Lessons[0].Position != 1 {
		t.Errorf("unexpected lessons: %+v", c.Lessons)
	}
}
