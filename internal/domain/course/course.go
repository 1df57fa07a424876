// Package course defines the training course catalog model.
package course

import (
	"strings"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

// Status is the publication state of a course.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ValidStatuses is the set of all valid course statuses.
var ValidStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusArchived:  true,
}

// Course is a training course with its ordered lessons.
type Course struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Slug            string    `json:"slug" db:"slug"`
	Description     string    `json:"description" db:"description"`
	Price           float64   `json:"price" db:"price"`
	Level           string    `json:"level" db:"level"`
	Category        string    `json:"category" db:"category"`
	Status          Status    `json:"status" db:"status"`
	IsPublished     bool      `json:"isPublished" db:"isPublished"`
	DurationMinutes int       `json:"durationMinutes" db:"durationMinutes"`
	Tags            []string  `json:"tags" db:"tags"`
	Lessons         []Lesson  `json:"lessons" db:"-"`
	CreatedAt       time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updatedAt"`
}

// Lesson is one ordered unit of a course.
type Lesson struct {
	ID              string `json:"id" db:"id"`
	CourseID        string `json:"courseId" db:"courseId"`
	Title           string `json:"title" db:"title"`
	Content         string `json:"content" db:"content"`
	VideoURL        string `json:"videoUrl" db:"videoUrl"`
	Position        int    `json:"position" db:"position"`
	DurationMinutes int    `json:"durationMinutes" db:"durationMinutes"`
	IsFree          bool   `json:"isFree" db:"isFree"`
}

// LessonInput is the writable part of a lesson. Positions follow slice order.
type LessonInput struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	VideoURL        string `json:"videoUrl"`
	DurationMinutes int    `json:"durationMinutes"`
	IsFree          bool   `json:"isFree"`
}

// CreateRequest is the input for creating a course.
type CreateRequest struct {
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	Price           float64       `json:"price"`
	Level           string        `json:"level"`
	Category        string        `json:"category"`
	Status          Status        `json:"status"`
	DurationMinutes int           `json:"durationMinutes"`
	Tags            []string      `json:"tags"`
	Lessons         []LessonInput `json:"lessons"`
}

// Validate checks required fields and fills defaults (slug, status).
func (r *CreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return domain.Validationf("le titre est requis")
	}
	if r.Slug == "" {
		r.Slug = domain.Slugify(r.Title)
	}
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if !ValidStatuses[r.Status] {
		return domain.Validationf("statut de formation invalide : %s", r.Status)
	}
	if r.Price < 0 {
		return domain.Validationf("le prix ne peut pas être négatif")
	}
	if r.DurationMinutes < 0 {
		return domain.Validationf("la durée ne peut pas être négative")
	}
	for i, l := range r.Lessons {
		if strings.TrimSpace(l.Title) == "" {
			return domain.Validationf("le titre de la leçon %d est requis", i+1)
		}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return nil
}

// UpdateRequest is a partial update. Nil fields are left unchanged; a
// non-nil Lessons replaces the whole lesson list.
type UpdateRequest struct {
	Title           *string        `json:"title,omitempty"`
	Slug            *string        `json:"slug,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Price           *float64       `json:"price,omitempty"`
	Level           *string        `json:"level,omitempty"`
	Category        *string        `json:"category,omitempty"`
	Status          *Status        `json:"status,omitempty"`
	DurationMinutes *int           `json:"durationMinutes,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Lessons         *[]LessonInput `json:"lessons,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return domain.Validationf("le titre est requis")
	}
	if r.Status != nil && !ValidStatuses[*r.Status] {
		return domain.Validationf("statut de formation invalide : %s", *r.Status)
	}
	if r.Price != nil && *r.Price < 0 {
		return domain.Validationf("le prix ne peut pas être négatif")
	}
	if r.Lessons != nil {
		for i, l := range *r.Lessons {
			if strings.TrimSpace(l.Title) == "" {
				return domain.Validationf("le titre de la leçon %d est requis", i+1)
			}
		}
	}
	return nil
}

// New builds a course from a validated request.
func New(id string, r CreateRequest, now time.Time, newID func() string) Course {
	c := Course{
		ID:              id,
		Title:           r.Title,
		Slug:            r.Slug,
		Description:     r.Description,
		Price:           r.Price,
		Level:           r.Level,
		Category:        r.Category,
		Status:          r.Status,
		IsPublished:     r.Status == StatusPublished,
		DurationMinutes: r.DurationMinutes,
		Tags:            r.Tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	c.Lessons = BuildLessons(id, r.Lessons, newID)
	return c
}

// Apply merges a partial update into c. It reports whether the lesson list
// was replaced.
func (c *Course) Apply(r UpdateRequest, now time.Time, newID func() string) bool {
	if r.Title != nil {
		c.Title = strings.TrimSpace(*r.Title)
	}
	if r.Slug != nil {
		c.Slug = *r.Slug
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Price != nil {
		c.Price = *r.Price
	}
	if r.Level != nil {
		c.Level = *r.Level
	}
	if r.Category != nil {
		c.Category = *r.Category
	}
	if r.Status != nil {
		c.Status = *r.Status
		c.IsPublished = c.Status == StatusPublished
	}
	if r.DurationMinutes != nil {
		c.DurationMinutes = *r.DurationMinutes
	}
	if r.Tags != nil {
		c.Tags = r.Tags
	}
	c.UpdatedAt = now
	if r.Lessons == nil {
		return false
	}
	c.Lessons = BuildLessons(c.ID, *r.Lessons, newID)
	return true
}

// BuildLessons assigns ids and 1-based positions in slice order.
func BuildLessons(courseID string, in []LessonInput, newID func() string) []Lesson {
	out := make([]Lesson, 0, len(in))
	for i, l := range in {
		out = append(out, Lesson{
			ID:              newID(),
			CourseID:        courseID,
			Title:           strings.TrimSpace(l.Title),
			Content:         l.Content,
			VideoURL:        l.VideoURL,
			Position:        i + 1,
			DurationMinutes: l.DurationMinutes,
			IsFree:          l.IsFree,
		})
	}
	return out
}
