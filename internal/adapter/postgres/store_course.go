package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
)

const courseColumns = `"id", "title", "slug", "description", "price", "level", "category", "status",
	"isPublished", "durationMinutes", "tags", "createdAt", "updatedAt"`

const lessonColumns = `"id", "courseId", "title", "content", "videoUrl", "position", "durationMinutes", "isFree"`

var courseFilter = filterSpec{Search: []string{"title", "description"}, Status: "status", Category: "category"}

func (s *Store) ListCourses(ctx context.Context, f listing.Filter) (listing.Page[course.Course], error) {
	f = f.Normalize()
	where, args := filterSQL(f, courseFilter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM "Course"`+where, args...).Scan(&total); err != nil {
		return listing.Page[course.Course]{}, fmt.Errorf("count courses: %w", err)
	}

	limit, args := pageSQL(f, args)
	rows, err := s.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM "Course"`+where+` ORDER BY "createdAt" DESC, "id" DESC`+limit, args...)
	if err != nil {
		return listing.Page[course.Course]{}, fmt.Errorf("list courses: %w", err)
	}
	courses, err := pgx.CollectRows(rows, pgx.RowToStructByName[course.Course])
	if err != nil {
		return listing.Page[course.Course]{}, fmt.Errorf("scan courses: %w", err)
	}

	if err := s.attachLessons(ctx, s.pool, courses); err != nil {
		return listing.Page[course.Course]{}, err
	}
	return listing.NewPage(courses, total, f), nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	return s.getCourse(ctx, s.pool, id)
}

func (s *Store) getCourse(ctx context.Context, q querier, id string) (*course.Course, error) {
	rows, err := q.Query(ctx, `SELECT `+courseColumns+` FROM "Course" WHERE "id" = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[course.Course])
	if err != nil {
		return nil, notFoundWrap(err, "get course %s", id)
	}

	list := []course.Course{c}
	if err := s.attachLessons(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// attachLessons loads the lessons of every course with one query.
func (s *Store) attachLessons(ctx context.Context, q querier, courses []course.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
		courses[i].Tags = orEmpty(courses[i].Tags)
		courses[i].Lessons = []course.Lesson{}
	}

	rows, err := q.Query(ctx,
		`SELECT `+lessonColumns+` FROM "Lesson" WHERE "courseId" = ANY($1) ORDER BY "courseId", "position"`, ids)
	if err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}
	lessons, err := pgx.CollectRows(rows, pgx.RowToStructByName[course.Lesson])
	if err != nil {
		return fmt.Errorf("scan lessons: %w", err)
	}

	byCourse := make(map[string][]course.Lesson, len(courses))
	for _, l := range lessons {
		byCourse[l.CourseID] = append(byCourse[l.CourseID], l)
	}
	for i := range courses {
		courses[i].Lessons = orEmpty(byCourse[courses[i].ID])
	}
	return nil
}

func (s *Store) CreateCourse(ctx context.Context, req course.CreateRequest) (*course.Course, error) {
	c := course.New(s.newID(), req, s.now(), s.newID)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO "Course" (`+courseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			c.ID, c.Title, c.Slug, c.Description, c.Price, c.Level, c.Category, c.Status,
			c.IsPublished, c.DurationMinutes, orEmpty(c.Tags), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return writeWrap(err, "create course")
		}
		return insertLessons(ctx, tx, c.Lessons)
	})
	if err != nil {
		return nil, err
	}
	c.Tags = orEmpty(c.Tags)
	return &c, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateRequest) (*course.Course, error) {
	var updated *course.Course
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := s.getCourse(ctx, tx, id)
		if err != nil {
			return err
		}
		replaced := c.Apply(req, s.now(), s.newID)

		tag, err := tx.Exec(ctx, `
			UPDATE "Course" SET "title" = $2, "slug" = $3, "description" = $4, "price" = $5, "level" = $6,
				"category" = $7, "status" = $8, "isPublished" = $9, "durationMinutes" = $10, "tags" = $11, "updatedAt" = $12
			WHERE "id" = $1`,
			c.ID, c.Title, c.Slug, c.Description, c.Price, c.Level,
			c.Category, c.Status, c.IsPublished, c.DurationMinutes, orEmpty(c.Tags), c.UpdatedAt)
		if err != nil {
			return writeWrap(err, "update course %s", id)
		}
		if err := execExpectOne(tag, nil, "update course %s", id); err != nil {
			return err
		}

		if replaced {
			if _, err := tx.Exec(ctx, `DELETE FROM "Lesson" WHERE "courseId" = $1`, id); err != nil {
				return fmt.Errorf("delete lessons of %s: %w", id, err)
			}
			if err := insertLessons(ctx, tx, c.Lessons); err != nil {
				return err
			}
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "Course" WHERE "id" = $1`, id)
	return execExpectOne(tag, err, "delete course %s", id)
}

func insertLessons(ctx context.Context, tx pgx.Tx, lessons []course.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lessons {
		batch.Queue(`INSERT INTO "Lesson" (`+lessonColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, l.CourseID, l.Title, l.Content, l.VideoURL, l.Position, l.DurationMinutes, l.IsFree)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert lessons: %w", err)
	}
	return nil
}
