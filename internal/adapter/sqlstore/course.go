package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/windevexpert/windevexpert/internal/domain/course"
	"github.com/windevexpert/windevexpert/internal/domain/listing"
)

const courseColumns = `"id", "title", "slug", "description", "price", "level", "category", "status",
	"isPublished", "durationMinutes", "tags", "createdAt", "updatedAt"`

const lessonColumns = `"id", "courseId", "title", "content", "videoUrl", "position", "durationMinutes", "isFree"`

func courseFromRow(r row) course.Course {
	return course.Course{
		ID:              r.str("id"),
		Title:           r.str("title"),
		Slug:            r.str("slug"),
		Description:     r.str("description"),
		Price:           r.float("price"),
		Level:           r.str("level"),
		Category:        r.str("category"),
		Status:          course.Status(r.str("status")),
		IsPublished:     r.boolean("isPublished"),
		DurationMinutes: r.integer("durationMinutes"),
		Tags:            r.list("tags"),
		Lessons:         []course.Lesson{},
		CreatedAt:       r.timestamp("createdAt"),
		UpdatedAt:       r.timestamp("updatedAt"),
	}
}

func lessonFromRow(r row) course.Lesson {
	return course.Lesson{
		ID:              r.str("id"),
		CourseID:        r.str("courseId"),
		Title:           r.str("title"),
		Content:         r.str("content"),
		VideoURL:        r.str("videoUrl"),
		Position:        r.integer("position"),
		DurationMinutes: r.integer("durationMinutes"),
		IsFree:          r.boolean("isFree"),
	}
}

func (s *Store) ListCourses(ctx context.Context, f listing.Filter) (listing.Page[course.Course], error) {
	f = f.Normalize()
	cond, args := where(f, courseFilter, s.dialect)

	total, err := s.count(ctx, s.db, `SELECT COUNT(*) AS "n" FROM "Course"`+cond, args...)
	if err != nil {
		return listing.Page[course.Course]{}, fmt.Errorf("count courses: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT `+courseColumns+` FROM "Course"`+cond+` ORDER BY "createdAt" DESC, "id" DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...)
	if err != nil {
		return listing.Page[course.Course]{}, fmt.Errorf("list courses: %w", err)
	}

	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, courseFromRow(r))
	}
	if err := s.attachLessons(ctx, s.db, courses); err != nil {
		return listing.Page[course.Course]{}, err
	}
	return listing.NewPage(courses, total, f), nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	return s.getCourse(ctx, s.db, id)
}

func (s *Store) getCourse(ctx context.Context, q runner, id string) (*course.Course, error) {
	rows, err := s.query(ctx, q, `SELECT `+courseColumns+` FROM "Course" WHERE "id" = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("get course %s", id)
	}
	list := []course.Course{courseFromRow(rows[0])}
	if err := s.attachLessons(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// attachLessons emulates the course/lesson join with a second query.
func (s *Store) attachLessons(ctx context.Context, q runner, courses []course.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
	}
	in, args := inClause("courseId", ids)
	rows, err := s.query(ctx, q,
		`SELECT `+lessonColumns+` FROM "Lesson" WHERE `+in+` ORDER BY "courseId", "position"`, args...)
	if err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}

	byCourse := make(map[string][]course.Lesson, len(courses))
	for _, r := range rows {
		l := lessonFromRow(r)
		byCourse[l.CourseID] = append(byCourse[l.CourseID], l)
	}
	for i := range courses {
		if ls, ok := byCourse[courses[i].ID]; ok {
			courses[i].Lessons = ls
		}
	}
	return nil
}

func (s *Store) CreateCourse(ctx context.Context, req course.CreateRequest) (*course.Course, error) {
	c := course.New(s.newID(), req, s.now(), s.newID)
	if c.Tags == nil {
		c.Tags = []string{}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx, `
			INSERT INTO "Course" (`+courseColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Title, c.Slug, c.Description, c.Price, c.Level, c.Category, string(c.Status),
			c.IsPublished, c.DurationMinutes, jsonArray(c.Tags), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return writeErr(err, "create course")
		}
		return s.insertLessons(ctx, tx, c.Lessons)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateRequest) (*course.Course, error) {
	var updated *course.Course
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := s.getCourse(ctx, tx, id)
		if err != nil {
			return err
		}
		replaced := c.Apply(req, s.now(), s.newID)
		if c.Tags == nil {
			c.Tags = []string{}
		}

		res, err := s.exec(ctx, tx, `
			UPDATE "Course" SET "title" = ?, "slug" = ?, "description" = ?, "price" = ?, "level" = ?,
				"category" = ?, "status" = ?, "isPublished" = ?, "durationMinutes" = ?, "tags" = ?, "updatedAt" = ?
			WHERE "id" = ?`,
			c.Title, c.Slug, c.Description, c.Price, c.Level,
			c.Category, string(c.Status), c.IsPublished, c.DurationMinutes, jsonArray(c.Tags), c.UpdatedAt,
			c.ID)
		if err := expectOne(res, err, "update course %s", id); err != nil {
			return err
		}

		if replaced {
			if _, err := s.exec(ctx, tx, `DELETE FROM "Lesson" WHERE "courseId" = ?`, id); err != nil {
				return fmt.Errorf("delete lessons of %s: %w", id, err)
			}
			if err := s.insertLessons(ctx, tx, c.Lessons); err != nil {
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
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM "Lesson" WHERE "courseId" = ?`, id); err != nil {
			return fmt.Errorf("delete lessons of %s: %w", id, err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM "Course" WHERE "id" = ?`, id)
		return expectOne(res, err, "delete course %s", id)
	})
}

func (s *Store) insertLessons(ctx context.Context, tx *sql.Tx, lessons []course.Lesson) error {
	for _, l := range lessons {
		_, err := s.exec(ctx, tx,
			`INSERT INTO "Lesson" (`+lessonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.CourseID, l.Title, l.Content, l.VideoURL, l.Position, l.DurationMinutes, l.IsFree)
		if err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
	}
	return nil
}
