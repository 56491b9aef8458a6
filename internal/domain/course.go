package domain

import (
	"context"
	"time"
)

// ResourceType lesson resource kind
type ResourceType string

const (
	ResourceVideo   ResourceType = "video"
	ResourceArticle ResourceType = "article"
	ResourceDoc     ResourceType = "doc"
)

// ResourceModel a single learning resource inside a lesson
type ResourceModel struct {
	ID       string       `json:"id"`
	Type     ResourceType `json:"type"`
	Title    string       `json:"title"`
	URL      string       `json:"url"`
	Source   string       `json:"source,omitempty"`
	Duration int          `json:"duration,omitempty"` // seconds, videos only
}

// LessonModel ordered member of a module, order is curriculum order
type LessonModel struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Resources   []ResourceModel `json:"resources"`
}

// ModuleModel ordered member of a course
type ModuleModel struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Lessons []LessonModel `json:"lessons"`
}

// CourseModel read-only course record, generated server side.
// Ordering of modules, lessons and resources is insertion order from the
// server and is meaningful; navigation relies on positional index.
type CourseModel struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"ownerId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Objectives  []string      `json:"objectives"`
	CreatedAt   time.Time     `json:"createdAt"`
	Modules     []ModuleModel `json:"modules"`
}

// TotalLessons lesson count across all modules
func (c *CourseModel) TotalLessons() int {
	n := 0
	for i := range c.Modules {
		n += len(c.Modules[i].Lessons)
	}
	return n
}

// FindLesson locate a lesson by id, returns module and lesson index
func (c *CourseModel) FindLesson(lessonID string) (int, int, bool) {
	for mi := range c.Modules {
		for li := range c.Modules[mi].Lessons {
			if c.Modules[mi].Lessons[li].ID == lessonID {
				return mi, li, true
			}
		}
	}
	return 0, 0, false
}

type CourseStore interface {
	FetchAllCourses(ctx context.Context) ([]*CourseModel, error)
	FetchMyCourses(ctx context.Context) ([]*CourseModel, error)
	FetchCourse(ctx context.Context, courseID string) (*CourseModel, error)
}
