package domain

import "context"

// LessonProgressModel per-lesson completion entry
type LessonProgressModel struct {
	LessonID           string `json:"lessonId"`
	Completed          bool   `json:"completed"`
	Progress           int    `json:"progress"` // percentage, rounded half up
	CompletedResources int    `json:"completedResources"`
	TotalResources     int    `json:"totalResources"`
}

// ModuleProgressModel per-module rollup over its lessons
type ModuleProgressModel struct {
	ModuleID         string                `json:"moduleId"`
	Progress         int                   `json:"progress"`
	Completed        bool                  `json:"completed"`
	CompletedLessons int                   `json:"completedLessons"`
	TotalLessons     int                   `json:"totalLessons"`
	Lessons          []LessonProgressModel `json:"lessons"`
}

// CourseProgressModel per-user per-course completion ledger.
//
// Invariants maintained by the progress store:
//   - a completed lesson has CompletedResources == TotalResources
//   - a module is completed iff all of its lessons are completed
//   - OverallProgress == round(100 * CompletedLessons / TotalLessons)
type CourseProgressModel struct {
	CourseID           string                `json:"courseId"`
	OverallProgress    int                   `json:"overallProgress"`
	CompletedModules   int                   `json:"completedModules"`
	CompletedLessons   int                   `json:"completedLessons"`
	CompletedResources int                   `json:"completedResources"`
	TotalLessons       int                   `json:"totalLessons"`
	Modules            []ModuleProgressModel `json:"modules"`
}

// Clone deep copy, used for optimistic snapshots
func (p *CourseProgressModel) Clone() *CourseProgressModel {
	if p == nil {
		return nil
	}
	out := *p
	out.Modules = make([]ModuleProgressModel, len(p.Modules))
	for i := range p.Modules {
		m := p.Modules[i]
		m.Lessons = append([]LessonProgressModel(nil), p.Modules[i].Lessons...)
		out.Modules[i] = m
	}
	return &out
}

type ProgressStore interface {
	FetchAllProgress(ctx context.Context) ([]*CourseProgressModel, error)
	FetchCourseProgress(ctx context.Context, courseID string) (*CourseProgressModel, error)
	UpdateProgress(ctx context.Context, courseID, lessonID string) (*CourseProgressModel, error)
}
