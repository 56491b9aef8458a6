package progress

import (
	"math"

	"github.com/JawadJisan/coursepilot/internal/domain"
)

// roundPct percentage rounded half up, zero denominator counts as 0%
func roundPct(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(completed)/float64(total) + 0.5))
}

// applyLessonCompletion synthesize the locally-updated progress object for a
// lesson completion, ahead of server confirmation.
//
// The input is never mutated; the returned object is a deep copy with the
// target lesson marked complete, its module rollup recomputed and the course
// aggregates refolded. Completing an already-complete lesson is an idempotent
// no-op: the input is returned unchanged and changed is false.
func applyLessonCompletion(p *domain.CourseProgressModel, lessonID string) (out *domain.CourseProgressModel, changed bool, err error) {
	if p.TotalLessons == 0 {
		return nil, false, domain.ErrEmptyCourse
	}

	mi, li := -1, -1
	for m := range p.Modules {
		for l := range p.Modules[m].Lessons {
			if p.Modules[m].Lessons[l].LessonID == lessonID {
				mi, li = m, l
				break
			}
		}
	}
	if mi < 0 {
		return nil, false, domain.ErrLessonNotFound
	}
	if p.Modules[mi].Lessons[li].Completed {
		return p, false, nil
	}

	next := p.Clone()
	lesson := &next.Modules[mi].Lessons[li]
	lesson.Completed = true
	lesson.CompletedResources = lesson.TotalResources
	lesson.Progress = 100

	module := &next.Modules[mi]
	completed := 0
	for i := range module.Lessons {
		if module.Lessons[i].Completed {
			completed++
		}
	}
	module.CompletedLessons = completed
	module.Progress = roundPct(completed, module.TotalLessons)
	module.Completed = module.TotalLessons > 0 && completed == module.TotalLessons

	recomputeAggregates(next)
	return next, true, nil
}

// recomputeAggregates refold the course-level counters from the modules
func recomputeAggregates(p *domain.CourseProgressModel) {
	lessons, resources, modules := 0, 0, 0
	for m := range p.Modules {
		if p.Modules[m].Completed {
			modules++
		}
		for l := range p.Modules[m].Lessons {
			if p.Modules[m].Lessons[l].Completed {
				lessons++
			}
			resources += p.Modules[m].Lessons[l].CompletedResources
		}
	}
	p.CompletedModules = modules
	p.CompletedLessons = lessons
	p.CompletedResources = resources
	p.OverallProgress = roundPct(lessons, p.TotalLessons)
}
