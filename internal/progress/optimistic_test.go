package progress

import (
	"testing"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildProgress build an all-incomplete ledger with the given lesson counts
// per module, one resource per lesson
func buildProgress(lessonCounts ...int) *domain.CourseProgressModel {
	p := &domain.CourseProgressModel{CourseID: "course-test"}
	for mi, count := range lessonCounts {
		m := domain.ModuleProgressModel{
			ModuleID:     lessonID(mi, -1),
			TotalLessons: count,
		}
		for li := 0; li < count; li++ {
			m.Lessons = append(m.Lessons, domain.LessonProgressModel{
				LessonID:       lessonID(mi, li),
				TotalResources: 1,
			})
		}
		p.TotalLessons += count
		p.Modules = append(p.Modules, m)
	}
	return p
}

func lessonID(mi, li int) string {
	if li < 0 {
		return string(rune('A' + mi))
	}
	return string(rune('A'+mi)) + "-" + string(rune('1'+li))
}

func complete(t *testing.T, p *domain.CourseProgressModel, ids ...string) *domain.CourseProgressModel {
	t.Helper()
	for _, id := range ids {
		next, changed, err := applyLessonCompletion(p, id)
		require.NoError(t, err)
		require.True(t, changed)
		p = next
	}
	return p
}

func TestRoundPct(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0}, // zero denominator counts as 0%, not a panic
		{0, 10, 0},
		{1, 10, 10},
		{3, 10, 30},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 6, 17},
		{5, 6, 83},
		{6, 6, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, roundPct(c.completed, c.total), "%d/%d", c.completed, c.total)
	}
}

func TestApplyLessonCompletionEmptyCourse(t *testing.T) {
	_, _, err := applyLessonCompletion(buildProgress(), "A-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCourse)
}

func TestApplyLessonCompletionUnknownLesson(t *testing.T) {
	_, _, err := applyLessonCompletion(buildProgress(3, 3), "nope")
	assert.ErrorIs(t, err, domain.ErrLessonNotFound)
}

func TestApplyLessonCompletionIdempotent(t *testing.T) {
	p := complete(t, buildProgress(3, 3), "A-1")

	same, changed, err := applyLessonCompletion(p, "A-1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, p, same, "no-op should return the input unchanged")
}

func TestApplyLessonCompletionDoesNotMutateInput(t *testing.T) {
	p := buildProgress(2, 3)
	next, changed, err := applyLessonCompletion(p, "B-2")
	require.NoError(t, err)
	require.True(t, changed)
	require.NotSame(t, p, next)

	assert.False(t, p.Modules[1].Lessons[1].Completed, "input ledger must stay untouched")
	assert.Equal(t, 0, p.CompletedLessons)
	assert.True(t, next.Modules[1].Lessons[1].Completed)
}

func TestApplyLessonCompletionRollup(t *testing.T) {
	// 2 of 10 done, completing one more lands at 30%
	p := complete(t, buildProgress(5, 5), "A-1", "A-2")
	require.Equal(t, 20, p.OverallProgress)

	p = complete(t, p, "B-1")
	assert.Equal(t, 3, p.CompletedLessons)
	assert.Equal(t, 30, p.OverallProgress)
	assert.Equal(t, 20, p.Modules[1].Progress)
	assert.Equal(t, 3, p.CompletedResources)
}

func TestApplyLessonCompletionModuleCompletion(t *testing.T) {
	p := complete(t, buildProgress(2, 3), "A-1")
	require.False(t, p.Modules[0].Completed)
	require.Equal(t, 0, p.CompletedModules)

	p = complete(t, p, "A-2")
	assert.True(t, p.Modules[0].Completed)
	assert.Equal(t, 100, p.Modules[0].Progress)
	assert.Equal(t, 1, p.CompletedModules)
	assert.Equal(t, 40, p.OverallProgress)

	lesson := p.Modules[0].Lessons[1]
	assert.Equal(t, 100, lesson.Progress)
	assert.Equal(t, lesson.TotalResources, lesson.CompletedResources)
}

func TestApplyLessonCompletionFullCourse(t *testing.T) {
	p := complete(t, buildProgress(1, 1), "A-1", "B-1")
	assert.Equal(t, 100, p.OverallProgress)
	assert.Equal(t, 2, p.CompletedModules)
}
