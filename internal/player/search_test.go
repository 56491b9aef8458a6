package player

import (
	"testing"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func searchCourse() *domain.CourseModel {
	return &domain.CourseModel{
		ID:    "course-auth",
		Title: "Web Authentication",
		Modules: []domain.ModuleModel{
			{ID: "m1", Title: "Intro", Lessons: []domain.LessonModel{
				{ID: "l1", Title: "Setup", Description: "Install the tooling"},
				{ID: "l2", Title: "Login", Description: "Build the login page"},
			}},
			{ID: "m2", Title: "Auth", Lessons: []domain.LessonModel{
				{ID: "l3", Title: "JWT", Description: "Token-based flows"},
				{ID: "l4", Title: "Sessions", Description: "Cookie sessions"},
			}},
		},
	}
}

func lessonIDs(results []SearchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.LessonID)
	}
	return ids
}

func newSearchPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := NewPlayer(searchCourse(), driver.NewMemoryStore(), nil, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestSearchMatchesModuleTitle(t *testing.T) {
	p := newSearchPlayer(t)
	// a module-title hit includes every lesson of that module
	results := p.Search("auth")
	assert.Equal(t, []string{"l3", "l4"}, lessonIDs(results))
	assert.Equal(t, "Auth", results[0].ModuleTitle)
}

func TestSearchMatchesLessonTitle(t *testing.T) {
	p := newSearchPlayer(t)
	results := p.Search("login")
	assert.Equal(t, []string{"l2"}, lessonIDs(results))
}

func TestSearchMatchesLessonDescription(t *testing.T) {
	p := newSearchPlayer(t)
	results := p.Search("cookie")
	assert.Equal(t, []string{"l4"}, lessonIDs(results))
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	p := newSearchPlayer(t)
	assert.Equal(t, []string{"l1"}, lessonIDs(p.Search("SETUP")))
	assert.Equal(t, []string{"l3", "l4"}, lessonIDs(p.Search("AuTh")))
}

func TestSearchEmptyQuery(t *testing.T) {
	p := newSearchPlayer(t)
	assert.Nil(t, p.Search(""))
	assert.Nil(t, p.Search("   "))
}

func TestSearchNoMatches(t *testing.T) {
	p := newSearchPlayer(t)
	assert.Nil(t, p.Search("zzz"))
}

func TestSearchResultsInCurriculumOrder(t *testing.T) {
	p := newSearchPlayer(t)
	// "s" hits Setup, Sessions (titles) and descriptions across both modules
	results := p.Search("se")
	assert.Equal(t, []string{"l1", "l3", "l4"}, lessonIDs(results))
}
