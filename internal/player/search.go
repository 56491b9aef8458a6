package player

import "strings"

// SearchResult one lesson matched by a query
type SearchResult struct {
	ModuleIndex int
	LessonIndex int
	ModuleID    string
	ModuleTitle string
	LessonID    string
	LessonTitle string
}

// Search linear scan of the module/lesson tree with case-insensitive
// substring matching. A lesson is included when its own title or description
// matches, or when its parent module's title matches. An empty query returns
// nil.
//
// Cost is O(modules x lessons) per call; fine at catalog sizes, reconsider
// before reusing on large trees.
func (p *Player) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult
	for mi := range p.course.Modules {
		module := &p.course.Modules[mi]
		moduleMatch := strings.Contains(strings.ToLower(module.Title), q)
		for li := range module.Lessons {
			lesson := &module.Lessons[li]
			if moduleMatch ||
				strings.Contains(strings.ToLower(lesson.Title), q) ||
				strings.Contains(strings.ToLower(lesson.Description), q) {
				results = append(results, SearchResult{
					ModuleIndex: mi,
					LessonIndex: li,
					ModuleID:    module.ID,
					ModuleTitle: module.Title,
					LessonID:    lesson.ID,
					LessonTitle: lesson.Title,
				})
			}
		}
	}
	return results
}
