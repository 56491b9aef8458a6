package stub

import (
	"math"
	"net/http"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleAllCourses(c echo.Context) error {
	s.mu.Lock()
	courses := append([]*course(nil), s.courses...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(courses))
}

func (s *Server) handleMyCourses(c echo.Context) error {
	userID := c.Get("userID").(string)
	s.mu.Lock()
	var mine []*course
	for _, crs := range s.courses {
		if crs.OwnerID == userID {
			mine = append(mine, crs)
		}
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(mine))
}

func (s *Server) handleCourse(c echo.Context) error {
	crs := s.courseByID(c.Param("id"))
	if crs == nil {
		return notFound(c, "course")
	}
	return c.JSON(http.StatusOK, envelope(crs))
}

func (s *Server) handleAllProgress(c echo.Context) error {
	userID := c.Get("userID").(string)
	s.mu.Lock()
	var all []*domain.CourseProgressModel
	for _, crs := range s.courses {
		all = append(all, s.buildProgress(userID, crs))
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(all))
}

func (s *Server) handleCourseProgress(c echo.Context) error {
	crs := s.courseByID(c.Param("id"))
	if crs == nil {
		return notFound(c, "course")
	}
	userID := c.Get("userID").(string)
	s.mu.Lock()
	p := s.buildProgress(userID, crs)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(p))
}

func (s *Server) handleCompleteLesson(c echo.Context) error {
	crs := s.courseByID(c.Param("id"))
	if crs == nil {
		return notFound(c, "course")
	}
	lessonID := c.Param("lessonId")
	if _, _, ok := crs.FindLesson(lessonID); !ok {
		return notFound(c, "lesson")
	}

	userID := c.Get("userID").(string)
	s.mu.Lock()
	if s.completed[userID] == nil {
		s.completed[userID] = make(map[string]map[string]bool)
	}
	if s.completed[userID][crs.ID] == nil {
		s.completed[userID][crs.ID] = make(map[string]bool)
	}
	s.completed[userID][crs.ID][lessonID] = true
	p := s.buildProgress(userID, crs)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(p))
}

// buildProgress derive the authoritative progress object from the completed
// set, caller holds s.mu
func (s *Server) buildProgress(userID string, crs *course) *domain.CourseProgressModel {
	done := s.completed[userID][crs.ID]
	p := &domain.CourseProgressModel{
		CourseID:     crs.ID,
		TotalLessons: crs.TotalLessons(),
	}
	for _, module := range crs.Modules {
		mp := domain.ModuleProgressModel{
			ModuleID:     module.ID,
			TotalLessons: len(module.Lessons),
		}
		for _, lesson := range module.Lessons {
			lp := domain.LessonProgressModel{
				LessonID:       lesson.ID,
				TotalResources: len(lesson.Resources),
			}
			if done[lesson.ID] {
				lp.Completed = true
				lp.Progress = 100
				lp.CompletedResources = lp.TotalResources
				mp.CompletedLessons++
				p.CompletedLessons++
				p.CompletedResources += lp.CompletedResources
			}
			mp.Lessons = append(mp.Lessons, lp)
		}
		mp.Progress = pct(mp.CompletedLessons, mp.TotalLessons)
		mp.Completed = mp.TotalLessons > 0 && mp.CompletedLessons == mp.TotalLessons
		if mp.Completed {
			p.CompletedModules++
		}
		p.Modules = append(p.Modules, mp)
	}
	p.OverallProgress = pct(p.CompletedLessons, p.TotalLessons)
	return p
}

func pct(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(completed)/float64(total) + 0.5))
}
