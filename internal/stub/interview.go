package stub

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid"
)

func (s *Server) handleGenerateInterview(c echo.Context) error {
	post := new(struct {
		CourseID string `json:"courseId"`
	})
	if err := c.Bind(post); err != nil {
		return badRequest(c, "Failed to bind interview payload")
	}
	crs := s.courseByID(post.CourseID)
	if crs == nil {
		return notFound(c, "course")
	}

	userID := c.Get("userID").(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.interviews[userID][crs.ID]; existing != nil && existing.state == domain.InterviewCompleted {
		retakeAt := existing.completedAt.Add(s.cfg.RetakeCooldown)
		if time.Now().Before(retakeAt) {
			return cooldown(c, retakeAt)
		}
	}

	id, _ := gonanoid.Nanoid(12)
	iv := &interview{
		InterviewModel: domain.InterviewModel{
			ID:       "interview-" + id,
			CourseID: crs.ID,
			Role:     crs.Title + " candidate",
			Questions: []string{
				fmt.Sprintf("Walk me through what you learned in %q.", crs.Title),
				"Which module did you find hardest, and why?",
				"Describe a project where you would apply this material.",
			},
			CreatedAt: time.Now(),
		},
		state: domain.InterviewPending,
	}
	if s.interviews[userID] == nil {
		s.interviews[userID] = make(map[string]*interview)
	}
	s.interviews[userID][crs.ID] = iv
	return c.JSON(http.StatusCreated, envelope(iv.InterviewModel))
}

func (s *Server) handleInterviewStatus(c echo.Context) error {
	userID := c.Get("userID").(string)
	courseID := c.Param("courseId")

	s.mu.Lock()
	defer s.mu.Unlock()
	iv := s.interviews[userID][courseID]
	if iv == nil {
		return c.JSON(http.StatusOK, envelope(&domain.InterviewStatusModel{State: domain.InterviewNone}))
	}

	status := &domain.InterviewStatusModel{
		State:       iv.state,
		InterviewID: iv.ID,
	}
	if iv.state == domain.InterviewCompleted {
		status.FeedbackID = iv.feedbackID
		status.Score = iv.score
		retakeAt := iv.completedAt.Add(s.cfg.RetakeCooldown)
		status.CanRetake = !time.Now().Before(retakeAt)
		if !status.CanRetake {
			status.RetakeAvailableAt = &retakeAt
		}
	}
	return c.JSON(http.StatusOK, envelope(status))
}

func (s *Server) handleUserInterviews(c echo.Context) error {
	userID := c.Get("userID").(string)
	s.mu.Lock()
	var all []domain.InterviewModel
	for _, iv := range s.interviews[userID] {
		all = append(all, iv.InterviewModel)
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(all))
}

func (s *Server) handleGenerateFeedback(c echo.Context) error {
	post := new(domain.FeedbackForm)
	if err := c.Bind(post); err != nil {
		return badRequest(c, "Failed to bind feedback payload")
	}
	if post.InterviewID == "" || len(post.Transcript) == 0 {
		return badRequest(c, "interviewId and a non-empty transcript are required")
	}

	userID := c.Get("userID").(string)
	s.mu.Lock()
	defer s.mu.Unlock()

	var iv *interview
	for _, candidate := range s.interviews[userID] {
		if candidate.ID == post.InterviewID {
			iv = candidate
			break
		}
	}
	if iv == nil {
		return notFound(c, "interview")
	}

	// deterministic mock scoring from transcript length
	score := 50 + len(post.Transcript)*5
	if score > 100 {
		score = 100
	}
	id, _ := gonanoid.Nanoid(12)
	fb := &feedback{
		FeedbackModel: domain.FeedbackModel{
			ID:          "feedback-" + id,
			InterviewID: iv.ID,
			TotalScore:  score,
			CategoryScores: map[string]int{
				"Communication":   score,
				"Technical Depth": score - 5,
				"Clarity":         score - 2,
			},
			Strengths:           []string{"Clear articulation of concepts"},
			AreasForImprovement: []string{"Provide more concrete examples"},
			FinalAssessment:     "Solid grasp of the material with room to grow.",
			CreatedAt:           time.Now(),
		},
		courseID: iv.CourseID,
		userID:   userID,
	}
	s.feedbacks[fb.ID] = fb

	iv.state = domain.InterviewCompleted
	iv.feedbackID = fb.ID
	iv.score = score
	iv.completedAt = time.Now()

	res := struct {
		domain.FeedbackModel
		CourseID string `json:"courseId"`
	}{fb.FeedbackModel, fb.courseID}
	return c.JSON(http.StatusCreated, envelope(res))
}

func (s *Server) handleFeedback(c echo.Context) error {
	s.mu.Lock()
	fb := s.feedbacks[c.Param("id")]
	s.mu.Unlock()
	if fb == nil {
		return notFound(c, "feedback")
	}
	return c.JSON(http.StatusOK, envelope(fb.FeedbackModel))
}

func (s *Server) handleUserFeedback(c echo.Context) error {
	userID := c.Get("userID").(string)
	s.mu.Lock()
	var all []domain.FeedbackModel
	for _, fb := range s.feedbacks {
		if fb.userID == userID {
			all = append(all, fb.FeedbackModel)
		}
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(all))
}
