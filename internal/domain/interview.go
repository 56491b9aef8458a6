package domain

import (
	"context"
	"time"
)

// InterviewState status tag driving which interview flow is offered
type InterviewState string

const (
	// InterviewNone no interview exists for the course yet
	InterviewNone InterviewState = ""
	// InterviewPending an attempt is in progress and can be resumed
	InterviewPending InterviewState = "pending"
	// InterviewCompleted attempt finished, feedback available
	InterviewCompleted InterviewState = "completed"
)

// InterviewStatusModel current interview status for one course
type InterviewStatusModel struct {
	State             InterviewState `json:"status"`
	InterviewID       string         `json:"interviewId,omitempty"`
	FeedbackID        string         `json:"feedbackId,omitempty"`
	Score             int            `json:"score,omitempty"`
	CanRetake         bool           `json:"canRetake,omitempty"`
	RetakeAvailableAt *time.Time     `json:"retakeAvailableDate,omitempty"`
}

// InterviewModel a generated mock interview
type InterviewModel struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	Role      string    `json:"role"`
	Questions []string  `json:"questions"`
	CreatedAt time.Time `json:"createdAt"`
}

// TranscriptEntry one exchange of the voice interview
type TranscriptEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// FeedbackForm payload posted to generate a feedback report
type FeedbackForm struct {
	InterviewID string            `json:"interviewId" validate:"required"`
	Transcript  []TranscriptEntry `json:"transcript" validate:"required,min=1"`
}

// FeedbackModel immutable interview feedback report
type FeedbackModel struct {
	ID                  string         `json:"id"`
	InterviewID         string         `json:"interviewId"`
	TotalScore          int            `json:"totalScore"`
	CategoryScores      map[string]int `json:"categoryScores"`
	Strengths           []string       `json:"strengths"`
	AreasForImprovement []string       `json:"areasForImprovement"`
	FinalAssessment     string         `json:"finalAssessment"`
	CreatedAt           time.Time      `json:"createdAt"`
}

type InterviewStore interface {
	GenerateInterview(ctx context.Context, courseID string) (*InterviewModel, error)
	CheckInterviewStatus(ctx context.Context, courseID string) (*InterviewStatusModel, error)
	FetchUserInterviews(ctx context.Context) ([]*InterviewModel, error)
	Status(courseID string) *InterviewStatusModel
}

type FeedbackStore interface {
	GenerateFeedback(ctx context.Context, form *FeedbackForm) (*FeedbackModel, error)
	FetchFeedback(ctx context.Context, feedbackID string) (*FeedbackModel, error)
	FetchUserFeedback(ctx context.Context) ([]*FeedbackModel, error)
}
