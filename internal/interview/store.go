package interview

import (
	"context"
	"sync"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/event"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// Store mock-interview orchestration: generation, status polling and the
// per-course status machine pages switch on.
//
// Status machine: none -> pending -> completed (retake blocked) ->
// completed (retake allowed, after cooldown) -> pending (new attempt).
//
// The store never writes another store's state: it learns about generated
// feedback through the event bus.
type Store struct {
	api    *driver.APIClient
	logger *zap.Logger

	mu       sync.Mutex
	statuses map[string]*domain.InterviewStatusModel
	lastErr  error
}

var _ domain.InterviewStore = (*Store)(nil)

// NewStore create an interview Store subscribed to feedback events
func NewStore(api *driver.APIClient, bus *event.Bus, logger *zap.Logger) *Store {
	st := &Store{
		api:      api,
		logger:   logger,
		statuses: make(map[string]*domain.InterviewStatusModel),
	}
	if bus != nil {
		bus.Subscribe(event.TopicFeedbackGenerated, st.onFeedbackGenerated)
		bus.Subscribe(event.TopicSessionEnded, func(interface{}) { st.reset() })
	}
	return st
}

// Status last known status for a course, nil when never checked
func (st *Store) Status(courseID string) *domain.InterviewStatusModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.statuses[courseID]
}

// Err last fetch error, cleared by the next successful fetch
func (st *Store) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastErr
}

// GenerateInterview request interview generation for a course. A retake
// inside the cooldown period surfaces as *infra.RetakeCooldownError carrying
// the next eligible date.
func (st *Store) GenerateInterview(ctx context.Context, courseID string) (*domain.InterviewModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "InterviewStore.GenerateInterview", "store")
	defer apmSpan.End()

	iv := new(domain.InterviewModel)
	if err := st.api.Post(ctx, "/interviews/generate", map[string]string{"courseId": courseID}, iv); err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.statuses[courseID] = &domain.InterviewStatusModel{
		State:       domain.InterviewPending,
		InterviewID: iv.ID,
	}
	st.mu.Unlock()
	st.logger.Info("Interview generated",
		zap.String("course.id", courseID),
		zap.String("interview.id", iv.ID),
	)
	return iv, nil
}

// CheckInterviewStatus retrieve the current status tag and payload
func (st *Store) CheckInterviewStatus(ctx context.Context, courseID string) (*domain.InterviewStatusModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "InterviewStore.CheckInterviewStatus", "store")
	defer apmSpan.End()

	status := new(domain.InterviewStatusModel)
	err := st.api.Get(ctx, "/interviews/status/"+courseID, status)
	st.mu.Lock()
	st.lastErr = err
	if err == nil {
		st.statuses[courseID] = status
	}
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return status, nil
}

// FetchUserInterviews list the user's interviews across courses
func (st *Store) FetchUserInterviews(ctx context.Context) ([]*domain.InterviewModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "InterviewStore.FetchUserInterviews", "store")
	defer apmSpan.End()

	var interviews []*domain.InterviewModel
	if err := st.api.Get(ctx, "/interviews/user", &interviews); err != nil {
		st.mu.Lock()
		st.lastErr = err
		st.mu.Unlock()
		return nil, err
	}
	return interviews, nil
}

// onFeedbackGenerated flip the course status to completed once a feedback
// report exists, keeping the two stores consistent without a shared
// transaction
func (st *Store) onFeedbackGenerated(payload interface{}) {
	fg, ok := payload.(*event.FeedbackGenerated)
	if !ok {
		return
	}
	st.mu.Lock()
	st.statuses[fg.CourseID] = &domain.InterviewStatusModel{
		State:       domain.InterviewCompleted,
		InterviewID: fg.InterviewID,
		FeedbackID:  fg.FeedbackID,
		Score:       fg.Score,
		CanRetake:   false,
	}
	st.mu.Unlock()
	st.logger.Debug("Interview status updated from feedback event",
		zap.String("course.id", fg.CourseID),
		zap.String("feedback.id", fg.FeedbackID),
	)
}

func (st *Store) reset() {
	st.mu.Lock()
	st.statuses = make(map[string]*domain.InterviewStatusModel)
	st.lastErr = nil
	st.mu.Unlock()
}
