package interview

import (
	"context"
	"sync"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/event"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/validate"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

type feedbackResponse struct {
	domain.FeedbackModel
	CourseID string `json:"courseId"`
}

// FeedbackStoreImpl feedback reports, fetched by id and generated from
// interview transcripts. Generation publishes a feedback.generated event so
// the interview store can update its status without a cross-store write.
type FeedbackStoreImpl struct {
	api       *driver.APIClient
	validator validate.Validator
	bus       *event.Bus
	logger    *zap.Logger

	mu      sync.Mutex
	byID    map[string]*domain.FeedbackModel
	lastErr error
}

var _ domain.FeedbackStore = (*FeedbackStoreImpl)(nil)

// NewFeedbackStore create a FeedbackStoreImpl
func NewFeedbackStore(api *driver.APIClient, validator validate.Validator, bus *event.Bus, logger *zap.Logger) *FeedbackStoreImpl {
	return &FeedbackStoreImpl{
		api:       api,
		validator: validator,
		bus:       bus,
		logger:    logger,
		byID:      make(map[string]*domain.FeedbackModel),
	}
}

// Feedback cached report, nil when not fetched
func (st *FeedbackStoreImpl) Feedback(feedbackID string) *domain.FeedbackModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.byID[feedbackID]
}

// GenerateFeedback post the interview transcript and store the resulting
// report
func (st *FeedbackStoreImpl) GenerateFeedback(ctx context.Context, form *domain.FeedbackForm) (*domain.FeedbackModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "FeedbackStore.GenerateFeedback", "store")
	defer apmSpan.End()

	if fields := st.validator.Struct(form); fields != nil {
		return nil, &validationError{fields}
	}

	res := new(feedbackResponse)
	if err := st.api.Post(ctx, "/feedback/generate", form, res); err != nil {
		st.mu.Lock()
		st.lastErr = err
		st.mu.Unlock()
		return nil, err
	}

	fb := res.FeedbackModel
	st.mu.Lock()
	st.byID[fb.ID] = &fb
	st.lastErr = nil
	st.mu.Unlock()

	if st.bus != nil {
		st.bus.Publish(event.TopicFeedbackGenerated, &event.FeedbackGenerated{
			CourseID:    res.CourseID,
			InterviewID: fb.InterviewID,
			FeedbackID:  fb.ID,
			Score:       fb.TotalScore,
		})
	}
	st.logger.Info("Feedback generated",
		zap.String("interview.id", fb.InterviewID),
		zap.String("feedback.id", fb.ID),
		zap.Int("feedback.total_score", fb.TotalScore),
	)
	return &fb, nil
}

// FetchFeedback fetch one report by id
func (st *FeedbackStoreImpl) FetchFeedback(ctx context.Context, feedbackID string) (*domain.FeedbackModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "FeedbackStore.FetchFeedback", "store")
	defer apmSpan.End()

	fb := new(domain.FeedbackModel)
	if err := st.api.Get(ctx, "/feedback/"+feedbackID, fb); err != nil {
		st.mu.Lock()
		st.lastErr = err
		st.mu.Unlock()
		return nil, err
	}
	st.mu.Lock()
	st.byID[fb.ID] = fb
	st.lastErr = nil
	st.mu.Unlock()
	return fb, nil
}

// FetchUserFeedback list every report belonging to the user
func (st *FeedbackStoreImpl) FetchUserFeedback(ctx context.Context) ([]*domain.FeedbackModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "FeedbackStore.FetchUserFeedback", "store")
	defer apmSpan.End()

	var all []*domain.FeedbackModel
	if err := st.api.Get(ctx, "/feedback/user/all", &all); err != nil {
		st.mu.Lock()
		st.lastErr = err
		st.mu.Unlock()
		return nil, err
	}
	st.mu.Lock()
	for _, fb := range all {
		st.byID[fb.ID] = fb
	}
	st.lastErr = nil
	st.mu.Unlock()
	return all, nil
}

// Err last fetch error, cleared by the next successful fetch
func (st *FeedbackStoreImpl) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastErr
}

type validationError struct {
	fields []*validate.FieldError
}

func (ve *validationError) Error() string {
	if len(ve.fields) == 0 {
		return "invalid feedback form"
	}
	return ve.fields[0].Domain + ": " + ve.fields[0].Reason
}
