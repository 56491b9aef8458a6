package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// Store per-course completion state with optimistic lesson-completion
// updates.
//
// UpdateProgress installs a locally-computed progress object before the
// network round trip finishes, then replaces it outright with the server's
// authoritative payload. On failure the exact pre-update snapshot is
// restored.
type Store struct {
	api    *driver.APIClient
	logger *zap.Logger

	mu      sync.Mutex
	byID    map[string]*domain.CourseProgressModel
	loading bool
	lastErr error
}

var _ domain.ProgressStore = (*Store)(nil)

// NewStore create a progress Store
func NewStore(api *driver.APIClient, logger *zap.Logger) *Store {
	return &Store{
		api:    api,
		logger: logger,
		byID:   make(map[string]*domain.CourseProgressModel),
	}
}

// Progress last known progress for a course, nil when not fetched
func (st *Store) Progress(courseID string) *domain.CourseProgressModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.byID[courseID]
}

// Loading report whether a fetch is in flight
func (st *Store) Loading() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.loading
}

// Err last fetch error, cleared by the next successful fetch
func (st *Store) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastErr
}

// FetchAllProgress fetch and store progress for every enrolled course
func (st *Store) FetchAllProgress(ctx context.Context) ([]*domain.CourseProgressModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressStore.FetchAllProgress", "store")
	defer apmSpan.End()

	st.setLoading(true)
	var all []*domain.CourseProgressModel
	err := st.api.Get(ctx, "/progress/courses", &all)
	st.mu.Lock()
	st.loading = false
	st.lastErr = err
	if err == nil {
		for _, p := range all {
			st.byID[p.CourseID] = p
		}
	}
	st.mu.Unlock()
	return all, err
}

// FetchCourseProgress fetch and store progress for one course
func (st *Store) FetchCourseProgress(ctx context.Context, courseID string) (*domain.CourseProgressModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressStore.FetchCourseProgress", "store")
	defer apmSpan.End()

	st.setLoading(true)
	p := new(domain.CourseProgressModel)
	err := st.api.Get(ctx, "/progress/courses/"+courseID, p)
	st.mu.Lock()
	st.loading = false
	st.lastErr = err
	if err == nil {
		p.CourseID = courseID
		st.byID[courseID] = p
	}
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProgress mark a lesson complete. The optimistic object is installed
// immediately so readers see completion before the round trip finishes; the
// server response then replaces it outright (server is authoritative, no
// merge). On failure the pre-update snapshot is restored.
func (st *Store) UpdateProgress(ctx context.Context, courseID, lessonID string) (*domain.CourseProgressModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressStore.UpdateProgress", "store")
	defer apmSpan.End()

	st.mu.Lock()
	snapshot := st.byID[courseID]
	st.mu.Unlock()
	if snapshot == nil {
		return nil, domain.ErrNoProgress
	}

	optimistic, changed, err := applyLessonCompletion(snapshot, lessonID)
	if err != nil {
		return nil, err
	}
	if changed {
		st.mu.Lock()
		st.byID[courseID] = optimistic
		st.mu.Unlock()
		st.logger.Debug("Optimistic progress installed",
			zap.String("course.id", courseID),
			zap.String("lesson.id", lessonID),
			zap.Int("progress.overall", optimistic.OverallProgress),
		)
	}

	path := fmt.Sprintf("/progress/courses/%s/lessons/%s", courseID, lessonID)
	server := new(domain.CourseProgressModel)
	if err := st.api.Post(ctx, path, nil, server); err != nil {
		st.mu.Lock()
		st.byID[courseID] = snapshot
		st.mu.Unlock()
		st.logger.Warn("Progress update rejected, snapshot restored",
			zap.String("course.id", courseID),
			zap.String("lesson.id", lessonID),
			zap.Error(err),
		)
		return nil, err
	}

	server.CourseID = courseID
	st.mu.Lock()
	st.byID[courseID] = server
	st.mu.Unlock()
	return server, nil
}

func (st *Store) setLoading(v bool) {
	st.mu.Lock()
	st.loading = v
	st.mu.Unlock()
}
