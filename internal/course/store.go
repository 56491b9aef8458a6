package course

import (
	"context"
	"sync"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// Store fetch-and-cache of the course catalog. No derived state beyond the
// last response.
type Store struct {
	api    *driver.APIClient
	logger *zap.Logger

	mu        sync.Mutex
	catalog   []*domain.CourseModel
	myCourses []*domain.CourseModel
	byID      map[string]*domain.CourseModel
	loading   bool
	lastErr   error
}

var _ domain.CourseStore = (*Store)(nil)

// NewStore create a course Store
func NewStore(api *driver.APIClient, logger *zap.Logger) *Store {
	return &Store{
		api:    api,
		logger: logger,
		byID:   make(map[string]*domain.CourseModel),
	}
}

// Catalog last fetched course catalog
func (st *Store) Catalog() []*domain.CourseModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.catalog
}

// MyCourses last fetched enrolled courses
func (st *Store) MyCourses() []*domain.CourseModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.myCourses
}

// Course cached course detail, nil when not fetched
func (st *Store) Course(courseID string) *domain.CourseModel {
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

// FetchAllCourses fetch the public catalog
func (st *Store) FetchAllCourses(ctx context.Context) ([]*domain.CourseModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseStore.FetchAllCourses", "store")
	defer apmSpan.End()

	st.setLoading(true)
	var courses []*domain.CourseModel
	err := st.api.Get(ctx, "/course/all-courses", &courses)
	st.mu.Lock()
	st.loading = false
	st.lastErr = err
	if err == nil {
		st.catalog = courses
		for _, c := range courses {
			st.byID[c.ID] = c
		}
	}
	st.mu.Unlock()
	return courses, err
}

// FetchMyCourses fetch the user's enrolled courses
func (st *Store) FetchMyCourses(ctx context.Context) ([]*domain.CourseModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseStore.FetchMyCourses", "store")
	defer apmSpan.End()

	st.setLoading(true)
	var courses []*domain.CourseModel
	err := st.api.Get(ctx, "/course/my-courses", &courses)
	st.mu.Lock()
	st.loading = false
	st.lastErr = err
	if err == nil {
		st.myCourses = courses
		for _, c := range courses {
			st.byID[c.ID] = c
		}
	}
	st.mu.Unlock()
	return courses, err
}

// FetchCourse fetch one course with its full module/lesson tree
func (st *Store) FetchCourse(ctx context.Context, courseID string) (*domain.CourseModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseStore.FetchCourse", "store")
	defer apmSpan.End()

	st.setLoading(true)
	c := new(domain.CourseModel)
	err := st.api.Get(ctx, "/course/"+courseID, c)
	st.mu.Lock()
	st.loading = false
	st.lastErr = err
	if err == nil {
		st.byID[c.ID] = c
	}
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (st *Store) setLoading(v bool) {
	st.mu.Lock()
	st.loading = v
	st.mu.Unlock()
}
