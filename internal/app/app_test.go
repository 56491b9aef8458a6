package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/JawadJisan/coursepilot/internal/player"
	"github.com/JawadJisan/coursepilot/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, stubCfg stub.Config) (*stub.Server, *App) {
	t.Helper()
	backend := stub.NewServer(stubCfg, zap.NewNop())
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	option := new(infra.AppConfig)
	option.AppID = "coursepilot-test"
	option.Env = infra.EnvDevelopment
	option.API.BaseURL = srv.URL + "/api"
	option.API.Timeout = 5 * time.Second
	option.Identity.Endpoint = srv.URL + "/identity"
	option.Identity.APIKey = "test-key"
	option.Session.LoginFetchDelay = time.Millisecond

	a := New(option, driver.NewMemoryStore(), zap.NewNop())
	t.Cleanup(func() { a.Close() })
	return backend, a
}

func demoLogin(t *testing.T, a *App) {
	t.Helper()
	_, err := a.Sessions.Login(context.Background(), &domain.LoginForm{
		Email:    stub.DemoEmail,
		Password: stub.DemoPassword,
	})
	require.NoError(t, err)
}

func TestLoginAndCatalog(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)

	courses, err := a.Courses.FetchAllCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)

	titles := []string{courses[0].Title, courses[1].Title}
	assert.Contains(t, titles, "Practical Go")
	assert.Contains(t, titles, "Web Authentication")
	assert.NotNil(t, a.Courses.Course("course-go"), "fetched courses land in the cache")

	mine, err := a.Courses.FetchMyCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, mine, 2, "the demo learner owns both fixture courses")
	assert.False(t, a.Courses.Loading())
	assert.NoError(t, a.Courses.Err())
}

func TestCourseDetailDrivesThePlayer(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)

	crs, err := a.Courses.FetchCourse(context.Background(), "course-auth")
	require.NoError(t, err)
	require.Len(t, crs.Modules, 2)
	assert.Equal(t, "Intro", crs.Modules[0].Title)
	assert.Equal(t, "Auth", crs.Modules[1].Title)

	p, err := player.NewPlayer(crs, a.Device, nil, zap.NewNop())
	require.NoError(t, err)

	// a module-title match surfaces every lesson under it
	results := p.Search("auth")
	require.Len(t, results, 2)
	assert.Equal(t, "JWT", results[0].LessonTitle)
	assert.Equal(t, "Sessions", results[1].LessonTitle)

	p.Open(player.LessonFirst)
	require.True(t, p.GoToNextLesson())
	_, lesson := p.Current()
	assert.Equal(t, "Login", lesson.Title)

	// a fresh player resumes from the device store
	resumed, err := player.NewPlayer(crs, a.Device, nil, zap.NewNop())
	require.NoError(t, err)
	resumed.Open(player.LessonLastAccessed)
	_, lesson = resumed.Current()
	assert.Equal(t, "Login", lesson.Title)
}

func TestProgressLifecycle(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)
	ctx := context.Background()

	p, err := a.Progress.FetchCourseProgress(ctx, "course-go")
	require.NoError(t, err)
	assert.Equal(t, 0, p.OverallProgress)
	assert.Equal(t, 6, p.TotalLessons)

	p, err = a.Progress.UpdateProgress(ctx, "course-go", "course-go-m1-l1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedLessons)
	assert.Equal(t, 17, p.OverallProgress) // 1/6 rounded half up

	// the server agrees on a subsequent fetch
	p, err = a.Progress.FetchCourseProgress(ctx, "course-go")
	require.NoError(t, err)
	assert.Equal(t, 17, p.OverallProgress)
	assert.True(t, p.Modules[0].Lessons[0].Completed)
}

func TestProgressAcrossAllCourses(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)

	all, err := a.Progress.FetchAllProgress(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, p := range all {
		assert.Equal(t, 0, p.OverallProgress)
	}
}

func TestInterviewFlow(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)
	ctx := context.Background()

	iv, err := a.Interviews.GenerateInterview(ctx, "course-go")
	require.NoError(t, err)
	assert.NotEmpty(t, iv.ID)
	assert.Len(t, iv.Questions, 3)

	status, err := a.Interviews.CheckInterviewStatus(ctx, "course-go")
	require.NoError(t, err)
	assert.Equal(t, domain.InterviewPending, status.State)

	fb, err := a.Feedback.GenerateFeedback(ctx, &domain.FeedbackForm{
		InterviewID: iv.ID,
		Transcript: []domain.TranscriptEntry{
			{Role: "assistant", Content: "Walk me through what you learned."},
			{Role: "user", Content: "I built REST services with Go."},
			{Role: "assistant", Content: "Which module was hardest?"},
			{Role: "user", Content: "Concurrency took some time."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 70, fb.TotalScore)
	assert.Equal(t, iv.ID, fb.InterviewID)

	// the interview store learned about the feedback over the bus, without a
	// new status fetch
	local := a.Interviews.Status("course-go")
	require.NotNil(t, local)
	assert.Equal(t, domain.InterviewCompleted, local.State)
	assert.Equal(t, fb.ID, local.FeedbackID)
	assert.Equal(t, 70, local.Score)

	status, err = a.Interviews.CheckInterviewStatus(ctx, "course-go")
	require.NoError(t, err)
	assert.Equal(t, domain.InterviewCompleted, status.State)
	assert.False(t, status.CanRetake)
	require.NotNil(t, status.RetakeAvailableAt)
	assert.True(t, status.RetakeAvailableAt.After(time.Now()))

	// retaking inside the cooldown is a typed business-rule rejection
	_, err = a.Interviews.GenerateInterview(ctx, "course-go")
	re := new(infra.RetakeCooldownError)
	require.True(t, errors.As(err, &re))
	assert.True(t, re.RetakeDate.After(time.Now()))

	fetched, err := a.Feedback.FetchFeedback(ctx, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, fb.TotalScore, fetched.TotalScore)

	interviews, err := a.Interviews.FetchUserInterviews(ctx)
	require.NoError(t, err)
	assert.Len(t, interviews, 1)

	reports, err := a.Feedback.FetchUserFeedback(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestInterviewRetakeAfterCooldown(t *testing.T) {
	_, a := newTestApp(t, stub.Config{RetakeCooldown: 50 * time.Millisecond})
	demoLogin(t, a)
	ctx := context.Background()

	iv, err := a.Interviews.GenerateInterview(ctx, "course-go")
	require.NoError(t, err)
	_, err = a.Feedback.GenerateFeedback(ctx, &domain.FeedbackForm{
		InterviewID: iv.ID,
		Transcript:  []domain.TranscriptEntry{{Role: "user", Content: "done"}},
	})
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	status, err := a.Interviews.CheckInterviewStatus(ctx, "course-go")
	require.NoError(t, err)
	assert.True(t, status.CanRetake)
	assert.Nil(t, status.RetakeAvailableAt)

	retake, err := a.Interviews.GenerateInterview(ctx, "course-go")
	require.NoError(t, err)
	assert.NotEqual(t, iv.ID, retake.ID)
	assert.Equal(t, domain.InterviewPending, a.Interviews.Status("course-go").State)
}

func TestFeedbackFormValidation(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)

	_, err := a.Feedback.GenerateFeedback(context.Background(), &domain.FeedbackForm{InterviewID: "iv-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript")
}

func TestLogoutResetsInterviewState(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)
	ctx := context.Background()

	_, err := a.Interviews.GenerateInterview(ctx, "course-go")
	require.NoError(t, err)
	require.NotNil(t, a.Interviews.Status("course-go"))

	a.Sessions.Logout(ctx)
	assert.Nil(t, a.Interviews.Status("course-go"), "session end clears per-user interview state")
}

func TestUnknownCourse(t *testing.T) {
	_, a := newTestApp(t, stub.Config{})
	demoLogin(t, a)

	_, err := a.Courses.FetchCourse(context.Background(), "course-unknown")
	ae := new(infra.APIError)
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 404, ae.Status)
}

func TestOpenDeviceStore(t *testing.T) {
	option := new(infra.AppConfig)
	option.Store.Backend = "bolt"
	_, err := OpenDeviceStore(option)
	assert.Error(t, err)

	option.Store.Backend = "sqlite"
	option.Store.Path = t.TempDir() + "/device.db"
	kv, err := OpenDeviceStore(option)
	require.NoError(t, err)
	defer kv.Close()
	assert.NoError(t, kv.Ping())
}
