package stub

import (
	"fmt"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type course = domain.CourseModel

type user struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

type interview struct {
	domain.InterviewModel
	state       domain.InterviewState
	feedbackID  string
	score       int
	completedAt time.Time
}

type feedback struct {
	domain.FeedbackModel
	courseID string
	userID   string
}

// DemoEmail and DemoPassword sign into the seeded account
const (
	DemoEmail    = "learner@example.com"
	DemoPassword = "password123"
)

type moduleSpec struct {
	title   string
	lessons []string
}

func (s *Server) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	demo := &user{
		ID:           "user-demo",
		Name:         "Demo Learner",
		Email:        DemoEmail,
		PasswordHash: hash,
		CreatedAt:    time.Now().Add(-30 * 24 * time.Hour),
	}
	s.users[demo.ID] = demo
	s.emails[demo.Email] = demo.ID

	s.courses = []*course{
		fixtureCourse("course-go", demo.ID, "Practical Go", "Backend development with Go",
			[]string{"Write idiomatic Go", "Build REST services"},
			[]moduleSpec{
				{"Getting Started", []string{"Installing the toolchain", "Your first program", "Packages and modules"}},
				{"Web Services", []string{"HTTP handlers", "Middleware", "Testing services"}},
			}),
		fixtureCourse("course-auth", demo.ID, "Web Authentication", "Sessions, tokens and identity",
			[]string{"Understand session auth", "Use JWTs safely"},
			[]moduleSpec{
				{"Intro", []string{"Setup", "Login"}},
				{"Auth", []string{"JWT", "Sessions"}},
			}),
	}
}

func fixtureCourse(id, ownerID, title, description string, objectives []string, modules []moduleSpec) *course {
	c := &course{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Objectives:  objectives,
		CreatedAt:   time.Now().Add(-14 * 24 * time.Hour),
	}
	for mi, spec := range modules {
		module := domain.ModuleModel{
			ID:    fmt.Sprintf("%s-m%d", id, mi+1),
			Title: spec.title,
		}
		for li, lessonTitle := range spec.lessons {
			lesson := domain.LessonModel{
				ID:          fmt.Sprintf("%s-l%d", module.ID, li+1),
				Title:       lessonTitle,
				Description: fmt.Sprintf("%s: %s", spec.title, lessonTitle),
				Resources: []domain.ResourceModel{
					{
						ID:       fmt.Sprintf("%s-l%d-r1", module.ID, li+1),
						Type:     domain.ResourceVideo,
						Title:    lessonTitle + " (video)",
						URL:      fmt.Sprintf("https://videos.example.com/%s/%s", id, slugify(lessonTitle)),
						Source:   "youtube",
						Duration: 540,
					},
					{
						ID:    fmt.Sprintf("%s-l%d-r2", module.ID, li+1),
						Type:  domain.ResourceArticle,
						Title: lessonTitle + " (notes)",
						URL:   fmt.Sprintf("https://articles.example.com/%s/%s", id, slugify(lessonTitle)),
					},
				},
			}
			module.Lessons = append(module.Lessons, lesson)
		}
		c.Modules = append(c.Modules, module)
	}
	return c
}

func (s *Server) courseByID(id string) *course {
	for _, c := range s.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}
