package player

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"go.uber.org/zap"
)

// sentinel lesson ids resolved on open
const (
	// LessonFirst open the first lesson of the first module
	LessonFirst = "first"
	// LessonLastAccessed resume from the device store's last-accessed pointer
	LessonLastAccessed = "last-accessed"
)

// Navigator UI side effects of a navigation step. The player drives it on
// every pointer move; implementations push history entries, scroll the
// content pane and expand the sidebar accordion.
type Navigator interface {
	PushURL(url string)
	ScrollToContent()
	ExpandModule(moduleID string)
}

// NopNavigator Navigator that does nothing, for headless use
type NopNavigator struct{}

func (NopNavigator) PushURL(string)      {}
func (NopNavigator) ScrollToContent()    {}
func (NopNavigator) ExpandModule(string) {}

type lastAccessed struct {
	ModuleIndex int `json:"moduleIndex"`
	LessonIndex int `json:"lessonIndex"`
}

// Player local view-state of the lesson player for one course: the
// (module, lesson) pointer plus bookmarks, notes and completion flags held in
// device storage. This state is never synced to the server.
type Player struct {
	course *domain.CourseModel
	local  *localState
	nav    Navigator
	logger *zap.Logger

	mu        sync.Mutex
	moduleIdx int
	lessonIdx int
}

// NewPlayer create a Player over a fetched course. The course must contain at
// least one lesson.
func NewPlayer(course *domain.CourseModel, kv driver.KeyValueDB, nav Navigator, logger *zap.Logger) (*Player, error) {
	if course.TotalLessons() == 0 {
		return nil, domain.ErrEmptyCourse
	}
	if nav == nil {
		nav = NopNavigator{}
	}
	return &Player{
		course: course,
		local:  newLocalState(kv, course.ID),
		nav:    nav,
		logger: logger,
	}, nil
}

// Open resolve a lesson id (sentinel or literal) and point the player at it.
// Resolution failures fall back to the first lesson of the first module.
func (p *Player) Open(lessonID string) {
	mi, li := 0, 0
	switch lessonID {
	case "", LessonFirst:
	case LessonLastAccessed:
		if la, err := p.local.lastAccessed(); err == nil && p.validPointer(la.ModuleIndex, la.LessonIndex) {
			mi, li = la.ModuleIndex, la.LessonIndex
		}
	default:
		if m, l, ok := p.course.FindLesson(lessonID); ok {
			mi, li = m, l
		} else {
			p.logger.Debug("Lesson id did not resolve, defaulting to first lesson",
				zap.String("course.id", p.course.ID),
				zap.String("lesson.id", lessonID),
			)
		}
	}

	p.mu.Lock()
	p.moduleIdx, p.lessonIdx = mi, li
	p.mu.Unlock()
	p.afterNavigate()
}

// Current the module and lesson under the pointer
func (p *Player) Current() (*domain.ModuleModel, *domain.LessonModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	module := &p.course.Modules[p.moduleIdx]
	return module, &module.Lessons[p.lessonIdx]
}

// Position current (moduleIndex, lessonIndex) pointer
func (p *Player) Position() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moduleIdx, p.lessonIdx
}

// GoToNextLesson advance the pointer, wrapping into the next module's first
// lesson. No-op at the last lesson of the last module.
func (p *Player) GoToNextLesson() bool {
	p.mu.Lock()
	mi, li := p.moduleIdx, p.lessonIdx
	if li+1 < len(p.course.Modules[mi].Lessons) {
		li++
	} else if next := p.nextModuleWithLessons(mi); next >= 0 {
		mi, li = next, 0
	} else {
		p.mu.Unlock()
		return false
	}
	p.moduleIdx, p.lessonIdx = mi, li
	p.mu.Unlock()
	p.afterNavigate()
	return true
}

// GoToPreviousLesson retreat the pointer, wrapping into the previous module's
// last lesson. No-op at the first lesson of the first module.
func (p *Player) GoToPreviousLesson() bool {
	p.mu.Lock()
	mi, li := p.moduleIdx, p.lessonIdx
	if li > 0 {
		li--
	} else if prev := p.prevModuleWithLessons(mi); prev >= 0 {
		mi = prev
		li = len(p.course.Modules[mi].Lessons) - 1
	} else {
		p.mu.Unlock()
		return false
	}
	p.moduleIdx, p.lessonIdx = mi, li
	p.mu.Unlock()
	p.afterNavigate()
	return true
}

// URL route of the current lesson. The slug is derived from the course title
// and is cosmetic only; navigation resolution uses the ids.
func (p *Player) URL() string {
	_, lesson := p.Current()
	return fmt.Sprintf("/courses/%s/%s/lesson/%s", p.course.ID, Slug(p.course.Title), lesson.ID)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercased, hyphenated form of a title
func Slug(title string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// every navigation pushes a URL, brings the content pane into view, expands
// the sidebar entry of the now-current module and persists the pointer for
// resuming later
func (p *Player) afterNavigate() {
	module, _ := p.Current()
	mi, li := p.Position()

	p.nav.PushURL(p.URL())
	p.nav.ScrollToContent()
	p.nav.ExpandModule(module.ID)
	if err := p.local.setLastAccessed(&lastAccessed{ModuleIndex: mi, LessonIndex: li}); err != nil {
		p.logger.Warn("Failed to persist last-accessed pointer", zap.Error(err))
	}
}

func (p *Player) validPointer(mi, li int) bool {
	return mi >= 0 && mi < len(p.course.Modules) &&
		li >= 0 && li < len(p.course.Modules[mi].Lessons)
}

func (p *Player) nextModuleWithLessons(from int) int {
	for mi := from + 1; mi < len(p.course.Modules); mi++ {
		if len(p.course.Modules[mi].Lessons) > 0 {
			return mi
		}
	}
	return -1
}

func (p *Player) prevModuleWithLessons(from int) int {
	for mi := from - 1; mi >= 0; mi-- {
		if len(p.course.Modules[mi].Lessons) > 0 {
			return mi
		}
	}
	return -1
}
