package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/JawadJisan/coursepilot/internal/app"
	"github.com/JawadJisan/coursepilot/internal/domain"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/player"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `usage: coursepilot <command> [args]

commands:
  courses                      list the course catalog
  resume <course-id>           open a course at the last accessed lesson
  progress <course-id>         show course progress
  complete <course-id> <lesson-id>  mark a lesson complete
  interview <course-id>        check interview status

credentials are read from COURSEPILOT_EMAIL and COURSEPILOT_PASSWORD`

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(&infra.LoggingConfig{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	logger = logger.With(zap.String("service.id", option.AppID))
	defer logger.Sync()

	device, err := app.OpenDeviceStore(option)
	if err != nil {
		log.Fatalf("Failed to open device store: %s\n", err)
	}

	client := app.New(option, device, logger)
	defer client.Close()

	args := pflag.Args()
	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(2)
	}
	if err := run(client, args); err != nil {
		log.Fatal(err)
	}
}

func run(client *app.App, args []string) error {
	ctx := context.Background()

	if _, err := client.Sessions.Login(ctx, &domain.LoginForm{
		Email:    os.Getenv("COURSEPILOT_EMAIL"),
		Password: os.Getenv("COURSEPILOT_PASSWORD"),
	}); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	client.Keeper.Start()
	defer client.Sessions.Logout(ctx)

	switch args[0] {
	case "courses":
		courses, err := client.Courses.FetchAllCourses(ctx)
		if err != nil {
			return err
		}
		for _, c := range courses {
			fmt.Printf("%-14s %-24s %d modules, %d lessons\n", c.ID, c.Title, len(c.Modules), c.TotalLessons())
		}
	case "resume":
		if len(args) < 2 {
			return fmt.Errorf("resume: course id required")
		}
		crs, err := client.Courses.FetchCourse(ctx, args[1])
		if err != nil {
			return err
		}
		p, err := player.NewPlayer(crs, client.Device, nil, zap.NewNop())
		if err != nil {
			return err
		}
		p.Open(player.LessonLastAccessed)
		module, lesson := p.Current()
		fmt.Printf("%s / %s\n%s\n", module.Title, lesson.Title, p.URL())
	case "progress":
		if len(args) < 2 {
			return fmt.Errorf("progress: course id required")
		}
		p, err := client.Progress.FetchCourseProgress(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%d%% (%d/%d lessons)\n", p.OverallProgress, p.CompletedLessons, p.TotalLessons)
	case "complete":
		if len(args) < 3 {
			return fmt.Errorf("complete: course id and lesson id required")
		}
		if _, err := client.Progress.FetchCourseProgress(ctx, args[1]); err != nil {
			return err
		}
		p, err := client.Progress.UpdateProgress(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("%d%% (%d/%d lessons)\n", p.OverallProgress, p.CompletedLessons, p.TotalLessons)
	case "interview":
		if len(args) < 2 {
			return fmt.Errorf("interview: course id required")
		}
		status, err := client.Interviews.CheckInterviewStatus(ctx, args[1])
		if err != nil {
			return err
		}
		switch status.State {
		case domain.InterviewNone:
			fmt.Println("no interview yet")
		case domain.InterviewPending:
			fmt.Printf("interview %s in progress\n", status.InterviewID)
		case domain.InterviewCompleted:
			fmt.Printf("completed, score %d (feedback %s)\n", status.Score, status.FeedbackID)
		}
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return nil
}
