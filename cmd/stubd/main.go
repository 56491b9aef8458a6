package main

import (
	"log"
	"time"

	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/stub"
	"github.com/spf13/pflag"
)

func main() {
	host := pflag.String("host", "127.0.0.1", "binding address")
	port := pflag.Int("port", 8088, "listening port")
	sessionTTL := pflag.Duration("session_ttl", time.Hour, "backend session lifetime")
	cooldown := pflag.Duration("retake_cooldown", 7*24*time.Hour, "interview retake cooldown")
	level := pflag.String("logging_level", "debug", "logging level")
	pflag.Parse()

	logger, err := infra.NewLogger(&infra.LoggingConfig{
		Level: *level,
		AppID: "coursepilot-stubd",
		Env:   infra.EnvDevelopment,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	server := stub.NewServer(stub.Config{
		SessionTTL:     *sessionTTL,
		RetakeCooldown: *cooldown,
	}, logger)
	log.Printf("stub backend listening on %s:%d (demo login %s / %s)", *host, *port, stub.DemoEmail, stub.DemoPassword)
	if err := server.Start(*host, *port); err != nil {
		log.Fatal(err)
	}
}
