package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/nhle/info-module/internal/devserver"
	"github.com/nhle/info-module/internal/model"
)

func main() {
	listenAddr := pflag.String("addr", ":8080", "listen address")
	redisAddr := pflag.String("redis", "", "redis address for sessions, in-memory when empty")
	sessionTTL := pflag.Duration("session-ttl", 30*time.Minute, "server-side session lifetime")
	pflag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	opts := []devserver.Option{
		devserver.WithLogger(log),
		devserver.WithSessionTTL(*sessionTTL),
	}

	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", *redisAddr).Msg("failed to connect to redis")
		}
		opts = append(opts, devserver.WithSessionStore(devserver.NewRedisSessionStore(rdb, "infomodule:session:")))
		log.Info().Str("addr", *redisAddr).Msg("using redis session store")
	}

	backend := devserver.New(opts...)
	seed(backend)

	srv := &http.Server{
		Addr:    *listenAddr,
		Handler: backend.Handler(),
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msgf("HTTP server listening %s", *listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("HTTP server error")
			select {
			case stopCh <- syscall.SIGTERM:
			default:
			}
		}
	}()

	<-stopCh
	log.Info().Msg("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

// seed loads the demo accounts and notices.
func seed(backend *devserver.Server) {
	backend.AddAccount(devserver.Account{
		Password: "password1",
		User: model.UserIdentity{
			ID:         "u-1",
			LoginID:    "kim",
			Name:       "Kim Minji",
			Department: "HR",
			Roles: []model.Role{
				{Code: "hr", Name: "HR Manager", Permissions: []string{"employee.read", "employee.write"}},
			},
		},
	})
	backend.AddAccount(devserver.Account{
		Password:             "changeme",
		NeedsInitialPassword: true,
		User: model.UserIdentity{
			ID:         "u-2",
			LoginID:    "park",
			Name:       "Park Jisoo",
			Department: "Sales",
			Roles: []model.Role{
				{Code: "staff", Name: "Staff", Permissions: []string{"notice.read"}},
			},
		},
	})
	backend.SetUnreadCount("kim", 3)

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	nextWeek := now.AddDate(0, 0, 7)
	tomorrow := now.AddDate(0, 0, 1)

	backend.AddNotice(model.Notice{
		Title:         "System maintenance this weekend",
		Content:       "The ERP will be unavailable Saturday 02:00-06:00.",
		Author:        "IT Operations",
		IsActive:      true,
		NotifyStartAt: &weekAgo,
		NotifyEndAt:   &nextWeek,
	})
	backend.AddNotice(model.Notice{
		Title:    "New expense policy",
		Content:  "Receipts are now required for every claim.",
		Author:   "Finance",
		IsActive: true,
	})
	backend.AddNotice(model.Notice{
		Title:         "Company picnic sign-up",
		Content:       "Sign-up opens tomorrow.",
		Author:        "HR",
		IsActive:      true,
		NotifyStartAt: &tomorrow,
	})
}
