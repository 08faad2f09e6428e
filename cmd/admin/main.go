package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/repository"
	"github.com/noah-isme/tuition-center-api/pkg/config"
	"github.com/noah-isme/tuition-center-api/pkg/database"
	"github.com/noah-isme/tuition-center-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}

	cli := &commandLine{
		db:       db.DB,
		teachers: repository.NewTeacherRepository(db),
		logger:   logr,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logr.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
