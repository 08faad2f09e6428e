package main

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/tuition-center-api/migrations"
)

var gooseRunFunc = goose.RunContext

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return runGoose(ctx, cli.db, args[0], args[1:]...)
}

func runGoose(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return gooseRunFunc(ctx, command, db, ".", args...)
}
