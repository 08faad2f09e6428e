package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

var (
	readPasswordFunc = term.ReadPassword

	errHelp = errors.New("help provided")
)

const minPasswordLength = 8

type teacherStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Promote(ctx context.Context, id, hash string) error
}

type commandLine struct {
	db         *sql.DB
	teachers   teacherStore
	logger     *zap.Logger
	out        io.Writer
	bcryptCost int
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]   run goose migrations (up, down, status, version, redo, reset, up-to N, down-to N)")
	fmt.Fprintln(cli.out, "  createadmin -email EMAIL -name NAME [-roll ROLL] [-employee ID] [-department DEPT] [-subject SUBJECT]")
	fmt.Fprintln(cli.out, "                           create or promote a verified admin; the password is prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(context.Background(), args[2:])
	case "createadmin":
		return cli.createAdminCommand(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) createAdminCommand(args []string) error {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	email := fs.String("email", "", "Admin email; an existing teacher with this email is promoted.")
	name := fs.String("name", "", "Full name for a new account.")
	roll := fs.String("roll", "", "Roll number for a new account (defaults to ADMIN-<local part>).")
	employee := fs.String("employee", "", "Employee id for a new account (defaults to the roll number).")
	department := fs.String("department", "Administration", "Department for a new account.")
	subject := fs.String("subject", "Administration", "Subject for a new account.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if strings.TrimSpace(*email) == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if len(pwd) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	return cli.createAdmin(context.Background(), adminParams{
		Email:      *email,
		FullName:   *name,
		RollNo:     *roll,
		EmployeeID: *employee,
		Department: *department,
		Subject:    *subject,
		Password:   string(pwd),
	})
}
