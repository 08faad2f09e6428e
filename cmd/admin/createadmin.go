package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-center-api/internal/models"
)

type adminParams struct {
	Email      string
	FullName   string
	RollNo     string
	EmployeeID string
	Department string
	Subject    string
	Password   string
}

// createAdmin promotes an existing teacher or inserts a new verified admin.
func (cli *commandLine) createAdmin(ctx context.Context, p adminParams) error {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	cost := cli.bcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	existing, err := cli.teachers.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := cli.teachers.Promote(ctx, existing.ID, string(hash)); err != nil {
			return err
		}
		cli.logger.Info("teacher promoted to admin", zap.String("teacher_id", existing.ID), zap.String("email", email))
		fmt.Fprintf(cli.out, "promoted %s to admin\n", email)
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("lookup teacher: %w", err)
	}

	name := strings.TrimSpace(p.FullName)
	if name == "" {
		return errors.New("-name is required when creating a new admin")
	}
	roll := strings.TrimSpace(p.RollNo)
	if roll == "" {
		local := email
		if at := strings.Index(email, "@"); at > 0 {
			local = email[:at]
		}
		roll = "ADMIN-" + strings.ToUpper(local)
	}
	employee := strings.TrimSpace(p.EmployeeID)
	if employee == "" {
		employee = roll
	}

	teacher := &models.Teacher{
		RollNo:       roll,
		EmployeeID:   employee,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     name,
		Department:   p.Department,
		Subject:      p.Subject,
		IsVerified:   true,
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := cli.teachers.Create(ctx, teacher); err != nil {
		return err
	}
	cli.logger.Info("admin created", zap.String("teacher_id", teacher.ID), zap.String("email", email))
	fmt.Fprintf(cli.out, "created admin %s\n", email)
	return nil
}
