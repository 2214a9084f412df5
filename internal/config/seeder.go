package config

import (
	"errors"
	"fmt"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/password"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SeedAccount is one account the seeder creates when missing
type SeedAccount struct {
	Username     string
	Password     string
	Role         workflow.Role
	EmployeeName string
	Email        string
}

// DefaultAccounts are the development logins, one per role
var DefaultAccounts = []SeedAccount{
	{Username: "itassistant@nagarpalika.gov.in", Password: "Assistant@2024", Role: workflow.RoleITAssistant, EmployeeName: "IT Assistant"},
	{Username: "itofficer@nagarpalika.gov.in", Password: "Officer@2024", Role: workflow.RoleITOfficer, EmployeeName: "IT Officer"},
	{Username: "ithead@nagarpalika.gov.in", Password: "Head@2024", Role: workflow.RoleITHead, EmployeeName: "IT Head"},
	{Username: "employee@nagarpalika.gov.in", Password: "Employee@2024", Role: workflow.RoleEmployee, EmployeeName: "Demo Employee"},
	{Username: "clerk@nagarpalika.gov.in", Password: "Clerk@2024", Role: workflow.RoleClerk, EmployeeName: "Demo Clerk"},
}

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run creates the default accounts that do not exist yet.
// Development only; production accounts go through cmd/seed.
func (s *Seeder) Run() error {
	log.Info().Msg("running database seeders")

	created, err := s.SeedAccounts(DefaultAccounts, false)
	if err != nil {
		log.Warn().Err(err).Msg("account seeder skipped")
		return nil
	}

	log.Info().Int("created", created).Msg("database seeding completed")
	return nil
}

// SeedAccounts creates each account whose username is free. With reset, existing
// accounts get their password and role overwritten.
func (s *Seeder) SeedAccounts(accounts []SeedAccount, reset bool) (int, error) {
	created := 0
	for _, a := range accounts {
		if a.Username == "" || a.Password == "" {
			return created, fmt.Errorf("seed account needs username and password")
		}

		var existing models.User
		err := s.db.Where("username = ?", a.Username).First(&existing).Error
		switch {
		case err == nil:
			if !reset {
				continue
			}
			hashed, err := password.Hash(a.Password)
			if err != nil {
				return created, err
			}
			existing.Password = hashed
			existing.Role = string(a.Role)
			if err := s.db.Save(&existing).Error; err != nil {
				return created, err
			}
			log.Info().Str("username", a.Username).Msg("account reset")
		case errors.Is(err, gorm.ErrRecordNotFound):
			hashed, err := password.Hash(a.Password)
			if err != nil {
				return created, err
			}
			email := a.Email
			if email == "" {
				email = a.Username
			}
			user := &models.User{
				Username:     a.Username,
				Password:     hashed,
				Role:         string(a.Role),
				EmployeeName: a.EmployeeName,
				Email:        email,
				IsActive:     true,
			}
			if err := s.db.Create(user).Error; err != nil {
				return created, err
			}
			created++
			log.Info().Str("username", a.Username).Str("role", string(a.Role)).Msg("account created")
		default:
			return created, err
		}
	}
	return created, nil
}
