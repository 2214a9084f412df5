// seed creates portal login accounts. Without flags it creates the default
// account for every role; with --username it creates or resets one account.
package main

import (
	"errors"
	"fmt"
	"os"

	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/config"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/logger"
	"e-nagarpalika-portal/internal/pkg/password"

	"github.com/spf13/pflag"
)

var validRoles = []workflow.Role{
	workflow.RoleEmployee,
	workflow.RoleClerk,
	workflow.RoleITAssistant,
	workflow.RoleITOfficer,
	workflow.RoleITHead,
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		reset    bool
		account  config.SeedAccount
		roleFlag string
	)

	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flags.BoolVar(&reset, "reset", false, "overwrite password and role of existing accounts")
	flags.StringVarP(&account.Username, "username", "u", "", "login name of a single account to seed")
	flags.StringVarP(&account.Password, "password", "p", "", "password for --username")
	flags.StringVarP(&roleFlag, "role", "r", string(workflow.RoleEmployee), "role for --username")
	flags.StringVar(&account.EmployeeName, "name", "", "display name for --username")
	flags.StringVar(&account.Email, "email", "", "contact email for --username (defaults to the username)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	accounts := config.DefaultAccounts
	if account.Username != "" {
		role, err := parseRole(roleFlag)
		if err != nil {
			return err
		}
		if err := password.Validate(account.Password); err != nil {
			return err
		}
		account.Role = role
		accounts = []config.SeedAccount{account}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log := logger.Setup(cfg.AppMode, cfg.LogLevel)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	created, err := config.NewSeeder(db).SeedAccounts(accounts, reset)
	if err != nil {
		return err
	}
	log.Info().Int("created", created).Int("requested", len(accounts)).Bool("reset", reset).Msg("seeding completed")
	return nil
}

func parseRole(raw string) (workflow.Role, error) {
	for _, r := range validRoles {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}
