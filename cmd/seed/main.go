package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/email"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/model"
	"github.com/mailer8/mailer8/internal/repository"
)

var withCustomers bool

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default birthday template and settings",
	RunE:  runSeed,
}

func init() {
	rootCmd.Flags().BoolVar(&withCustomers, "with-customers", false, "also insert sample customers")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New("info", "text")

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	templateRepo := repository.NewTemplateRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// Default template, created once
	tmpl, err := templateRepo.GetByName(ctx, email.DefaultBirthdayTemplateName)
	if errors.Is(err, repository.ErrNotFound) {
		now := time.Now()
		tmpl = &model.EmailTemplate{
			ID:        uuid.New().String(),
			Name:      email.DefaultBirthdayTemplateName,
			Subject:   email.DefaultBirthdaySubject,
			Body:      email.DefaultBirthdayHTML(),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := templateRepo.Create(ctx, tmpl); err != nil {
			return err
		}
		log.Info().Str("template_id", tmpl.ID).Msg("created default template")
	} else if err != nil {
		return err
	} else {
		log.Info().Str("template_id", tmpl.ID).Msg("default template already exists")
	}

	// Settings with sensible defaults
	settings := map[string]string{
		model.SettingDefaultTemplateID: tmpl.ID,
		model.SettingSendTime:          cfg.Cron.SendTime,
		model.SettingTimezone:          cfg.Cron.Timezone,
		model.SettingCompanyName:       cfg.Email.FromName,
	}
	for key, value := range settings {
		if err := settingRepo.Set(ctx, key, value); err != nil {
			return err
		}
	}
	log.Info().Int("settings", len(settings)).Msg("settings seeded")

	if withCustomers {
		if err := seedCustomers(ctx, customerRepo, log); err != nil {
			return err
		}
	}

	log.Info().Msg("seed completed")
	return nil
}

func seedCustomers(ctx context.Context, repo *repository.CustomerRepository, log *logger.Logger) error {
	samples := []struct {
		first, last, email string
		dob                time.Time
	}{
		{"Ada", "Okafor", "ada.okafor@example.com", time.Date(1992, time.March, 5, 0, 0, 0, 0, time.UTC)},
		{"Ben", "Adeyemi", "ben.adeyemi@example.com", time.Date(1988, time.July, 21, 0, 0, 0, 0, time.UTC)},
		{"Chi", "Eze", "chi.eze@example.com", time.Date(1995, time.December, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, s := range samples {
		if _, err := repo.GetByEmail(ctx, s.email); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := time.Now()
		customer := &model.Customer{
			ID:        uuid.New().String(),
			FirstName: s.first,
			LastName:  s.last,
			Email:     s.email,
			DOB:       s.dob,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Create(ctx, customer); err != nil {
			return err
		}
		log.Info().Str("email", customer.Email).Msg("created sample customer")
	}
	return nil
}
