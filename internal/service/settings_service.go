package service

import (
	"context"
	"errors"
	"time"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/model"
	"github.com/mailer8/mailer8/internal/repository"
)

const defaultSendTime = "07:00"

// SettingsService is the read-side settings provider for the dispatch
// pipeline. Missing keys never surface as errors; each accessor
// documents its default.
type SettingsService struct {
	settingRepo  *repository.SettingRepository
	templateRepo *repository.TemplateRepository
	fallbackZone *time.Location
	log          *logger.Logger
}

// NewSettingsService creates a new SettingsService. The fallback
// timezone comes from the fixed cron configuration and is used when the
// timezone setting is unset or unparseable.
func NewSettingsService(settingRepo *repository.SettingRepository, templateRepo *repository.TemplateRepository, cfg *config.Config, log *logger.Logger) *SettingsService {
	zone, err := time.LoadLocation(cfg.Cron.Timezone)
	if err != nil {
		log.Warn().Str("timezone", cfg.Cron.Timezone).Msg("invalid fallback timezone, using UTC")
		zone = time.UTC
	}
	return &SettingsService{
		settingRepo:  settingRepo,
		templateRepo: templateRepo,
		fallbackZone: zone,
		log:          log.WithComponent("settings"),
	}
}

// DefaultTemplate resolves the template designated as default via the
// defaultTemplateId setting. It returns (nil, nil) when the setting is
// unset, the template does not exist, or the template is inactive.
func (s *SettingsService) DefaultTemplate(ctx context.Context) (*model.EmailTemplate, error) {
	id, err := s.settingRepo.Get(ctx, model.SettingDefaultTemplateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tmpl, err := s.templateRepo.GetActiveByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("template_id", id).Msg("default template missing or inactive")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// SendTime returns the configured daily send time as "HH:MM", defaulting
// to 07:00 when unset.
func (s *SettingsService) SendTime(ctx context.Context) string {
	value, err := s.settingRepo.Get(ctx, model.SettingSendTime)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read sendTime setting")
		}
		return defaultSendTime
	}
	return value
}

// Timezone returns the configured IANA timezone, falling back to the
// fixed cron zone when unset or invalid.
func (s *SettingsService) Timezone(ctx context.Context) *time.Location {
	value, err := s.settingRepo.Get(ctx, model.SettingTimezone)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read timezone setting")
		}
		return s.fallbackZone
	}

	zone, err := time.LoadLocation(value)
	if err != nil {
		s.log.Warn().Str("timezone", value).Msg("invalid timezone setting, using fallback")
		return s.fallbackZone
	}
	return zone
}

// CompanyName returns the configured company name, or "" when unset.
func (s *SettingsService) CompanyName(ctx context.Context) string {
	value, err := s.settingRepo.Get(ctx, model.SettingCompanyName)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read companyName setting")
		}
		return ""
	}
	return value
}
