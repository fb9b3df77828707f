package app

import (
	"context"
	"fmt"
	"menuo/domain"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the outcome of the last Save, for the UI to display.
type Status struct {
	Kind    StatusKind
	Message string
}

const (
	settingsSavedMessage  = "تم حفظ الإعدادات بنجاح"
	settingsFailedMessage = "فشل حفظ الإعدادات"
)

// SettingsForm is the editable part of the branding record.
type SettingsForm struct {
	SiteName     string
	PrimaryColor string
	AccentColor  string
	SocialLinks  domain.SocialLinks
	Logo         *domain.Upload
}

func SettingsFormFrom(s domain.Settings) SettingsForm {
	return SettingsForm{
		SiteName:     s.SiteName,
		PrimaryColor: s.PrimaryColor,
		AccentColor:  s.AccentColor,
		SocialLinks:  s.SocialLinks.Clone(),
	}
}

// SettingsStore caches the single branding record. The backend keeps
// settings as rows; resolve decides which row is the record.
type SettingsStore struct {
	repository Repository
	archive    AssetArchive
	resolve    domain.Resolution

	mu       sync.Mutex
	settings domain.Settings
	status   Status
	loading  bool
}

// NewSettingsStore starts from the default record. archive may be nil.
func NewSettingsStore(repository Repository, resolve domain.Resolution, archive AssetArchive) *SettingsStore {
	return &SettingsStore{
		repository: repository,
		archive:    archive,
		resolve:    resolve,
		settings:   domain.DefaultSettings(),
	}
}

func (s *SettingsStore) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.settings
	cp.SocialLinks = s.settings.SocialLinks.Clone()
	return cp
}

func (s *SettingsStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SettingsStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *SettingsStore) Refresh(ctx context.Context) error {
	s.setLoading(true)
	rows, err := s.repository.ListSettings(ctx)
	s.setLoading(false)
	if err != nil {
		zap.L().Warn("Failed to fetch settings", zap.Error(err))
		return fmt.Errorf("refresh settings: %w", err)
	}

	resolved := domain.ResolveSettings(rows, s.resolve)

	s.mu.Lock()
	s.settings = resolved
	s.mu.Unlock()

	zap.L().Debug("Settings refreshed", zap.Int("rows", len(rows)), zap.Int64("settingsId", resolved.ID))
	return nil
}

// Save posts the form and replaces the record with the server's echo.
func (s *SettingsStore) Save(ctx context.Context, form SettingsForm) (domain.Settings, error) {
	const code = "settings.save"

	req := &SaveSettingsRequest{
		SiteName:     strings.TrimSpace(form.SiteName),
		PrimaryColor: strings.TrimSpace(form.PrimaryColor),
		AccentColor:  strings.TrimSpace(form.AccentColor),
		SocialLinks:  compactLinks(form.SocialLinks),
		Logo:         form.Logo,
	}
	if req.SiteName == "" {
		req.SiteName = domain.DefaultSiteName
	}
	if req.PrimaryColor == "" {
		req.PrimaryColor = domain.DefaultPrimaryColor
	}
	if req.AccentColor == "" {
		req.AccentColor = domain.DefaultAccentColor
	}

	if err := validate.Struct(req); err != nil {
		err = invalid(code, err)
		s.fail(err)
		return domain.Settings{}, err
	}

	var archived string
	if !req.Logo.Empty() {
		archived = archive(ctx, s.archive, logoKey(req.Logo), req.Logo)
	}

	s.setLoading(true)
	saved, err := s.repository.SaveSettings(ctx, req)
	s.setLoading(false)
	if err != nil {
		discard(ctx, s.archive, archived)
		s.fail(err)
		return domain.Settings{}, err
	}

	if saved.SocialLinks == nil {
		saved.SocialLinks = req.SocialLinks.Clone()
	}
	domain.ApplySettingsDefaults(&saved)

	s.mu.Lock()
	s.settings = saved
	s.status = Status{Kind: StatusSuccess, Message: settingsSavedMessage}
	s.mu.Unlock()

	zap.L().Info("Settings saved", zap.Int64("settingsId", saved.ID))
	return saved, nil
}

func (s *SettingsStore) fail(err error) {
	zap.L().Warn("Failed to save settings", zap.Error(err))
	s.mu.Lock()
	s.status = Status{Kind: StatusError, Message: settingsFailedMessage + ": " + err.Error()}
	s.mu.Unlock()
}

func (s *SettingsStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// compactLinks drops platforms left blank in the form.
func compactLinks(links domain.SocialLinks) domain.SocialLinks {
	out := make(domain.SocialLinks, len(links))
	for k, v := range links {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func logoKey(logo *domain.Upload) string {
	return "settings/logo/" + uuid.New().String() + logo.Extension()
}
