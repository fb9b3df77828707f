package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultSiteName     = "ركن العصائر والأراجيل"
	DefaultPrimaryColor = "#4f46e5"
	DefaultAccentColor  = "#22c55e"
)

// Social platforms accepted as social_links keys.
const (
	PlatformFacebook  = "facebook"
	PlatformYoutube   = "youtube"
	PlatformTiktok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformWhatsapp  = "whatsapp"
)

var SocialPlatforms = []string{
	PlatformFacebook,
	PlatformYoutube,
	PlatformTiktok,
	PlatformInstagram,
	PlatformWhatsapp,
}

// SocialLinks maps a platform key to a profile URL.
//
// The backend stores the mapping as text, so rows may carry it either as an
// object or as a JSON-encoded string; both decode to the same value. An
// empty mapping serialized by PHP arrives as [] and decodes to an empty map.
type SocialLinks map[string]string

func (l *SocialLinks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("social_links: %w", err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" || encoded == "null" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("social_links: %w", err)
		}
		if len(items) > 0 {
			return fmt.Errorf("social_links: expected an object, got a list of %d items", len(items))
		}
		*l = SocialLinks{}
		return nil
	}

	var links map[string]string
	if err := json.Unmarshal(data, &links); err != nil {
		return fmt.Errorf("social_links: %w", err)
	}
	*l = links
	return nil
}

func (l SocialLinks) Clone() SocialLinks {
	if l == nil {
		return nil
	}
	cp := make(SocialLinks, len(l))
	for k, v := range l {
		cp[k] = v
	}
	return cp
}

// Settings is the singleton branding record. The backend keeps it as rows,
// see Resolution.
type Settings struct {
	ID           int64       `json:"id,omitempty"`
	SiteName     string      `json:"site_name"`
	PrimaryColor string      `json:"primary_color"`
	AccentColor  string      `json:"accent_color"`
	Logo         *string     `json:"logo"`
	SocialLinks  SocialLinks `json:"social_links"`
}

// Resolution picks the single logical settings record out of the rows
// returned by the backend. The bool is false when rows is empty.
type Resolution func(rows []Settings) (Settings, bool)

// LatestSettings resolves to the most recently written row (the last one).
// This is what the admin view reads.
func LatestSettings(rows []Settings) (Settings, bool) {
	if len(rows) == 0 {
		return Settings{}, false
	}
	return rows[len(rows)-1], true
}

// FirstSettings resolves to the first row. This is what the public view reads.
func FirstSettings(rows []Settings) (Settings, bool) {
	if len(rows) == 0 {
		return Settings{}, false
	}
	return rows[0], true
}

func DefaultSettings() Settings {
	s := Settings{}
	ApplySettingsDefaults(&s)
	return s
}

func ApplySettingsDefaults(s *Settings) {
	if s == nil {
		return
	}
	if strings.TrimSpace(s.SiteName) == "" {
		s.SiteName = DefaultSiteName
	}
	if strings.TrimSpace(s.PrimaryColor) == "" {
		s.PrimaryColor = DefaultPrimaryColor
	}
	if strings.TrimSpace(s.AccentColor) == "" {
		s.AccentColor = DefaultAccentColor
	}
	if s.Logo != nil && strings.TrimSpace(*s.Logo) == "" {
		s.Logo = nil
	}
	if s.SocialLinks == nil {
		s.SocialLinks = SocialLinks{}
	}
}

// ResolveSettings applies resolve to rows and fills in defaults. It never
// fails: an empty collection yields DefaultSettings.
func ResolveSettings(rows []Settings, resolve Resolution) Settings {
	s, ok := resolve(rows)
	if !ok {
		return DefaultSettings()
	}
	s.SocialLinks = s.SocialLinks.Clone()
	ApplySettingsDefaults(&s)
	return s
}
