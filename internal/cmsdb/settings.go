package cmsdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SiteSettings is the singleton stored in settings.json.
//
// Keys unknown to this struct are kept on disk across updates; only
// [DB.UpdateSettings] keys replace stored keys.
type SiteSettings struct {
	SiteName    string             `json:"siteName"`
	Tagline     string             `json:"tagline"`
	Logo        string             `json:"logo"`
	Favicon     string             `json:"favicon"`
	Navigation  []NavItem          `json:"navigation"`
	Footer      Footer             `json:"footer"`
	Contact     ContactInfo        `json:"contact"`
	Social      map[string]string  `json:"social"`
	Theme       map[string]string  `json:"theme"`
	Forms       []FormConfig       `json:"forms"`
	FormBuilder *LegacyFormBuilder `json:"formBuilder,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// NavItem is a navigation entry. Children form a tree.
type NavItem struct {
	Label    string    `json:"label"`
	Href     string    `json:"href"`
	Children []NavItem `json:"children,omitempty"`
}

type Footer struct {
	Text      string    `json:"text"`
	Copyright string    `json:"copyright"`
	Links     []NavItem `json:"links"`
}

type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// DefaultSettings is the content of a fresh settings.json.
func DefaultSettings() SiteSettings {
	return SiteSettings{
		SiteName: "My Site",
		Navigation: []NavItem{
			{Label: "Home", Href: "/"},
			{Label: "About", Href: "/about"},
			{Label: "Services", Href: "/services"},
			{Label: "Careers", Href: "/careers"},
			{Label: "Contact", Href: "/contact"},
		},
		Footer: Footer{Links: []NavItem{
			{Label: "Privacy Policy", Href: "/privacy-policy"},
			{Label: "Terms", Href: "/terms"},
		}},
		Social: map[string]string{},
		Theme:  map[string]string{},
		Forms:  []FormConfig{},
	}
}

func (s *SiteSettings) normalize() {
	if s.Navigation == nil {
		s.Navigation = []NavItem{}
	}

	if s.Footer.Links == nil {
		s.Footer.Links = []NavItem{}
	}

	if s.Social == nil {
		s.Social = map[string]string{}
	}

	if s.Theme == nil {
		s.Theme = map[string]string{}
	}

	if s.Forms == nil {
		s.Forms = []FormConfig{}
	}

	for i := range s.Forms {
		s.Forms[i].normalize()
	}
}

func decodeSettings(data []byte) (SiteSettings, error) {
	var s SiteSettings

	err := json.Unmarshal(data, &s)
	if err != nil {
		return SiteSettings{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, Settings.FileName(), err)
	}

	s.normalize()

	return s, nil
}

// settingsObject is settings.json as a top-level key map, so updates keep
// keys SiteSettings does not know.
type settingsObject map[string]json.RawMessage

func decodeSettingsObject(data []byte) (settingsObject, error) {
	obj := settingsObject{}

	err := json.Unmarshal(data, &obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, Settings.FileName(), err)
	}

	if obj == nil {
		obj = settingsObject{}
	}

	return obj, nil
}

func (o settingsObject) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: field %q: %w", ErrValidation, key, err)
	}

	o[key] = raw

	return nil
}

// modifySettings runs fn on the stored settings under the lock. fn edits the
// key map and reports whether it changed anything; the result must still
// decode as SiteSettings.
func (db *DB) modifySettings(ctx context.Context, fn func(obj settingsObject, cur SiteSettings) (bool, error)) (SiteSettings, error) {
	var out SiteSettings

	_, err := db.write(ctx, Settings, func(data []byte) ([]byte, error) {
		cur, err := decodeSettings(data)
		if err != nil {
			return nil, err
		}

		obj, err := decodeSettingsObject(data)
		if err != nil {
			return nil, err
		}

		changed, err := fn(obj, cur)
		if err != nil {
			return nil, err
		}

		if !changed {
			out = cur

			return nil, nil
		}

		err = obj.set("updatedAt", db.now())
		if err != nil {
			return nil, err
		}

		merged, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encode settings: %w", err)
		}

		err = json.Unmarshal(merged, &out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}

		out.normalize()

		return encode(obj)
	})
	if err != nil {
		return SiteSettings{}, err
	}

	return out, nil
}

// GetSettings returns the site settings. A legacy formBuilder with no forms
// is migrated into forms and saved once.
func (db *DB) GetSettings(ctx context.Context) (SiteSettings, error) {
	s, err := db.getSettings(ctx)

	return s, withContext(err, "get_settings", Settings, "")
}

func (db *DB) getSettings(ctx context.Context) (SiteSettings, error) {
	data, err := db.read(ctx, Settings)
	if err != nil {
		return SiteSettings{}, err
	}

	s, err := decodeSettings(data)
	if err != nil {
		return SiteSettings{}, err
	}

	if !needsFormMigration(s) {
		return s, nil
	}

	out, err := db.modifySettings(ctx, func(obj settingsObject, cur SiteSettings) (bool, error) {
		if !needsFormMigration(cur) {
			return false, nil
		}

		migrated := migrateLegacyForm(cur, db.cfg.ContactPage)

		db.log.Info("migrated legacy form builder", "form", LegacyFormID, "fields", len(migrated.Forms[0].Fields))

		return true, obj.set("forms", migrated.Forms)
	})
	if err != nil {
		return SiteSettings{}, fmt.Errorf("migrate legacy forms: %w", err)
	}

	return out, nil
}

// UpdateSettings replaces the top-level keys in patch. Nested objects such as
// footer are replaced whole.
func (db *DB) UpdateSettings(ctx context.Context, patch Patch) (SiteSettings, error) {
	out, err := db.modifySettings(ctx, func(obj settingsObject, _ SiteSettings) (bool, error) {
		for k, v := range patch {
			if k == "updatedAt" {
				continue
			}

			err := obj.set(k, v)
			if err != nil {
				return false, err
			}
		}

		return true, nil
	})

	return out, withContext(err, "update_settings", Settings, "")
}

// GetForms returns all form definitions.
func (db *DB) GetForms(ctx context.Context) ([]FormConfig, error) {
	s, err := db.getSettings(ctx)
	if err != nil {
		return nil, withContext(err, "get_forms", Settings, "")
	}

	return s.Forms, nil
}

// GetForm returns the form with id or [ErrNotFound].
func (db *DB) GetForm(ctx context.Context, id string) (FormConfig, error) {
	s, err := db.getSettings(ctx)
	if err != nil {
		return FormConfig{}, withContext(err, "get_form", Settings, id)
	}

	for _, f := range s.Forms {
		if f.ID == id {
			return f, nil
		}
	}

	return FormConfig{}, withContext(ErrNotFound, "get_form", Settings, id)
}

// FormsForPage returns the forms placed on slug, top ones first.
func (db *DB) FormsForPage(ctx context.Context, slug string) ([]FormConfig, error) {
	s, err := db.getSettings(ctx)
	if err != nil {
		return nil, withContext(err, "forms_for_page", Settings, slug)
	}

	var top, bottom []FormConfig

	for _, f := range s.Forms {
		if f.Placement.Page != slug {
			continue
		}

		if f.Placement.Position == PositionTop {
			top = append(top, f)
		} else {
			bottom = append(bottom, f)
		}
	}

	return append(append([]FormConfig{}, top...), bottom...), nil
}

// SaveForm inserts f, or replaces the form with the same id. An empty id is
// assigned "form_" plus a generated id.
func (db *DB) SaveForm(ctx context.Context, f FormConfig) (FormConfig, error) {
	if strings.TrimSpace(f.Name) == "" {
		return FormConfig{}, withContext(fmt.Errorf("%w: form name is required", ErrValidation), "save_form", Settings, f.ID)
	}

	if f.ID == "" {
		id, err := newID()
		if err != nil {
			return FormConfig{}, withContext(err, "save_form", Settings, "")
		}

		f.ID = "form_" + id
	}

	f.normalize()

	_, err := db.modifySettings(ctx, func(obj settingsObject, cur SiteSettings) (bool, error) {
		forms := cur.Forms

		replaced := false

		for i := range forms {
			if forms[i].ID == f.ID {
				forms[i] = f
				replaced = true

				break
			}
		}

		if !replaced {
			forms = append(forms, f)
		}

		return true, obj.set("forms", forms)
	})
	if err != nil {
		return FormConfig{}, withContext(err, "save_form", Settings, f.ID)
	}

	return f, nil
}

// DeleteForm removes the form with id. Its submissions are kept.
func (db *DB) DeleteForm(ctx context.Context, id string) error {
	_, err := db.modifySettings(ctx, func(obj settingsObject, cur SiteSettings) (bool, error) {
		for i := range cur.Forms {
			if cur.Forms[i].ID == id {
				forms := append(cur.Forms[:i:i], cur.Forms[i+1:]...)

				return true, obj.set("forms", forms)
			}
		}

		return false, ErrNotFound
	})

	return withContext(err, "delete_form", Settings, id)
}
