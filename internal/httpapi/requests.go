package httpapi

import (
	"encoding/json"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

var (
	slugPattern  = regexp.MustCompile(`^/[a-z0-9\-_/]*$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const (
	maxTitleLength = 200
	minPassword    = 8
)

type pageRequest struct {
	cmsdb.Page
}

func (p *pageRequest) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&p.Slug, validation.Required,
			validation.Match(slugPattern).Error("must start with / and contain only a-z, 0-9, -, _ and /")),
		validation.Field(&p.Status,
			validation.In(cmsdb.StatusDraft, cmsdb.StatusPublished, cmsdb.StatusArchived)),
		validation.Field(&p.Blocks, validation.By(validBlocks)),
	)
}

func validBlocks(v any) error {
	blocks, _ := v.([]cmsdb.ContentBlock)

	for _, b := range blocks {
		if !b.Type.Valid() {
			return validation.NewError("validation_block_type", "unknown block type "+string(b.Type))
		}
	}

	return nil
}

// patchBlocks checks a decoded "blocks" patch value the way create does.
func patchBlocks(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return validation.NewError("validation_blocks", "must be a list of blocks")
	}

	var blocks []cmsdb.ContentBlock

	err = json.Unmarshal(raw, &blocks)
	if err != nil {
		return validation.NewError("validation_blocks", "must be a list of blocks")
	}

	return validBlocks(blocks)
}

type mediaRequest struct {
	cmsdb.MediaItem
}

func (m *mediaRequest) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Filename, validation.Required),
		validation.Field(&m.URL, validation.Required),
		validation.Field(&m.Type, validation.In(cmsdb.MediaImage, cmsdb.MediaVideo, cmsdb.MediaDocument)),
		validation.Field(&m.Size, validation.Min(int64(0))),
	)
}

type userRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     cmsdb.Role       `json:"role"`
	Status   cmsdb.UserStatus `json:"status"`
}

func (u *userRequest) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&u.Email, validation.Required, validation.Match(emailPattern).Error("must be an email address")),
		validation.Field(&u.Password, validation.Required, validation.Length(minPassword, 0)),
		validation.Field(&u.Role, validation.In(cmsdb.RoleAdmin, cmsdb.RoleEditor, cmsdb.RoleViewer)),
		validation.Field(&u.Status, validation.In(cmsdb.UserActive, cmsdb.UserInactive)),
	)
}

type jobRequest struct {
	cmsdb.Job
}

func (j *jobRequest) Validate() error {
	return validation.ValidateStruct(j,
		validation.Field(&j.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&j.Applicants, validation.Min(0)),
	)
}

type formRequest struct {
	cmsdb.FormConfig
}

func (f *formRequest) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.Placement, validation.By(validPlacement)),
	)
}

func validPlacement(v any) error {
	p, _ := v.(cmsdb.FormPlacement)

	return validation.ValidateStruct(&p,
		validation.Field(&p.Page, validation.When(p.Page != "", validation.Match(slugPattern))),
		validation.Field(&p.Position, validation.In(cmsdb.PositionTop, cmsdb.PositionBottom)),
	)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (r *resetRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern).Error("must be an email address")),
	)
}

type resetCompleteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (r *resetCompleteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(minPassword, 0)),
	)
}

type secretRequest struct {
	Secret string `json:"secret"`
}

func (r *secretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Secret, validation.Required),
	)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *toggleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Enabled, validation.NotNil),
	)
}

// validSubmission checks data against the form's required fields.
func validSubmission(form cmsdb.FormConfig, data map[string]any) error {
	errs := validation.Errors{}

	for _, f := range form.Fields {
		if !f.Required {
			continue
		}

		err := validation.Validate(data[f.ID], validation.Required)
		if err != nil {
			errs[f.ID] = err
		}
	}

	return errs.Filter()
}
