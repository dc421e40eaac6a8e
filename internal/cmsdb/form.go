package cmsdb

// FormConfig is one form definition built in the admin form builder. Forms
// are stored inside [SiteSettings], not in their own file.
type FormConfig struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Placement FormPlacement `json:"placement"`
	Settings  FormSettings  `json:"settings"`
	Fields    []FieldDef    `json:"fields"`
}

// FormPlacement says on which page and where the form is embedded.
type FormPlacement struct {
	Page     string `json:"page"`
	Position string `json:"position"` // top or bottom
}

const (
	PositionTop    = "top"
	PositionBottom = "bottom"
)

// FieldDef is one input of a form.
type FieldDef struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder"`
	Options     []string `json:"options,omitempty"`
}

// FormSettings controls what happens with a submission.
type FormSettings struct {
	NotificationEmail     string `json:"notificationEmail"`
	EmailNotifications    bool   `json:"emailNotifications"`
	AutoResponse          bool   `json:"autoResponse"`
	AutoResponseMessage   string `json:"autoResponseMessage"`
	SubmitButtonText      string `json:"submitButtonText"`
	SuccessMessage        string `json:"successMessage"`
	WhatsappNotifications bool   `json:"whatsappNotifications"`
	TelegramNotifications bool   `json:"telegramNotifications"`
}

// DefaultFormSettings are the settings of a new form and the fallbacks used
// when migrating a legacy form.
func DefaultFormSettings() FormSettings {
	return FormSettings{
		NotificationEmail:   "",
		EmailNotifications:  true,
		AutoResponse:        false,
		AutoResponseMessage: "Thank you for contacting us. We will get back to you soon.",
		SubmitButtonText:    "Send Message",
		SuccessMessage:      "Thank you! Your message has been sent successfully.",
	}
}

func (f *FormConfig) normalize() {
	if f.Fields == nil {
		f.Fields = []FieldDef{}
	}

	if f.Placement.Position == "" {
		f.Placement.Position = PositionBottom
	}
}
