package cmsdb

// LegacyFormID is the id of the form synthesized from formBuilder.
const LegacyFormID = "contact_form_default"

// LegacyFormBuilder is the deprecated single-form shape of settings.json.
// Every settings sub-field is optional; absent ones fall back to
// [DefaultFormSettings].
type LegacyFormBuilder struct {
	ContactForm []FieldDef          `json:"contactForm"`
	Settings    *LegacyFormSettings `json:"settings,omitempty"`
}

type LegacyFormSettings struct {
	NotificationEmail     *string `json:"notificationEmail,omitempty"`
	EmailNotifications    *bool   `json:"emailNotifications,omitempty"`
	AutoResponse          *bool   `json:"autoResponse,omitempty"`
	AutoResponseMessage   *string `json:"autoResponseMessage,omitempty"`
	SubmitButtonText      *string `json:"submitButtonText,omitempty"`
	SuccessMessage        *string `json:"successMessage,omitempty"`
	WhatsappNotifications *bool   `json:"whatsappNotifications,omitempty"`
	TelegramNotifications *bool   `json:"telegramNotifications,omitempty"`
}

func needsFormMigration(s SiteSettings) bool {
	return len(s.Forms) == 0 && s.FormBuilder != nil && len(s.FormBuilder.ContactForm) > 0
}

// migrateLegacyForm returns s with forms set to the single form built from
// formBuilder. formBuilder itself is left as is.
func migrateLegacyForm(s SiteSettings, contactPage string) SiteSettings {
	fields := append([]FieldDef(nil), s.FormBuilder.ContactForm...)

	s.Forms = []FormConfig{{
		ID:        LegacyFormID,
		Name:      "Contact Form",
		Placement: FormPlacement{Page: contactPage, Position: PositionBottom},
		Settings:  legacySettings(s.FormBuilder.Settings),
		Fields:    fields,
	}}

	return s
}

func legacySettings(in *LegacyFormSettings) FormSettings {
	out := DefaultFormSettings()
	if in == nil {
		return out
	}

	setIf(&out.NotificationEmail, in.NotificationEmail)
	setIf(&out.EmailNotifications, in.EmailNotifications)
	setIf(&out.AutoResponse, in.AutoResponse)
	setIf(&out.AutoResponseMessage, in.AutoResponseMessage)
	setIf(&out.SubmitButtonText, in.SubmitButtonText)
	setIf(&out.SuccessMessage, in.SuccessMessage)
	setIf(&out.WhatsappNotifications, in.WhatsappNotifications)
	setIf(&out.TelegramNotifications, in.TelegramNotifications)

	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
