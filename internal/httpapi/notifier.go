package httpapi

import (
	"context"
	"log/slog"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

// Notifier delivers out-of-band messages. Delivery failures are logged and
// never fail the request that triggered them.
type Notifier interface {
	// SubmissionReceived is called after a form submission is stored.
	SubmissionReceived(ctx context.Context, form cmsdb.FormConfig, sub cmsdb.FormSubmission) error

	// ResetRequested is called with a freshly issued reset token. The token
	// is never part of an HTTP response.
	ResetRequested(ctx context.Context, user cmsdb.PublicUser, token string) error
}

// LogNotifier writes notifications to a logger. It is the default when no
// delivery channel is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SubmissionReceived(ctx context.Context, form cmsdb.FormConfig, sub cmsdb.FormSubmission) error {
	n.Logger.InfoContext(ctx, "form submission received",
		slog.String("form", form.ID),
		slog.String("submission", sub.ID),
		slog.Bool("email_notifications", form.Settings.EmailNotifications),
		slog.String("notification_email", form.Settings.NotificationEmail),
	)

	return nil
}

func (n LogNotifier) ResetRequested(ctx context.Context, user cmsdb.PublicUser, _ string) error {
	n.Logger.InfoContext(ctx, "password reset requested", slog.String("user", user.ID))

	return nil
}
