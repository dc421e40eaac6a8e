package cmsdb

import (
	"context"
	"fmt"
	"time"
)

// FormSubmission is one submitted form. Submissions are stored in forms.json
// and are never updated.
type FormSubmission struct {
	ID         string         `json:"id"`
	FormID     string         `json:"formId"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Data       map[string]any `json:"data"`
}

func (s *FormSubmission) recordID() string { return s.ID }

func (s *FormSubmission) stamp(id string, now time.Time) {
	s.ID = id
	s.ReceivedAt = now

	if s.Data == nil {
		s.Data = map[string]any{}
	}
}

func (s *FormSubmission) touch(time.Time) {}

// GetSubmissions returns submissions for formID, or all if formID is empty.
func (db *DB) GetSubmissions(ctx context.Context, formID string) ([]FormSubmission, error) {
	subs, err := list[FormSubmission](ctx, db, Forms)
	if err != nil {
		return nil, withContext(err, "get_submissions", Forms, formID)
	}

	if formID == "" {
		return subs, nil
	}

	out := []FormSubmission{}

	for _, s := range subs {
		if s.FormID == formID {
			out = append(out, s)
		}
	}

	return out, nil
}

// CreateSubmission appends a submission. The form is referenced by id only;
// it is not required to exist.
func (db *DB) CreateSubmission(ctx context.Context, formID string, data map[string]any) (FormSubmission, error) {
	if formID == "" {
		return FormSubmission{}, withContext(fmt.Errorf("%w: formId is required", ErrValidation), "create_submission", Forms, "")
	}

	out, err := insert(ctx, db, Forms, FormSubmission{FormID: formID, Data: data}, nil)

	return out, withContext(err, "create_submission", Forms, out.ID)
}

func (db *DB) DeleteSubmission(ctx context.Context, id string) error {
	return withContext(remove[FormSubmission](ctx, db, Forms, id), "delete_submission", Forms, id)
}
