package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r, nil)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	settings, err := s.db.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.db.GetForms(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, forms)
}

func (s *Server) formsForPage(w http.ResponseWriter, r *http.Request) {
	forms, err := s.db.FormsForPage(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, forms)
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.db.GetForm(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, form)
}

func (s *Server) createForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	req.ID = ""

	form, err := s.db.SaveForm(r.Context(), req.FormConfig)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, form)
}

// updateForm replaces the form with the given id.
func (s *Server) updateForm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	_, err := s.db.GetForm(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	var req formRequest

	err = decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	req.ID = id

	form, err := s.db.SaveForm(r.Context(), req.FormConfig)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, form)
}

func (s *Server) deleteForm(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteForm(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.db.GetSubmissions(r.Context(), r.URL.Query().Get("formId"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteSubmission(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := s.db.GetForm(ctx, mux.Vars(r)["formId"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	var data map[string]any

	err = decode(r, &data)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	err = validSubmission(form, data)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	sub, err := s.db.CreateSubmission(ctx, form.ID, data)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	notifyErr := s.notifier.SubmissionReceived(ctx, form, sub)
	if notifyErr != nil {
		s.log.WarnContext(ctx, "submission notification failed",
			slog.String("form", form.ID),
			slog.Any("err", notifyErr),
		)
	}

	writeJSON(w, http.StatusCreated, submitResponse{ID: sub.ID, Message: form.Settings.SuccessMessage})
}

type submitResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
