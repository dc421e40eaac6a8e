package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

var userPatchRules = map[string][]validation.Rule{
	"name":     {validation.Required, validation.Length(1, maxTitleLength)},
	"email":    {validation.Required, validation.Match(emailPattern).Error("must be an email address")},
	"password": {validation.Required, validation.Length(minPassword, 0)},
	"role": {validation.In(
		string(cmsdb.RoleAdmin), string(cmsdb.RoleEditor), string(cmsdb.RoleViewer),
	)},
	"status": {validation.In(string(cmsdb.UserActive), string(cmsdb.UserInactive))},
}

func publicUsers(users []cmsdb.User) []cmsdb.PublicUser {
	out := make([]cmsdb.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}

	return out
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.GetUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, publicUsers(users))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.GetUserByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	user, err := s.db.CreateUser(r.Context(), cmsdb.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, user.Public())
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r, userPatchRules)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	user, err := s.db.UpdateUser(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setTwoFASecret(w http.ResponseWriter, r *http.Request) {
	var req secretRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	user, err := s.db.SetTwoFASecret(r.Context(), mux.Vars(r)["id"], req.Secret)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) toggleTwoFA(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	user, err := s.db.ToggleTwoFA(r.Context(), mux.Vars(r)["id"], *req.Enabled)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// requestReset always answers 202 so the response does not reveal whether
// the email is registered.
func (s *Server) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	ctx := r.Context()

	token, err := s.db.GenerateResetToken(ctx, req.Email)
	switch {
	case err == nil:
		user, lookupErr := s.db.GetUserByEmail(ctx, req.Email)
		if lookupErr != nil {
			s.writeError(w, r, lookupErr)

			return
		}

		notifyErr := s.notifier.ResetRequested(ctx, user.Public(), token)
		if notifyErr != nil {
			s.log.WarnContext(ctx, "reset notification failed",
				slog.String("user", user.ID),
				slog.Any("err", notifyErr),
			)
		}
	case errors.Is(err, cmsdb.ErrNotFound):
		s.log.InfoContext(ctx, "reset requested for unknown email")
	default:
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

func (s *Server) verifyReset(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.VerifyResetToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"email": user.Email})
}

func (s *Server) completeReset(w http.ResponseWriter, r *http.Request) {
	var req resetCompleteRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	user, err := s.db.CompleteReset(r.Context(), req.Token, req.Password)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}
