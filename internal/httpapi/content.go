package httpapi

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

// decodePatch reads a partial update and checks the keys that have rules.
// Keys without rules are left to the store.
func decodePatch(r *http.Request, rules map[string][]validation.Rule) (cmsdb.Patch, error) {
	var patch cmsdb.Patch

	err := decode(r, &patch)
	if err != nil {
		return nil, err
	}

	errs := validation.Errors{}

	for key, keyRules := range rules {
		v, ok := patch[key]
		if !ok {
			continue
		}

		err := validation.Validate(v, keyRules...)
		if err != nil {
			errs[key] = err
		}
	}

	err = errs.Filter()
	if err != nil {
		return nil, err
	}

	return patch, nil
}

var pagePatchRules = map[string][]validation.Rule{
	"title": {validation.Required, validation.Length(1, maxTitleLength)},
	"slug":  {validation.Required, validation.Match(slugPattern)},
	"status": {validation.In(
		string(cmsdb.StatusDraft), string(cmsdb.StatusPublished), string(cmsdb.StatusArchived),
	)},
	"blocks": {validation.By(patchBlocks)},
}

func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.db.GetPages(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.db.GetPageByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getPageBySlug(w http.ResponseWriter, r *http.Request) {
	page, err := s.db.GetPageBySlug(r.Context(), r.URL.Query().Get("slug"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	page, err := s.db.CreatePage(r.Context(), req.Page)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, page)
}

func (s *Server) updatePage(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r, pagePatchRules)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	page, err := s.db.UpdatePage(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) deletePage(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeletePage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	items, err := s.db.GetMedia(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	item, err := s.db.GetMediaByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) createMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	item, err := s.db.CreateMedia(r.Context(), req.MediaItem)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateMedia(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r, map[string][]validation.Rule{
		"url":  {validation.Required},
		"size": {validation.Min(0.0)},
	})
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	item, err := s.db.UpdateMedia(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteMedia(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.db.GetJobs(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) listVisibleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.db.GetVisibleJobs(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.db.GetJobByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest

	err := decodeValid(r, &req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	job, err := s.db.CreateJob(r.Context(), req.Job)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r, map[string][]validation.Rule{
		"title":      {validation.Required, validation.Length(1, maxTitleLength)},
		"applicants": {validation.Min(0.0)},
	})
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	job, err := s.db.UpdateJob(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.db.IncrementApplicants(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, job)
}
