package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-dynform/pkg/render/html"
	"github.com/goliatone/go-dynform/pkg/request"
)

// basePath is the session's URL as seen by the browser, including the mount
// prefix.
func (s *Server) basePath(id string) string {
	return s.prefix + "/sessions/" + id
}

// entry resolves the {id} path parameter, writing a 404 when it is unknown.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*Entry, bool) {
	id := chi.URLParam(r, "id")
	e := s.sessions.Get(id)
	if e == nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or expired session: "+id)
		return nil, false
	}
	return e, true
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Create(r.Context())
	if err != nil {
		s.logger.Error("web: create session", "error", err)
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", err.Error())
		return
	}
	s.logger.Info("web: session created", "session", e.ID, "collection", e.Form.CollectionID())
	http.Redirect(w, r, s.basePath(e.ID), http.StatusSeeOther)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	opts := html.PageOptions{BasePath: s.basePath(e.ID), Live: true}
	if err := s.renderer.Page(w, e.Form.View(), opts); err != nil {
		s.logger.Error("web: render page", "session", e.ID, "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.Form.View())
}

// handleSelect accepts a JSON body or a classic form post. Form posts are
// redirected back to the page.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var data SelectData
	if wantsJSON(r) {
		if err := decodeJSON(r, &data); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body")
			return
		}
		data.Collection = r.PostForm.Get("collection")
	}
	if data.Collection == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "collection is required")
		return
	}

	if err := e.Form.Select(r.Context(), data.Collection); err != nil {
		status, code := classify(err)
		writeError(w, status, code, err.Error())
		return
	}
	if !wantsJSON(r) {
		http.Redirect(w, r, s.basePath(e.ID), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, e.Form.View())
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	var values []string
	if wantsJSON(r) {
		var data SetData
		if err := decodeJSON(r, &data); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		values = data.Values
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body")
			return
		}
		values = r.PostForm["value"]
	}

	if err := e.Form.Set(r.Context(), name, values...); err != nil {
		status, code := classify(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e.Form.View())
}

var formatContentTypes = map[request.Format]string{
	request.FormatJSON:   "application/json",
	request.FormatYAML:   "application/yaml",
	request.FormatForm:   "application/x-www-form-urlencoded",
	request.FormatPretty: "text/plain; charset=utf-8",
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	format, err := request.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
		return
	}
	payload, err := request.NewSubmission(e.Form).Encode(format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_FAILED", err.Error())
		return
	}
	w.Header().Set("Content-Type", formatContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
