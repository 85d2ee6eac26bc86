package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ryandumpert/flint/internal/locate"
	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/review"
	"github.com/ryandumpert/flint/internal/store"
	"github.com/ryandumpert/flint/internal/textnorm"
)

type textRequest struct {
	Text string `json:"text"`
}

type normalizeResponse struct {
	Text  string         `json:"text"`
	Stats textnorm.Stats `json:"stats"`
}

type contractRequest struct {
	Name      string `json:"name"`
	FileName  string `json:"fileName"`
	Text      string `json:"text"`
	PageCount *int   `json:"pageCount,omitempty"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type groundResponse struct {
	Message  string `json:"message"`
	Grounded bool   `json:"grounded"`
}

type locateResponse struct {
	Found   bool                      `json:"found"`
	Request *locate.NavigationRequest `json:"request,omitempty"`
	Match   *locate.Match             `json:"match,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) normalize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	text, stats := textnorm.Canonicalize(req.Text)
	writeJSON(w, http.StatusOK, normalizeResponse{Text: text, Stats: stats})
}

// createContract ingests a contract and makes it the active session.
func (s *Server) createContract(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = req.FileName
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "name and text are required")
		return
	}

	v, err := s.store.Ingest(r.Context(), store.IngestParams{
		Name:      req.Name,
		FileName:  req.FileName,
		RawText:   req.Text,
		PageCount: req.PageCount,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.session.Open(*v, nil)
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	versions, err := s.store.List(r.Context(), store.ListParams{
		Name:  r.URL.Query().Get("name"),
		Limit: limit,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if versions == nil {
		versions = []model.ContractVersion{}
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.Resolve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// analyze accepts the raw analysis response as the body. Surrounding prose
// or Markdown fences are tolerated.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := review.Apply(r.Context(), s.store, s.normalizer, mux.Vars(r)["id"], body)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.session.SetIssues(res.Contract.ID, res.Issues)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.Resolve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}

	var f store.IssueFilter
	if sev := r.URL.Query().Get("severity"); sev != "" {
		parsed, ok := model.ParseSeverity(sev)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown severity "+sev)
			return
		}
		f.Severity = parsed
	}
	f.Category = r.URL.Query().Get("category")

	issues, err := s.store.Issues(r.Context(), v.ID, f)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.Report(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) sections(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.Resolve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	secs, err := s.store.Sections(r.Context(), v.ID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secs)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Summary())
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.LoadAnalysis(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	s.session.Open(a.Contract, a.Issues)
	writeJSON(w, http.StatusOK, s.session.Summary())
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	s.session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ground(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	out := s.session.Ground(req.Message)
	writeJSON(w, http.StatusOK, groundResponse{Message: out, Grounded: out != req.Message})
}

func (s *Server) locate(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	match, nav, ok := s.session.Locate(req.Message)
	if !ok {
		resp := locateResponse{}
		if nav.SearchQuery != "" {
			resp.Request = &nav
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, locateResponse{Found: true, Request: &nav, Match: &match})
}
