package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/pipeline"
	"github.com/matzehuels/lineage/pkg/store"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.counters == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "metrics are disabled"))
		return
	}
	writeJSON(w, http.StatusOK, s.counters.Snapshot())
}

// =============================================================================
// Trees
// =============================================================================

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trees": summaries})
}

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var t family.Tree
	if err := s.decodeJSON(w, r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	t.ID = "" // the store assigns one
	if err := s.store.Put(r.Context(), &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/trees/"+t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handlePutTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "treeID")
	var t family.Tree
	if err := s.decodeJSON(w, r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	if t.ID != "" && t.ID != id {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "body id %q does not match path id %q", t.ID, id))
		return
	}
	t.ID = id
	if err := s.store.Put(r.Context(), &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "treeID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout and Render
// =============================================================================

func (s *Server) handleTreeLayout(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{
		RootID:  r.URL.Query().Get("root"),
		Refresh: queryBool(r, "refresh"),
	}
	l, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, l)
}

// layoutRequest is the body of POST /api/v1/layout.
type layoutRequest struct {
	Tree    family.Tree      `json:"tree"`
	Options pipeline.Options `json:"options"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Tree.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), req.Tree, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	if err := pipeline.ValidateFormat(opts.VizType, format); err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.store.Get(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setCacheHeader(w, res.CacheInfo.RenderHit)
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		RootID:   q.Get("root"),
		VizType:  q.Get("type"),
		Style:    q.Get("style"),
		Formats:  []string{chi.URLParam(r, "format")},
		Detailed: queryBool(r, "detailed"),
		Refresh:  queryBool(r, "refresh"),
	}
	if opts.VizType == "" {
		opts.VizType = graph.VizTypeChart
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale must be a positive number, got %q", v)
		}
		opts.Scale = scale
	}
	return opts, nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}
