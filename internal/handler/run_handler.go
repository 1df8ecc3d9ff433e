package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docstracker/internal/service"
)

// RunHandler exposes reconciliation runs over HTTP.
type RunHandler struct {
	svc      service.ReconcileService
	defaults service.RunInput
	paths    pathGuard
}

// NewRunHandler creates a new RunHandler. defaults seeds every run; request
// fields override it. Paths in a request must resolve inside baseDir; an empty
// baseDir disables path overrides.
func NewRunHandler(svc service.ReconcileService, defaults service.RunInput, baseDir string) *RunHandler {
	return &RunHandler{svc: svc, defaults: defaults, paths: newPathGuard(baseDir)}
}

// runRequest holds the per-request overrides. Pointers distinguish an absent
// flag from an explicit false.
type runRequest struct {
	Root          string `json:"root"`
	MasterPath    string `json:"master_path"`
	OutputDir     string `json:"output_dir"`
	Prefix        string `json:"prefix"`
	RequireMaster *bool  `json:"require_master"`
	HashFiles     *bool  `json:"hash_files"`
	XLSX          *bool  `json:"xlsx"`
	Publish       *bool  `json:"publish"`
}

func (r runRequest) apply(in service.RunInput, g pathGuard) (service.RunInput, error) {
	for _, p := range []struct {
		field string
		value string
		dst   *string
	}{
		{"root", r.Root, &in.Root},
		{"master_path", r.MasterPath, &in.MasterPath},
		{"output_dir", r.OutputDir, &in.OutputDir},
	} {
		if p.value == "" {
			continue
		}
		resolved, err := g.confine(p.field, p.value)
		if err != nil {
			return in, err
		}
		*p.dst = resolved
	}
	if r.Prefix != "" {
		in.Prefix = r.Prefix
	}
	if r.RequireMaster != nil {
		in.RequireMaster = *r.RequireMaster
	}
	if r.HashFiles != nil {
		in.HashFiles = *r.HashFiles
	}
	if r.XLSX != nil {
		in.XLSX = *r.XLSX
	}
	if r.Publish != nil {
		in.Publish = *r.Publish
	}
	return in, nil
}

// Create handles POST /api/v1/runs. The run executes synchronously.
func (h *RunHandler) Create(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	input, err := req.apply(h.defaults, h.paths)
	if err != nil {
		HandleError(c, err)
		return
	}
	if input.Root == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "root is required")
		return
	}

	summary, err := h.svc.Run(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	requestLogger(c).WithField("run_id", summary.RunID).Info("handler: run completed")
	RespondCreated(c, summary)
}

// Reference handles GET /api/v1/reference.
func (h *RunHandler) Reference(c *gin.Context) {
	ref, err := h.svc.Reference(c.Request.Context(), h.defaults.ReferenceDir, h.defaults.FallbackType)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, ref)
}

type classifyRequest struct {
	Invoice string   `json:"invoice"`
	Stems   []string `json:"stems" binding:"required,min=1"`
}

// Classify handles POST /api/v1/classify.
func (h *RunHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "stems is required")
		return
	}
	out, err := h.svc.Classify(c.Request.Context(), service.ClassifyInput{
		ReferenceDir: h.defaults.ReferenceDir,
		IgnoreCase:   h.defaults.IgnoreCase,
		Invoice:      req.Invoice,
		Stems:        req.Stems,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, out)
}
