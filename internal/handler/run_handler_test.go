package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docstracker/internal/domain"
	"docstracker/internal/handler"
	"docstracker/internal/service"
	"docstracker/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func defaults() service.RunInput {
	return service.RunInput{
		Root:         "/data/shipments",
		ReferenceDir: "/etc/docstracker/reference",
		Workers:      6,
		XLSX:         true,
		Prefix:       "report",
	}
}

// baseDir returns a resolved temporary directory to confine request paths to.
func baseDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func newContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRunHandler_Create_Success(t *testing.T) {
	base := baseDir(t)
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), base)

	svc.On("Run", mock.Anything, mock.MatchedBy(func(in service.RunInput) bool {
		return in.Root == filepath.Join(base, "batch7") &&
			in.MasterPath == filepath.Join(base, "master.xlsx") &&
			in.RequireMaster &&
			!in.XLSX &&
			in.Workers == 6
	})).Return(&service.RunSummary{RunID: "run-1", Mode: domain.ModePerDeclaration}, nil)

	body := `{"root":"` + filepath.Join(base, "batch7") + `","master_path":"master.xlsx","require_master":true,"xlsx":false}`
	c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(body))
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, "per_cds", data["mode"])
	svc.AssertExpectations(t)
}

func TestRunHandler_Create_PathsOutsideBase(t *testing.T) {
	base := baseDir(t)
	outside := baseDir(t)
	require.NoError(t, os.Symlink(outside, filepath.Join(base, "escape")))

	tests := []struct {
		name string
		body string
	}{
		{"absolute root", `{"root":"` + outside + `"}`},
		{"relative traversal", `{"root":"../../etc"}`},
		{"master outside", `{"master_path":"/etc/passwd"}`},
		{"output outside", `{"output_dir":"` + filepath.Join(outside, "reports") + `"}`},
		{"symlink escape", `{"output_dir":"escape/reports"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockReconcileService)
			h := handler.NewRunHandler(svc, defaults(), base)

			c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(tt.body))
			h.Create(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "PATH_NOT_ALLOWED", decode(t, w).Error.Code)
			svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestRunHandler_Create_OutputInsideBase(t *testing.T) {
	base := baseDir(t)
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), base)
	svc.On("Run", mock.Anything, mock.MatchedBy(func(in service.RunInput) bool {
		return in.Root == "/data/shipments" && in.OutputDir == filepath.Join(base, "reports", "march")
	})).Return(&service.RunSummary{RunID: "run-3"}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(`{"output_dir":"reports/./march"}`))
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestRunHandler_Create_NoBaseDirRejectsPaths(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), "")

	c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(`{"root":"/data/shipments"}`))
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PATH_NOT_ALLOWED", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunHandler_Create_UsesDefaults(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), "")
	svc.On("Run", mock.Anything, defaults()).Return(&service.RunSummary{RunID: "run-2"}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(`{}`))
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestRunHandler_Create_BadBody(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), "")

	c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(`{"root":`))
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunHandler_Create_NoRoot(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, service.RunInput{}, "")

	c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(`{}`))
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
}

func TestRunHandler_Create_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"config", &domain.ConfigError{Source: "template.csv", Line: 3, Msg: "bad cell"}, http.StatusUnprocessableEntity, "INVALID_REFERENCE"},
		{"master", &domain.ValidationError{Missing: []string{"Bill"}}, http.StatusUnprocessableEntity, "INVALID_MASTER"},
		{"root", domain.ErrInvalidRoot, http.StatusBadRequest, "INVALID_ROOT"},
		{"master required", domain.ErrMasterRequired, http.StatusBadRequest, "MASTER_REQUIRED"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "RUN_CANCELLED"},
		{"other", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockReconcileService)
			h := handler.NewRunHandler(svc, defaults(), "")
			svc.On("Run", mock.Anything, mock.Anything).Return(nil, tt.err)

			c, w := newContext(http.MethodPost, "/api/v1/runs", []byte(`{}`))
			h.Create(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestMapDomainError_ConfigMessage(t *testing.T) {
	_, _, msg := handler.MapDomainError(&domain.ConfigError{Source: "template.csv", Line: 3, Msg: "bad cell"})
	assert.Equal(t, "template.csv:3: bad cell", msg)
}

func TestRunHandler_Reference(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), "")
	ref := &domain.Reference{Syntax: []domain.NamingRule{{DocType: domain.D02, Template: "{INVOICE}_CI"}}}
	svc.On("Reference", mock.Anything, "/etc/docstracker/reference", "").Return(ref, nil)

	c, w := newContext(http.MethodGet, "/api/v1/reference", nil)
	h.Reference(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	svc.AssertExpectations(t)
}

func TestRunHandler_Classify(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), "")
	svc.On("Classify", mock.Anything, service.ClassifyInput{
		ReferenceDir: "/etc/docstracker/reference",
		Invoice:      "INV001",
		Stems:        []string{"INV001_CI"},
	}).Return([]service.Classification{{Stem: "INV001_CI", DocType: domain.D02}}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/classify", []byte(`{"invoice":"INV001","stems":["INV001_CI"]}`))
	h.Classify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRunHandler_Classify_NoStems(t *testing.T) {
	svc := new(mocks.MockReconcileService)
	h := handler.NewRunHandler(svc, defaults(), "")

	c, w := newContext(http.MethodPost, "/api/v1/classify", []byte(`{"stems":[]}`))
	h.Classify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	h := handler.NewHealthHandler(t.TempDir())
	c, w := newContext(http.MethodGet, "/readyz", nil)
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = handler.NewHealthHandler("/definitely/not/here")
	c, w = newContext(http.MethodGet, "/readyz", nil)
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
