package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstracker/internal/config"
	"docstracker/internal/port"
	s3storage "docstracker/internal/storage/s3"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   string
}

// fakeS3 answers PutObject and DeleteObjects and records every request.
func fakeS3(t *testing.T) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, r.URL.Query(), r.Header.Clone(), string(body)})
		mu.Unlock()

		switch {
		case r.Method == http.MethodPut:
			w.Header().Set("ETag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Query().Has("delete"):
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func newStore(t *testing.T, endpoint string) port.ArtifactStore {
	t.Helper()
	store, err := s3storage.NewArtifactStore(context.Background(), &config.S3Config{
		Region:    "ap-southeast-1",
		Bucket:    "reports",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return store
}

func TestNewArtifactStore_RequiresBucket(t *testing.T) {
	_, err := s3storage.NewArtifactStore(context.Background(), &config.S3Config{Region: "ap-southeast-1"})
	assert.Error(t, err)
}

func TestPut_StoresChecksumAndDisposition(t *testing.T) {
	srv, requests := fakeS3(t)
	store := newStore(t, srv.URL)

	data := "CDs,Invoices\n"
	stored, err := store.Put(context.Background(), port.ArtifactObject{
		Key:         "runs/run-1/report_20250309_140500.csv",
		Body:        strings.NewReader(data),
		ContentType: "text/csv",
		Size:        int64(len(data)),
		SHA256:      "deadbeef",
	})
	require.NoError(t, err)
	assert.Equal(t, "runs/run-1/report_20250309_140500.csv", stored.Key)
	assert.Equal(t, `"abc123"`, stored.ETag)

	reqs := requests()
	require.Len(t, reqs, 1)
	put := reqs[0]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/reports/runs/run-1/report_20250309_140500.csv", put.path)
	assert.Equal(t, "deadbeef", put.header.Get("X-Amz-Meta-"+s3storage.MetadataChecksum))
	assert.Equal(t, `attachment; filename="report_20250309_140500.csv"`, put.header.Get("Content-Disposition"))
	assert.Equal(t, "text/csv", put.header.Get("Content-Type"))
	assert.Contains(t, put.body, data)
}

func TestDeleteAll(t *testing.T) {
	srv, requests := fakeS3(t)
	store := newStore(t, srv.URL)

	require.NoError(t, store.DeleteAll(context.Background(), []string{"runs/run-1/a.csv", "runs/run-1/b.xlsx"}))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "/reports", reqs[0].path)
	assert.Contains(t, reqs[0].body, "<Key>runs/run-1/a.csv</Key>")
	assert.Contains(t, reqs[0].body, "<Key>runs/run-1/b.xlsx</Key>")
}

func TestDeleteAll_NoKeys(t *testing.T) {
	srv, requests := fakeS3(t)
	store := newStore(t, srv.URL)

	require.NoError(t, store.DeleteAll(context.Background(), nil))
	assert.Empty(t, requests())
}

func TestDownloadURL(t *testing.T) {
	srv, requests := fakeS3(t)
	store := newStore(t, srv.URL)

	raw, err := store.DownloadURL(context.Background(), "runs/run-1/files_20250309_140500.csv", "files_20250309_140500.csv", 10*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/reports/runs/run-1/files_20250309_140500.csv", u.Path)
	q := u.Query()
	assert.Equal(t, "600", q.Get("X-Amz-Expires"))
	assert.Equal(t, `attachment; filename="files_20250309_140500.csv"`, q.Get("response-content-disposition"))
	assert.Empty(t, requests(), "presigning is local")
}
