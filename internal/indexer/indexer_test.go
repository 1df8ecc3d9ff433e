package indexer_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstracker/internal/domain"
	"docstracker/internal/indexer"
	"docstracker/internal/pattern"
)

func newClassifier(t *testing.T) *pattern.Classifier {
	t.Helper()
	c, err := pattern.NewClassifier([]domain.NamingRule{
		{DocType: domain.D01, Template: "{INVOICE}_ToKhaiHQ7N_QDTQ_{CDs_12digits}"},
		{DocType: domain.D02, Template: "{INVOICE}_CI"},
		{DocType: domain.D08, Template: "{INVOICE}_BL_{Bill}"},
	}, pattern.Options{})
	require.NoError(t, err)
	return c
}

func sampleTree() fstest.MapFS {
	return fstest.MapFS{
		"INV002/INV002_CI.pdf":                          {Data: []byte("b")},
		"INV001/INV001_CI.pdf":                          {Data: []byte("hello")},
		"INV001/INV001_ToKhaiHQ7N_QDTQ_123456789012.pdf": {Data: []byte("a")},
		"INV001/INV999_CI.pdf":                          {Data: []byte("c")},
		"INV001/.DS_Store":                              {Data: []byte("x")},
		"INV001/nested/INV001_BL_X.pdf":                 {Data: []byte("d")},
		"INV003":                                        {Mode: fs.ModeDir},
		"readme.txt":                                    {Data: []byte("root file")},
	}
}

// faultyFS fails ReadDir or Open for selected paths.
type faultyFS struct {
	fstest.MapFS
	badDir  string
	badFile string
}

func (f faultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name == f.badDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrPermission}
	}
	return f.MapFS.ReadDir(name)
}

func (f faultyFS) Open(name string) (fs.File, error) {
	if name == f.badFile {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return f.MapFS.Open(name)
}

func TestScan_PerFolder(t *testing.T) {
	log, _ := test.NewNullLogger()
	ix := indexer.New(newClassifier(t), indexer.Options{Workers: 2, SkipHidden: true}, log)

	res, err := ix.Scan(context.Background(), sampleTree(), domain.ModePerFolder)
	require.NoError(t, err)

	assert.Equal(t, []string{"INV001", "INV002", "INV003"}, res.Folders)
	require.Len(t, res.Entries, 4)

	names := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		names[i] = e.Folder + "/" + e.Name
	}
	assert.Equal(t, []string{
		"INV001/INV001_CI.pdf",
		"INV001/INV001_ToKhaiHQ7N_QDTQ_123456789012.pdf",
		"INV001/INV999_CI.pdf",
		"INV002/INV002_CI.pdf",
	}, names, "folder order then file order, no recursion, hidden skipped")

	assert.Equal(t, domain.D02, res.Entries[0].DocType)
	assert.Equal(t, "INV001_CI", res.Entries[0].Stem)
	assert.Equal(t, ".pdf", res.Entries[0].Ext)
	assert.Equal(t, domain.D01, res.Entries[1].DocType)
	assert.Equal(t, "123456789012", res.Entries[1].Tokens[domain.TokenCDs])
	assert.Equal(t, domain.DocUnknown, res.Entries[2].DocType, "foreign invoice does not match the folder")
	assert.Empty(t, res.Diagnostics)
}

func TestScan_PerDeclarationDefersInvoice(t *testing.T) {
	ix := indexer.New(newClassifier(t), indexer.Options{SkipHidden: true}, nil)

	res, err := ix.Scan(context.Background(), sampleTree(), domain.ModePerDeclaration)
	require.NoError(t, err)

	require.Len(t, res.Entries, 4)
	assert.Equal(t, domain.D02, res.Entries[2].DocType)
	assert.Equal(t, "INV999", res.Entries[2].Tokens[domain.TokenInvoice])
}

func TestScan_HiddenKeptWhenNotSkipped(t *testing.T) {
	ix := indexer.New(newClassifier(t), indexer.Options{}, nil)

	res, err := ix.Scan(context.Background(), sampleTree(), domain.ModePerFolder)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 5)
}

func TestScan_HashesFiles(t *testing.T) {
	ix := indexer.New(newClassifier(t), indexer.Options{Hasher: indexer.SHA256Hasher{}, SkipHidden: true}, nil)

	res, err := ix.Scan(context.Background(), sampleTree(), domain.ModePerFolder)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", res.Entries[0].Hash)
}

func TestScan_UnreadableFolderIsWarning(t *testing.T) {
	log, hook := test.NewNullLogger()
	fsys := faultyFS{MapFS: sampleTree(), badDir: "INV001"}
	ix := indexer.New(newClassifier(t), indexer.Options{SkipHidden: true}, log)

	res, err := ix.Scan(context.Background(), fsys, domain.ModePerFolder)
	require.NoError(t, err)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, "INV002", res.Entries[0].Folder)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagScanWarning, res.Diagnostics[0].Kind)
	assert.Equal(t, "INV001", res.Diagnostics[0].Path)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["path"] == "INV001" {
			warned = true
		}
	}
	assert.True(t, warned, "unreadable folder is logged at warn level")
}

func TestScan_UnreadableFileKeepsEntry(t *testing.T) {
	fsys := faultyFS{MapFS: sampleTree(), badFile: "INV002/INV002_CI.pdf"}
	ix := indexer.New(newClassifier(t), indexer.Options{Hasher: indexer.SHA256Hasher{}, SkipHidden: true}, nil)

	res, err := ix.Scan(context.Background(), fsys, domain.ModePerFolder)
	require.NoError(t, err)

	require.Len(t, res.Entries, 4)
	assert.Empty(t, res.Entries[3].Hash)
	assert.Equal(t, domain.D02, res.Entries[3].DocType)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "INV002/INV002_CI.pdf", res.Diagnostics[0].Path)
}

func TestScan_InvalidRoot(t *testing.T) {
	fsys := faultyFS{MapFS: sampleTree(), badDir: "."}
	ix := indexer.New(newClassifier(t), indexer.Options{}, nil)

	res, err := ix.Scan(context.Background(), fsys, domain.ModePerFolder)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, domain.ErrInvalidRoot))
}

func TestScan_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ix := indexer.New(newClassifier(t), indexer.Options{}, nil)

	res, err := ix.Scan(ctx, sampleTree(), domain.ModePerFolder)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Len(t, res.Folders, 3)
	assert.Empty(t, res.Entries)
}

func TestScan_DeterministicAcrossWorkerCounts(t *testing.T) {
	tree := sampleTree()
	var baseline []domain.FileEntry
	for _, workers := range []int{1, 4, 32} {
		ix := indexer.New(newClassifier(t), indexer.Options{Workers: workers, SkipHidden: true}, nil)
		res, err := ix.Scan(context.Background(), tree, domain.ModePerFolder)
		require.NoError(t, err)
		if baseline == nil {
			baseline = res.Entries
			continue
		}
		assert.Equal(t, baseline, res.Entries, "workers=%d", workers)
	}
}
