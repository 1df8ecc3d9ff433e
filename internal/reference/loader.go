// Package reference loads the naming syntax and requirement matrix that make
// up the read-only context of a reconciliation run.
package reference

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"docstracker/internal/domain"
)

// File names looked up inside the reference directory.
const (
	YAMLFile   = "reference.yaml"
	SyntaxFile = "syntax.csv"
	MatrixFile = "template.csv"
)

// Options adjusts a loaded reference.
type Options struct {
	// FallbackType overrides the row used for groups without a known type.
	FallbackType string
}

// Load reads the reference from dir on the local filesystem.
func Load(dir string, opts Options) (domain.Reference, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return domain.Reference{}, &domain.ConfigError{Source: dir, Msg: err.Error()}
	}
	if !info.IsDir() {
		return domain.Reference{}, &domain.ConfigError{Source: dir, Msg: "not a directory"}
	}
	return LoadFS(os.DirFS(dir), opts)
}

// LoadFS prefers reference.yaml and otherwise reads the syntax.csv and
// template.csv pair.
func LoadFS(fsys fs.FS, opts Options) (domain.Reference, error) {
	ref, err := loadFS(fsys)
	if err != nil {
		return domain.Reference{}, err
	}
	if opts.FallbackType != "" {
		ref.Matrix.FallbackType = opts.FallbackType
	}
	if err := validate(ref); err != nil {
		return domain.Reference{}, err
	}
	return ref, nil
}

func loadFS(fsys fs.FS) (domain.Reference, error) {
	f, err := fsys.Open(YAMLFile)
	if err == nil {
		defer f.Close()
		return ParseYAML(f)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return domain.Reference{}, &domain.ConfigError{Source: YAMLFile, Msg: err.Error()}
	}

	var ref domain.Reference
	sf, err := fsys.Open(SyntaxFile)
	if err != nil {
		return ref, &domain.ConfigError{Source: SyntaxFile, Msg: err.Error()}
	}
	defer sf.Close()
	if ref.Syntax, err = ParseSyntaxCSV(sf); err != nil {
		return ref, err
	}

	mf, err := fsys.Open(MatrixFile)
	if err != nil {
		return ref, &domain.ConfigError{Source: MatrixFile, Msg: err.Error()}
	}
	defer mf.Close()
	if ref.Matrix, err = ParseMatrixCSV(mf); err != nil {
		return ref, err
	}
	return ref, nil
}

func validate(ref domain.Reference) error {
	if len(ref.Syntax) == 0 {
		return &domain.ConfigError{Source: "syntax", Msg: "no naming rules defined"}
	}
	if len(ref.Matrix.Rows) == 0 {
		return &domain.ConfigError{Source: "template", Msg: "no requirement rows defined"}
	}
	if ft := ref.Matrix.FallbackType; ft != "" {
		if _, ok := ref.Matrix.Row(ft); !ok {
			return &domain.ConfigError{Source: "template", Msg: fmt.Sprintf("fallback type %q has no requirement row", ft)}
		}
	}
	return nil
}

// stripBOM drops a leading UTF-8 byte order mark.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
