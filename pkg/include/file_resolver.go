// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"mvdan.cc/sh/v3/shell"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

const (
	// FileScheme is the scheme of filesystem targets.
	FileScheme = "file"

	// DefaultMaxDocumentSize is the default largest document FileResolver reads (5MB).
	DefaultMaxDocumentSize int64 = 5 * 1024 * 1024
)

// FileResolver reads documents from the local filesystem.
//
// A reference's atoms are joined as path segments and shell-style variables
// ($HOME, ${DIR:-x}) are expanded. Relative paths resolve against the
// directory of the including document when it is a file, then against each
// search path in order; the first existing candidate wins.
type FileResolver struct {
	// SearchPaths are fallback roots for relative references.
	SearchPaths []string
	// Env looks up variables during expansion. nil uses os.Getenv.
	Env func(name string) string
	// MaxSize limits document size in bytes. Zero uses DefaultMaxDocumentSize.
	MaxSize int64
}

// FileTarget returns the file URI for a filesystem path, made absolute.
func FileTarget(path string) (Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	u := url.URL{Scheme: FileScheme, Path: filepath.ToSlash(abs)}
	return Target(u.String()), nil
}

// FilePath returns the filesystem path named by a file target.
func FilePath(t Target) (string, error) {
	u, err := url.Parse(string(t))
	if err != nil {
		return "", &InvalidTargetError{Value: t, Cause: err}
	}
	if u.Scheme != FileScheme {
		return "", &InvalidTargetError{Value: t, Cause: fmt.Errorf("scheme %q is not %q", u.Scheme, FileScheme)}
	}
	return filepath.FromSlash(u.Path), nil
}

// Convert implements Resolver.
func (f *FileResolver) Convert(directive *sexp.Seq, sink diag.ErrorSink) (Target, bool) {
	parts, ok := referenceParts(directive, sink)
	if !ok {
		return "", false
	}

	ref := filepath.Join(parts...)
	if schemeOf(parts[0]) == FileScheme {
		p, err := FilePath(Target(parts[0]))
		if err != nil {
			reportMalformed(sink, directive, err.Error())
			return "", false
		}
		ref = filepath.Join(append([]string{p}, parts[1:]...)...)
	}

	expanded, err := shell.Expand(ref, f.env())
	if err != nil {
		reportMalformed(sink, directive, fmt.Sprintf("cannot expand %q: %v", ref, err))
		return "", false
	}

	path := f.locate(expanded, directive.Location().Name)
	target, err := FileTarget(path)
	if err != nil {
		reportMalformed(sink, directive, err.Error())
		return "", false
	}
	return target, true
}

// Resolve implements Resolver.
func (f *FileResolver) Resolve(_ context.Context, target Target, _ diag.ErrorSink) (io.ReadCloser, error) {
	path, err := FilePath(target)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Target: target, Cause: err}
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &NotFoundError{Target: target, Cause: fmt.Errorf("%s is a directory", path)}
	}
	if limit := f.maxSize(); info.Size() > limit {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, info.Size(), limit)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return file, nil
}

// locate picks the filesystem path for a reference made from an including
// document named from.
func (f *FileResolver) locate(ref, from string) string {
	if filepath.IsAbs(ref) {
		return ref
	}

	var candidates []string
	if dir, ok := fileDir(from); ok {
		candidates = append(candidates, filepath.Join(dir, ref))
	}
	for _, sp := range f.SearchPaths {
		candidates = append(candidates, filepath.Join(sp, ref))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	if len(candidates) > 0 {
		// Keep the first candidate so the not-found diagnostic names it.
		return candidates[0]
	}
	return ref
}

func (f *FileResolver) env() func(string) string {
	if f.Env != nil {
		return f.Env
	}
	return os.Getenv
}

func (f *FileResolver) maxSize() int64 {
	if f.MaxSize > 0 {
		return f.MaxSize
	}
	return DefaultMaxDocumentSize
}

// fileDir returns the directory holding the document named by a file URI.
func fileDir(name string) (string, bool) {
	if schemeOf(name) != FileScheme {
		return "", false
	}
	p, err := FilePath(Target(name))
	if err != nil {
		return "", false
	}
	return filepath.Dir(p), true
}
