// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
	"golang.org/x/mod/semver"

	"github.com/sxinclude/sxinclude/pkg/diag"
	"github.com/sxinclude/sxinclude/pkg/sexp"
)

// LatestRef selects the highest semantic-version tag of a repository.
const LatestRef = "latest"

// GitSchemes lists the target schemes served by GitResolver.
var GitSchemes = []string{"git+https", "git+http", "git+ssh", "git+file"}

type (
	// GitResolver reads documents out of remote Git repositories.
	//
	// Targets look like git+https://host/repo.git//dir/doc.sx?ref=v1.2.0: the
	// repository URL, "//", the path inside the repository, and an optional
	// ref. The ref may be a tag (with or without a "v" prefix), a branch, or
	// "latest". Every Resolve performs its own shallow in-memory clone.
	GitResolver struct {
		// DefaultRef is used when a target has no ref. Empty means LatestRef.
		DefaultRef string
		// Auth is passed to remote operations; nil for anonymous access.
		Auth transport.AuthMethod
	}

	// GitLocation is a parsed git target.
	GitLocation struct {
		// Repository is the clone URL without the "git+" prefix.
		Repository string
		// Path is the slash-separated document path inside the repository.
		Path string
		// Ref is the requested tag, branch, or LatestRef.
		Ref string
	}
)

// ParseGitTarget splits a git target into repository, path, and ref.
func ParseGitTarget(t Target) (GitLocation, error) {
	raw := string(t)
	scheme := schemeOf(raw)
	if !slices.Contains(GitSchemes, scheme) {
		return GitLocation{}, &InvalidTargetError{Value: t, Cause: fmt.Errorf("scheme %q is not a git scheme", scheme)}
	}
	raw = strings.TrimPrefix(raw, "git+")

	var ref string
	if i := strings.LastIndex(raw, "?"); i >= 0 {
		q, err := url.ParseQuery(raw[i+1:])
		if err != nil {
			return GitLocation{}, &InvalidTargetError{Value: t, Cause: err}
		}
		ref = q.Get("ref")
		raw = raw[:i]
	}

	// Skip past "scheme://" before looking for the repository/path separator.
	start := strings.Index(raw, "://") + len("://")
	sep := strings.Index(raw[start:], "//")
	if sep < 0 {
		return GitLocation{}, &InvalidTargetError{Value: t, Cause: errors.New("missing '//' between repository and document path")}
	}
	repo, docPath := raw[:start+sep], strings.Trim(raw[start+sep+2:], "/")
	if docPath == "" {
		return GitLocation{}, &InvalidTargetError{Value: t, Cause: errors.New("empty document path")}
	}
	return GitLocation{Repository: repo, Path: docPath, Ref: ref}, nil
}

// Target formats the location back into a git target.
func (l GitLocation) Target() Target {
	s := "git+" + l.Repository + "//" + l.Path
	if l.Ref != "" {
		s += "?ref=" + url.QueryEscape(l.Ref)
	}
	return Target(s)
}

// Convert implements Resolver. Absolute git targets are taken as is; a
// relative reference inside a git document resolves to the same repository
// and ref, relative to the including document's directory.
func (g *GitResolver) Convert(directive *sexp.Seq, sink diag.ErrorSink) (Target, bool) {
	parts, ok := referenceParts(directive, sink)
	if !ok {
		return "", false
	}
	ref := strings.Join(parts, "/")

	if slices.Contains(GitSchemes, schemeOf(ref)) {
		loc, err := ParseGitTarget(Target(ref))
		if err != nil {
			reportMalformed(sink, directive, err.Error())
			return "", false
		}
		return loc.Target(), true
	}

	from, err := ParseGitTarget(Target(directive.Location().Name))
	if err != nil {
		reportMalformed(sink, directive, fmt.Sprintf("relative reference %q outside a git document", ref))
		return "", false
	}
	from.Path = strings.TrimPrefix(path.Join(path.Dir(from.Path), ref), "/")
	return from.Target(), true
}

// Resolve implements Resolver.
func (g *GitResolver) Resolve(ctx context.Context, target Target, _ diag.ErrorSink) (io.ReadCloser, error) {
	loc, err := ParseGitTarget(target)
	if err != nil {
		return nil, err
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{loc.Repository},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: g.Auth})
	if err != nil {
		if errors.Is(err, transport.ErrRepositoryNotFound) {
			return nil, &NotFoundError{Target: target, Cause: err}
		}
		return nil, fmt.Errorf("list refs of %s: %w", loc.Repository, err)
	}

	want := loc.Ref
	if want == "" {
		want = g.DefaultRef
	}
	refName, err := SelectRef(refs, want)
	if err != nil {
		return nil, &NotFoundError{Target: target, Cause: err}
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:           loc.Repository,
		Auth:          g.Auth,
		ReferenceName: refName,
		SingleBranch:  true,
		Depth:         1,
		Tags:          git.NoTags,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s at %s: %w", loc.Repository, refName.Short(), err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("read HEAD of %s: %w", loc.Repository, err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", head.Hash(), err)
	}
	file, err := commit.File(loc.Path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, &NotFoundError{Target: target, Cause: err}
		}
		return nil, fmt.Errorf("read %s: %w", loc.Path, err)
	}
	return file.Reader()
}

// SelectRef picks the reference to clone. LatestRef (or "") selects the
// highest semantic-version tag; anything else must name a tag, accepting an
// optional "v" prefix, or a branch.
func SelectRef(refs []*plumbing.Reference, want string) (plumbing.ReferenceName, error) {
	if want == "" || want == LatestRef {
		var best plumbing.ReferenceName
		bestVersion := ""
		for _, r := range refs {
			if !r.Name().IsTag() {
				continue
			}
			v := canonicalVersion(r.Name().Short())
			if v == "" {
				continue
			}
			if bestVersion == "" || semver.Compare(v, bestVersion) > 0 {
				best, bestVersion = r.Name(), v
			}
		}
		if best == "" {
			return "", errors.New("no semantic version tags found")
		}
		return best, nil
	}

	candidates := []string{want}
	if noV, found := strings.CutPrefix(want, "v"); found {
		candidates = append(candidates, noV)
	} else {
		candidates = append(candidates, "v"+want)
	}
	for _, r := range refs {
		if r.Name().IsTag() && slices.Contains(candidates, r.Name().Short()) {
			return r.Name(), nil
		}
	}
	for _, r := range refs {
		if r.Name().IsBranch() && r.Name().Short() == want {
			return r.Name(), nil
		}
	}
	return "", fmt.Errorf("ref %q not found", want)
}

// canonicalVersion returns tag as a valid "vX.Y.Z" string, or "".
func canonicalVersion(tag string) string {
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	if !semver.IsValid(tag) {
		return ""
	}
	return tag
}
