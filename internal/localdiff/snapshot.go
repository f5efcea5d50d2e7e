package localdiff

import (
	"context"
	"sort"
	"strings"

	"github.com/reviewloop/octoreview/internal/forge"
	"github.com/reviewloop/octoreview/pkg/executil"
)

// Snapshot is a virtual pull request synthesised from uncommitted working
// tree changes. Comments, submissions, and replies are refused against it.
type Snapshot struct {
	Files []forge.ChangedFile
}

// BuildSnapshot runs `git diff HEAD` in dir and parses it into a Snapshot
// whose files are ordered by path.
func BuildSnapshot(ctx context.Context, exec executil.Executor, dir string) (Snapshot, error) {
	out, err := exec.RunDir(ctx, dir, "git", "diff", "HEAD", "--no-color")
	if err != nil {
		return Snapshot{}, err
	}

	files := splitPatches(string(out))
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return Snapshot{Files: files}, nil
}

// splitPatches breaks a combined `git diff` stream into one ChangedFile per
// "diff --git " section.
func splitPatches(diff string) []forge.ChangedFile {
	lines := strings.Split(diff, "\n")

	var files []forge.ChangedFile
	var cur []string
	var path string

	flush := func() {
		if len(cur) == 0 {
			return
		}
		p := path
		if p == "" {
			p = extractPath(cur[0])
		}
		files = append(files, forge.ChangedFile{
			Path:  p,
			Kind:  forge.Modified,
			Patch: strings.Join(cur, "\n"),
		})
		cur = nil
		path = ""
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			flush()
			path = extractPath(line)
		}
		cur = append(cur, line)
	}
	flush()

	return files
}

// extractPath pulls the repo-relative path out of a "diff --git a/x b/x"
// header line.
func extractPath(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 4 {
		return ""
	}
	b := fields[3]
	return strings.TrimPrefix(b, "b/")
}
