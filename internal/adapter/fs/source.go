package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"kbrag/internal/domain"
)

// SourceResolver resolves the configured document pattern under a root
// directory. The pattern must match exactly one regular file.
type SourceResolver struct {
	root string
}

func NewSourceResolver(root string) *SourceResolver {
	return &SourceResolver{root: root}
}

func (r *SourceResolver) Resolve(pattern string) (string, error) {
	if pattern == "" {
		return "", &domain.ExtractionError{Err: fmt.Errorf("no source document configured")}
	}
	if !doublestar.ValidatePattern(pattern) {
		return "", &domain.ExtractionError{Path: pattern, Err: fmt.Errorf("invalid document pattern")}
	}

	full := pattern
	if !filepath.IsAbs(pattern) {
		full = filepath.Join(r.root, pattern)
	}

	matches, err := doublestar.FilepathGlob(full)
	if err != nil {
		return "", &domain.ExtractionError{Path: pattern, Err: err}
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)

	switch len(files) {
	case 0:
		return "", &domain.ExtractionError{Path: pattern, Err: fmt.Errorf("no document matches pattern")}
	case 1:
		return files[0], nil
	default:
		return "", &domain.ExtractionError{Path: pattern, Err: fmt.Errorf("pattern matches %d documents, expected exactly one: %v", len(files), files)}
	}
}
