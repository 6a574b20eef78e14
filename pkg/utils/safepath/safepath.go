// Package safepath validates user-supplied file paths before any file
// I/O happens. Paths are resolved to absolute form and must stay inside
// a base directory with an allowed extension, which blocks traversal
// tricks like "../../etc/passwd.json".
package safepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// ValidateInput resolves userPath and returns its absolute form. The
// path must lie within baseDir (current working directory when empty),
// must reference an existing regular file, and must carry a .json
// extension.
func ValidateInput(userPath, baseDir string) (string, error) {
	absPath, absBase, err := resolve(userPath, baseDir)
	if err != nil {
		return "", err
	}

	if !within(absBase, absPath) {
		return "", goerr.New("input path must be within base directory",
			goerr.V("path", userPath),
			goerr.V("base_dir", absBase),
			goerr.T(model.ErrTagPath))
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", goerr.New("file not found",
				goerr.V("path", userPath),
				goerr.T(model.ErrTagNotFound))
		}
		return "", goerr.Wrap(err, "failed to stat input path",
			goerr.V("path", userPath),
			goerr.T(model.ErrTagPath))
	}
	if info.IsDir() {
		return "", goerr.New("input path is a directory",
			goerr.V("path", userPath),
			goerr.T(model.ErrTagPath))
	}

	if !hasExt(absPath, ".json") {
		return "", goerr.New("input file must be a JSON file",
			goerr.V("path", userPath),
			goerr.T(model.ErrTagPath))
	}

	return absPath, nil
}

// ValidateOutput resolves userPath and returns its absolute form. The
// path must lie within baseDir (current working directory when empty)
// and must carry a .json or .log extension. The file itself does not
// need to exist yet.
func ValidateOutput(userPath, baseDir string) (string, error) {
	absPath, absBase, err := resolve(userPath, baseDir)
	if err != nil {
		return "", err
	}

	if !within(absBase, absPath) {
		return "", goerr.New("output path must be within base directory",
			goerr.V("path", userPath),
			goerr.V("base_dir", absBase),
			goerr.T(model.ErrTagPath))
	}

	if !hasExt(absPath, ".json", ".log") {
		return "", goerr.New("output file must have .json or .log extension",
			goerr.V("path", userPath),
			goerr.T(model.ErrTagPath))
	}

	return absPath, nil
}

// resolve returns the absolute forms of userPath and baseDir. Relative
// user paths are resolved against the base directory, so "orgs.json"
// with a base of /data means /data/orgs.json.
func resolve(userPath, baseDir string) (string, string, error) {
	if userPath == "" {
		return "", "", goerr.New("path is empty", goerr.T(model.ErrTagPath))
	}

	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", goerr.Wrap(err, "failed to resolve working directory",
				goerr.T(model.ErrTagPath))
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", "", goerr.Wrap(err, "failed to resolve base directory",
			goerr.V("base_dir", baseDir),
			goerr.T(model.ErrTagPath))
	}

	absPath := userPath
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(absBase, absPath)
	}
	absPath = filepath.Clean(absPath)

	return absPath, absBase, nil
}

// within reports whether absPath is absBase or a descendant of it.
// String prefix comparison is not enough: "/tmp/data-evil" is not
// inside "/tmp/data".
func within(absBase, absPath string) bool {
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasExt(path string, allowed ...string) bool {
	ext := filepath.Ext(path)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
