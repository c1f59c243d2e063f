package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	Extension     = ".zip"
	MaxNameLength = 100
)

// ValidateName bounds the requested archive name and makes sure it carries
// the .zip extension. The suffix check is case-sensitive.
func ValidateName(name string) (string, error) {
	if len(name) > MaxNameLength {
		return "", newError(KindNameTooLong, "", fmt.Errorf("archive name can't be more than %d characters, got %d", MaxNameLength, len(name)))
	}

	if strings.HasSuffix(name, Extension) {
		return name, nil
	}

	return name + Extension, nil
}

// ValidateDirectory resolves dir to its absolute, symlink-free form and
// checks that it names an existing directory.
func ValidateDirectory(dir string) (string, error) {
	if dir == "" {
		return "", newError(KindPathNotFound, dir, os.ErrNotExist)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", newError(KindPathNotFound, dir, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", newError(KindPathNotFound, dir, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", newError(KindPathNotFound, dir, err)
	}

	if !info.IsDir() {
		return "", newError(KindNotADirectory, resolved, nil)
	}

	return resolved, nil
}

// ValidateExtractPath joins name onto dest and rejects results that land
// outside dest.
func ValidateExtractPath(dest, name string) (string, error) {
	cleanDest := filepath.Clean(dest)
	path := filepath.Join(cleanDest, name)

	if path == cleanDest {
		return path, nil
	}

	prefix := cleanDest
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("path outside destination directory: %s", name)
	}

	return path, nil
}
