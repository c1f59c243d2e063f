package archive

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValidateName(t *testing.T) {
	c := qt.New(t)

	long := strings.Repeat("a", MaxNameLength-len(Extension))
	tests := []struct {
		name string
		in   string
		want string
		// stable reports whether the output validates to itself. Outputs
		// longer than MaxNameLength are rejected on a second pass.
		stable bool
	}{
		{"appends extension", "backup", "backup.zip", true},
		{"keeps extension", "x.zip", "x.zip", true},
		{"case sensitive", "X.ZIP", "X.ZIP.zip", true},
		{"other extension", "data.tar", "data.tar.zip", true},
		{"longest stable name", long, long + ".zip", true},
		{"exactly max length", strings.Repeat("a", MaxNameLength), strings.Repeat("a", MaxNameLength) + ".zip", false},
		{"dot only", ".", "..zip", true},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			got, err := ValidateName(tt.in)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tt.want)

			again, err := ValidateName(got)
			if !tt.stable {
				c.Assert(err, qt.ErrorIs, ErrNameTooLong)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(again, qt.Equals, got)
		})
	}
}

func TestValidateNameTooLong(t *testing.T) {
	c := qt.New(t)

	_, err := ValidateName(strings.Repeat("a", MaxNameLength+1))
	c.Assert(err, qt.ErrorIs, ErrNameTooLong)
	c.Assert(KindOf(err), qt.Equals, KindNameTooLong)

	// Length is measured before the extension is appended.
	_, err = ValidateName(strings.Repeat("a", MaxNameLength-4) + ".zip")
	c.Assert(err, qt.IsNil)
}

func TestValidateDirectory(t *testing.T) {
	c := qt.New(t)

	root, err := filepath.EvalSymlinks(c.TempDir())
	c.Assert(err, qt.IsNil)
	writeTree(c, root, map[string]string{
		"sub/":     "",
		"file.txt": "hello",
	})

	c.Run("existing directory", func(c *qt.C) {
		got, err := ValidateDirectory(filepath.Join(root, "sub"))
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, filepath.Join(root, "sub"))
	})

	c.Run("dot dot segments", func(c *qt.C) {
		got, err := ValidateDirectory(filepath.Join(root, "sub", "..", "sub"))
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, filepath.Join(root, "sub"))
	})

	c.Run("symlink to directory", func(c *qt.C) {
		link := filepath.Join(root, "link")
		if err := os.Symlink(filepath.Join(root, "sub"), link); err != nil {
			c.Skip("symlinks not supported: ", err)
		}
		got, err := ValidateDirectory(link)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, filepath.Join(root, "sub"))
	})

	c.Run("missing", func(c *qt.C) {
		_, err := ValidateDirectory(filepath.Join(root, "nope"))
		c.Assert(err, qt.ErrorIs, ErrPathNotFound)
		c.Assert(errors.Is(err, os.ErrNotExist), qt.IsTrue)
	})

	c.Run("empty", func(c *qt.C) {
		_, err := ValidateDirectory("")
		c.Assert(err, qt.ErrorIs, ErrPathNotFound)
	})

	c.Run("regular file", func(c *qt.C) {
		_, err := ValidateDirectory(filepath.Join(root, "file.txt"))
		c.Assert(err, qt.ErrorIs, ErrNotADirectory)

		var archiveErr *Error
		c.Assert(errors.As(err, &archiveErr), qt.IsTrue)
		c.Assert(archiveErr.Path, qt.Equals, filepath.Join(root, "file.txt"))
	})
}

func TestValidateExtractPath(t *testing.T) {
	c := qt.New(t)

	dest := filepath.Join(string(os.PathSeparator), "srv", "out")

	got, err := ValidateExtractPath(dest, "a/b.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, filepath.Join(dest, "a", "b.txt"))

	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "../out-sibling/x"} {
		_, err := ValidateExtractPath(dest, name)
		c.Assert(err, qt.ErrorMatches, "path outside destination directory: .*", qt.Commentf(name))
	}
}

func TestErrorIsMatchesKindOnly(t *testing.T) {
	c := qt.New(t)

	err := newError(KindIOFailure, "/tmp/x", os.ErrPermission)
	c.Assert(err, qt.ErrorIs, ErrIOFailure)
	c.Assert(errors.Is(err, ErrFinalize), qt.IsFalse)
	c.Assert(errors.Is(err, os.ErrPermission), qt.IsTrue)
	c.Assert(err.Error(), qt.Equals, "i/o failure: /tmp/x: permission denied")
	c.Assert(KindOf(errors.New("plain")), qt.Equals, Kind(0))
}
