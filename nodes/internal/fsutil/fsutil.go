// Package fsutil holds the file operations shared by the built-in nodes.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// TimestampLayout formats dates so they can be used inside file names.
const TimestampLayout = "2006-01-02_15-04-05"

// Info is the subset of file attributes nodes filter and sort on.
type Info struct {
	Size       int64
	ModifiedAt time.Time
	// CreatedAt is the modification time: os.FileInfo exposes no portable
	// birth time.
	CreatedAt time.Time
}

// Stat returns the attributes of path. ok is false when the file is missing.
func Stat(path string) (Info, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, false
	}
	mod := fi.ModTime().UTC()
	return Info{Size: fi.Size(), ModifiedAt: mod, CreatedAt: mod}, true
}

// Exists reports whether anything exists at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// SamePath reports whether a and b name the same path after cleaning.
func SamePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// ResolveConflict returns path when it is free, else the first free
// "<stem>_<n><ext>" sibling starting at n = 1.
func ResolveConflict(path string) string {
	if !Exists(path) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, stem+"_"+strconv.Itoa(n)+ext)
		if !Exists(candidate) {
			return candidate
		}
	}
}

// Rename moves src to dst. Unless overwrite is set an existing dst is never
// replaced, even by a concurrent writer. Moves across devices fall back to
// copy and delete.
func Rename(src, dst string, overwrite bool) error {
	var err error
	if overwrite {
		err = os.Rename(src, dst)
	} else if err = os.Link(src, dst); err == nil {
		return os.Remove(src)
	}
	if err == nil {
		return nil
	}
	if os.IsExist(err) {
		return fmt.Errorf("destination already exists: '%s'", dst)
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && (errors.Is(linkErr.Err, syscall.EXDEV) || (!overwrite && !os.IsNotExist(err))) {
		if err := Copy(src, dst, overwrite); err != nil {
			return err
		}
		return os.Remove(src)
	}
	return err
}

// Copy copies src to dst, preserving the file mode. The data goes to a
// temporary sibling first, so a failed copy never leaves a partial dst.
func Copy(src, dst string, overwrite bool) error {
	if !overwrite && Exists(dst) {
		return fmt.Errorf("destination already exists: '%s'", dst)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := writeTemp(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if err := os.Chmod(tmp, fi.Mode().Perm()); err != nil {
		return err
	}
	return publish(tmp, dst, overwrite)
}

// publish moves a finished temporary file into place. Without overwrite it
// links instead of renaming, which fails when dst appeared in the meantime.
func publish(tmp, dst string, overwrite bool) error {
	if overwrite {
		return os.Rename(tmp, dst)
	}
	if err := os.Link(tmp, dst); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("destination already exists: '%s'", dst)
		}
		return err
	}
	return nil
}

func writeTemp(path string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.part")
	if err != nil {
		return "", err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// WriteAtomic writes the output of write to path through a temporary
// sibling, so readers never observe a half-written file.
func WriteAtomic(path string, write func(io.Writer) error) error {
	tmp, err := writeTemp(path, write)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// SanitizeFileName replaces characters that are not allowed in file names.
func SanitizeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
