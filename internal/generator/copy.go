package generator

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// copyTree writes every file of src into dst, skipping files whose base
// name matches one of the exclude globs. Directories are created on demand.
func copyTree(ctx context.Context, src fs.FS, dst string, exclude []string) error {
	return fs.WalkDir(src, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return ioError("walk template", p, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == "." || entry.IsDir() {
			return nil
		}
		if excluded(path.Base(p), exclude) {
			return nil
		}
		return copyFile(src, p, filepath.Join(dst, filepath.FromSlash(p)))
	})
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func copyFile(src fs.FS, name, dest string) (err error) {
	in, err := src.Open(name)
	if err != nil {
		return ioError("open template file", name, err)
	}
	defer in.Close()

	perm := fs.FileMode(0o644)
	if info, statErr := in.Stat(); statErr == nil && info.Mode().Perm()&0o111 != 0 {
		perm = 0o755
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ioError("mkdir", filepath.Dir(dest), err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return ioError("create", dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = ioError("close", dest, cerr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return ioError("copy", dest, err)
	}
	return nil
}
