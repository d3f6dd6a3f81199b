package generator

import (
	"archive/zip"
	"compress/flate"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// partialSuffix marks an archive that is still being written.
const partialSuffix = ".part"

// ZipDirectory writes every regular file below srcDir into a zip archive at
// dest. Entry names are slash-separated paths relative to srcDir; the root
// itself is not stored. The archive is written under a temporary name,
// synced and closed, then renamed, so dest only ever names a complete file.
func ZipDirectory(srcDir, dest string) (err error) {
	tmp := dest + partialSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return ioError("create archive", tmp, err)
	}
	closed := false
	defer func() {
		if err != nil {
			if !closed {
				_ = f.Close()
			}
			_ = os.Remove(tmp)
		}
	}()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	walkErr := filepath.WalkDir(srcDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return ioError("walk", p, err)
		}
		if p == srcDir || entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return ioError("relativize", p, err)
		}
		return addFile(zw, p, filepath.ToSlash(rel))
	})
	if walkErr != nil {
		return walkErr
	}

	if err := zw.Close(); err != nil {
		return ioError("finish archive", tmp, err)
	}
	if err := f.Sync(); err != nil {
		return ioError("sync archive", tmp, err)
	}
	closed = true
	if err := f.Close(); err != nil {
		return ioError("close archive", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return ioError("rename archive", dest, err)
	}
	return nil
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return ioError("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return ioError("stat", src, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return ioError("archive header", src, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return ioError("archive entry", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return ioError("compress", src, err)
	}
	return nil
}
