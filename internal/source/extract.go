package source

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extract unpacks every file of the archive into dir, dropping the directory prefix that
// all members share so the tables land directly in dir. It returns the written paths.
func Extract(zipPath, dir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalizeMember(f.Name)
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return nil, fmt.Errorf("archive member escapes target dir: %s", f.Name)
		}
		names = append(names, name)
	}
	prefix := commonDir(names)

	var out []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel := strings.TrimPrefix(normalizeMember(f.Name), prefix)
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
			return out, fmt.Errorf("archive member escapes target dir: %s", f.Name)
		}
		if err := extractFile(f, target); err != nil {
			return out, err
		}
		out = append(out, target)
	}
	return out, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return dst.Close()
}

func normalizeMember(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}

// commonDir returns the longest directory prefix (with trailing slash) shared by names.
func commonDir(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := path.Dir(names[0])
	for _, name := range names[1:] {
		for prefix != "." && !strings.HasPrefix(name, prefix+"/") {
			prefix = path.Dir(prefix)
		}
	}
	if prefix == "." || prefix == "/" {
		return ""
	}
	return prefix + "/"
}
