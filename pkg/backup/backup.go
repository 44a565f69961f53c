// Package backup archives a mod root into a zip file and restores it.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/sdejongh/modclash/pkg/logging"
	"github.com/sdejongh/modclash/pkg/ratelimit"
)

// MetadataName is the archive entry describing the backup
const MetadataName = "backup_metadata.json"

// DefaultDir is created next to the mod root to hold archives
const DefaultDir = "LML_Backups"

var (
	// ErrExists is returned when an archive with the same name exists and
	// overwriting was not requested
	ErrExists = errors.New("backup already exists")
	// ErrEmptyName is returned when a name has no usable characters
	ErrEmptyName = errors.New("backup name is empty")
)

// Metadata is stored inside every archive
type Metadata struct {
	Name      string    `json:"name"`
	Created   time.Time `json:"created"`
	Root      string    `json:"root"`
	FileCount int       `json:"file_count"`
}

// Info describes an archive on disk
type Info struct {
	Metadata
	Path string
	Size int64
}

// Progress is reported after each archived or restored file
type Progress struct {
	Path      string
	Processed int
	Total     int
}

// Options configure Create and Restore
type Options struct {
	// Dir overrides the archive directory; relative values are resolved
	// against the root's parent
	Dir       string
	Overwrite bool
	OnFile    func(Progress)
	Logger    logging.Logger
	// Limiter throttles reads of source files and archive entries; nil
	// means unlimited
	Limiter *ratelimit.Limiter
}

func (o Options) logger() logging.Logger {
	if o.Logger == nil {
		return logging.NewNullLogger()
	}
	return o.Logger
}

// DefaultName returns LML_Backup_YYYYMMDD_HHMMSS for t
func DefaultName(t time.Time) string {
	return "LML_Backup_" + t.Format("20060102_150405")
}

// SanitizeName keeps letters, digits, '.', '_', '-' and spaces
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ArchiveDir returns where archives of root are kept
func ArchiveDir(root, dir string) string {
	if dir == "" {
		dir = DefaultDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(filepath.Clean(root)), dir)
}

// Create archives every file under root into <archive dir>/<name>.zip with
// paths relative to root, followed by the metadata entry. A failed archive
// is removed.
func Create(ctx context.Context, root, name string, opts Options) (*Info, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if name == "" {
		name = DefaultName(time.Now())
	}
	name = SanitizeName(name)
	if name == "" || name == "." || name == ".." {
		return nil, ErrEmptyName
	}

	dir := ArchiveDir(root, opts.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, name+".zip")
	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}

	files, err := collectFiles(root, dir)
	if err != nil {
		return nil, err
	}

	meta := Metadata{Name: name, Created: time.Now(), Root: root, FileCount: len(files)}
	if err := writeArchive(ctx, path, root, files, meta, opts); err != nil {
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	opts.logger().Info(ctx, "backup created", logging.Fields{
		"archive": path,
		"files":   len(files),
		"bytes":   info.Size(),
	})

	return &Info{Metadata: meta, Path: path, Size: info.Size()}, nil
}

// collectFiles lists regular files under root relative to it, skipping
// the archive directory when it lies inside root
func collectFiles(root, archiveDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == archiveDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func writeArchive(ctx context.Context, path, root string, files []string, meta Metadata, opts Options) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if err := addFile(ctx, zw, filepath.Join(root, rel), filepath.ToSlash(rel), opts.Limiter); err != nil {
			zw.Close()
			return err
		}
		if opts.OnFile != nil {
			opts.OnFile(Progress{Path: rel, Processed: i + 1, Total: len(files)})
		}
	}

	w, err := zw.Create(MetadataName)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := json.NewEncoder(w).Encode(meta); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

func addFile(ctx context.Context, zw *zip.Writer, src, name string, limiter *ratelimit.Limiter) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", src, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, ratelimit.NewReader(ctx, f, limiter)); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// ReadMetadata returns the metadata stored in archive. Archives without a
// readable metadata entry fall back to the file name and modification time.
func ReadMetadata(archive string) (*Info, error) {
	st, err := os.Stat(archive)
	if err != nil {
		return nil, err
	}
	info := &Info{
		Metadata: Metadata{
			Name:    strings.TrimSuffix(filepath.Base(archive), filepath.Ext(archive)),
			Created: st.ModTime(),
		},
		Path: archive,
		Size: st.Size(),
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return info, nil
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != MetadataName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			break
		}
		var meta Metadata
		if json.NewDecoder(rc).Decode(&meta) == nil {
			if meta.Name != "" {
				info.Name = meta.Name
			}
			if !meta.Created.IsZero() {
				info.Created = meta.Created
			}
			info.Root = meta.Root
			info.FileCount = meta.FileCount
		}
		rc.Close()
		break
	}

	return info, nil
}

// List returns the archives in dir, newest first. A missing dir is empty.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		info, err := ReadMetadata(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Created.After(infos[j].Created)
	})
	return infos, nil
}

// Restore replaces the contents of root with the files in archive.
// Every entry is validated before root is touched; an entry that would land
// outside root fails the whole restore. A context cancelled before the root
// is cleared leaves it untouched; cancellation during extraction leaves it
// partially restored.
func Restore(ctx context.Context, archive, root string, opts Options) (int, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve root: %w", err)
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	var entries []*zip.File
	for _, f := range zr.File {
		if f.Name == MetadataName {
			continue
		}
		if _, err := entryPath(root, f.Name); err != nil {
			return 0, err
		}
		entries = append(entries, f)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := clearDir(root); err != nil {
		return 0, err
	}

	for i, f := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		dest, _ := entryPath(root, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return i, fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return i, fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := extractFile(ctx, f, dest, opts.Limiter); err != nil {
			return i, fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		if opts.OnFile != nil {
			opts.OnFile(Progress{Path: f.Name, Processed: i + 1, Total: len(entries)})
		}
	}

	opts.logger().Info(ctx, "backup restored", logging.Fields{
		"archive": archive,
		"root":    root,
		"files":   len(entries),
	})
	return len(entries), nil
}

// entryPath maps an archive entry name to a path under root
func entryPath(root, name string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid path in archive: %s", name)
	}
	return dest, nil
}

// clearDir removes everything inside dir but not dir itself
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0755)
		}
		return fmt.Errorf("failed to read root: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

func extractFile(ctx context.Context, f *zip.File, dest string, limiter *ratelimit.Limiter) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, ratelimit.NewReader(ctx, rc, limiter)); err != nil {
		return err
	}
	return out.Close()
}
