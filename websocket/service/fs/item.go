package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const modifiedLayout = "2006-01-02 15:04:05"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FileItem describes one file or directory. The stat result is fetched on
// first use and kept for the lifetime of the item; items are meant to live
// for a single listing.
type FileItem struct {
	Path string

	stat    os.FileInfo
	statted bool
}

func NewFileItem(path string) *FileItem {
	return &FileItem{Path: path}
}

// Stat returns the cached file info, or nil if the path could not be stat'ed.
func (f *FileItem) Stat() os.FileInfo {
	if !f.statted {
		f.statted = true
		info, err := os.Stat(f.Path)
		if err == nil {
			f.stat = info
		}
	}
	return f.stat
}

func (f *FileItem) Name() string {
	return filepath.Base(f.Path)
}

// IsDirectory asks the file system every time; it does not use the cached stat.
func (f *FileItem) IsDirectory() bool {
	info, err := os.Stat(f.Path)
	return err == nil && info.IsDir()
}

func (f *FileItem) IsHidden() bool {
	return strings.HasPrefix(f.Name(), ".")
}

// Size is 0 for directories and for items that could not be stat'ed.
func (f *FileItem) Size() int64 {
	if f.IsDirectory() {
		return 0
	}
	info := f.Stat()
	if info == nil {
		return 0
	}
	return info.Size()
}

// SizeString formats the size with one decimal in the largest unit below 1024.
// Directories have no size string.
func (f *FileItem) SizeString() string {
	if f.IsDirectory() {
		return ""
	}
	return formatSize(f.Size())
}

func formatSize(n int64) string {
	size := float64(n)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f PB", size)
}

func (f *FileItem) FileType() string {
	if f.IsDirectory() {
		return "Folder"
	}
	return fileTypeOf(f.Name())
}

// ModifiedTime is the zero time when the item could not be stat'ed.
func (f *FileItem) ModifiedTime() time.Time {
	info := f.Stat()
	if info == nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (f *FileItem) ModifiedString() string {
	t := f.ModifiedTime()
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(modifiedLayout)
}
