package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/otiai10/copy"
	"go.uber.org/zap"

	"flitz/logging"
	"flitz/metrics"
)

// moveOptions recreates symlinks so a cross-device move relocates the link itself.
var moveOptions = copy.Options{
	OnSymlink:     func(string) copy.SymlinkAction { return copy.Shallow },
	PreserveTimes: true,
}

// LocalFileSystem implements FileSystem on the local disk.
type LocalFileSystem struct {
	// Root is the directory returned by GetRoot; empty means the home directory.
	Root string

	Logger *zap.Logger
}

func (l *LocalFileSystem) logger() *zap.Logger {
	if l.Logger == nil {
		return logging.Named("fs")
	}
	return l.Logger
}

// done wraps err as an *OpError, records the operation and logs failures.
func (l *LocalFileSystem) done(op, path string, start time.Time, err error) error {
	var opErr *OpError
	if err != nil && !errors.As(err, &opErr) {
		err = opError(op, path, err)
	}
	outcome := OutcomeOf(err)
	metrics.RecordOperation(op, outcome.String(), time.Since(start))
	if err != nil {
		l.logger().Warn("operation failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Stringer("outcome", outcome),
			zap.Error(err))
	}
	return err
}

func (l *LocalFileSystem) GetRoot() (*FileItem, error) {
	start := time.Now()
	root := l.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, l.done("get_root", root, start, err)
		}
		root = home
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, l.done("get_root", root, start, err)
	}
	if !info.IsDir() {
		return nil, l.done("get_root", root, start, fmt.Errorf("not a directory: %s", root))
	}

	l.done("get_root", root, start, nil)
	return NewFileItem(root), nil
}

// List implements FileSystem.
func (l *LocalFileSystem) List(dirPath string, showHidden bool) ([]*FileItem, error) {
	start := time.Now()
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, l.done("list", dirPath, start, err)
	}

	items := make([]*FileItem, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		item := NewFileItem(filepath.Join(dirPath, dirEntry.Name()))
		if !showHidden && item.IsHidden() {
			continue
		}
		items = append(items, item)
	}

	metrics.RecordListing(len(items))
	l.done("list", dirPath, start, nil)
	return items, nil
}

// Stat implements FileSystem. Symlinks are followed.
func (l *LocalFileSystem) Stat(path string) (*FileItem, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return nil, l.done("stat", path, start, err)
	}
	l.done("stat", path, start, nil)
	return NewFileItem(path), nil
}

func (l *LocalFileSystem) CanAccess(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return readable(path)
}

// Create implements FileSystem.
func (l *LocalFileSystem) Create(parentPath string, name string, isDir bool) error {
	start := time.Now()
	op := "create_file"
	if isDir {
		op = "create_folder"
	}

	newPath := filepath.Join(parentPath, name)
	if err := validateName(name); err != nil {
		return l.done(op, newPath, start, err)
	}

	var err error
	if isDir {
		err = os.Mkdir(newPath, 0755)
	} else {
		var f *os.File
		f, err = os.OpenFile(newPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			err = f.Close()
		}
	}

	return l.done(op, newPath, start, err)
}

// Rename implements FileSystem.
func (l *LocalFileSystem) Rename(oldPath string, newName string) error {
	start := time.Now()
	if err := validateName(newName); err != nil {
		return l.done("rename", oldPath, start, err)
	}

	if _, err := os.Lstat(oldPath); err != nil {
		return l.done("rename", oldPath, start, err)
	}

	newPath := filepath.Join(filepath.Dir(oldPath), newName)
	if err := ensureAbsent(newPath); err != nil {
		return l.done("rename", newPath, start, err)
	}

	return l.done("rename", oldPath, start, os.Rename(oldPath, newPath))
}

// Delete implements FileSystem.
func (l *LocalFileSystem) Delete(path string) error {
	start := time.Now()
	info, err := os.Lstat(path)
	if err != nil {
		return l.done("delete", path, start, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	return l.done("delete", path, start, err)
}

// Copy implements FileSystem.
func (l *LocalFileSystem) Copy(src string, dst string) error {
	start := time.Now()
	if _, err := os.Stat(src); err != nil {
		return l.done("copy", src, start, err)
	}
	if err := ensureParentDir(dst); err != nil {
		return l.done("copy", dst, start, err)
	}
	if err := ensureAbsent(dst); err != nil {
		return l.done("copy", dst, start, err)
	}
	if isWithin(src, dst) {
		return l.done("copy", src, start, fmt.Errorf("cannot copy %s into itself", src))
	}

	return l.done("copy", src, start, copyFollowing(src, dst))
}

// copyFollowing copies src to dst with the content of every symlink in place
// of the link. copy.Deep is not used because it resolves relative link
// targets against the working directory.
func copyFollowing(src, dst string) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}

	var links []string
	opt := copy.Options{
		OnSymlink: func(link string) copy.SymlinkAction {
			links = append(links, link)
			return copy.Skip
		},
		PreserveTimes: true,
	}
	if err := copy.Copy(resolved, dst, opt); err != nil {
		return err
	}

	for _, link := range links {
		target, err := filepath.EvalSymlinks(link)
		if err != nil {
			return err
		}
		if isWithin(target, link) {
			return fmt.Errorf("symlink loop: %s -> %s", link, target)
		}
		rel, err := filepath.Rel(resolved, link)
		if err != nil {
			return err
		}
		if err := copyFollowing(link, filepath.Join(dst, rel)); err != nil {
			return err
		}
	}
	return nil
}

// Move implements FileSystem.
func (l *LocalFileSystem) Move(src string, dst string) error {
	start := time.Now()
	if _, err := os.Lstat(src); err != nil {
		return l.done("move", src, start, err)
	}
	if err := ensureAbsent(dst); err != nil {
		return l.done("move", dst, start, err)
	}

	err := os.Rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		l.logger().Debug("cross-device move, falling back to copy", zap.String("src", src), zap.String("dst", dst))
		if err = copy.Copy(src, dst, moveOptions); err == nil {
			err = os.RemoveAll(src)
		}
	}

	return l.done("move", src, start, err)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func ensureAbsent(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("target already exists: %s: %w", path, iofs.ErrExist)
	} else if !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return nil
}

func ensureParentDir(path string) error {
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("parent is not a directory: %s", parent)
	}
	return nil
}

// isWithin reports whether path lies inside dir.
func isWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
