package downloader

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"flitz/logging"
)

var ErrIsDirectory = errors.New("path is a directory")

// FileInfo represents metadata about a download
type FileInfo struct {
	Name    string
	Size    int64
	ModTime int64
	IsDir   bool
}

// Downloader streams files, and directories as zip archives.
type Downloader interface {
	// Download streams a file from the given path
	Download(path string) (io.ReadCloser, *FileInfo, error)

	// DownloadDir streams a directory as a zip archive
	DownloadDir(path string) (io.ReadCloser, *FileInfo, error)

	// Stat returns file information without downloading
	Stat(path string) (*FileInfo, error)
}

type LocalDownloader struct {
	logger *zap.Logger
}

func NewLocalDownloader() *LocalDownloader {
	return &LocalDownloader{logger: logging.Named("download")}
}

func (l *LocalDownloader) Download(path string) (io.ReadCloser, *FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if info.IsDir() {
		file.Close()
		return nil, nil, ErrIsDirectory
	}

	return file, toFileInfo(info), nil
}

// DownloadDir zips the directory tree on the fly. Entries are named relative
// to path. Symlinks and other special files are skipped.
func (l *LocalDownloader) DownloadDir(path string) (io.ReadCloser, *FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get directory info: %w", err)
	}

	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: not a directory", path)
	}

	pr, pw := io.Pipe()

	go func() {
		zw := zip.NewWriter(pw)
		err := filepath.WalkDir(path, func(filePath string, d iofs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if filePath == path {
				return nil
			}
			if !d.IsDir() && !d.Type().IsRegular() {
				return nil
			}
			return addToZip(zw, path, filePath, d)
		})
		if err == nil {
			err = zw.Close()
		}
		if err != nil {
			l.logger.Warn("zip stream aborted", zap.String("path", path), zap.Error(err))
		}
		pw.CloseWithError(err)
	}()

	result := toFileInfo(info)
	result.Name += ".zip"
	result.Size = -1
	return pr, result, nil
}

func addToZip(zw *zip.Writer, root, filePath string, d iofs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create zip header: %w", err)
	}

	relPath, err := filepath.Rel(root, filePath)
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}
	header.Name = filepath.ToSlash(relPath)
	if d.IsDir() {
		header.Name += "/"
	} else {
		header.Method = zip.Deflate
	}

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create file in zip: %w", err)
	}
	if d.IsDir() {
		return nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return nil
}

func (l *LocalDownloader) Stat(path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	return toFileInfo(info), nil
}

func toFileInfo(info os.FileInfo) *FileInfo {
	return &FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
		IsDir:   info.IsDir(),
	}
}
