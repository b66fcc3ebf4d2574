package fs

// FileSystemEntry is the wire form of a FileItem.
type FileSystemEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"isDir"`
	IsHidden bool   `json:"isHidden"`
	Size     int64  `json:"size"`
	SizeStr  string `json:"sizeStr"`
	Type     string `json:"type"`
	Modified string `json:"modified"`
	ModTime  int64  `json:"modTime"`
}

func NewEntry(item *FileItem) *FileSystemEntry {
	entry := &FileSystemEntry{
		Name:     item.Name(),
		Path:     item.Path,
		IsDir:    item.IsDirectory(),
		IsHidden: item.IsHidden(),
		Size:     item.Size(),
		SizeStr:  item.SizeString(),
		Type:     item.FileType(),
		Modified: item.ModifiedString(),
	}
	if t := item.ModifiedTime(); !t.IsZero() {
		entry.ModTime = t.UnixMilli()
	}
	return entry
}

// NewEntries converts items to their wire form, keeping order.
func NewEntries(items []*FileItem) []*FileSystemEntry {
	entries := make([]*FileSystemEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, NewEntry(item))
	}
	return entries
}

// FileSystem defines the file operations the explorer needs.
// Errors returned by the local implementation are *OpError.
type FileSystem interface {
	// GetRoot returns the directory the explorer starts in.
	GetRoot() (*FileItem, error)

	// List returns the directory entries at the given path. The showHidden flag indicates whether hidden files should be included.
	List(path string, showHidden bool) ([]*FileItem, error)

	// Stat returns the item at path, or an error saying why it cannot be reached.
	Stat(path string) (*FileItem, error)

	// CanAccess reports whether path exists and is readable.
	CanAccess(path string) bool

	// Create creates a new file or directory (if isDir is true) with the given name under the specified parent path.
	// It never overwrites.
	Create(parentPath, name string, isDir bool) error

	// Rename renames the file or directory at oldPath to the newName (keeping the same parent directory).
	Rename(oldPath, newName string) error

	// Delete removes the file or directory at the given path.
	Delete(path string) error

	// Copy duplicates the file or directory from src to the full destination path dst.
	Copy(src, dst string) error

	// Move relocates the file or directory from src to the full destination path dst.
	Move(src, dst string) error
}
