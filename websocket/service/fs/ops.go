package fs

// The functions below keep the plain success/failure contract the explorer
// front-end expects. Use the LocalFileSystem methods and OutcomeOf when the
// kind of failure matters.

var local = &LocalFileSystem{}

// ListDirectory lists the immediate children of path. It returns an empty
// slice when the directory cannot be read, which callers cannot tell apart
// from an empty directory; check CanAccess first if that matters.
func ListDirectory(path string, showHidden bool) []*FileItem {
	items, err := local.List(path, showHidden)
	if err != nil {
		return []*FileItem{}
	}
	return items
}

func CanAccess(path string) bool {
	return local.CanAccess(path)
}

func CreateFolder(parent, name string) bool {
	return local.Create(parent, name, true) == nil
}

func CreateFile(parent, name string) bool {
	return local.Create(parent, name, false) == nil
}

func RenameItem(oldPath, newName string) bool {
	return local.Rename(oldPath, newName) == nil
}

func DeleteItem(path string) bool {
	return local.Delete(path) == nil
}

func CopyItem(src, dst string) bool {
	return local.Copy(src, dst) == nil
}

func MoveItem(src, dst string) bool {
	return local.Move(src, dst) == nil
}

// DeleteItems deletes every path and returns how many were removed.
func DeleteItems(paths []string) int {
	return deleteAll(local, paths)
}

func deleteAll(fs FileSystem, paths []string) int {
	succeeded := 0
	for _, path := range paths {
		if fs.Delete(path) == nil {
			succeeded++
		}
	}
	return succeeded
}
