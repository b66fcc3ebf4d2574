package fs

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Properties is what the explorer shows in an item's properties view.
type Properties struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	SizeStr  string `json:"sizeStr"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	Hidden   bool   `json:"hidden"`
}

func PropertiesOf(item *FileItem) Properties {
	return Properties{
		Path:     item.Path,
		Name:     item.Name(),
		Type:     item.FileType(),
		SizeStr:  item.SizeString(),
		Size:     item.Size(),
		Modified: item.ModifiedString(),
		Hidden:   item.IsHidden(),
	}
}

func (p Properties) String() string {
	hidden := "No"
	if p.Hidden {
		hidden = "Yes"
	}
	return fmt.Sprintf("Path: %s\nName: %s\nType: %s\nSize: %s (%d bytes)\nModified: %s\nHidden: %s",
		p.Path, p.Name, p.Type, p.SizeStr, p.Size, p.Modified, hidden)
}

// OpenFile opens path with the desktop's default application.
func OpenFile(path string) error {
	name, args := openCommand(runtime.GOOS, path)
	if output, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("could not open %s: %w: %s", path, err, output)
	}
	return nil
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}
