package fs

import "path/filepath"

type ClipboardMode string

const (
	ModeCopy ClipboardMode = "copy"
	ModeCut  ClipboardMode = "cut"
)

// PasteReport counts how many clipboard items a paste processed.
type PasteReport struct {
	Succeeded int `json:"succeeded"`
	Total     int `json:"total"`
}

func (r PasteReport) Partial() bool {
	return r.Succeeded < r.Total
}

// Clipboard holds paths copied or cut in one explorer session.
type Clipboard struct {
	fs    FileSystem
	paths []string
	mode  ClipboardMode
}

func NewClipboard(fs FileSystem) *Clipboard {
	return &Clipboard{fs: fs}
}

func (c *Clipboard) Copy(paths []string) {
	c.set(paths, ModeCopy)
}

func (c *Clipboard) Cut(paths []string) {
	c.set(paths, ModeCut)
}

func (c *Clipboard) set(paths []string, mode ClipboardMode) {
	c.paths = append([]string(nil), paths...)
	c.mode = mode
}

func (c *Clipboard) Paths() []string {
	return c.paths
}

func (c *Clipboard) Mode() ClipboardMode {
	return c.mode
}

func (c *Clipboard) Empty() bool {
	return len(c.paths) == 0
}

// Paste copies or moves every clipboard path into destDir under its own base
// name. Failures are counted, not rolled back. A cut clipboard is emptied.
func (c *Clipboard) Paste(destDir string) PasteReport {
	report := PasteReport{Total: len(c.paths)}
	for _, src := range c.paths {
		dst := filepath.Join(destDir, filepath.Base(src))

		var err error
		switch c.mode {
		case ModeCopy:
			err = c.fs.Copy(src, dst)
		case ModeCut:
			err = c.fs.Move(src, dst)
		}
		if err == nil {
			report.Succeeded++
		}
	}

	if c.mode == ModeCut {
		c.paths = nil
	}
	return report
}
