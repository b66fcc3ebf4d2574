package fs

import "strings"

var fileTypes = map[string]string{
	".txt":  "Text Document",
	".py":   "Python Script",
	".js":   "JavaScript File",
	".html": "HTML Document",
	".css":  "CSS Stylesheet",
	".json": "JSON File",
	".xml":  "XML Document",
	".pdf":  "PDF Document",
	".jpg":  "JPEG Image",
	".jpeg": "JPEG Image",
	".png":  "PNG Image",
	".gif":  "GIF Image",
	".svg":  "SVG Image",
	".mp3":  "MP3 Audio",
	".mp4":  "MP4 Video",
	".zip":  "ZIP Archive",
	".tar":  "TAR Archive",
	".gz":   "GZIP Archive",
}

// fileTypeOf returns the type label of a non-directory name.
func fileTypeOf(name string) string {
	ext := strings.ToLower(extension(name))
	if ext == "" {
		return "File"
	}
	if label, ok := fileTypes[ext]; ok {
		return label
	}
	return strings.ToUpper(ext[1:]) + " File"
}

// extension returns the final ".xxx" suffix of name. A dot at the very start
// (".bashrc") or the very end does not start one; "..foo" has ".foo".
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}
