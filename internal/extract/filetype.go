package extract

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType is the closed set of formats the extractor dispatches on.
type FileType int

const (
	Unknown FileType = iota
	PDF
	DOCX
	Text
	XLSX
	PPTX
	// Rich covers OpenDocument text and RTF, decoded by lu4p/cat.
	Rich
)

func (t FileType) String() string {
	switch t {
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	case Text:
		return "txt"
	case XLSX:
		return "xlsx"
	case PPTX:
		return "pptx"
	case Rich:
		return "rich"
	default:
		return "unknown"
	}
}

// ParseFileType maps a declared type to a FileType. It accepts a bare name
// ("pdf"), an extension (".PDF"), or a MIME type ("application/pdf").
func ParseFileType(declared string) FileType {
	s := strings.ToLower(strings.TrimSpace(declared))
	if strings.Contains(s, "/") {
		if i := strings.IndexByte(s, ';'); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		return fromMIME(s)
	}
	switch strings.TrimPrefix(s, ".") {
	case "pdf":
		return PDF
	case "docx", "doc":
		return DOCX
	case "txt", "text", "md", "markdown":
		return Text
	case "xlsx":
		return XLSX
	case "pptx":
		return PPTX
	case "odt", "rtf":
		return Rich
	default:
		return Unknown
	}
}

// FromPath returns the FileType implied by the path's extension.
func FromPath(path string) FileType {
	return ParseFileType(filepath.Ext(path))
}

func fromMIME(m string) FileType {
	if strings.HasPrefix(m, "text/") && m != "text/rtf" {
		return Text
	}
	mt := mimetype.Lookup(m)
	if mt == nil {
		return Unknown
	}
	return ParseFileType(mt.Extension())
}

// sniff detects the format from content when the declared type is unknown.
func sniff(content []byte) FileType {
	mt := mimetype.Detect(content)
	for m := mt; m != nil; m = m.Parent() {
		if ft := fromMIME(m.String()); ft != Unknown {
			return ft
		}
	}
	return Unknown
}
