package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lu4p/cat"
)

const (
	docxDefaultBody     = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	wordTextRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// Attributes of an Override element can appear in either order.
	mainPartBefore = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	mainPartAfter  = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// extractDOCX returns the <w:t> runs of the main document part. Bytes that are
// not an OOXML package are handed to lu4p/cat.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		text, catErr := cat.FromBytes(content)
		if catErr != nil {
			return "", fmt.Errorf("extract DOCX: %w", err)
		}
		return text, nil
	}
	body := docxDefaultBody
	if ct := findZipFile(zr, contentTypesPath); ct != nil {
		if data, err := readZipFile(ct); err == nil {
			if p := mainPartName(string(data)); p != "" {
				body = p
			}
		}
	}
	f := findZipFile(zr, body)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", body)
	}
	xml, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return joinMatches(wordTextRun, string(xml)), nil
}

func mainPartName(contentTypes string) string {
	for _, re := range []*regexp.Regexp{mainPartBefore, mainPartAfter} {
		if m := re.FindStringSubmatch(contentTypes); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return ""
}

// joinMatches joins the trimmed first capture group of every match with spaces.
func joinMatches(re *regexp.Regexp, s string) string {
	var b strings.Builder
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		part := strings.TrimSpace(m[1])
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return b.String()
}
