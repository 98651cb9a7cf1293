package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), Text)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), Text)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello\ufffdworld" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainBOM(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("\xEF\xBB\xBFcafé"), Text)
	if err != nil {
		t.Fatal(err)
	}
	if got != "café" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unknownIsPlain(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("raw content"), Unknown)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	got, err := NewExtractor().ExtractBytes(buf.Bytes(), XLSX)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Sheet: Sheet1\nTitle\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excelSheetHeadings(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Week 1")
	f.SetCellValue("Sheet1", "A3", "Week 3")
	if _, err := f.NewSheet("Grades"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Grades", "A1", "Ana")
	f.SetCellValue("Grades", "B1", 92)
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().ExtractBytes(buf.Bytes(), XLSX)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Sheet: Sheet1\nWeek 1\nWeek 3\n\nSheet: Grades\nAna\t92"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func wordDocument(text string) string {
	return `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p w:rsidR="00AB"><w:r><w:t xml:space="preserve">` +
		text + `</w:t></w:r></w:p></w:body></w:document>`
}

func buildZip(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	content := buildZip(t, map[string]string{"word/document.xml": wordDocument("Searchable docx content")}, "word/document.xml")
	got, err := NewExtractor().ExtractBytes(content, DOCX)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Searchable docx content" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxMainPartFromContentTypes(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"part name first", `<Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/>`},
		{"content type first", `<Override ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{
				contentTypesPath:     `<?xml version="1.0"?><Types>` + tt.override + `</Types>`,
				"word/document2.xml": wordDocument("Content from document2"),
			}
			content := buildZip(t, files, contentTypesPath, "word/document2.xml")
			got, err := NewExtractor().ExtractBytes(content, DOCX)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "Content from document2" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtractBytes_docxMissingBody(t *testing.T) {
	content := buildZip(t, map[string]string{"other.xml": "x"}, "other.xml")
	if _, err := NewExtractor().ExtractBytes(content, DOCX); err == nil {
		t.Error("expected error when the document body is missing")
	}
}

func TestExtractBytes_pptxSlideOrder(t *testing.T) {
	slide := func(s string) string {
		return `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + s + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	files := map[string]string{
		"ppt/slides/slide10.xml": slide("Tenth slide"),
		"ppt/slides/slide2.xml":  slide("Second slide"),
		"ppt/slides/slide1.xml":  slide("First slide"),
	}
	content := buildZip(t, files, "ppt/slides/slide10.xml", "ppt/slides/slide2.xml", "ppt/slides/slide1.xml")
	got, err := NewExtractor().ExtractBytes(content, PPTX)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "First slide\nSecond slide\nTenth slide" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pptxNotZip(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a zip"), PPTX); err == nil {
		t.Error("expected error for non-zip pptx")
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	if got := e.Extract(path, "md"); got != "File content" {
		t.Errorf("declared md: got %q", got)
	}
	if got := e.Extract(path, ""); got != "File content" {
		t.Errorf("from extension: got %q", got)
	}
}

func TestExtract_excelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()
	if got := NewExtractor().Extract(path, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); got != "Sheet: Sheet1\nSearchable text" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_missingFileIsEmpty(t *testing.T) {
	if got := NewExtractor().Extract("/nonexistent/path/file.txt", "txt"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestExtract_malformedPDFIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	if got := e.Extract(path, "pdf"); got != "" {
		t.Errorf("declared pdf: got %q, want empty", got)
	}
	// An unrecognized declared type is sniffed, so the PDF magic still routes to the PDF decoder.
	if got := e.Extract(path, "upload"); got != "" {
		t.Errorf("sniffed pdf: got %q, want empty", got)
	}
}

func TestExtract_unknownDeclaredTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readme.weird")
	if err := os.WriteFile(path, []byte("plain words in an odd file"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := NewExtractor().Extract(path, "weird"); got != "plain words in an odd file" {
		t.Errorf("got %q", got)
	}
}
