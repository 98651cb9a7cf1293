package extract

import "testing"

func TestParseFileType(t *testing.T) {
	tests := []struct {
		in   string
		want FileType
	}{
		{"pdf", PDF},
		{".PDF", PDF},
		{"application/pdf", PDF},
		{"docx", DOCX},
		{"doc", DOCX},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", DOCX},
		{"txt", Text},
		{"md", Text},
		{"markdown", Text},
		{"text/markdown", Text},
		{"text/plain; charset=utf-8", Text},
		{"xlsx", XLSX},
		{"pptx", PPTX},
		{"rtf", Rich},
		{"odt", Rich},
		{"", Unknown},
		{"exe", Unknown},
		{"application/x-unknown-thing", Unknown},
	}
	for _, tt := range tests {
		if got := ParseFileType(tt.in); got != tt.want {
			t.Errorf("ParseFileType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFromPath(t *testing.T) {
	if FromPath("/a/b/report.PDF") != PDF {
		t.Error("expected PDF from extension")
	}
	if FromPath("/a/b/noext") != Unknown {
		t.Error("expected Unknown without extension")
	}
}

func TestSniff(t *testing.T) {
	if got := sniff([]byte("%PDF-1.7\n%binary")); got != PDF {
		t.Errorf("sniff(pdf magic) = %s", got)
	}
	if got := sniff([]byte("just some words")); got != Text {
		t.Errorf("sniff(text) = %s", got)
	}
}
