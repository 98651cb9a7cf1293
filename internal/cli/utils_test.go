package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
)

func TestWriteAnswer_JSON(t *testing.T) {
	result := &models.QueryResult{
		Answer:  "Mitosis.",
		Sources: []models.Source{{DocumentID: 4, Text: "Cells divide...", Similarity: 0.82}},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputJSON); err != nil {
		t.Fatalf("WriteAnswer(json): %v", err)
	}
	var decoded models.QueryResult
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Answer != "Mitosis." || len(decoded.Sources) != 1 || decoded.Sources[0].DocumentID != 4 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteAnswer_text(t *testing.T) {
	result := &models.QueryResult{
		Answer: "Mitosis.",
		Sources: []models.Source{
			{DocumentID: 4, Text: "Cells divide by mitosis...", Similarity: 0.8234},
			{DocumentID: 5, Text: strings.Repeat("z", 300) + "...", Similarity: 0.1},
		},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Mitosis.", "Sources (2)", "Document: 4", "0.8234", "Cells divide by mitosis"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, strings.Repeat("z", 121)) {
		t.Error("long source text should be shortened")
	}
}

func TestWriteAnswer_textNoSources(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, &models.QueryResult{Answer: "Nothing yet."}, OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Sources") || !strings.Contains(buf.String(), "Nothing yet.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	status := &models.CollectionStatus{
		CollectionID: 2, DocumentCount: 3, EmbeddingCount: 40, DistinctDocumentsWithEmbeddings: 2,
		LLM: models.LLMStatus{Connected: false, URL: "http://localhost:1234", Error: "connection refused"},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Documents:            3", "Embeddings:           40", "disconnected", "connection refused"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, status, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"distinctDocumentsWithEmbeddings": 2`) {
		t.Errorf("json output = %s", buf.String())
	}
}

func TestWriteIngestResult(t *testing.T) {
	var buf bytes.Buffer
	res := &indexer.IngestResult{CollectionID: 1, DocumentID: 9, Status: models.StatusIndexed, Chunks: 4}
	if err := WriteIngestResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Document 9 in collection 1: indexed (4 chunks)\n" {
		t.Errorf("got %q", got)
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"", OutputText, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
