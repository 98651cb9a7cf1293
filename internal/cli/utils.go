// Package cli provides output writers for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json", case-insensitively.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const separator = "─────────────────────────────────────────────────────────"

// WriteAnswer writes an answer and its sources to w in the given format.
func WriteAnswer(w io.Writer, result *models.QueryResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\n%s\n\n", result.Answer)
	if len(result.Sources) == 0 {
		return nil
	}
	fmt.Fprintf(w, "Sources (%d):\n", len(result.Sources))
	for i, s := range result.Sources {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "[%d] Document: %d | Similarity: %.4f\n", i+1, s.DocumentID, s.Similarity)
		fmt.Fprintf(w, "%s\n", utils.Truncate(strings.TrimSuffix(s.Text, "..."), 120))
	}
	fmt.Fprintln(w)
	return nil
}

// WriteStatus writes a collection status to w in the given format.
func WriteStatus(w io.Writer, status *models.CollectionStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Collection:           %d\n", status.CollectionID)
	fmt.Fprintf(w, "Documents:            %d\n", status.DocumentCount)
	fmt.Fprintf(w, "Embeddings:           %d\n", status.EmbeddingCount)
	fmt.Fprintf(w, "Documents with index: %d\n", status.DistinctDocumentsWithEmbeddings)
	llm := "disconnected"
	if status.LLM.Connected {
		llm = "connected"
	}
	fmt.Fprintf(w, "LLM:                  %s (%s)\n", llm, status.LLM.URL)
	if len(status.LLM.Models) > 0 {
		fmt.Fprintf(w, "Models:               %s\n", strings.Join(status.LLM.Models, ", "))
	}
	if status.LLM.Error != "" {
		fmt.Fprintf(w, "LLM error:            %s\n", status.LLM.Error)
	}
	return nil
}

// WriteIngestResult writes the outcome of a synchronous ingestion.
func WriteIngestResult(w io.Writer, result *indexer.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "Document %d in collection %d: %s (%d chunks)\n",
		result.DocumentID, result.CollectionID, result.Status, result.Chunks)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
