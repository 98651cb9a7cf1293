package models

// Source is a retrieved chunk cited by an answer.
type Source struct {
	DocumentID int64   `json:"documentId"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// QueryResult is the answer to a question plus the chunks it was grounded on.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// LLMStatus is the result of probing the chat endpoint.
type LLMStatus struct {
	Connected bool     `json:"connected"`
	URL       string   `json:"url"`
	Models    []string `json:"models,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// CollectionStatus is the diagnostic view of one collection.
type CollectionStatus struct {
	CollectionID                    int64     `json:"collectionId"`
	DocumentCount                   int       `json:"documentCount"`
	EmbeddingCount                  int       `json:"embeddingCount"`
	DistinctDocumentsWithEmbeddings int       `json:"distinctDocumentsWithEmbeddings"`
	LLM                             LLMStatus `json:"llm"`
}
