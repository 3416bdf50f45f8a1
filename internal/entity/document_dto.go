package entity

// IngestDocumentRequest carries extracted document text into the index.
// DocumentID is optional; a new one is generated when empty.
type IngestDocumentRequest struct {
	DocumentID string           `json:"document_id,omitempty"`
	Text       string           `json:"text"`
	Metadata   DocumentMetadata `json:"metadata"`
}

// IngestDocumentResponse reports the ingestion outcome
type IngestDocumentResponse struct {
	DocumentID  string `json:"document_id"`
	ChunksAdded int    `json:"chunks_added"`
}

// QueryRequest asks a question over the indexed documents, optionally
// restricted to specific document ids
type QueryRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// QueryResponse mirrors QueryResult on the wire
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// PurgeDocumentResponse reports how many chunks a purge removed
type PurgeDocumentResponse struct {
	Removed int `json:"removed"`
}
