package entity

// DocumentType classifies an ingested document
type DocumentType string

const (
	DocumentTypePolicy        DocumentType = "policy"
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypeMedicalRecord DocumentType = "medical_record"
	DocumentTypeOther         DocumentType = "other"
)

// DocumentMetadata travels with every chunk of a document
type DocumentMetadata struct {
	Filename     string       `json:"filename"`
	DocumentType DocumentType `json:"document_type"`
}

// DocumentChunk is one contiguous segment of an ingested document.
// Chunks are immutable once written; they are removed only when the
// parent document is purged.
type DocumentChunk struct {
	ChunkID    string           `json:"chunk_id"`
	DocumentID string           `json:"document_id"`
	Text       string           `json:"text"`
	Position   int              `json:"position"`
	Embedding  []float32        `json:"embedding"`
	Metadata   DocumentMetadata `json:"metadata"`
}

// RetrievalFilter restricts retrieval to a subset of documents.
// Empty DocumentIDs means "search all".
type RetrievalFilter struct {
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Source is one retrieved chunk backing an answer
type Source struct {
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float32          `json:"score"`
}

// QueryResult is the outcome of one retrieval/QA invocation.
// Sources are ordered by descending similarity.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// PolicyTerms are the coverage terms a claim is adjudicated against.
// Read-only input: adjudication reports how much deductible would be
// consumed but never mutates policy state.
type PolicyTerms struct {
	Deductible          float64  `json:"deductible"`
	DeductibleRemaining float64  `json:"annual_deductible_remaining"`
	Copay               *float64 `json:"copay,omitempty"`
	CoinsuranceRate     *float64 `json:"coinsurance_rate,omitempty"`
	OutOfPocketMax      float64  `json:"out_of_pocket_max"`
}

// Policy is a stored insurance policy
type Policy struct {
	ID               string      `json:"id"`
	PolicyNumber     string      `json:"policy_number"`
	PolicyholderName string      `json:"policyholder_name"`
	Status           string      `json:"status"`
	Terms            PolicyTerms `json:"terms"`
}

// BillLineItem is a single charge on a claim
type BillLineItem struct {
	ServiceCode  string  `json:"service_code"`
	Description  string  `json:"description"`
	BilledAmount float64 `json:"billed_amount"`
	Quantity     int     `json:"quantity"`
}

// CoverageResult is the fully reconciled outcome of adjudication.
// Invariant: DeductibleApplied + InsuranceCovers + (OutOfPocket -
// DeductibleApplied) == TotalBilled.
type CoverageResult struct {
	TotalBilled        float64 `json:"total_billed"`
	DeductibleApplied  float64 `json:"deductible_applied"`
	InsuranceCovers    float64 `json:"insurance_covers"`
	OutOfPocket        float64 `json:"out_of_pocket"`
	CoveragePercentage float64 `json:"coverage_percentage"`
}
