package validator

import (
	"fmt"
	"strings"

	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
)

var allowedDocumentTypes = map[entity.DocumentType]bool{
	entity.DocumentTypePolicy:        true,
	entity.DocumentTypeInvoice:       true,
	entity.DocumentTypeMedicalRecord: true,
	entity.DocumentTypeOther:         true,
}

// Validator validates incoming requests against ingestion limits
type Validator struct {
	cfg config.IngestConfig
}

func NewValidator(cfg config.IngestConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateIngest(req *entity.IngestDocumentRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: %s", entity.ErrEmptyDocument, req.Metadata.Filename)
	}
	if len(req.Text) > v.cfg.MaxDocumentBytes {
		return fmt.Errorf("%w: document is %d bytes (max %d)",
			entity.ErrInvalidParameter, len(req.Text), v.cfg.MaxDocumentBytes)
	}
	if req.Metadata.Filename == "" {
		return fmt.Errorf("%w: metadata.filename", entity.ErrMissingField)
	}
	if req.Metadata.DocumentType != "" && !allowedDocumentTypes[req.Metadata.DocumentType] {
		return fmt.Errorf("%w: unknown document_type %q", entity.ErrInvalidParameter, req.Metadata.DocumentType)
	}
	return nil
}

func (v *Validator) ValidateQuery(req *entity.QueryRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}
	return nil
}
