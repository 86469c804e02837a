package domain

// ValidateDocument checks a Document before chunking. A document with no
// content or no title is rejected per-item; the coordinator records the
// failure and continues the batch.
func ValidateDocument(doc Document) error {
	if doc.Content == "" {
		return NewValidationError("content", doc.ID(), ErrMissingContent)
	}
	if doc.Title == "" {
		return NewValidationError("title", doc.ID(), ErrMissingTitle)
	}
	if doc.Source == "" {
		return NewValidationError("source", doc.ID(), ErrMissingSource)
	}
	return nil
}

// Normalize fills defaulted fields on a Document. It never rejects.
func Normalize(doc Document) Document {
	if doc.DocType == "" {
		doc.DocType = DocTypeGeneral
	}
	return doc
}
