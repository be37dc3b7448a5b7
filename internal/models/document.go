package models

import "time"

const (
	StatusGenerated = "GENERATED"
	StatusValid     = "VALID"
	StatusInvalid   = "INVALID"
)

// GeneratedDocument is the Firestore record written for every filled document.
type GeneratedDocument struct {
	DocumentID   string       `firestore:"documentId,omitempty"`
	Filename     string       `firestore:"filename,omitempty"`
	TemplateName string       `firestore:"templateName,omitempty"`
	Status       string       `firestore:"status,omitempty"`
	PageCount    int          `firestore:"pageCount,omitempty"`
	CustomerInfo CustomerInfo `firestore:"customerInfo"`
	FilePath     string       `firestore:"filePath,omitempty"`
	CreatedAt    time.Time    `firestore:"createdAt,omitempty"`
}

// TemplateCheck records the outcome of validating an uploaded template.
type TemplateCheck struct {
	TemplateName string    `firestore:"templateName,omitempty"`
	Bucket       string    `firestore:"bucket,omitempty"`
	FileHash     string    `firestore:"fileHash,omitempty"`
	Status       string    `firestore:"status,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	PageCount    int       `firestore:"pageCount,omitempty"`
	NeedsPadding bool      `firestore:"needsPadding"`
	CheckedAt    time.Time `firestore:"checkedAt,omitempty"`
}
