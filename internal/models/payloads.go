package models

// These structs define the JSON payloads exchanged with the form client.

// GenerateDocumentRequest is the input for the generate-document function.
type GenerateDocumentRequest struct {
	Address      string `json:"address"`
	Price        string `json:"price"`
	Date         string `json:"date"`
	FullName     string `json:"fullName"`
	TemplateName string `json:"templateName"`
}

// CustomerInfo echoes the submitted field values.
type CustomerInfo struct {
	Address  string `json:"address" firestore:"address,omitempty"`
	Price    string `json:"price" firestore:"price,omitempty"`
	Date     string `json:"date" firestore:"date,omitempty"`
	FullName string `json:"fullName" firestore:"fullName,omitempty"`
}

// DocumentFile references the stored bytes of a generated document.
type DocumentFile struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
	FilePath    string `json:"filePath"`
}

type GeneratedDocumentData struct {
	DocumentID   string       `json:"documentId"`
	GeneratedAt  string       `json:"generatedAt"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	DocumentFile DocumentFile `json:"documentFile"`
}

// GenerateDocumentResponse is the success output of the generate-document function.
type GenerateDocumentResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    GeneratedDocumentData `json:"data"`
}

// ValidationErrorResponse is returned with 400 when required fields are missing.
type ValidationErrorResponse struct {
	Error         string   `json:"error"`
	MissingFields []string `json:"missingFields"`
	Message       string   `json:"message"`
}

// TemplateNotFoundResponse is returned with 404 for unknown templates.
type TemplateNotFoundResponse struct {
	Error              string   `json:"error"`
	Message            string   `json:"message"`
	AvailableTemplates []string `json:"availableTemplates"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TemplateListResponse is the output of the list-templates function.
type TemplateListResponse struct {
	Templates []string `json:"templates"`
}
