package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/compliancedocs/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreRecorder writes generation and template-check records.
type FirestoreRecorder struct {
	client              *firestore.Client
	documentsCollection string
	templatesCollection string
}

func NewFirestoreRecorder(client *firestore.Client, documentsCollection, templatesCollection string) *FirestoreRecorder {
	return &FirestoreRecorder{
		client:              client,
		documentsCollection: documentsCollection,
		templatesCollection: templatesCollection,
	}
}

// RecordGeneration stores doc under its document ID. A second record for
// the same ID is rejected rather than overwritten.
func (r *FirestoreRecorder) RecordGeneration(ctx context.Context, doc *models.GeneratedDocument) error {
	if _, err := r.client.Collection(r.documentsCollection).Doc(doc.DocumentID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create generation record %s: %w", doc.DocumentID, err)
	}
	return nil
}

// RecordTemplateCheck appends the outcome of a template validation.
func (r *FirestoreRecorder) RecordTemplateCheck(ctx context.Context, check *models.TemplateCheck) error {
	if _, _, err := r.client.Collection(r.templatesCollection).Add(ctx, check); err != nil {
		return fmt.Errorf("failed to record template check for %s: %w", check.TemplateName, err)
	}
	return nil
}

// DeleteGeneration removes the record stored under documentID.
func (r *FirestoreRecorder) DeleteGeneration(ctx context.Context, documentID string) error {
	if _, err := r.client.Collection(r.documentsCollection).Doc(documentID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete generation record %s: %w", documentID, err)
	}
	return nil
}
