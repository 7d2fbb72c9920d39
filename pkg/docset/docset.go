// Package docset defines the read-only document/page model the agent
// consumes and the Storage contract that supplies it. Storage itself is an
// external collaborator (document ingestion and persistence are out of
// scope); this package ships the interface and one in-memory implementation
// sufficient to exercise and test the core end-to-end.
package docset

import (
	"context"
	"fmt"

	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Page is one rasterized page of a Document, referenced by an opaque image
// handle the Provider can load.
type Page struct {
	// Number is the 1-based page number, unique within its Document.
	Number int
	// Image is resolvable by a Provider into the vendor-specific inline form.
	Image provider.ImageHandle
	// Summary is an optional short description produced at ingestion time.
	Summary string
}

// Document is an ingested, read-only unit the agent can be asked about.
type Document struct {
	ID      string
	Name    string
	Summary string
	Pages   []Page
}

// Catalog is the lightweight view of a Document the Planner sees when
// choosing which documents to assign tasks to.
type Catalog struct {
	ID      string
	Name    string
	Summary string
}

// NotFoundError reports that a requested document_id, or a page within it,
// could not be resolved. The agent maps this to StorageNotFound: the task
// is marked failed, and the planner may append a replacement task.
type NotFoundError struct {
	DocumentID string
	// PageNumber is set when the document exists but the page does not.
	PageNumber int
}

func (e *NotFoundError) Error() string {
	if e.PageNumber > 0 {
		return fmt.Sprintf("page %d not found in document %s", e.PageNumber, e.DocumentID)
	}
	return fmt.Sprintf("document not found: %s", e.DocumentID)
}

// Storage supplies documents and their pages. The core only reads through
// this interface; it never mutates Documents or Pages.
type Storage interface {
	// ListDocuments returns the catalog of documents available for planning.
	ListDocuments(ctx context.Context) ([]Catalog, error)

	// GetDocument resolves a document_id to its full page list. Returns a
	// *NotFoundError (via errors.As) when the id does not exist.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// GetPageImage resolves one page's image handle without loading the
	// whole document. Returns a *NotFoundError when the document or the
	// page number does not exist.
	GetPageImage(ctx context.Context, docID string, pageNumber int) (provider.ImageHandle, error)
}
