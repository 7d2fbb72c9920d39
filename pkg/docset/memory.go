package docset

import (
	"context"
	"sort"
	"sync"

	"github.com/kadirpekel/docpixie/pkg/provider"
)

// MemoryStorage is an in-memory Storage implementation. It is the only
// concrete Storage this module ships; a persistent, filesystem- or
// object-store-backed implementation belongs to the document-processing
// collaborator and is out of scope here.
type MemoryStorage struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStorage builds a Storage seeded with the given documents.
func NewMemoryStorage(docs ...*Document) *MemoryStorage {
	m := &MemoryStorage{docs: make(map[string]*Document, len(docs))}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

// Put adds or replaces a document.
func (m *MemoryStorage) Put(d *Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = d
}

func (m *MemoryStorage) ListDocuments(ctx context.Context) ([]Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	catalog := make([]Catalog, 0, len(m.docs))
	for _, d := range m.docs {
		catalog = append(catalog, Catalog{ID: d.ID, Name: d.Name, Summary: d.Summary})
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID })
	return catalog, nil
}

func (m *MemoryStorage) GetDocument(ctx context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, &NotFoundError{DocumentID: id}
	}
	return d, nil
}

func (m *MemoryStorage) GetPageImage(ctx context.Context, docID string, pageNumber int) (provider.ImageHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[docID]
	if !ok {
		return provider.ImageHandle{}, &NotFoundError{DocumentID: docID}
	}
	for _, pg := range d.Pages {
		if pg.Number == pageNumber {
			return pg.Image, nil
		}
	}
	return provider.ImageHandle{}, &NotFoundError{DocumentID: docID, PageNumber: pageNumber}
}
