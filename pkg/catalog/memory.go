package catalog

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// MemStore is an in-memory Store, used in tests and dry runs where persisting
// the catalog is unwanted.
type MemStore struct {
	mu   sync.Mutex
	orgs map[string]*models.Organization // normalized name -> org
	cats map[string]*models.Category     // orgID:normalized name -> category
	docs map[string]*models.Document     // orgID:normalized title -> document
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		orgs: make(map[string]*models.Organization),
		cats: make(map[string]*models.Category),
		docs: make(map[string]*models.Document),
	}
}

// GetOrgByName implements the OrgStore interface
func (s *MemStore) GetOrgByName(name string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if org, ok := s.orgs[normalizeKey(name)]; ok {
		copied := *org
		return &copied, nil
	}
	return nil, nil
}

// CreateOrg implements the OrgStore interface
func (s *MemStore) CreateOrg(name string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org := &models.Organization{ID: uuid.NewString(), Name: name}
	s.orgs[normalizeKey(name)] = org
	copied := *org
	return &copied, nil
}

// GetOrCreateCategory implements the OrgStore interface
func (s *MemStore) GetOrCreateCategory(orgID, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := orgID + ":" + normalizeKey(name)
	if cat, ok := s.cats[key]; ok {
		copied := *cat
		return &copied, nil
	}
	cat := &models.Category{ID: uuid.NewString(), OrgID: orgID, Name: name}
	s.cats[key] = cat
	copied := *cat
	return &copied, nil
}

// GetDocumentByTitle implements the DocumentStore interface
func (s *MemStore) GetDocumentByTitle(orgID, title string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[orgID+":"+normalizeKey(title)]; ok {
		copied := *doc
		return &copied, nil
	}
	return nil, nil
}

// PutDocument implements the DocumentStore interface
func (s *MemStore) PutDocument(doc *models.Document) error {
	if doc.OrgID == "" || doc.Title == "" {
		return fmt.Errorf("%w: document requires OrgID and Title", utils.ErrStore)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	copied := *doc
	s.docs[doc.OrgID+":"+normalizeKey(doc.Title)] = &copied
	return nil
}

// TitleSet implements the DocumentStore interface
func (s *MemStore) TitleSet(orgID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make(map[string]string)
	for _, doc := range s.docs {
		if doc.OrgID == orgID {
			titles[doc.Title] = doc.ID
		}
	}
	return titles, nil
}

// Close implements the Store interface
func (s *MemStore) Close() error { return nil }
