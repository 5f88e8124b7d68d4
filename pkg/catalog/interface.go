// Package catalog persists the document catalog: organizations, categories,
// and documents imported from crawl batches.
package catalog

import "github.com/gxpseeker/guidance-harvester/pkg/models"

// OrgStore handles organization records
type OrgStore interface {
	// GetOrgByName returns the organization with the given name, or nil when
	// no such organization exists
	GetOrgByName(name string) (*models.Organization, error)

	// CreateOrg creates a new organization and returns it with its ID assigned
	CreateOrg(name string) (*models.Organization, error)

	// GetOrCreateCategory returns the category with the given name under the
	// organization, creating it first if needed
	GetOrCreateCategory(orgID, name string) (*models.Category, error)
}

// DocumentStore handles document records
type DocumentStore interface {
	// GetDocumentByTitle returns the organization's document with the given
	// title, or nil when no such document exists
	GetDocumentByTitle(orgID, title string) (*models.Document, error)

	// PutDocument inserts or replaces a document. A zero ID gets one assigned;
	// the document is keyed by (OrgID, Title)
	PutDocument(doc *models.Document) error

	// TitleSet returns all document titles for the organization mapped to
	// their document IDs
	TitleSet(orgID string) (map[string]string, error)
}

// Store combines all catalog interfaces for components that need full access
type Store interface {
	OrgStore
	DocumentStore

	// Close cleanly closes the underlying database
	Close() error
}
