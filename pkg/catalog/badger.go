package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/log"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

const (
	orgKeyPrefix = "org:" // org:<normalized name>
	catKeyPrefix = "cat:" // cat:<org id>:<normalized name>
	docKeyPrefix = "doc:" // doc:<org id>:<normalized title>

	catalogDBDir = "catalog_db" // Subdirectory within stateDir for Badger DB files
)

const maxConflictRetries = 10

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewBadgerStore opens (or creates) the catalog database under stateDir.
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(stateDir, catalogDBDir)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dbPath, err)
	}

	logger.Infof("Initializing catalog database at: %s", dbPath)

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}

	logger.Info("Catalog database initialized successfully.")
	return &BadgerStore{db: db, log: logger}, nil
}

// normalizeKey lowercases and collapses whitespace so lookups are insensitive
// to casing and stray spaces in scraped text.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func orgKey(name string) []byte {
	return []byte(orgKeyPrefix + normalizeKey(name))
}

func catKey(orgID, name string) []byte {
	return []byte(catKeyPrefix + orgID + ":" + normalizeKey(name))
}

func docKey(orgID, title string) []byte {
	return []byte(docKeyPrefix + orgID + ":" + normalizeKey(title))
}

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrStore, maxConflictRetries)
}

// getJSON loads and decodes the value at key into out. Returns false with no
// error when the key does not exist.
func (s *BadgerStore) getJSON(key []byte, out any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting key '%s': %w", utils.ErrStore, string(key), errGet)
		}
		return item.Value(func(val []byte) error {
			if errJson := json.Unmarshal(val, out); errJson != nil {
				return fmt.Errorf("%w: failed to unmarshal value for key '%s': %w", utils.ErrStore, string(key), errJson)
			}
			found = true
			return nil
		})
	})
	return found, err
}

func (s *BadgerStore) setJSON(key []byte, v any) error {
	valBytes, errJson := json.Marshal(v)
	if errJson != nil {
		return fmt.Errorf("%w: failed to marshal value for key '%s': %w", utils.ErrStore, string(key), errJson)
	}
	err := s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, valBytes))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error: %v", err)
		return fmt.Errorf("%w: failed setting key '%s': %w", utils.ErrStore, string(key), err)
	}
	return nil
}

// GetOrgByName implements the OrgStore interface
func (s *BadgerStore) GetOrgByName(name string) (*models.Organization, error) {
	var org models.Organization
	found, err := s.getJSON(orgKey(name), &org)
	if err != nil || !found {
		return nil, err
	}
	return &org, nil
}

// CreateOrg implements the OrgStore interface
func (s *BadgerStore) CreateOrg(name string) (*models.Organization, error) {
	org := &models.Organization{ID: uuid.NewString(), Name: name}
	if err := s.setJSON(orgKey(name), org); err != nil {
		return nil, err
	}
	s.log.Infof("Created organization '%s' (%s)", name, org.ID)
	return org, nil
}

// GetOrCreateCategory implements the OrgStore interface
func (s *BadgerStore) GetOrCreateCategory(orgID, name string) (*models.Category, error) {
	key := catKey(orgID, name)

	var cat models.Category
	found, err := s.getJSON(key, &cat)
	if err != nil {
		return nil, err
	}
	if found {
		return &cat, nil
	}

	cat = models.Category{ID: uuid.NewString(), OrgID: orgID, Name: name}
	if err := s.setJSON(key, &cat); err != nil {
		return nil, err
	}
	s.log.Debugf("Created category '%s' under org %s", name, orgID)
	return &cat, nil
}

// GetDocumentByTitle implements the DocumentStore interface
func (s *BadgerStore) GetDocumentByTitle(orgID, title string) (*models.Document, error) {
	var doc models.Document
	found, err := s.getJSON(docKey(orgID, title), &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

// PutDocument implements the DocumentStore interface
func (s *BadgerStore) PutDocument(doc *models.Document) error {
	if doc.OrgID == "" || doc.Title == "" {
		return fmt.Errorf("%w: document requires OrgID and Title", utils.ErrStore)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	return s.setJSON(docKey(doc.OrgID, doc.Title), doc)
}

// TitleSet implements the DocumentStore interface
func (s *BadgerStore) TitleSet(orgID string) (map[string]string, error) {
	titles := make(map[string]string)
	prefix := []byte(docKeyPrefix + orgID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			errVal := it.Item().Value(func(val []byte) error {
				var doc models.Document
				if errJson := json.Unmarshal(val, &doc); errJson != nil {
					s.log.Warnf("Skipping undecodable document at key '%s': %v", string(it.Item().Key()), errJson)
					return nil
				}
				titles[doc.Title] = doc.ID
				return nil
			})
			if errVal != nil {
				return errVal
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning documents for org %s: %w", utils.ErrStore, orgID, err)
	}
	return titles, nil
}

// Close implements the Store interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Info("Closing catalog DB...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing catalog DB: %v", err)
			return err
		}
		return nil
	}
	return nil
}
