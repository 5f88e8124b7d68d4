// Package extract turns fetched listing HTML into normalized document
// records. Each source has its own extractor covering that site's markup
// quirks; the shared helpers in this package hold the pieces common to all of
// them (title cleanup, category splitting, document-URL classification).
package extract

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/models"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// Source identifiers. The set is closed; adding a source means adding an
// extractor implementation.
const (
	SourceISPE = "ispe"
	SourcePDA  = "pda"
	SourceWHO  = "who"
	SourceFDA  = "fda"
	SourceAPIC = "apic"
)

// Extractor parses one listing page into records. Item-level anomalies are
// logged and skipped; Extract never fails the whole page because of one bad
// item.
type Extractor interface {
	Extract(html string) ([]models.DocumentRecord, error)
}

// New returns the extractor for the given source id.
// WHO extraction is per category page; use NewWHO directly with the category
// label when iterating its listing URLs.
func New(sourceID string, cfg config.SourceConfig, assets config.AssetConfig, log *logrus.Logger) (Extractor, error) {
	switch sourceID {
	case SourceISPE:
		return NewISPE(cfg, assets, log), nil
	case SourcePDA:
		return NewPDA(cfg, log), nil
	case SourceWHO:
		return NewWHO(cfg, "", log), nil
	case SourceFDA:
		return NewFDA(cfg, log), nil
	case SourceAPIC:
		return NewAPIC(cfg, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", utils.ErrUnknownSource, sourceID)
	}
}

// KnownSources lists the supported source ids in a stable order.
func KnownSources() []string {
	return []string{SourceISPE, SourcePDA, SourceWHO, SourceFDA, SourceAPIC}
}
