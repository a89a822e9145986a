package holofood

import (
	"fmt"
	"strings"
	"time"

	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
)

// Entity types exposed by the portal API.
const (
	Animals             = "animals"
	Samples             = "samples"
	MetadataMarkers     = "sample-metadata-markers"
	GenomeCatalogues    = "genome-catalogues"
	ViralCatalogues     = "viral-catalogues"
	MetabolightsStudies = "metabolights-studies"
)

// CatalogueGenomes addresses the genomes of one genome catalogue. The
// returned value is used wherever an entity type is expected.
func CatalogueGenomes(catalogueID string) string {
	return GenomeCatalogues + "/" + catalogueID + "/genomes"
}

// CatalogueFragments addresses the viral fragments of one viral catalogue.
func CatalogueFragments(catalogueID string) string {
	return ViralCatalogues + "/" + catalogueID + "/fragments"
}

// knownFilters lists the filter keys each entity type accepts. The accession
// filter is implicit and always allowed; it is what the accession resolver
// uses for its per-accession fetches.
var knownFilters = map[string][]string{
	Animals:             {"system", "animal_code", "require_sample_type"},
	Samples:             {"system", "animal_accession", "sample_type", "title"},
	MetadataMarkers:     {"name", "type"},
	GenomeCatalogues:    {"system"},
	ViralCatalogues:     {"system"},
	MetabolightsStudies: {"sample_accession"},
}

var subResourceFilters = map[string][]string{
	"genomes":   {"cluster_representative", "taxonomy"},
	"fragments": {"viral_type", "host_mgnify_accession"},
}

func filterKeysFor(entityType string) ([]string, bool) {
	if allowed, known := knownFilters[entityType]; known {
		return allowed, true
	}

	parts := strings.Split(entityType, "/")
	if len(parts) == 3 {
		if parts[0] == GenomeCatalogues && parts[2] == "genomes" {
			return subResourceFilters["genomes"], true
		}
		if parts[0] == ViralCatalogues && parts[2] == "fragments" {
			return subResourceFilters["fragments"], true
		}
	}

	return nil, false
}

// tableNameFor reduces an entity type to the name its table is stored under;
// catalogue sub-resource paths collapse to their final segment.
func tableNameFor(entityType string) string {
	if idx := strings.LastIndex(entityType, "/"); idx >= 0 {
		return entityType[idx+1:]
	}
	return entityType
}

func validateQuery(entityType string, filters map[string]string) error {
	allowed, known := filterKeysFor(entityType)
	if !known {
		return errors.NewRejectedError(fmt.Sprintf("unknown entity type %s", entityType))
	}

	for key := range filters {
		if key == "accession" {
			continue
		}

		ok := false
		for _, a := range allowed {
			if a == key {
				ok = true
				break
			}
		}

		if !ok {
			return errors.NewRejectedError(
				fmt.Sprintf("filter %s is not valid for %s (valid filters: %s)",
					key, entityType, strings.Join(allowed, ", ")),
			)
		}
	}

	return nil
}

// singular derives the foreign key column prefix for rows referencing a
// parent of the given type ("animals" becomes "animal_accession").
func singular(entityType string) string {
	return strings.TrimSuffix(entityType, "s")
}

func foreignKeyColumn(entityType string) string {
	return singular(entityType) + "_accession"
}

type OptionFunc func(*Portal)

func PageSize(size int) OptionFunc {
	return func(p *Portal) {
		p.pageSize = size
	}
}

// Retries caps the number of attempts per page request, the first one
// included.
func Retries(maxAttempts uint) OptionFunc {
	return func(p *Portal) {
		p.maxAttempts = maxAttempts
	}
}

func RetryInterval(interval time.Duration) OptionFunc {
	return func(p *Portal) {
		p.retryInterval = interval
	}
}

// Portal is the entry point for downstream tooling: searches, bulk accession
// fetches and full sample result assembly. Each call owns the tables it
// returns; nothing is shared or mutated across calls.
type Portal struct {
	client        client.PortalClient
	pageSize      int
	maxAttempts   uint
	retryInterval time.Duration
}

func New(c client.PortalClient, options ...OptionFunc) *Portal {
	p := &Portal{
		client:        c,
		pageSize:      50,
		maxAttempts:   3,
		retryInterval: 500 * time.Millisecond,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

func (p *Portal) newWalker(entityType string, maxHits int, params ...client.RequestDecoratorFunc) *walker {
	return &walker{
		client:        p.client,
		entityType:    entityType,
		maxHits:       maxHits,
		maxAttempts:   p.maxAttempts,
		retryInterval: p.retryInterval,
		params:        append(params, client.PageSize(p.pageSize)),
	}
}
