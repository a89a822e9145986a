package holofood

import (
	"context"
	"regexp"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"github.com/holofood-data/holofood-go/pkg/holofood/records"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

// Accession formats per entity type. Animals and samples carry BioSamples
// accessions, metabolights studies MTBLS identifiers, catalogues are
// addressed by slug.
var accessionPatterns = map[string]*regexp.Regexp{
	Animals:             regexp.MustCompile(`^SAMEA[0-9]+$`),
	Samples:             regexp.MustCompile(`^SAMEA[0-9]+$`),
	MetabolightsStudies: regexp.MustCompile(`^MTBLS[0-9]+$`),
	GenomeCatalogues:    regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`),
	ViralCatalogues:     regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`),

	// catalogue sub-resources, keyed by their table name
	"genomes": regexp.MustCompile(`^MGYG[0-9]+$`),
}

// AnalysisAccessionPattern matches MGnify analysis accessions, the foreign
// identifier scheme handled by MergeExternal.
var AnalysisAccessionPattern = regexp.MustCompile(`^MGYA[0-9]+$`)

// partitionAccessions splits candidates into well formed and malformed,
// dropping duplicates while preserving first-observed order.
func partitionAccessions(entityType string, candidates []string) (valid, invalid []string) {
	pattern, found := accessionPatterns[entityType]
	if !found {
		pattern = accessionPatterns[tableNameFor(entityType)]
	}
	seen := map[string]struct{}{}

	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}

		if pattern != nil && pattern.MatchString(c) {
			valid = append(valid, c)
		} else {
			invalid = append(invalid, c)
		}
	}

	return valid, invalid
}

// FetchResult is the outcome of a bulk accession fetch. Malformed is non-nil
// when some requested accessions were rejected during validation; the well
// formed ones are still fetched and present in Tables.
type FetchResult struct {
	Tables    *tables.TableSet
	Malformed *errors.MalformedAccessionError
}

// FetchByAccession retrieves the named records one accession at a time and
// unions the per-accession tables into a single set per entity type. Exact
// duplicate rows, which occur when two requested records share a child, are
// dropped silently; that de-duplication is the idempotence guarantee that
// makes fetching [A] and [A, A] equivalent.
func (p *Portal) FetchByAccession(ctx context.Context, entityType string, accessions []string) (*FetchResult, error) {
	log := logging.GetFromContext(ctx)

	valid, invalid := partitionAccessions(entityType, accessions)

	var malformed *errors.MalformedAccessionError
	if len(invalid) > 0 {
		malformed = errors.NewMalformedAccessionError(entityType, invalid)
		log.Warn("rejected malformed accessions", "entity_type", entityType, "count", len(invalid))
	}

	if len(valid) == 0 {
		if malformed != nil {
			return nil, malformed
		}
		return nil, errors.NewRejectedError("no accessions to fetch")
	}

	tableName := tableNameFor(entityType)

	combined := tables.NewSet()
	combined.Ensure(tableName)

	for _, accession := range valid {
		n := newNormalizer(modeNested)
		w := p.newWalker(entityType, 1, client.Accession(accession))

		_, err := w.walk(ctx, func(rec records.Record) error {
			n.addRecord(tableName, rec)
			return nil
		})
		if err != nil {
			return nil, err
		}

		combined.Absorb(n.set)
	}

	return &FetchResult{
		Tables:    combined,
		Malformed: malformed,
	}, nil
}

// FetchFlattened is FetchByAccession with the per-type tables joined into a
// single wide table on their shared foreign key column. One-to-many
// relations become list valued columns.
func (p *Portal) FetchFlattened(ctx context.Context, entityType string, accessions []string) (*tables.Table, *errors.MalformedAccessionError, error) {
	result, err := p.FetchByAccession(ctx, entityType, accessions)
	if err != nil {
		return nil, nil, err
	}

	tableName := tableNameFor(entityType)
	wide, err := tables.Flatten(result.Tables, tableName, foreignKeyColumn(tableName))
	if err != nil {
		return nil, result.Malformed, err
	}

	return wide, result.Malformed, nil
}
