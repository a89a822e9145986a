package holofood

import (
	"context"

	"github.com/holofood-data/holofood-go/pkg/holofood/client"
	"github.com/holofood-data/holofood-go/pkg/holofood/records"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

// Search runs a filtered query and returns the flattened summary view: one
// row per matching record with its scalar attributes plus one derived
// has_<relation> presence column per relation. A query matching nothing
// returns an empty table, not an error.
//
// Filters are validated against the entity type's known filter keys before
// any network call is made.
func (p *Portal) Search(ctx context.Context, entityType string, filters map[string]string, maxHits int) (*tables.Table, error) {
	set, err := p.search(ctx, entityType, filters, maxHits, modeSummary)
	if err != nil {
		return nil, err
	}

	return set.Ensure(tableNameFor(entityType)), nil
}

// SearchTables runs the same query but keeps the nested structure: the
// result is one table per entity type encountered, children linked to their
// parents through foreign key accession columns.
func (p *Portal) SearchTables(ctx context.Context, entityType string, filters map[string]string, maxHits int) (*tables.TableSet, error) {
	return p.search(ctx, entityType, filters, maxHits, modeNested)
}

func (p *Portal) search(ctx context.Context, entityType string, filters map[string]string, maxHits int, mode normalizeMode) (*tables.TableSet, error) {
	if err := validateQuery(entityType, filters); err != nil {
		return nil, err
	}

	n := newNormalizer(mode)
	w := p.newWalker(entityType, maxHits, client.Filters(filters))

	tableName := tableNameFor(entityType)

	_, err := w.walk(ctx, func(rec records.Record) error {
		n.addRecord(tableName, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	n.set.Ensure(tableName)
	return n.set, nil
}
