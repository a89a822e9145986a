package holofood

import (
	"fmt"

	"github.com/holofood-data/holofood-go/pkg/holofood/records"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

type normalizeMode int

const (
	// modeNested accumulates every inlined relation into its own child
	// table, linked back through a foreign key accession column.
	modeNested normalizeMode = iota
	// modeSummary derives one has_<relation> presence column per relation
	// instead of accumulating child tables. This is the search summary view.
	modeSummary
)

// normalizer turns raw records into rows of the accumulated table set.
// Columns come and go freely between records; the tables track the evolving
// column union and fill gaps only when materialized.
type normalizer struct {
	mode normalizeMode
	set  *tables.TableSet
}

func newNormalizer(mode normalizeMode) *normalizer {
	return &normalizer{
		mode: mode,
		set:  tables.NewSet(),
	}
}

func (n *normalizer) addRecord(entityType string, rec records.Record) {
	n.add(entityType, rec, "", nil, 0)
}

func (n *normalizer) add(tableName string, rec records.Record, parentKey string, foreignKey tables.Row, ordinal int) {
	accession := rec.Accession()
	if accession == "" {
		// child rows without an accession of their own (measurement rows,
		// structured metadata) get a synthetic key scoped to their parent
		// and position, so re-fetching the parent stays idempotent
		accession = fmt.Sprintf("%s:%s:%d", parentKey, tableName, ordinal)
	}

	row := tables.Row{}
	for _, name := range rec.AttributeNames() {
		v, _ := rec.Attribute(name)
		row[name] = v
	}
	for k, v := range foreignKey {
		row[k] = v
	}

	for _, relName := range rec.RelationNames() {
		rel, _ := rec.Relation(relName)

		if n.mode == modeSummary {
			row["has_"+relName] = rel.Len() > 0
			continue
		}

		if rel.IsReference() {
			// reference-only relations are never auto-followed; the
			// accessions are kept for the resolver to fetch explicitly
			row[relName+"_accessions"] = rel.Refs()
			continue
		}

		childKey := tables.Row{foreignKeyColumn(tableName): accession}
		for i, child := range rel.Inline() {
			n.add(relName, child, accession, childKey, i)
		}
	}

	n.set.Ensure(tableName).Upsert(accession, row)
}
