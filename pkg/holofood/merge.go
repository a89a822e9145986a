package holofood

import (
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

// MergeExternal combines a secondary table set, keyed by a foreign
// identifier scheme such as MGnify analysis accessions, into the primary
// set. Every foreign key is re-keyed through idMap to a portal accession.
//
// Foreign identifiers absent from idMap are dropped and reported in the
// returned coverage warning; partial coverage between the two systems is
// normal and never an error. When idMap maps several foreign identifiers to
// the same accession, the first one encountered wins and the rest are
// reported as shadowed.
//
// Secondary entity types colliding with a name already present in the
// primary set are stored under a suffixed name instead of overwriting.
func MergeExternal(primary, secondary *tables.TableSet, idMap map[string]string) (*tables.TableSet, *errors.MergeCoverageWarning) {
	merged := tables.NewSet()
	merged.Absorb(primary)

	warning := &errors.MergeCoverageWarning{}

	for _, name := range secondary.Names() {
		src, _ := secondary.Get(name)
		rekeyed := tables.New()

		for _, foreignID := range src.Accessions() {
			accession, mapped := idMap[foreignID]
			if !mapped {
				warning.Unmapped = append(warning.Unmapped, foreignID)
				continue
			}

			if rekeyed.Has(accession) {
				warning.Shadowed = append(warning.Shadowed, foreignID)
				continue
			}

			row, _ := src.StoredRow(foreignID)
			row["external_accession"] = foreignID
			rekeyed.Upsert(accession, row)
		}

		merged.Add(name, rekeyed)
	}

	return merged, warning
}
