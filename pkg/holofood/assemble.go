package holofood

import (
	"context"
	"reflect"

	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"github.com/holofood-data/holofood-go/pkg/holofood/tables"
)

// Experiment is the per-sample-type slice of an assembled result. Columns
// whose value is constant across every sample of the type end up in
// Metadata; columns that vary per measurement row stay in Measurements.
type Experiment struct {
	Metadata     tables.Row
	Measurements *tables.Table
}

// ResultContainer is the composed multi-table result of a sample fetch,
// sharing the sample accession axis across all sub-tables.
type ResultContainer struct {
	Samples     *tables.Table
	Experiments map[string]*Experiment
	Malformed   *errors.MalformedAccessionError

	sampleTypes []string
}

// SampleTypes lists the experiment names in the order their sample types
// were first observed.
func (rc *ResultContainer) SampleTypes() []string {
	names := make([]string, len(rc.sampleTypes))
	copy(names, rc.sampleTypes)
	return names
}

// Empty reports whether the fetch matched zero samples. An empty container
// is a valid result, distinguishable from the error cases which never
// return a container at all.
func (rc *ResultContainer) Empty() bool {
	return rc.Samples == nil || rc.Samples.Len() == 0
}

// AssembleResult fetches the given sample accessions and winds the
// normalized tables into a ResultContainer: one experiment per distinct
// sample_type, all sharing the sample accession axis.
func (p *Portal) AssembleResult(ctx context.Context, accessions []string) (*ResultContainer, error) {
	result, err := p.FetchByAccession(ctx, Samples, accessions)
	if err != nil {
		return nil, err
	}

	rc := assembleContainer(result.Tables)
	rc.Malformed = result.Malformed
	return rc, nil
}

func assembleContainer(set *tables.TableSet) *ResultContainer {
	rc := &ResultContainer{
		Experiments: map[string]*Experiment{},
	}

	samples, found := set.Get(Samples)
	if !found || samples.Len() == 0 {
		return rc
	}

	rc.Samples = samples

	grouped := map[string][]string{}
	for _, acc := range samples.Accessions() {
		row, _ := samples.Row(acc)

		sampleType, ok := row["sample_type"].(string)
		if !ok {
			sampleType = "unclassified"
		}

		if _, seen := grouped[sampleType]; !seen {
			rc.sampleTypes = append(rc.sampleTypes, sampleType)
		}
		grouped[sampleType] = append(grouped[sampleType], acc)
	}

	for _, sampleType := range rc.sampleTypes {
		rc.Experiments[sampleType] = buildExperiment(samples, grouped[sampleType])
	}

	return rc
}

// buildExperiment partitions the columns of one sample type group: a column
// with a single distinct value across the group describes the sample type
// itself and becomes metadata, anything else varies per measurement row.
func buildExperiment(samples *tables.Table, group []string) *Experiment {
	exp := &Experiment{
		Metadata:     tables.Row{},
		Measurements: tables.New(),
	}

	constant := map[string]bool{}
	first := map[string]any{}

	for _, col := range samples.Columns() {
		if col == tables.AccessionColumn {
			continue
		}
		constant[col] = true
	}

	for i, acc := range group {
		row, _ := samples.Row(acc)

		for col := range constant {
			if i == 0 {
				first[col] = row[col]
				continue
			}

			if !reflect.DeepEqual(first[col], row[col]) {
				constant[col] = false
			}
		}
	}

	for col, isConstant := range constant {
		if isConstant && len(group) > 1 {
			exp.Metadata[col] = first[col]
		}
	}

	for _, acc := range group {
		row, _ := samples.Row(acc)
		measurement := tables.Row{}

		for col, v := range row {
			if col == tables.AccessionColumn {
				continue
			}
			if _, isMeta := exp.Metadata[col]; isMeta {
				continue
			}
			measurement[col] = v
		}

		exp.Measurements.Upsert(acc, measurement)
	}

	return exp
}
