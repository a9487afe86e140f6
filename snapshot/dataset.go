package snapshot

import (
	"strings"
	"time"

	"github.com/teranos/harvest/errors"
)

// Input is a single record submitted to the trigger endpoint
type Input map[string]string

// Dataset describes one collectable dataset: the remote dataset identifier,
// the trigger parameters that select the collection mode, and the shape of
// acceptable inputs. Adding a dataset means adding a value here, not a type.
type Dataset struct {
	// Name identifies the dataset in logs, history and the CLI
	Name string

	// ID is the remote dataset identifier passed as dataset_id
	ID string

	// PrimaryField must be present and non-blank in every input record.
	// Records without it are dropped before submission.
	PrimaryField string

	// TriggerParams are extra query parameters sent on trigger, beyond
	// dataset_id and include_errors
	TriggerParams map[string]string

	// OutputFile is the default filename for persisted results
	OutputFile string
}

const (
	datasetIDProperties   = "gd_lfqkr8wm13ixtbd8f5"
	datasetIDPriceHistory = "gd_lxu1cz9r88uiqsosl"
)

// Properties collects full property records for known listing URLs
func Properties() Dataset {
	return Dataset{
		Name:         "properties",
		ID:           datasetIDProperties,
		PrimaryField: "url",
		OutputFile:   "properties.json",
	}
}

// PriceHistory collects the price history for known listing URLs
func PriceHistory() Dataset {
	return Dataset{
		Name:         "price-history",
		ID:           datasetIDPriceHistory,
		PrimaryField: "url",
		OutputFile:   "price_history.json",
	}
}

// DiscoverByFilters discovers new property records matching search filters.
// Each input is a filter set keyed by location.
func DiscoverByFilters() Dataset {
	return Dataset{
		Name:         "discover",
		ID:           datasetIDProperties,
		PrimaryField: "location",
		TriggerParams: map[string]string{
			"type":        "discover_new",
			"discover_by": "input_filters",
		},
		OutputFile: "discovered_properties.json",
	}
}

// DiscoverByURL discovers new property records reachable from search-page URLs
func DiscoverByURL() Dataset {
	return Dataset{
		Name:         "discover-url",
		ID:           datasetIDProperties,
		PrimaryField: "url",
		TriggerParams: map[string]string{
			"type":        "discover_new",
			"discover_by": "url",
		},
		OutputFile: "discovered_properties_by_url.json",
	}
}

// Registry returns all known datasets in CLI listing order
func Registry() []Dataset {
	return []Dataset{Properties(), PriceHistory(), DiscoverByFilters(), DiscoverByURL()}
}

// ByName resolves a dataset by its CLI name
func ByName(name string) (Dataset, error) {
	for _, ds := range Registry() {
		if ds.Name == name {
			return ds, nil
		}
	}
	return Dataset{}, errors.Wrapf(errors.ErrNotFound, "unknown dataset %q", name)
}

// CleanInputs drops blank-valued keys from each record and drops records
// whose primary field is empty or whitespace-only. The input slice is not
// modified.
func (d Dataset) CleanInputs(inputs []Input) []Input {
	cleaned := make([]Input, 0, len(inputs))
	for _, in := range inputs {
		out := make(Input, len(in))
		for k, v := range in {
			if strings.TrimSpace(v) != "" {
				out[k] = v
			}
		}
		if out[d.PrimaryField] != "" {
			cleaned = append(cleaned, out)
		}
	}
	return cleaned
}

// DatedOutputFile returns the default output filename with the date inserted
// before the extension, e.g. properties_20260829.json
func (d Dataset) DatedOutputFile(now time.Time) string {
	stamp := now.Format("20060102")
	if idx := strings.LastIndex(d.OutputFile, "."); idx > 0 {
		return d.OutputFile[:idx] + "_" + stamp + d.OutputFile[idx:]
	}
	return d.OutputFile + "_" + stamp
}
