package index

import (
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/aquasecurity/nvd-search/types"
)

// unknown is how upstream inventories mark a missing field.
const unknown = "0"

// SearchByID returns the record for a CVE ID.
func (idx *Index) SearchByID(id string) (types.CVERecord, bool) {
	snap := idx.current.Load()
	if snap == nil || id == "" {
		return types.CVERecord{}, false
	}
	record, ok := snap.records[id]
	return record, ok
}

// SearchVuln returns the CVEs recorded for a vendor/product/version triple,
// sorted by ID.
//
// Vendor and product match when the indexed name is a substring of the
// queried one, so "adobe" matches "Adobe Systems Incorporated". With an
// empty vendor the product has to match exactly. The version always has to
// match exactly, ignoring case. Empty or "0" products and versions and a
// "0" vendor give no results.
func (idx *Index) SearchVuln(vendor, product, version string) []types.CVERecord {
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	product = strings.ToLower(strings.TrimSpace(product))
	version = strings.ToLower(strings.TrimSpace(version))

	if product == "" || product == unknown || version == "" || version == unknown {
		return nil
	}
	if vendor == unknown {
		return nil
	}

	snap := idx.current.Load()
	if snap == nil {
		return nil
	}

	matched := map[string]struct{}{}
	for v, prods := range snap.products {
		if vendor != "" && !strings.Contains(vendor, v) {
			continue
		}
		for p, versions := range prods {
			if vendor == "" {
				if p != product {
					continue
				}
			} else if !strings.Contains(product, p) {
				continue
			}
			for _, id := range versions[version] {
				matched[id] = struct{}{}
			}
		}
	}

	ids := maps.Keys(matched)
	sort.Strings(ids)

	var records []types.CVERecord
	for _, id := range ids {
		if record, ok := snap.records[id]; ok {
			records = append(records, record)
		}
	}
	return records
}
