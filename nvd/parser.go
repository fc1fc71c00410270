package nvd

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/bcicen/jstream"
	"github.com/klauspost/compress/zip"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/types"
)

// CVE_Items elements sit at depth 2 of the feed document.
const itemDepth = 2

var errMissingID = xerrors.New("missing CVE ID")

// Affect is one vendor/product/version tuple listed under affects.vendor.
type Affect struct {
	Vendor  string
	Product string
	Version string
}

type Entry struct {
	Record  types.CVERecord
	Affects []Affect
}

// Parse decodes a zipped NVD feed segment. Malformed items are logged and
// skipped; an unreadable archive or document yields a *CorruptArtifactError.
func Parse(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &CorruptArtifactError{Err: xerrors.Errorf("unable to initialize zip: %w", err)}
	}
	if len(zr.File) != 1 {
		return nil, &CorruptArtifactError{Err: xerrors.Errorf("invalid NVD zip: %d files in archive", len(zr.File))}
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, &CorruptArtifactError{Err: xerrors.Errorf("unable to read zip archive: %w", err)}
	}
	defer f.Close()

	var entries []Entry
	decoder := jstream.NewDecoder(f, itemDepth)
	var i int
	for mv := range decoder.Stream() {
		if mv.ValueType != jstream.Object {
			continue
		}
		entry, err := decodeItem(i, mv.Value)
		i++
		if err != nil {
			log.Warn(err)
			continue
		}
		entries = append(entries, entry)
	}
	if err = decoder.Err(); err != nil {
		return nil, &CorruptArtifactError{Err: xerrors.Errorf("unable to decode %s: %w", zr.File[0].Name, err)}
	}
	return entries, nil
}

func decodeItem(i int, v interface{}) (Entry, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Entry{}, &MalformedRecordError{Index: i, Err: err}
	}
	var item Item
	if err = json.Unmarshal(b, &item); err != nil {
		return Entry{}, &MalformedRecordError{Index: i, Err: err}
	}
	if item.CVE.DataMeta.ID == "" {
		return Entry{}, &MalformedRecordError{Index: i, Err: errMissingID}
	}
	return Entry{
		Record:  toRecord(item),
		Affects: affects(item.CVE.Affects),
	}, nil
}

func toRecord(item Item) types.CVERecord {
	record := types.CVERecord{
		ID:          item.CVE.DataMeta.ID,
		Description: englishDescription(item.CVE.Description.DescriptionData),
		References: lo.FilterMap(item.CVE.References.ReferenceData, func(ref Reference, _ int) (string, bool) {
			return ref.URL, ref.URL != ""
		}),
		SeverityV2: item.Impact.BaseMetricV2.Severity,
		SeverityV3: item.Impact.BaseMetricV3.CVSSV3.BaseSeverity,
		CVSSV2:     item.Impact.BaseMetricV2.CVSSV2.BaseScore,
		CVSSV3:     item.Impact.BaseMetricV3.CVSSV3.BaseScore,
	}

	// only the first vendor and its first product are kept here
	if vendors := item.CVE.Affects.Vendor.VendorData; len(vendors) > 0 {
		record.PrimarySoftwareVendor = vendors[0].VendorName
		if products := vendors[0].Product.ProductData; len(products) > 0 {
			record.PrimarySoftwareName = products[0].ProductName
		}
	}
	return record
}

func englishDescription(data []LangString) string {
	for _, d := range data {
		if strings.EqualFold(d.Lang, "en") {
			return d.Value
		}
	}
	return ""
}

func affects(a Affects) []Affect {
	var tuples []Affect
	for _, vendor := range a.Vendor.VendorData {
		for _, product := range vendor.Product.ProductData {
			for _, version := range product.Version.VersionData {
				tuples = append(tuples, Affect{
					Vendor:  vendor.VendorName,
					Product: product.ProductName,
					Version: version.VersionValue,
				})
			}
		}
	}
	return tuples
}
