package types

// CVERecord is the flattened view of one NVD CVE item.
// Only the first listed vendor/product is kept in PrimarySoftware*; the
// complete vendor/product/version fan-out lives in the product index.
type CVERecord struct {
	ID                    string   `json:"id"`
	Description           string   `json:"description,omitempty"`
	References            []string `json:"references,omitempty"`
	SeverityV2            string   `json:"severity_v2,omitempty"`
	SeverityV3            string   `json:"severity_v3,omitempty"`
	CVSSV2                *float64 `json:"cvss_v2,omitempty"`
	CVSSV3                *float64 `json:"cvss_v3,omitempty"`
	PrimarySoftwareVendor string   `json:"primary_software_vendor,omitempty"`
	PrimarySoftwareName   string   `json:"primary_software_name,omitempty"`
}
