package nvd

// Item is one element of the feed's CVE_Items array.
type Item struct {
	CVE    CVE    `json:"cve"`
	Impact Impact `json:"impact"`
}

type CVE struct {
	DataMeta    DataMeta    `json:"CVE_data_meta"`
	Description Description `json:"description"`
	References  References  `json:"references"`
	Affects     Affects     `json:"affects"`
}

type DataMeta struct {
	ID string `json:"ID"`
}

type Description struct {
	DescriptionData []LangString `json:"description_data"`
}

type LangString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type References struct {
	ReferenceData []Reference `json:"reference_data"`
}

type Reference struct {
	URL string `json:"url"`
}

type Affects struct {
	Vendor struct {
		VendorData []VendorData `json:"vendor_data"`
	} `json:"vendor"`
}

type VendorData struct {
	VendorName string `json:"vendor_name"`
	Product    struct {
		ProductData []ProductData `json:"product_data"`
	} `json:"product"`
}

type ProductData struct {
	ProductName string `json:"product_name"`
	Version     struct {
		VersionData []VersionData `json:"version_data"`
	} `json:"version"`
}

type VersionData struct {
	VersionValue string `json:"version_value"`
}

type Impact struct {
	BaseMetricV2 BaseMetricV2 `json:"baseMetricV2"`
	BaseMetricV3 BaseMetricV3 `json:"baseMetricV3"`
}

type BaseMetricV2 struct {
	Severity string `json:"severity"`
	CVSSV2   struct {
		BaseScore *float64 `json:"baseScore"`
	} `json:"cvssV2"`
}

type BaseMetricV3 struct {
	CVSSV3 struct {
		BaseSeverity string   `json:"baseSeverity"`
		BaseScore    *float64 `json:"baseScore"`
	} `json:"cvssV3"`
}
