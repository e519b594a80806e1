package models

// MFacility represents one monitored site.
type MFacility struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	CreatedAt int64  `json:"created_at"`
}

// MAsset represents one piece of equipment inside a facility.
type MAsset struct {
	ID         int64  `json:"id"`
	FacilityID int64  `json:"facility_id"`
	Name       string `json:"name"`
	AssetType  string `json:"asset_type"`
	CreatedAt  int64  `json:"created_at"`
}

// MFacilityDetails is the facility payload enriched with its assets.
type MFacilityDetails struct {
	MFacility
	Assets []MAsset `json:"assets"`
}

// MMetric describes one measured quantity (power_kw, temp_c, ...).
type MMetric struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}
