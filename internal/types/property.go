package types

// Property holds one parcel row from the appraisal roll together with the fields
// derived from it at load time. Values are parsed once by the dataset loader and
// never modified afterwards.
type Property struct {
	AccountNum   string `json:"account_num"`
	SitusAddress string `json:"situs_address"`
	OwnerName    string `json:"owner_name,omitempty"`
	City         string `json:"city,omitempty"`

	GISLink          string `json:"gis_link,omitempty"`
	Mapsco           string `json:"mapsco,omitempty"`
	TADMap           string `json:"tad_map,omitempty"`
	LegalDescription string `json:"legal_description,omitempty"`

	YearBuilt      int     `json:"year_built"`
	AppraisedValue float64 `json:"appraised_value"`
	LandValue      float64 `json:"land_value"`
	LandSqFt       float64 `json:"land_sqft"`
	LivingArea     float64 `json:"living_area"`

	PropertyClass string `json:"property_class"`
	StateUseCode  string `json:"state_use_code"`
	ExemptionCode string `json:"exemption_code,omitempty"`

	// Optional coordinates, present only in sources that carry them.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	HasCoords bool    `json:"-"`

	// Derived at load time.
	Subdivision string  `json:"subdivision,omitempty"`
	Block       string  `json:"block,omitempty"`
	GISShort    string  `json:"gis_short,omitempty"`
	PSF         float64 `json:"psf"`
	RecordURL   string  `json:"record_url"`
}

// Column names used by the appraisal district exports.
const (
	ColOwnerName        = "Owner_Name"
	ColSitusAddress     = "Situs_Address"
	ColGISLink          = "GIS_Link"
	ColCity             = "City"
	ColMapsco           = "MAPSCO"
	ColTADMap           = "TAD_Map"
	ColYearBuilt        = "Year_Built"
	ColAppraisedValue   = "Appraised_Value"
	ColLandValue        = "Land_Value"
	ColLandSqFt         = "Land_SqFt"
	ColLivingArea       = "Living_Area"
	ColAccountNum       = "Account_Num"
	ColLegalDescription = "LegalDescription"
	ColPropertyClass    = "Property_Class"
	ColStateUseCode     = "State_Use_Code"
	ColExemptionCode    = "Exemption_Code"
	ColLatitude         = "Latitude"
	ColLongitude        = "Longitude"
)

// RequiredColumns must be present and non-empty for a row to be loaded.
var RequiredColumns = []string{
	ColSitusAddress,
	ColYearBuilt,
	ColAppraisedValue,
	ColLandValue,
	ColLandSqFt,
	ColLivingArea,
	ColAccountNum,
	ColPropertyClass,
	ColStateUseCode,
}

// AllColumns lists every column the loader understands, in export order.
var AllColumns = []string{
	ColOwnerName, ColSitusAddress, ColGISLink, ColCity, ColMapsco, ColTADMap,
	ColYearBuilt, ColAppraisedValue, ColLandValue, ColLandSqFt, ColLivingArea,
	ColAccountNum, ColLegalDescription, ColPropertyClass, ColStateUseCode,
	ColExemptionCode, ColLatitude, ColLongitude,
}
