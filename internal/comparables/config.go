package comparables

import (
	"errors"
	"fmt"
)

// Config holds the calibration policy for comparable selection and valuation.
// Jurisdictions differ on every one of these, so none of them is inlined.
type Config struct {
	// Range filter.
	YearTolerance  int     `yaml:"year_tolerance"`   // ± years built
	LivingAreaBand float64 `yaml:"living_area_band"` // ± fraction of subject living area
	LandAreaBand   float64 `yaml:"land_area_band"`   // ± fraction of subject land area
	PSFLow         float64 `yaml:"psf_low"`          // lower PSF bound as fraction of subject
	PSFHigh        float64 `yaml:"psf_high"`         // upper PSF bound as fraction of subject

	// Adjusted value coefficients.
	LivingAreaRate float64 `yaml:"living_area_rate"` // $ per sq ft of living area difference
	LandValueRate  float64 `yaml:"land_value_rate"`  // $ per $ of land value difference
	AgeRate        float64 `yaml:"age_rate"`         // fraction of comp value per year of age difference

	TaxRate float64 `yaml:"tax_rate"`

	// Classification.
	MinComparables int     `yaml:"min_comparables"`
	MinSavings     float64 `yaml:"min_savings"`

	// Lower valuation subset: pools smaller than SmallPoolSize use the wider cutoff.
	SmallPoolSize   int     `yaml:"small_pool_size"`
	SmallPoolCutoff float64 `yaml:"small_pool_cutoff"`
	LargePoolCutoff float64 `yaml:"large_pool_cutoff"`

	HistogramBins int `yaml:"histogram_bins"`

	// RequireSameZoning drops comparables in a different zoning district. It only
	// applies when a zoning index is attached and the subject has coordinates.
	RequireSameZoning bool `yaml:"require_same_zoning"`
}

// DefaultConfig returns the Tarrant County calibration.
func DefaultConfig() Config {
	return Config{
		YearTolerance:   20,
		LivingAreaBand:  0.15,
		LandAreaBand:    0.15,
		PSFLow:          0.5,
		PSFHigh:         1.5,
		LivingAreaRate:  70,
		LandValueRate:   1,
		AgeRate:         0.005,
		TaxRate:         0.025,
		MinComparables:  6,
		MinSavings:      250,
		SmallPoolSize:   10,
		SmallPoolCutoff: 0.70,
		LargePoolCutoff: 0.90,
		HistogramBins:   20,
	}
}

// Validate reports every setting that would make the engine misbehave.
func (c Config) Validate() error {
	var errs []error
	if c.YearTolerance < 0 {
		errs = append(errs, fmt.Errorf("year_tolerance must be >= 0, got %d", c.YearTolerance))
	}
	if c.LivingAreaBand < 0 || c.LivingAreaBand >= 1 {
		errs = append(errs, fmt.Errorf("living_area_band must be in [0,1), got %g", c.LivingAreaBand))
	}
	if c.LandAreaBand < 0 || c.LandAreaBand >= 1 {
		errs = append(errs, fmt.Errorf("land_area_band must be in [0,1), got %g", c.LandAreaBand))
	}
	if c.PSFLow < 0 || c.PSFHigh < c.PSFLow {
		errs = append(errs, fmt.Errorf("psf band [%g,%g] is invalid", c.PSFLow, c.PSFHigh))
	}
	if c.TaxRate < 0 {
		errs = append(errs, fmt.Errorf("tax_rate must be >= 0, got %g", c.TaxRate))
	}
	if c.MinComparables < 1 {
		errs = append(errs, fmt.Errorf("min_comparables must be >= 1, got %d", c.MinComparables))
	}
	if c.SmallPoolCutoff <= 0 || c.LargePoolCutoff <= 0 {
		errs = append(errs, errors.New("lower valuation cutoffs must be > 0"))
	}
	if c.HistogramBins < 1 {
		errs = append(errs, fmt.Errorf("histogram_bins must be >= 1, got %d", c.HistogramBins))
	}
	return errors.Join(errs...)
}

// cutoff returns the lower-subset floor as a fraction of the median PSF.
func (c Config) cutoff(pool int) float64 {
	if pool < c.SmallPoolSize {
		return c.SmallPoolCutoff
	}
	return c.LargePoolCutoff
}
