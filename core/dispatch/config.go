package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// CoverageRadiusKm is the maximum distance considered "in coverage".
	// Informational only: a dispatch beyond the radius is flagged on the
	// selection, never blocked.
	CoverageRadiusKm float64 `json:"coverage_radius_km"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.CoverageRadiusKm <= 0 {
		c.CoverageRadiusKm = 15
	}
}
