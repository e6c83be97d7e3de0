package model

import "github.com/shopspring/decimal"

// HazardClass is one harmonised CLP classification line for a substance:
// the hazard class/category it belongs to and the H-statement it carries.
type HazardClass struct {
	Class    string
	Category string
	HCode    string
	Route    string
}

// MFactors are the aquatic-toxicity multipliers used by HP14. A nil value
// (represented here by IsZero after default-construction) means "not set";
// callers default to 1 via MFactors.AcuteOrDefault/ChronicOrDefault.
type MFactors struct {
	Acute   decimal.Decimal
	Chronic decimal.Decimal
}

// AcuteOrDefault returns the acute M-factor, defaulting to 1 when unset.
func (m MFactors) AcuteOrDefault() decimal.Decimal {
	if m.Acute.IsZero() {
		return decimal.NewFromInt(1)
	}
	return m.Acute
}

// ChronicOrDefault returns the chronic M-factor, defaulting to 1 when unset.
func (m MFactors) ChronicOrDefault() decimal.Decimal {
	if m.Chronic.IsZero() {
		return decimal.NewFromInt(1)
	}
	return m.Chronic
}

// ClpEntry is the immutable per-compound dossier the CLP database
// (internal/clp) loads at startup: compound identity, hazard classes,
// M-factors, and any specific concentration limits.
type ClpEntry struct {
	CompoundLabel string
	CAS           string
	HazardClasses []HazardClass
	MFactors      MFactors
	// SCLs maps "<class>.<category>" (e.g. "Repr.1A") to a % w/w threshold
	// that overrides the generic concentration limit for that hazard line.
	SCLs map[string]decimal.Decimal
}

// HasHCode reports whether the entry carries exactly this H-code.
func (c *ClpEntry) HasHCode(code string) bool {
	for _, hc := range c.HazardClasses {
		if hc.HCode == code {
			return true
		}
	}
	return false
}

// HasHCodePrefix reports whether the entry carries an H-code beginning
// with prefix (e.g. "H350" matches the H350i sub-variant).
func (c *ClpEntry) HasHCodePrefix(prefix string) bool {
	for _, hc := range c.HazardClasses {
		if len(hc.HCode) >= len(prefix) && hc.HCode[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// FindHCodePrefix returns the first hazard class whose H-code starts with
// prefix, or nil.
func (c *ClpEntry) FindHCodePrefix(prefix string) *HazardClass {
	for i := range c.HazardClasses {
		hc := &c.HazardClasses[i]
		if len(hc.HCode) >= len(prefix) && hc.HCode[:len(prefix)] == prefix {
			return hc
		}
	}
	return nil
}

// SCL looks up a specific concentration limit by hazard key ("Repr.1A").
func (c *ClpEntry) SCL(key string) (decimal.Decimal, bool) {
	v, ok := c.SCLs[key]
	return v, ok
}

// MetalSpeciation records the worst-case CLP compound a lab-reported
// elemental metal reading is converted to, and the mass-conversion factor
// MW(compound) / (n * MW(element)).
type MetalSpeciation struct {
	Substance        string
	Compound         string
	CAS              string
	ConversionFactor decimal.Decimal
	ConversionNote   string
}

// PahDirect is a PAH with a direct CAS mapping (conversion factor 1.0,
// since the lab already reports the compound, not an element).
type PahDirect struct {
	Substance string
	CAS       string
}

// SpeciatedView is a resolved substance: its CLP entry plus the
// concentration converted to percent by weight.
type SpeciatedView struct {
	CanonicalKey     string
	RawName          string
	Compound         string
	CAS              string
	Entry            *ClpEntry
	ConcentrationPct decimal.Decimal
	BelowDetection   bool
	NoSpeciation     bool
}
