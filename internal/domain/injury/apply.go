package injury

// Adjustment is the valuation change an injury causes.
type Adjustment struct {
	PreviousValue  float64        `json:"previousValue"`
	NewValue       float64        `json:"newValue"`
	Classification Classification `json:"classification"`
}

// Apply discounts value by the impact of code. Unknown codes report false;
// they are a data error, not a zero-impact injury.
func (c *Catalog) Apply(value float64, code string) (Adjustment, bool) {
	cl, ok := c.Classify(code)
	if !ok {
		return Adjustment{}, false
	}
	return Adjustment{
		PreviousValue:  value,
		NewValue:       value * (1 - cl.ImpactPct/100),
		Classification: cl,
	}, true
}

// Apply uses the built-in catalog.
func Apply(value float64, code string) (Adjustment, bool) { return defaultCatalog.Apply(value, code) }
