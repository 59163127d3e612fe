package valuation

import (
	"context"
	"fmt"
	"strings"
)

// Explainer turns score breakdowns into prose. A language model usually
// sits behind it.
type Explainer interface {
	Explain(ctx context.Context, breakdown []Component) (string, error)
}

// TemplateExplainer renders a fixed sentence per component.
type TemplateExplainer struct{}

// Explain implements Explainer.
func (TemplateExplainer) Explain(_ context.Context, breakdown []Component) (string, error) {
	if len(breakdown) == 0 {
		return "no change", nil
	}
	parts := make([]string, 0, len(breakdown))
	for _, c := range breakdown {
		switch {
		case c.Delta > 0:
			parts = append(parts, fmt.Sprintf("%s raised the value by %.2f", c.Name, c.Delta))
		case c.Delta < 0:
			parts = append(parts, fmt.Sprintf("%s lowered the value by %.2f", c.Name, -c.Delta))
		default:
			parts = append(parts, c.Name+" left the value unchanged")
		}
	}
	return strings.Join(parts, "; "), nil
}
