package report

import (
	"fmt"
	"strings"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

// Disclaimer печатается под каждым отчётом.
const Disclaimer = "All results are probabilistic estimates. This report does not guarantee 100% accuracy " +
	"and should be used to support, not replace, human institutional verification."

// Card: текстовая карточка вердикта для чатов и логов.
func Card(r forensic.Result) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "%s — %d%%\n", r.Verdict.Label(), r.Confidence)
	if c := strings.TrimSpace(r.Category); c != "" {
		_, _ = fmt.Fprintf(&b, "Category: %s\n", c)
	}
	if e := strings.TrimSpace(r.Explanation); e != "" {
		_, _ = fmt.Fprintf(&b, "\n%q\n", e)
	}
	if len(r.Signals) > 0 {
		b.WriteString("\nTechnical evidence:\n")
		for _, s := range r.Signals {
			_, _ = fmt.Fprintf(&b, "• [%s] %s: %s\n", s.Intensity, s.Label, s.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
