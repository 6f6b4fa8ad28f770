package preview

import (
	"fmt"

	"github.com/atlasinovacoes/portalperf/internal/catalog"
)

// DefaultSubject builds the conventional email subject for a unit's
// report: "Medição {unit} - {Month}/{Year}". An unparseable month
// reference is used verbatim.
func DefaultSubject(unitName, monthRef string) string {
	year, month, ok := catalog.ParseMonthRef(monthRef)
	if !ok {
		return fmt.Sprintf("Medição %s - %s", unitName, monthRef)
	}
	return fmt.Sprintf("Medição %s - %s/%d", unitName, catalog.MonthName(month), year)
}
