package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese name for a 1-based month number, or
// empty for out-of-range values.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// FormatMonthRef renders a "YYYY-MM" reference as "Month/Year" for
// display. Unparseable references come back unchanged.
func FormatMonthRef(ref string) string {
	year, month, ok := ParseMonthRef(ref)
	if !ok {
		return ref
	}
	return fmt.Sprintf("%s/%d", MonthName(month), year)
}

// ParseMonthRef splits a "YYYY-MM" reference into its parts.
func ParseMonthRef(ref string) (year, month int, ok bool) {
	parts := strings.SplitN(ref, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
