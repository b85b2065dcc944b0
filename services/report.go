package services

import (
	"fmt"
	"io"
	"strings"

	"fairprice/models"
	"fairprice/utils"
)

// ReportService renders scoring outcomes for the terminal.
type ReportService struct {
	out    io.Writer
	logger *utils.Logger
}

func NewReportService(out io.Writer, logger *utils.Logger) *ReportService {
	return &ReportService{out: out, logger: logger}
}

var labelColours = map[models.Label]string{
	models.Underpriced:  "\033[1;32m",
	models.FairlyPriced: "\033[1;34m",
	models.Overpriced:   "\033[1;31m",
}

var labelHeadlines = map[models.Label]string{
	models.Underpriced:  "UNDERPRICED",
	models.FairlyPriced: "FAIRLY PRICED",
	models.Overpriced:   "OVERPRICED",
}

func (s *ReportService) Print(r *models.ScoringResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	w := s.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 FAIRPRICE CHECK\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Verdict
	fmt.Fprintf(w, "\033[1;33m  Verdict\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %s/%s at \033[1mKES %s\033[0m\n", r.State, r.Locality, formatKES(r.ListedPrice))
	fmt.Fprintf(w, "  %s%s\033[0m (confidence %.1f%%)\n", labelColours[r.Label], labelHeadlines[r.Label], r.Confidence()*100)
	fmt.Fprintln(w)

	// Probabilities
	fmt.Fprintf(w, "\033[1;33m  Class Probabilities\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for i, p := range r.Probabilities {
		l := models.Label(i)
		bar := strings.Repeat("█", int(p*30+0.5))
		fmt.Fprintf(w, "  %-15s %-30s %5.1f%%\n", l.String(), bar, p*100)
	}
	fmt.Fprintln(w)

	// Locality context
	fmt.Fprintf(w, "\033[1;33m  Locality Price Range\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.Context == nil {
		fmt.Fprintf(w, "  Not available in %s mode\n", r.Mode)
	} else {
		c := r.Context
		fmt.Fprintf(w, "  25th percentile : KES %s\n", formatKES(c.Q25))
		fmt.Fprintf(w, "  Median          : KES %s\n", formatKES(c.Median))
		fmt.Fprintf(w, "  75th percentile : KES %s\n", formatKES(c.Q75))
		fmt.Fprintf(w, "  vs median       : %+.1f%%\n", c.DeviationPct)
		fmt.Fprintf(w, "  Position        : %s\n", c.Summary)
	}
	fmt.Fprintln(w)

	// Derived metrics
	f := r.Features
	fmt.Fprintf(w, "\033[1;33m  Derived Metrics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Price per bedroom  : KES %s\n", formatKES(f.PricePerBedroom))
	fmt.Fprintf(w, "  Price per bathroom : KES %s\n", formatKES(f.PricePerBathroom))
	fmt.Fprintf(w, "  Price position     : %+.3f\n", f.PricePosition)
	fmt.Fprintf(w, "  Bedroom deviation  : %+.2f\n", f.BedroomDeviation)
	fmt.Fprintf(w, "  Bathroom deviation : %+.2f\n", f.BathroomDeviation)
	fmt.Fprintf(w, "  Location density   : %.4f\n", f.LocationDensity)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintFailure renders a refused scoring call. It must never look like a
// low-confidence result.
func (s *ReportService) PrintFailure(err error) {
	s.logger.Debug("[report] failure kind=%s", models.ErrorKind(err))
	fmt.Fprintf(s.out, "\n\033[1;31m  ✗ Cannot classify, reason: %v\033[0m\n\n", err)
}

// formatKES renders a whole-shilling amount with thousands separators.
func formatKES(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
