package bench

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// ErrNoRecords is returned when a report has nothing to show.
var ErrNoRecords = errors.New("no benchmark records")

// Curve is a reference complexity in N.
type Curve struct {
	Name string
	F    func(n float64) float64
}

// Curves are the reference complexities drawn next to measured times.
var Curves = []Curve{
	{"O(n)", func(n float64) float64 { return n }},
	{"O(n log n)", func(n float64) float64 { return n * math.Log2(n) }},
	{"O(n^2)", func(n float64) float64 { return n * n }},
	{"O(n^2 log n)", func(n float64) float64 { return n * n * math.Log2(n) }},
	{"O(n^3)", func(n float64) float64 { return n * n * n }},
}

// Growth returns the empirical exponent between consecutive sizes:
// log(t2/t1) / log(n2/n1). An O(N^3) strategy tends to 3. Pairs with a
// missing or non-positive time give NaN.
func Growth(records []Record, name string) []float64 {
	if len(records) < 2 {
		return nil
	}
	out := make([]float64, len(records)-1)
	for i := 1; i < len(records); i++ {
		t0, ok0 := records[i-1].Seconds[name]
		t1, ok1 := records[i].Seconds[name]
		if !ok0 || !ok1 || t0 <= 0 || t1 <= 0 {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = math.Log2(t1/t0) / math.Log2(float64(records[i].Size)/float64(records[i-1].Size))
	}
	return out
}

// Anchor returns the index of the first record where c is positive, or -1.
// The log curves are 0 at N=1 and cannot be scaled there.
func (c Curve) Anchor(records []Record) int {
	for i, r := range records {
		if c.F(float64(r.Size)) > 0 {
			return i
		}
	}
	return -1
}

// Scaled evaluates c at every size, scaled so the value at the anchor
// record equals base. Without an anchor every value is NaN.
func (c Curve) Scaled(records []Record, base float64) []float64 {
	out := make([]float64, len(records))
	j := c.Anchor(records)
	if j < 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	at := c.F(float64(records[j].Size))
	for i, r := range records {
		out[i] = c.F(float64(r.Size)) * base / at
	}
	return out
}

// Report writes the measured times of names next to the reference curves,
// each scaled to the time of normalizeTo ("" selects names[0]) at the
// curve's anchor,
// followed by the empirical growth of each strategy.
func Report(w io.Writer, names []string, records []Record, normalizeTo string) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	if len(names) == 0 {
		return ErrNoStrategies
	}
	if normalizeTo == "" {
		normalizeTo = names[0]
	}
	if !slices.Contains(names, normalizeTo) {
		return fmt.Errorf("normalize to %q: not one of %v", normalizeTo, names)
	}
	scaled := make([][]float64, len(Curves))
	for i, c := range Curves {
		var base float64
		if j := c.Anchor(records); j >= 0 {
			base = records[j].Seconds[normalizeTo]
		}
		scaled[i] = c.Scaled(records, base)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "N\t")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t", name)
	}
	for _, c := range Curves {
		fmt.Fprintf(tw, "%s\t", c.Name)
	}
	fmt.Fprintln(tw)
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t", r.Size)
		for _, name := range names {
			secs, ok := r.Seconds[name]
			if !ok {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%s\t", Seconds(secs))
		}
		for j := range Curves {
			if math.IsNaN(scaled[j][i]) {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%s\t", Seconds(scaled[j][i]))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(records) > 1 {
		fmt.Fprintf(w, "\ngrowth exponent per size step (curves normalized to %s)\n", normalizeTo)
		for _, name := range names {
			fmt.Fprintf(w, "  %s:", name)
			for _, g := range Growth(records, name) {
				fmt.Fprintf(w, " %.2f", g)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// Seconds formats a duration in seconds with an SI prefix.
func Seconds(secs float64) string {
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return fmt.Sprint(secs)
	}
	return humanize.SIWithDigits(secs, 3, "s")
}
