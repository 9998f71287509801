package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"salesdash/internal/validation"
	"salesdash/pkg/contracts/domain"
)

// writeSummary prints a dashboard as plain text tables.
func writeSummary(w io.Writer, d *domain.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n\n", d.Header)
	if d.Empty {
		fmt.Fprintln(tw, "No sales match the selection.")
		fmt.Fprintf(tw, "\n%s\n", d.Footer)
		return tw.Flush()
	}

	fmt.Fprintln(tw, "KPI\tValue")
	fmt.Fprintf(tw, "Total Products\t%d\n", d.KPIs.TotalProducts)
	fmt.Fprintf(tw, "Cities\t%d\n", d.KPIs.Cities)
	fmt.Fprintf(tw, "Quantity Ordered\t%d\n", d.KPIs.QuantityOrdered)
	fmt.Fprintf(tw, "Revenue\t%s\n", d.KPIs.RevenueDisplay)

	fmt.Fprintf(tw, "\n%s\n", d.Charts.WeeklyTrend)
	for _, p := range d.WeeklyTrend {
		fmt.Fprintf(tw, "%s\t%.2f\n", p.Day, p.Amount)
	}

	fmt.Fprintf(tw, "\n%s\n", d.Charts.ProductPerformance)
	fmt.Fprintln(tw, "Product\tQuantity\tAmount")
	for _, p := range d.ProductPerformance {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", p.Product, p.Quantity, p.Amount)
	}

	fmt.Fprintf(tw, "\n%s\n", d.Charts.CityRevenue)
	for _, c := range d.CityRevenue {
		fmt.Fprintf(tw, "%s\t%.2f\n", c.City, c.Revenue)
	}

	fmt.Fprintf(tw, "\n%s\n", d.Charts.ProductByCity)
	writePivot(tw, d.ProductByCity)

	fmt.Fprintf(tw, "\n%d rows, dataset %s\n%s\n", d.RowCount, d.DatasetVersion, d.Footer)
	return tw.Flush()
}

// writePivot prints one line per city. Missing cells print as "-".
func writePivot(w io.Writer, p domain.ProductByCity) {
	fmt.Fprintf(w, "City\t%s\n", strings.Join(p.Products, "\t"))
	for i, city := range p.Cities {
		cells := make([]string, len(p.Products))
		for j := range p.Products {
			cells[j] = "-"
			if i < len(p.Values) && j < len(p.Values[i]) && p.Values[i][j] != nil {
				cells[j] = fmt.Sprintf("%.2f", *p.Values[i][j])
			}
		}
		fmt.Fprintf(w, "%s\t%s\n", city, strings.Join(cells, "\t"))
	}
}

func writeOptions(w io.Writer, o *domain.FilterOptions) {
	fmt.Fprintf(w, "Products (%d):\n", len(o.Products))
	for _, p := range o.Products {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintf(w, "Cities (%d):\n", len(o.Cities))
	for _, c := range o.Cities {
		fmt.Fprintf(w, "  %s\n", c)
	}
	fmt.Fprintf(w, "Months (%d):\n", len(o.Months))
	for _, m := range o.Months {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

// runCheck prints one line per problem and reports whether all passed.
func runCheck(w io.Writer, v *validation.FileValidator, files []string, exportsDir string) bool {
	ok := true
	problems := v.ValidateSources(files)
	for _, p := range problems {
		fmt.Fprintf(w, "FAIL %s\n", p.Error())
		ok = false
	}
	fmt.Fprintf(w, "%d of %d sources readable\n", len(files)-len(problems), len(files))

	if err := v.ValidateOutputDirectory(exportsDir); err != nil {
		fmt.Fprintf(w, "FAIL exports directory: %v\n", err)
		ok = false
	} else {
		fmt.Fprintf(w, "exports directory %s is writable\n", exportsDir)
	}
	return ok
}
