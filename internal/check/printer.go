package check

import (
	"fmt"
	"time"
)

// RenderPrintedLines produces the guest-facing receipt body for a check.
// Rendered on every create, append and close so the stored check always
// carries a current printout.
func RenderPrintedLines(c *Check, now time.Time) PrintedLines {
	lines := []string{
		fmt.Sprintf("%d STS                            Page 1", c.Header.CheckNumber),
		"----------------------------------------",
		fmt.Sprintf("CHK %d                           TBL %s", c.Header.CheckNumber, c.Header.TableName),
		fmt.Sprintf("               %s                ", now.Format("01/02/2006")),
		"----------------------------------------",
		"       DineIn                           ",
	}

	for _, item := range c.MenuItems {
		lines = append(lines, fmt.Sprintf(" %d %-20s %10.2f      ", item.Quantity, item.Sku, item.Total))
	}
	if len(c.MenuItems) > 0 {
		lines = append(lines,
			fmt.Sprintf("   Subtotal                $%.2f      ", c.Totals.Subtotal),
			fmt.Sprintf("   Tax                     $%.2f      ", c.Totals.TaxTotal),
			fmt.Sprintf("   Service                 $%.2f      ", c.Totals.ServiceChargeTotal),
			fmt.Sprintf("   Total                   $%.2f      ", c.Totals.TotalDue),
		)
	}

	if c.Header.Status == StatusClosed {
		lines = append(lines, "  ----------- Check Closed -----------  ")
	} else {
		lines = append(lines, "  ----------- Check Open -----------  ")
	}
	lines = append(lines, fmt.Sprintf("           %s            ", now.Format("01/02/2006 3:04:05 PM")))

	return PrintedLines{Lines: lines}
}
