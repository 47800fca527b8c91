package pricing

import (
	"encoding/json"
	"fmt"
	"strings"
)

const boxWidth = 61

// Format returns the estimate as a box for terminal display.
func Format(e *Estimate) string {
	var sb strings.Builder

	sb.WriteString(boxTop(boxWidth))
	sb.WriteString(boxLine("k3sforge cost estimate", boxWidth))
	sb.WriteString(boxLine(fmt.Sprintf("Cluster: %s  Location: %s", e.Cluster, e.Location), boxWidth))
	sb.WriteString(boxSep(boxWidth))

	sb.WriteString(boxEmpty(boxWidth))
	for _, item := range e.Items {
		line := fmt.Sprintf("%-22s %4d %-8s %10.2f/mo", item.Name, item.Count, item.UnitLabel, item.Monthly.Net)
		sb.WriteString(boxLine(line, boxWidth))
	}

	sb.WriteString(boxDash(boxWidth))
	sb.WriteString(boxLine(fmt.Sprintf("%-36s %10.2f/mo", "Total (net)", e.Total.Net), boxWidth))
	sb.WriteString(boxLine(fmt.Sprintf("%-36s %10.2f/mo", "Total (gross)", e.Total.Gross), boxWidth))
	sb.WriteString(boxEmpty(boxWidth))
	sb.WriteString(boxLine(fmt.Sprintf("Annual estimate: %.2f %s", e.Annual().Gross, e.Currency), boxWidth))
	sb.WriteString(boxBottom(boxWidth))

	fmt.Fprintf(&sb, "\n  Prices: %s list (%s)\n", e.Source, e.Currency)
	sb.WriteString("  Object storage and traffic are billed separately.\n")
	return sb.String()
}

// FormatJSON returns the estimate as indented JSON.
func FormatJSON(e *Estimate) (string, error) {
	data, err := json.MarshalIndent(struct {
		*Estimate
		Annual Price `json:"annual"`
	}{e, e.Annual()}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func boxTop(width int) string {
	return fmt.Sprintf("┌%s┐\n", strings.Repeat("─", width-2))
}

func boxBottom(width int) string {
	return fmt.Sprintf("└%s┘\n", strings.Repeat("─", width-2))
}

func boxSep(width int) string {
	return fmt.Sprintf("├%s┤\n", strings.Repeat("─", width-2))
}

func boxDash(width int) string {
	return fmt.Sprintf("│ %s │\n", strings.Repeat("─", width-4))
}

func boxLine(text string, width int) string {
	padding := width - 4 - len(text)
	if padding < 0 {
		padding = 0
		text = text[:width-4]
	}
	return fmt.Sprintf("│ %s%s │\n", text, strings.Repeat(" ", padding))
}

func boxEmpty(width int) string {
	return fmt.Sprintf("│%s│\n", strings.Repeat(" ", width-2))
}
