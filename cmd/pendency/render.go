package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/domain/pendency"
)

const brDate = "02/01/2006"

var (
	brPrinter = message.NewPrinter(language.BrazilianPortuguese)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	lateStyle   = cellStyle.Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// formatBRL renders an amount as "R$ 1.234,56"
func formatBRL(amount decimal.Decimal) string {
	return "R$ " + brPrinter.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(2)))
}

func renderValidation(w io.Writer, raw string, result pendencyapp.ValidationResult) {
	if !result.Valid {
		fmt.Fprintf(w, "%q is not a valid CPF or CNPJ\n", raw)
		return
	}
	fmt.Fprintf(w, "%s %s is valid\n", result.Kind, result.Formatted)
}

func renderSearch(w io.Writer, result *pendency.SearchResult) {
	fmt.Fprintf(w, "%s %s\n\n", result.TaxID.Kind(), result.TaxID.Masked())

	if len(result.Records) == 0 {
		if result.AllFailed() {
			fmt.Fprintln(w, warnStyle.Render("No provider answered; the result is unknown."))
		} else {
			fmt.Fprintln(w, "No debts found.")
		}
	} else {
		fmt.Fprintln(w, recordsTable(result.Records))
		fmt.Fprintf(w, "%d debt(s), total %s\n", len(result.Records), formatBRL(pendency.TotalCurrentAmount(result.Records)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, outcomesTable(result.Outcomes))
	if result.Degraded() && !result.AllFailed() {
		fmt.Fprintln(w, warnStyle.Render("Some providers failed; the list may be incomplete."))
	}
}

func recordsTable(records []pendency.DebtRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Creditor,
			r.Description,
			formatBRL(r.CurrentAmount),
			r.DueDate.Format(brDate),
			string(r.Status),
			string(r.Type),
			r.Source,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CREDITOR", "DESCRIPTION", "AMOUNT", "DUE", "STATUS", "TYPE", "SOURCE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case records[row].Status == pendency.StatusLate:
				return lateStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func outcomesTable(outcomes []pendency.ProviderOutcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{
			o.Provider.DisplayName(),
			string(o.Status),
			fmt.Sprint(o.Records),
			o.Duration.Round(time.Millisecond).String(),
			o.Error,
		})
	}

	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("PROVIDER", "STATUS", "RECORDS", "TIME", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
