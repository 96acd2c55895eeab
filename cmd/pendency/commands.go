package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/domain/pendency"
)

var errInvalidTaxID = errors.New("not a valid CPF or CNPJ")

func validateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tax-id>",
		Short: "Check a CPF or CNPJ without querying any provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// validation never touches configuration
			svc := pendencyapp.NewSearchService(nil, nil, opts.log)
			result := svc.ValidateTaxID(args[0])
			renderValidation(cmd.OutOrStdout(), args[0], result)
			if !result.Valid {
				return errInvalidTaxID
			}
			return nil
		},
	}
}

func searchCommand(opts *options) *cobra.Command {
	var (
		keys   []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <tax-id>",
		Short: "Search every configured provider for debts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := parseKeys(keys)
			if err != nil {
				return err
			}
			svc, err := newService(opts)
			if err != nil {
				return err
			}

			result, err := svc.Search(cmd.Context(), pendencyapp.SearchRequest{
				TaxID:       args[0],
				Credentials: creds,
			})
			if errors.Is(err, pendency.ErrInvalidTaxID) {
				return errInvalidTaxID
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			renderSearch(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&keys, "key", "k", nil, "provider credential as PROVIDER=KEY (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// parseKeys turns PROVIDER=KEY pairs into credentials. Provider names are
// matched case-insensitively and may use '-' for '_'.
func parseKeys(pairs []string) (pendency.Credentials, error) {
	creds := make(pendency.Credentials, len(pairs))
	for _, pair := range pairs {
		name, key, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --key %q: expected PROVIDER=KEY", pair)
		}
		code, err := pendency.ParseProviderCode(name)
		if err != nil {
			return nil, fmt.Errorf("invalid --key %q: %w", pair, err)
		}
		creds[code] = strings.TrimSpace(key)
	}
	return creds, nil
}

type jsonOutcome struct {
	pendency.ProviderOutcome
	DurationMS int64 `json:"duration_ms"`
}

type jsonResult struct {
	TaxID       string                `json:"tax_id"`
	Kind        pendency.TaxIDKind    `json:"kind"`
	Records     []pendency.DebtRecord `json:"records"`
	Outcomes    []jsonOutcome         `json:"outcomes"`
	TotalAmount string                `json:"total_amount"`
	Degraded    bool                  `json:"degraded"`
	AllFailed   bool                  `json:"all_failed"`
}

func writeJSON(w io.Writer, result *pendency.SearchResult) error {
	out := jsonResult{
		TaxID:       result.TaxID.Masked(),
		Kind:        result.TaxID.Kind(),
		Records:     result.Records,
		Outcomes:    make([]jsonOutcome, 0, len(result.Outcomes)),
		TotalAmount: pendency.TotalCurrentAmount(result.Records).StringFixed(2),
		Degraded:    result.Degraded(),
		AllFailed:   result.AllFailed(),
	}
	if out.Records == nil {
		out.Records = []pendency.DebtRecord{}
	}
	for _, o := range result.Outcomes {
		out.Outcomes = append(out.Outcomes, jsonOutcome{ProviderOutcome: o, DurationMS: o.Duration.Milliseconds()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
