// cmd/registryctl/commands.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/stratacatalog/internal/app/adminclient"
	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/spf13/cobra"
)

func normalizeCmd(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Parse and normalize a registry file",
		Long: `Parse a registry file (or - for stdin), normalize it to canonical form
and print the result. Malformed documents print every issue and exit non-zero.

Examples:
  registryctl normalize registry.json
  registryctl normalize raw.json -o registry.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := parseFile(cmd, args[0])
			if err != nil {
				return err
			}
			return writeRegistry(cmd, output, reg)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func validateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Run the pre-save checks on a draft",
		Long: `Normalize a draft and run the checks a save performs before any network
call: every item has a name, slugs are unique per brand, and purchase
links are http(s).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := parseFile(cmd, args[0])
			if err != nil {
				return err
			}
			if err := registry.ValidateDraft(reg); err != nil {
				printIssues(cmd.OutOrStdout(), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d brands, %d items\n", reg.Brands.Len(), reg.ItemCount())
			return nil
		},
	}
}

func fetchCmd(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Load the published registry",
		Long: `Load the registry the way the site does: the --registry-url when set,
otherwise /registry.json then /CONTENT/registry.json under --base-url.
Prints the source used, the change-token and counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.loader().Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			token := res.ChangeToken
			if token == "" {
				token = "(none)"
			}
			fmt.Fprintf(out, "source:       %s\n", res.SourceUsed)
			fmt.Fprintf(out, "remote:       %t\n", res.Remote)
			fmt.Fprintf(out, "change-token: %s\n", token)
			fmt.Fprintf(out, "brands:       %d\n", res.Registry.Brands.Len())
			fmt.Fprintf(out, "items:        %d\n", res.Registry.ItemCount())
			if output != "" {
				return writeRegistry(cmd, output, res.Registry)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the normalized registry to a file")
	return cmd
}

func parseFile(cmd *cobra.Command, name string) (*models.Registry, error) {
	raw, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Parse(raw)
	if err != nil {
		printIssues(cmd.OutOrStdout(), err)
		return nil, err
	}
	return reg, nil
}

func writeRegistry(cmd *cobra.Command, path string, reg *models.Registry) error {
	b, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "" {
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// printIssues lists the findings carried by a local validation error or a
// commit the server rejected.
func printIssues(w io.Writer, err error) {
	var issues []registry.Issue
	var ve *registry.ValidationError
	var ce *adminclient.CommitError
	switch {
	case errors.As(err, &ve):
		issues = ve.Issues
	case errors.As(err, &ce):
		issues = ce.Issues
	}
	for _, is := range issues {
		fmt.Fprintf(w, "  %s: %s\n", is.Path, is.Message)
	}
}
