package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marians/genesisclient/internal/config"
	"github.com/marians/genesisclient/internal/core"
	"github.com/marians/genesisclient/internal/store"
	"github.com/marians/genesisclient/pkg/genesis"
)

// =============================================================================
// SEARCH
// =============================================================================

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit    int
		category string
	)
	cmd := &cobra.Command{
		Use:   "search SEARCHTERM",
		Short: "Find an item using the search engine (Lucene syntax)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			res, err := c.Search(cmd.Context(), genesis.SearchOptions{
				Term:     args[0],
				Limit:    limit,
				Category: genesis.Category(category),
			})
			if err != nil {
				return err
			}
			printSearch(cmd, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", genesis.DefaultLimit, "maximum number of hits")
	cmd.Flags().StringVar(&category, "category", string(genesis.CategoryAll), "Tabelle, Zeitreihe, Datenquader, Merkmal, Statistik or alle")
	return cmd
}

func printSearch(cmd *cobra.Command, res *genesis.SearchResult) {
	out := cmd.OutOrStdout()
	for _, cat := range res.Categories() {
		headColor.Fprintf(out, "Hits of type '%s': %d\n", strings.ToUpper(cat), res.Meta[cat])
	}
	for _, hit := range res.Results {
		otype := strings.ToUpper(core.Deref(hit.Type))
		name := core.Clean(core.Deref(hit.Name))
		switch otype {
		case "MERKMAL", "STATISTIK", "TABELLE":
			typeColor.Fprint(out, otype)
			fprintf(cmd, " %s %s\n", name, core.Deref(hit.Description))
		case "BEGRIFF":
			typeColor.Fprint(out, otype)
			fprintf(cmd, " %s\n", name)
		default:
			typeColor.Fprint(out, otype)
			fprintf(cmd, " %s %s %s\n", hit.ID, name, core.Deref(hit.Description))
		}
	}
}

// =============================================================================
// LOOKUP
// =============================================================================

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup FILTER",
		Short: "Get information on the table, property etc. with the key FILTER (* works as wildcard)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			res, err := c.Lookup(cmd.Context(), args[0])
			if res != nil {
				printLookup(cmd, res)
			}
			if err != nil {
				return err
			}
			return res.Err()
		},
	}
}

func printLookup(cmd *cobra.Command, res *genesis.LookupResult) {
	for _, section := range res.Sections {
		if section.Err != nil {
			errColor.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", section.Label, section.Err)
			continue
		}
		for _, e := range section.Entries {
			text := e.Description
			if section.Label == genesis.SectionPropertyData {
				text = e.LongDescription
			}
			headColor.Fprintf(cmd.OutOrStdout(), "%s:", section.Label)
			fprintf(cmd, " %s %s\n", e.ID, core.Deref(text))
		}
	}
}

// =============================================================================
// DOWNLOAD
// =============================================================================

func newDownloadCmd(a *app) *cobra.Command {
	var (
		regionKey string
		format    string
		dir       string
	)
	cmd := &cobra.Command{
		Use:   "download TABLE_ID",
		Short: "Download the table with the ID TABLE_ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.ParseFormat(format)
			if err != nil {
				return err
			}
			if dir != "" {
				a.cfg.Store.Kind = config.StoreLocal
				a.cfg.Store.Dir = dir
			}
			objects, err := store.Open(a.cfg.Store)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			opts := genesis.ExportOptions{TableCode: args[0], RegionKey: regionKey, Format: f}
			target := (&genesis.ExportedTable{TableCode: opts.TableCode, RegionKey: regionKey, Format: f}).FileName()
			fprintf(cmd, "Downloading to file %s\n", target)

			table, err := c.TableExport(cmd.Context(), opts)
			if err != nil {
				return err
			}
			location, err := store.SaveExport(cmd.Context(), objects, table)
			if err != nil {
				return fmt.Errorf("save %s: %w", target, err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", len(table.Payload.Bytes()), location)
			return nil
		},
	}
	cmd.Flags().StringVar(&regionKey, "rs", "*", "Only select data for region key RS")
	cmd.Flags().StringVarP(&format, "format", "f", string(core.FormatCSV), "Download data in this format (csv, html, xls)")
	cmd.Flags().StringVar(&dir, "dir", "", "write into this directory instead of the configured store")
	return cmd
}

// =============================================================================
// CATALOGUES
// =============================================================================

func newTermsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "terms [FILTER]",
		Short: "List search terms, e.g. 'bev*'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			opts := genesis.FilterOptions{Limit: limit}
			if len(args) == 1 {
				opts.Filter = args[0]
			}
			entries, err := c.Terms(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fprintf(cmd, "%s %s\n", e.ID, core.Deref(e.Description))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", genesis.DefaultTermsLimit, "maximum number of terms")
	return cmd
}

func newCatalogueCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "catalogue [FILTER]",
		Short: "Print the raw data catalogue, e.g. for '11111*'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			opts := genesis.FilterOptions{Limit: limit}
			if len(args) == 1 {
				opts.Filter = args[0]
			}
			raw, err := c.Catalogue(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", genesis.DefaultLimit, "maximum number of entries")
	return cmd
}

// =============================================================================
// PING
// =============================================================================

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the site's test service answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.Ping(cmd.Context()); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%s OK\n", a.cfg.Site)
			return nil
		},
	}
}
