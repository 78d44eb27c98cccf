package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zonova/leadscout/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for businesses and qualify leads",
	Long:  "Runs a Places text search, enriches each hit with details, and lists the businesses that qualify as leads (no website, phone present, enough reviews, operational).",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		query := strings.Join(args, " ")
		result, err := env.Orchestrator.Search(ctx, query)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if result.Notice != "" {
			fmt.Fprintln(os.Stderr, result.Notice)
			return nil
		}
		if len(result.Leads) == 0 {
			fmt.Fprintln(os.Stderr, "No businesses found.")
			return nil
		}

		formatLeads(os.Stdout, result.Leads, env.Adapter.SavedPlaceIDs())

		save, _ := cmd.Flags().GetBool("save")
		if !save {
			return nil
		}

		for _, lead := range result.Leads {
			added, err := env.Coordinator.AddLead(ctx, lead)
			if err != nil {
				zap.L().Error("save lead failed",
					zap.String("business", lead.DisplayName),
					zap.Error(err),
				)
				continue
			}
			fmt.Printf("%s: %s\n", lead.DisplayName, added.Message)
		}

		return nil
	},
}

func init() {
	searchCmd.Flags().Bool("save", false, "save every qualified lead to the pipeline")
	rootCmd.AddCommand(searchCmd)
}

// formatLeads writes a tabular list of qualified leads to w. Leads already in
// the pipeline are marked saved.
func formatLeads(out io.Writer, leads []model.QualifiedLead, saved map[string]bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSCORE\tRATING\tREVIEWS\tPHONE\tWHATSAPP\tADDRESS\t")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-------\t-----\t--------\t-------\t")

	for _, lead := range leads {
		marker := ""
		if saved[lead.ID] {
			marker = "saved"
		}

		address := lead.FormattedAddress
		if len(address) > 40 {
			address = address[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\t%s\t%s\t%s\n",
			lead.DisplayName,
			lead.Score,
			lead.Rating,
			lead.UserRatingCount,
			lead.NationalPhone,
			lead.WhatsApp,
			address,
			marker,
		)
	}
	_ = w.Flush()
}
