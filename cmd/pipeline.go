package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zonova/leadscout/internal/model"
	"github.com/zonova/leadscout/internal/pipeline"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Manage saved leads in the sales pipeline",
	Long:  "Commands for listing saved leads and updating their status, notes, and contact details.",
}

// -- pipeline list --

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline leads, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		status, _ := cmd.Flags().GetString("status")

		leads := env.Adapter.Leads()
		if status != "" {
			if !model.ValidStatus(model.Status(status)) {
				return eris.Errorf("unknown status: %s (valid: %s)", status, statusList())
			}
			filtered := leads[:0]
			for _, lead := range leads {
				if lead.Status == model.Status(status) {
					filtered = append(filtered, lead)
				}
			}
			leads = filtered
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads in the pipeline.")
			return nil
		}

		formatPipeline(os.Stdout, leads)
		return nil
	},
}

// -- pipeline status --

var pipelineStatusCmd = &cobra.Command{
	Use:   "status <lead-id> <status>",
	Short: "Move a lead to another pipeline stage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status := model.Status(args[1])
		if !model.ValidStatus(status) {
			return eris.Errorf("unknown status: %s (valid: %s)", args[1], statusList())
		}

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := resolveLeadID(env.Adapter, args[0])
		if err != nil {
			return err
		}
		if err := env.Adapter.UpdateStatus(ctx, id, status); err != nil {
			return eris.Wrap(err, "pipeline status")
		}

		fmt.Printf("Lead %s moved to %s\n", truncateID(id), status)
		return nil
	},
}

// -- pipeline notes --

var pipelineNotesCmd = &cobra.Command{
	Use:   "notes <lead-id> <text>",
	Short: "Replace the notes on a lead",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := resolveLeadID(env.Adapter, args[0])
		if err != nil {
			return err
		}
		notes := strings.Join(args[1:], " ")
		if err := env.Adapter.UpdateNotes(ctx, id, notes); err != nil {
			return eris.Wrap(err, "pipeline notes")
		}

		fmt.Printf("Notes updated for lead %s\n", truncateID(id))
		return nil
	},
}

// -- pipeline contact --

var pipelineContactCmd = &cobra.Command{
	Use:   "contact <lead-id>",
	Short: "Set a lead's email or website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		email, _ := cmd.Flags().GetString("email")
		web, _ := cmd.Flags().GetString("web")
		if email == "" && web == "" {
			return eris.New("provide --email or --web")
		}

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := resolveLeadID(env.Adapter, args[0])
		if err != nil {
			return err
		}

		if email != "" {
			if err := env.Adapter.UpdateContact(ctx, id, pipeline.ContactFieldEmail, email); err != nil {
				return eris.Wrap(err, "pipeline contact")
			}
		}
		if web != "" {
			if err := env.Adapter.UpdateContact(ctx, id, pipeline.ContactFieldWeb, web); err != nil {
				return eris.Wrap(err, "pipeline contact")
			}
		}

		fmt.Printf("Contact updated for lead %s\n", truncateID(id))
		return nil
	},
}

// -- pipeline delete --

var pipelineDeleteCmd = &cobra.Command{
	Use:   "delete <lead-id>",
	Short: "Remove a lead from the pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := resolveLeadID(env.Adapter, args[0])
		if err != nil {
			return err
		}
		if err := env.Adapter.Delete(ctx, id); err != nil {
			return eris.Wrap(err, "pipeline delete")
		}

		fmt.Printf("Lead %s deleted\n", truncateID(id))
		return nil
	},
}

// -- pipeline refresh --

var pipelineRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the pipeline from the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Adapter.Refresh(ctx); err != nil {
			return eris.Wrap(err, "pipeline refresh")
		}

		fmt.Printf("Pipeline reloaded: %d leads\n", len(env.Adapter.Leads()))
		return nil
	},
}

func init() {
	pipelineListCmd.Flags().String("status", "", "filter by pipeline stage")
	pipelineContactCmd.Flags().String("email", "", "email address")
	pipelineContactCmd.Flags().String("web", "", "website URL")

	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineStatusCmd)
	pipelineCmd.AddCommand(pipelineNotesCmd)
	pipelineCmd.AddCommand(pipelineContactCmd)
	pipelineCmd.AddCommand(pipelineDeleteCmd)
	pipelineCmd.AddCommand(pipelineRefreshCmd)
	rootCmd.AddCommand(pipelineCmd)
}

// resolveLeadID accepts either a full lead ID or an unambiguous prefix of one.
func resolveLeadID(adapter *pipeline.Adapter, arg string) (string, error) {
	var match string
	for _, lead := range adapter.Leads() {
		if lead.ID == arg {
			return lead.ID, nil
		}
		if strings.HasPrefix(lead.ID, arg) {
			if match != "" {
				return "", eris.Errorf("ambiguous lead ID prefix: %s", arg)
			}
			match = lead.ID
		}
	}
	if match == "" {
		return "", eris.Errorf("lead not found: %s", arg)
	}
	return match, nil
}

func statusList() string {
	parts := make([]string, len(model.Statuses))
	for i, s := range model.Statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// formatPipeline writes a tabular list of saved leads to w.
func formatPipeline(out io.Writer, leads []model.PipelineLead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tBUSINESS\tCATEGORY\tSCORE\tSTATUS\tPHONE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t--------\t--------\t-----\t------\t-----\t-------")

	for _, lead := range leads {
		name := lead.BusinessName
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(lead.ID),
			name,
			lead.Category,
			lead.Score,
			lead.Status,
			lead.Phone,
			lead.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
