package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/userstore/internal/models"
)

func (a *App) dataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage a user's documents",
	}
	cmd.AddCommand(a.dataPutCmd(), a.dataGetCmd(), a.dataListCmd(), a.dataDeleteCmd())
	return cmd
}

func (a *App) dataPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <user> <key> <json>",
		Short: "Store a JSON object under key, replacing any previous value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := models.ParseDocument(args[2])
			if err != nil {
				return fmt.Errorf("invalid document: %w", err)
			}
			if err := a.accounts.SaveData(cmd.Context(), args[0], args[1], doc); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "saved %s\n", args[1])
			return nil
		},
	}
}

func (a *App) dataGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user> <key>",
		Short: "Print the document stored under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.accounts.GetData(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			text, err := doc.MarshalCompact()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, text)
			return nil
		},
	}
}

// listItem is the JSON shape printed by "data list".
type listItem struct {
	Key       string          `json:"key"`
	Data      models.Document `json:"data"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func (a *App) dataListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user>",
		Short: "Print every document of a user as a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.accounts.ListData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items := make([]listItem, 0, len(entries))
			for _, e := range entries {
				items = append(items, listItem{
					Key:       e.Key,
					Data:      e.Data,
					CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
					UpdatedAt: e.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
				})
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
}

func (a *App) dataDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user> <key>",
		Short: "Remove the document stored under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts.DeleteData(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[1])
			return nil
		},
	}
}
