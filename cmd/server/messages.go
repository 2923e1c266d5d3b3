package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/proto"
	"github.com/vovakirdan/chatline-server/internal/service/messages"
	"github.com/vovakirdan/chatline-server/internal/store"
	"github.com/vovakirdan/chatline-server/internal/store/open"
)

func newMessagesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Print the stored message log in timestamp order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(root)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := open.Store(ctx, cfg.Store, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			return printMessages(ctx, cmd.OutOrStdout(), st)
		},
	}
}

// printMessages renders the stored log. Unlike the HTTP listing, a store
// failure is returned so the command exits non-zero.
func printMessages(ctx context.Context, w io.Writer, st store.MessageStore) error {
	list, err := messages.NewRepository(st, nil).Load(ctx)
	if err != nil {
		return err
	}
	renderMessages(w, list)
	return nil
}

func renderMessages(w io.Writer, list []core.Message) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Timestamp", "Author", "Text", "ID"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range list {
		table.Append([]string{proto.FormatTimestamp(m.Timestamp), m.Author, m.Text, m.ID})
	}
	table.Render()
}
