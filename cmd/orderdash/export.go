package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/order-dashboard/internal/app"
	"github.com/nhle/order-dashboard/internal/feed"
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/receipt"
	"github.com/nhle/order-dashboard/internal/store"
	"github.com/nhle/order-dashboard/internal/theme"
)

func exportCmd(configPath *string) *cobra.Command {
	var (
		token   int
		orderID string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one order receipt without the dashboard",
		Long: `Fetch the current orders once and export the receipt for a single
order. When the database cannot be reached the last cached snapshot is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == 0 && orderID == "" {
				return errors.New("one of --token or --key is required")
			}
			cfg, st, err := loadEnv(resolveConfigPath(*configPath))
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			orders, err := fetchOrders(ctx, cfg, st)
			if err != nil {
				return err
			}
			o, ok := findOrder(orders, token, orderID)
			if !ok {
				return fmt.Errorf("order not found")
			}

			exp := receipt.NewExporter(cfg.Receipt.Business, st, nil, app.NewSinks(cfg)...)
			res, err := exp.Export(ctx, o)
			for _, loc := range res.Locations {
				fmt.Printf("✓ %s\n", loc)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&token, "token", 0, "order token number")
	cmd.Flags().StringVar(&orderID, "key", "", "order record key")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")

	return cmd
}

// fetchOrders reads the orders collection from the database, falling back
// to the cached snapshot.
func fetchOrders(ctx context.Context, cfg *model.AppConfig, st store.Store) ([]model.Order, error) {
	var raw []byte
	src, err := app.NewSource(cfg)
	if err == nil {
		raw, err = src.Fetch(ctx, feed.CollectionOrders)
	}
	if err != nil {
		snap, serr := st.LoadSnapshot(ctx, string(feed.CollectionOrders))
		if serr != nil {
			return nil, fmt.Errorf("fetching orders: %w", err)
		}
		fmt.Fprintf(os.Stderr, "warning: %v; using snapshot from %s\n", err, snap.SavedAt.Format(time.RFC822))
		raw = snap.Raw
	} else if serr := st.SaveSnapshot(ctx, string(feed.CollectionOrders), raw); serr != nil {
		fmt.Fprintf(os.Stderr, "warning: caching snapshot: %v\n", serr)
	}

	msg := feed.Decode(feed.CollectionOrders, raw)
	if msg.Err != nil {
		return nil, msg.Err
	}
	return msg.Orders, nil
}

func findOrder(orders []model.Order, token int, id string) (model.Order, bool) {
	for _, o := range orders {
		if id != "" && o.ID == id {
			return o, true
		}
		if id == "" && o.TokenNumber == token {
			return o, true
		}
	}
	return model.Order{}, false
}

func exportsCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List recently exported receipts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := loadEnv(resolveConfigPath(*configPath))
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			recs, err := st.ListExports(ctx, limit)
			if err != nil {
				return err
			}
			total, err := st.CountExports(ctx)
			if err != nil {
				return err
			}

			fmt.Println(exportsTable(recs))
			fmt.Printf("\n%d of %d exports\n", len(recs), total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of exports to show")

	return cmd
}

// exportsTable renders the export history.
func exportsTable(recs []model.ExportRecord) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", r.TokenNumber),
			r.Customer,
			r.FileName,
			strings.Join(r.Locations, ", "),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers("TOKEN", "CUSTOMER", "FILE", "SAVED TO", "AT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 4:
				return theme.DimmedStyle.Padding(0, 1)
			default:
				return cell
			}
		}).
		String()
}
