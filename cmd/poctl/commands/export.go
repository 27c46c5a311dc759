package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/purchase-orders/pkg/httpclient"
	"github.com/utafrali/purchase-orders/pkg/pagination"
)

// createFile opens export destinations.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutput runs fn against stdout, or against the file at path unless path
// is empty or "-". A failed close is returned when fn itself succeeded.
func writeOutput(path string, stdout io.Writer, fn func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return fn(stdout)
	}

	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return fn(f)
}

// jsonGetter is satisfied by *httpclient.CircuitBreakerClient.
type jsonGetter interface {
	GetJSON(ctx context.Context, url string, out any) error
}

func newExportCommand(rt *runtime) *cobra.Command {
	var (
		server string
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Args:  cobra.NoArgs,
		Short: "Stream every purchase order from a running server as NDJSON",
		Long: `Walks GET /api/purchase-orders/cursor page by page until has_more is
false and writes one JSON object per line.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := httpclient.NewCircuitBreakerClient(
				httpclient.New(httpclient.DefaultConfig()),
				httpclient.DefaultCircuitBreakerConfig("purchase-orders-api"),
				rt.logger,
			)

			return writeOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				pages, items, err := exportAll(cmd.Context(), client, server, limit, w)
				if err != nil {
					return err
				}
				rt.logger.Info("export complete", slog.Int("pages", pages), slog.Int("items", items))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8000", "base URL of the purchase order API")
	cmd.Flags().IntVar(&limit, "limit", pagination.MaxLimit, "page size")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

// exportAll follows next_cursor from the first page until has_more is false.
func exportAll(ctx context.Context, client jsonGetter, baseURL string, limit int, w io.Writer) (pages, items int, err error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/api/purchase-orders/cursor"
	bw := bufio.NewWriter(w)

	cursor := ""
	for {
		q := url.Values{"limit": {strconv.Itoa(limit)}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page pagination.Page[json.RawMessage]
		if err := client.GetJSON(ctx, endpoint+"?"+q.Encode(), &page); err != nil {
			return pages, items, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}
		pages++

		for _, item := range page.Items {
			if _, err := bw.Write(item); err != nil {
				return pages, items, err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return pages, items, err
			}
			items++
		}

		if !page.HasMore || page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	return pages, items, bw.Flush()
}
