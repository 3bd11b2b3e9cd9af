package tokopedia

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Options struct {
	Keyword string
	Brand   string
	// 0 means no product cap
	MaxProducts int
	// 0 means no page cap
	MaxPages int
	// politeness delay between page requests
	Delay time.Duration
}

// Driver walks search result pages until a cap is hit or the results
// run dry, deduplicating products across pages.
type Driver struct {
	client     *Client
	translator *Translator
	opts       Options
}

func NewDriver(client *Client, opts Options) *Driver {
	return &Driver{
		client:     client,
		translator: NewTranslator(),
		opts:       opts,
	}
}

func (d *Driver) searchQuery() string {
	return strings.TrimSpace(d.opts.Brand + " " + d.opts.Keyword)
}

// Run scrapes pages sequentially. A page failing after its retries is
// not fatal once anything has been collected, the accumulated records
// are returned as-is.
func (d *Driver) Run(ctx context.Context) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "driver:Run")
	defer span.End()

	query := d.searchQuery()
	span.SetAttributes(
		attribute.String("query", query),
		attribute.Int("max_products", d.opts.MaxProducts),
		attribute.Int("max_pages", d.opts.MaxPages),
	)

	var products []Product
	seen := map[string]bool{}
	var excludeIds []string
	searchId := ""

	page := 1
	start := 0

	for {
		if d.opts.MaxProducts > 0 && len(products) >= d.opts.MaxProducts {
			break
		}
		if d.opts.MaxPages > 0 && page > d.opts.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return products, err
		}

		res, err := d.client.SearchPage(ctx, SearchRequest{
			Query:      query,
			Page:       page,
			Start:      start,
			ExcludeIds: excludeIds,
			SearchId:   searchId,
		})
		if err != nil {
			span.RecordError(err)
			if len(products) == 0 {
				span.SetStatus(codes.Error, "first page failed")
				return nil, err
			}
			slog.WarnContext(
				ctx, "page failed, keeping accumulated results",
				"page", page,
				"collected", len(products),
				"err", err,
			)
			break
		}

		if searchId == "" {
			searchId = res.SearchId
		}

		newCount := 0
		for _, raw := range res.Products {
			product, ok := formatProduct(raw, d.opts.Brand, d.translator)
			if !ok {
				continue
			}
			if seen[product.ProductID] {
				continue
			}
			seen[product.ProductID] = true
			excludeIds = append(excludeIds, product.ProductID)
			newCount++

			if d.opts.MaxProducts > 0 && len(products) >= d.opts.MaxProducts {
				continue
			}
			products = append(products, product)
		}

		slog.DebugContext(
			ctx, "page scraped",
			"page", page,
			"new_products", newCount,
			"total", len(products),
		)

		// end of results
		if newCount == 0 {
			break
		}

		page++
		start += rowsPerPage

		if d.opts.Delay > 0 {
			select {
			case <-time.After(d.opts.Delay):
			case <-ctx.Done():
				span.SetStatus(codes.Error, "cancelled")
				return products, ctx.Err()
			}
		}
	}

	span.SetAttributes(attribute.Int("total_products", len(products)))
	return products, nil
}
