package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmusicd/internal/formatter"
	"github.com/urfave/cli/v3"
)

// CatalogShow loads the home feed once and prints the auto playlist sections.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if res := c.catalog.RunOnce(ctx); res.Err != nil {
		return res.Err
	}
	catalog := c.catalog.Catalog()

	if cmd.Bool("json") {
		return r.writeJSON(catalog, cmd.Bool("pretty"))
	}

	text, err := formatter.ExportCatalogText(catalog)
	if err != nil {
		return err
	}
	r.writePlainHeader(formatter.Summary(catalog))
	return r.writePlain("%s", text)
}

// CatalogExport loads the home feed once and writes the sections to a file.
func (r *Runner) CatalogExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if res := c.catalog.RunOnce(ctx); res.Err != nil {
		return res.Err
	}

	path, err := formatter.WriteCatalogExport(c.catalog.Catalog(), format, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to export catalog: %w", err)
	}

	r.logger.Info("catalog exported", "path", path, "format", format)
	return r.writePlain("✓ Exported %s to %s\n", formatter.Summary(c.catalog.Catalog()), path)
}
