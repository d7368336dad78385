package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file if missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if err := r.loadConfig(configPath); err != nil {
			return err
		}
	}

	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is not set", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	statuses, err := shared.Migrations(db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		r.logger.Debug("migration", "version", s.Version, "name", s.Name, "applied", s.Applied)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupYouTube writes a browser headers file from a "Copy as cURL" request taken in DevTools.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	if curlHeaders.Cookie == "" {
		r.logger.Warn("no cookie found in cURL command, requests will not be signed")
	}

	if outputPath == "" {
		outputPath = r.config.Credentials.YouTube.HeadersPath
	}
	if outputPath == "" {
		outputPath = shared.ExpandHome("~/.ytmusicd/browser.json")
	}
	outputPath = shared.ExpandHome(outputPath)

	if err := curlHeaders.WriteHeadersFile(outputPath); err != nil {
		return err
	}
	r.logger.Info("headers saved", "path", outputPath, "count", len(curlHeaders.Headers))

	r.writePlain("✓ YouTube Music headers saved to: %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.youtube.headers_path = \"%s\" in config.toml\n", outputPath)
	r.writePlain("2. Run 'ytmusicd refresh all' to test authentication\n")
	return nil
}
