package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytmusicd/internal/services"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultOAuthPath = "~/.ytmusicd/oauth.json"

// AuthYouTube signs in with the OAuth device flow and saves the token.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	yt := r.config.Credentials.YouTube

	tokenPath := cmd.String("output")
	if tokenPath == "" {
		tokenPath = yt.OAuthPath
	}
	if tokenPath == "" {
		tokenPath = defaultOAuthPath
	}
	tokenPath = shared.ExpandHome(tokenPath)

	auth := services.NewDeviceAuth(yt.ClientID, yt.ClientSecret, tokenPath)
	auth.SetOutput(r.output)
	if cmd.Bool("no-browser") {
		auth.SetBrowserOpener(nil)
	}

	r.logger.Info("starting device sign-in", "token_path", tokenPath)
	tok, err := auth.Login(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("token saved", "path", tokenPath, "expiry", tok.Expiry)

	r.writePlain("✓ Signed in to YouTube Music\n")
	r.writePlain("Token saved to: %s\n", tokenPath)
	if yt.OAuthPath != tokenPath {
		r.writePlainln("Next steps:")
		r.writePlain("Set credentials.youtube.oauth_path = \"%s\" in config.toml\n", tokenPath)
	}
	return nil
}

// AuthStatus reports which credentials are configured and whether they load.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	yt := r.config.Credentials.YouTube
	r.writePlainHeader("YouTube Music credentials")

	headers, err := services.LoadHeaders(yt.HeadersPath)
	switch {
	case err == nil && headers.Get("Cookie") != "":
		r.writePlain("Headers: ✓ %s (cookie present)\n", yt.HeadersPath)
	case err == nil:
		r.writePlain("Headers: ✓ %s (no cookie)\n", yt.HeadersPath)
	case errors.Is(err, shared.ErrMissingCredentials):
		r.writePlain("Headers: ✗ not configured\n")
	default:
		r.writePlain("Headers: ✗ %v\n", err)
	}

	switch tok, err := services.LoadToken(yt.OAuthPath); {
	case yt.OAuthPath == "":
		r.writePlain("OAuth:   ✗ not configured\n")
	case err == nil && tok.Valid():
		r.writePlain("OAuth:   ✓ %s (expires %s)\n", yt.OAuthPath, tok.Expiry.Format("2006-01-02 15:04"))
	case err == nil:
		r.writePlain("OAuth:   ✓ %s (expired, refreshed on next request)\n", yt.OAuthPath)
	default:
		r.writePlain("OAuth:   ✗ %v\n", err)
	}

	if yt.ProxyURL != "" {
		r.writePlain("Proxy:   %s\n", yt.ProxyURL)
	}

	client, err := services.NewClientFromConfig(ctx, yt, r.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if client.Authenticated() {
		return r.writePlain("Status:  ✓ Authenticated\n")
	}
	return r.writePlain("Status:  ✗ Not authenticated\n")
}
