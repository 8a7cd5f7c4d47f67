// Package frontend builds the platform's static web UI. The build embeds the
// resolved API endpoint via a dotenv file, and npm itself is treated as an
// opaque external tool.
package frontend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// EnvFileName is the dotenv file the bundler reads at build time.
const EnvFileName = ".env.production"

// DistDir is the bundler's output directory relative to the frontend root.
const DistDir = "dist"

// WriteEnv writes the API endpoint into the frontend's dotenv file so the
// bundler embeds it into the built assets.
func WriteEnv(dir, apiEndpoint string) error {
	path := filepath.Join(dir, EnvFileName)
	err := godotenv.Write(map[string]string{
		"VITE_API_ENDPOINT": apiEndpoint,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Build runs npm in dir: an optional install followed by the production
// build. Output streams through to the caller's terminal.
func Build(ctx context.Context, dir string, install bool) error {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		return fmt.Errorf("no package.json in %s: %w", dir, err)
	}

	if install {
		logger.Info().Str("dir", dir).Msg("Installing frontend dependencies")
		if err := runNpm(ctx, dir, "ci"); err != nil {
			// npm ci requires a lockfile; fall back to install.
			logger.Warn().Err(err).Msg("npm ci failed, falling back to npm install")
			if err := runNpm(ctx, dir, "install"); err != nil {
				return fmt.Errorf("npm install failed: %w", err)
			}
		}
	}

	logger.Info().Str("dir", dir).Msg("Building frontend")
	if err := runNpm(ctx, dir, "run", "build"); err != nil {
		return fmt.Errorf("npm run build failed: %w", err)
	}
	return nil
}

func runNpm(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "npm", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
