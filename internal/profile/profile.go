// Package profile loads the athlete profile that seeds the prompt context.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/tkoehler/planner/internal/prompt"
)

// Load builds a prompt context from the profile at path. A .local.json
// sibling overrides it when present, so private data can stay out of the
// repo. Both files are optional; what is missing keeps skeleton defaults.
func Load(path string) (prompt.Context, error) {
	ctx := prompt.NewContext(time.Now())
	if err := overlay(path, &ctx); err != nil {
		return ctx, err
	}
	if err := overlay(LocalPath(path), &ctx); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func overlay(path string, ctx *prompt.Context) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, ctx); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}
	return nil
}

// LocalPath maps profile.json to profile.local.json.
func LocalPath(path string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".local.json"
	}
	return path + ".local"
}
