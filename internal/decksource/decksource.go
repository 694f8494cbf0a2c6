// Package decksource discovers deck definitions on disk and in git
// repositories and assembles them into a deck registry.
package decksource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/conorfennell/tarottimer/internal/config"
	"github.com/conorfennell/tarottimer/internal/deck"
	"github.com/conorfennell/tarottimer/internal/deckfile"
	"github.com/conorfennell/tarottimer/internal/domain"
	"github.com/conorfennell/tarottimer/internal/gitsource"
)

func isDeckFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadDir walks dir for YAML deck definitions. Files that fail to parse are
// reported in the returned error slice and do not stop the walk. The error
// return is reserved for failures walking the tree itself.
func LoadDir(dir string) ([]domain.Deck, []error, error) {
	var decks []domain.Deck
	var parseErrors []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isDeckFile(d.Name()) {
			return nil
		}
		dk, parseErr := deckfile.ParseFile(path)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		decks = append(decks, dk)
		return nil
	})
	if walkErr != nil {
		return nil, parseErrors, fmt.Errorf("walk %s: %w", dir, walkErr)
	}
	return decks, parseErrors, nil
}

// SyncRepo clones or pulls url beneath reposDir and returns the local path.
func SyncRepo(ctx context.Context, log zerolog.Logger, reposDir, url string) (string, error) {
	localPath, err := gitsource.LocalPath(reposDir, url)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(localPath), err)
	}
	if err := gitsource.Sync(ctx, log, url, localPath, nil); err != nil {
		return "", err
	}
	return localPath, nil
}

// Load builds a registry from the built-in deck, the decks under cfg.Dir and
// the decks in cfg.Repos. Repositories already cloned under cfg.Cache are
// read as they are; missing ones are cloned first. A deck whose id is
// already taken is skipped with a warning, as are unparseable files and
// repositories that cannot be cloned.
func Load(ctx context.Context, cfg config.DeckConfig, log zerolog.Logger) (*deck.Registry, error) {
	decks := []domain.Deck{deck.Builtin()}
	seen := map[string]string{deck.ClassicID: "builtin"}

	add := func(origin string, found []domain.Deck, parseErrors []error) {
		for _, err := range parseErrors {
			log.Warn().Err(err).Str("source", origin).Msg("skipping deck file")
		}
		for _, d := range found {
			if prev, ok := seen[d.ID]; ok {
				log.Warn().Str("deck", d.ID).Str("source", origin).Str("first", prev).Msg("duplicate deck id, skipping")
				continue
			}
			seen[d.ID] = origin
			decks = append(decks, d)
		}
	}

	if cfg.Dir != "" {
		found, parseErrors, err := LoadDir(cfg.Dir)
		if err != nil {
			return nil, err
		}
		add(cfg.Dir, found, parseErrors)
	}

	for _, url := range cfg.Repos {
		localPath, err := cachedRepo(ctx, log, cfg.Cache, url)
		if err != nil {
			log.Error().Err(err).Str("url", url).Msg("loading deck repository")
			continue
		}
		found, parseErrors, err := LoadDir(localPath)
		if err != nil {
			log.Error().Err(err).Str("url", url).Msg("loading deck repository")
			continue
		}
		add(url, found, parseErrors)
	}

	defaultID := cfg.Default
	if _, ok := seen[defaultID]; !ok {
		if defaultID != "" {
			log.Warn().Str("deck", defaultID).Msg("default deck not found, using classic")
		}
		defaultID = deck.ClassicID
	}
	reg, err := deck.NewRegistry(defaultID, decks...)
	if err != nil {
		return nil, fmt.Errorf("build deck registry: %w", err)
	}
	log.Debug().Strs("decks", reg.IDs()).Str("default", defaultID).Msg("deck registry ready")
	return reg, nil
}

// cachedRepo returns the clone of url under reposDir, cloning it if absent.
func cachedRepo(ctx context.Context, log zerolog.Logger, reposDir, url string) (string, error) {
	localPath, err := gitsource.LocalPath(reposDir, url)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}
	return SyncRepo(ctx, log, reposDir, url)
}

// SyncAll clones or pulls every repository in cfg.Repos. It keeps going
// after a failure and returns the failures joined.
func SyncAll(ctx context.Context, cfg config.DeckConfig, log zerolog.Logger) error {
	var errs []error
	for _, url := range cfg.Repos {
		if _, err := SyncRepo(ctx, log, cfg.Cache, url); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}
