package main

import (
	"context"
	"fmt"

	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/bastiangx/wordcheck/internal/watcher"
	"github.com/bastiangx/wordcheck/pkg/config"
	"github.com/bastiangx/wordcheck/pkg/lexicon"
	"github.com/charmbracelet/log"
)

// loadedLexicon bundles what the hosts need from one lexicon file.
type loadedLexicon struct {
	path    string
	lex     lexicon.Lexicon
	suggest lexicon.Suggester
	reload  watcher.ReloadFunc
	close   func() error
}

// loadLexicon opens the lexicon named in cfg. SQLite lexicons are queried
// live through a lookup cache and mirrored in memory for suggestions; text
// lexicons are loaded into memory. A lexicon that cannot be found leaves the
// checker with an empty one.
func loadLexicon(ctx context.Context, pr *utils.PathResolver, cfg *config.Config) (*loadedLexicon, error) {
	mode := lexicon.ModeFromStrict(cfg.Checker.StrictCase)
	mem := lexicon.NewMemory(mode)

	path, err := pr.FindFile(cfg.Lexicon.Path)
	if err != nil {
		log.Warnf("No lexicon found (%v), running with an empty lexicon...", err)
		return &loadedLexicon{lex: mem, suggest: mem, close: func() error { return nil }}, nil
	}

	format, err := lexicon.DetectFileFormat(path)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using %s at %s", format, path)

	if format != lexicon.FormatSQLite {
		if err := lexicon.LoadFile(ctx, path, mem); err != nil {
			return nil, err
		}
		return &loadedLexicon{
			path:    path,
			lex:     mem,
			suggest: mem,
			reload:  func(ctx context.Context) error { return lexicon.LoadFile(ctx, path, mem) },
			close:   func() error { return nil },
		}, nil
	}

	store, err := lexicon.OpenSQL(path, mode)
	if err != nil {
		return nil, err
	}
	if err := store.LoadInto(ctx, mem); err != nil {
		store.Close()
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cached := lexicon.NewCached(store, cfg.Lexicon.CacheTTL(), cfg.Lexicon.CacheCleanup())
	log.Debug("Lexicon ready", "stats", mem.Stats())
	return &loadedLexicon{
		path:    path,
		lex:     cached,
		suggest: mem,
		reload: func(ctx context.Context) error {
			store.Invalidate()
			return store.LoadInto(ctx, mem)
		},
		close: store.Close,
	}, nil
}

// indexSQLite adds the lookup indexes to the configured SQLite lexicon.
func indexSQLite(ctx context.Context, pr *utils.PathResolver, cfg *config.Config) (string, error) {
	path, err := pr.FindFile(cfg.Lexicon.Path)
	if err != nil {
		return "", err
	}
	if err := lexicon.ValidateFileFormat(path, lexicon.FormatSQLite); err != nil {
		return "", err
	}
	return path, lexicon.CreateIndexes(ctx, path)
}
