// Copyright 2025 The WordCheck Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the word check server, CLI and file watcher.

WordCheck marks the words and phrases of a document that a lexicon does not
know, or knows only from a handful of sources, and keeps an editor's overlay
and side list in sync with minimal updates as the document is edited.

# Usage

Start the IPC server with the configured lexicon:

	wordcheck

Use a specific lexicon and enable debug mode:

	wordcheck -lexicon /path/to/lexicon.db -d

Check a file once, or keep checking it while it is edited:

	wordcheck -check notes.md
	wordcheck -watch notes.md

Run in CLI mode to type a document line by line:

	wordcheck -c

Lexicons are SQLite databases with dictionary(words, count, variety) and
phrase(PHRASE, count, variety) tables, or tab separated text files with one
entry, count and variety per line. Both may carry an explanation per entry,
shown by the explain action and the :explain command.

Large SQLite lexicons checked without strict case benefit from the lookup
indexes, created once with:

	wordcheck -lexicon lexicon.db -index-lexicon

# Configuration

Runtime configuration lives in a TOML file that is created with defaults if
it doesn't exist:

	[checker]
	strict_case = true
	small_doc_threshold = 10000
	resync_incremental = true

	[lexicon]
	path = "lexicon.db"
	cache_ttl_seconds = 300
	suggest_limit = 5

	[watch]
	debounce_ms = 100
	large_debounce_ms = 200

# IPC Protocol

The server communicates via MessagePack over stdin/stdout, one response per
request. See package server for the message shapes.

	{"id": "a1", "action": "analyze", "text": "the cat sat"}

# Command Line Flags

	-config string
	    Path to a config file
	-lexicon string
	    Lexicon file, overrides the config
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-check string
	    Check a file once and exit with status 1 if anything is unknown
	-watch string
	    Check a file every time it changes
	-log-json
	    Write logs as JSON
	-rebuild-config
	    Reset the default config file
	-index-lexicon
	    Add lookup indexes to the SQLite lexicon and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/wordcheck/internal/cli"
	"github.com/bastiangx/wordcheck/internal/logger"
	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/bastiangx/wordcheck/internal/watcher"
	"github.com/bastiangx/wordcheck/pkg/checker"
	"github.com/bastiangx/wordcheck/pkg/config"
	"github.com/bastiangx/wordcheck/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "wordcheck"
	gh      = "https://github.com/bastiangx/wordcheck"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, lexicon and one of the hosts together and hands over.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to a custom config file")
	lexiconFile := flag.String("lexicon", "", "Lexicon file (.db, .sqlite, .txt, .tsv); overrides the config")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- type a document line by line")
	checkFile := flag.String("check", "", "Check a file once and exit")
	watchFile := flag.String("watch", "", "Check a file every time it changes")
	jsonLogs := flag.Bool("log-json", false, "Write logs to stderr as JSON")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default config file with defaults and exit")
	indexLexicon := flag.Bool("index-lexicon", false, "Add lookup indexes to the SQLite lexicon and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		logger.Setup("debug", *jsonLogs)
		log.SetReportTimestamp(true)
	} else {
		logger.Setup("warn", *jsonLogs)
	}

	if *rebuildConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Print("Config rebuilt", "path", config.GetActiveConfigPath(""))
		os.Exit(0)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))
	if *lexiconFile != "" {
		appConfig.Lexicon.Path = *lexiconFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *indexLexicon {
		path, err := indexSQLite(ctx, pathResolver, appConfig)
		if err != nil {
			log.Fatalf("Failed to index lexicon: %v", err)
		}
		log.Print("Lexicon indexed", "path", path)
		return
	}

	lex, err := loadLexicon(ctx, pathResolver, appConfig)
	if err != nil {
		log.Fatalf("Failed to load lexicon: %v", err)
	}
	defer lex.close()

	switch {
	case *checkFile != "":
		code := runCheck(lex, appConfig, *checkFile)
		lex.close()
		stop()
		os.Exit(code)
	case *watchFile != "":
		runWatch(ctx, lex, appConfig, *watchFile)
	case *cliMode:
		sigHandler()
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(lex.lex, appConfig, os.Stdin, os.Stdout)
		inputHandler.SetSuggester(lex.suggest)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
	default:
		sigHandler()
		log.Debug("spawning IPC")
		srv := server.NewServer(lex.lex, appConfig, server.WithSuggester(lex.suggest))
		showStartupInfo(lex.path)
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}

func runCheck(lex *loadedLexicon, cfg *config.Config, path string) int {
	text, err := utils.ReadText(path)
	if err != nil {
		log.Errorf("Failed to read %s: %v", path, err)
		return 2
	}
	unknown, err := cli.Check(lex.lex, cfg, text, os.Stdout)
	if err != nil {
		log.Errorf("Check failed: %v", err)
		return 2
	}
	if unknown > 0 {
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, lex *loadedLexicon, cfg *config.Config, path string) {
	w, err := watcher.New(watcher.Config{
		DocumentPath:   path,
		LexiconPath:    lex.path,
		Debounce:       cfg.Watch.Debounce(0, cfg.Checker.SmallDocThreshold),
		LargeDebounce:  cfg.Watch.Debounce(cfg.Checker.SmallDocThreshold+1, cfg.Checker.SmallDocThreshold),
		LargeThreshold: cfg.Checker.SmallDocThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to watch %s: %v", path, err)
	}
	runner := watcher.NewRunner(w, lex.lex, lex.reload,
		checker.WithSmallDocThreshold(cfg.Checker.SmallDocThreshold),
		checker.WithResync(cfg.Checker.ResyncIncremental),
		checker.WithLogger(logger.New("checker")),
	)
	render := cli.NewRenderer(os.Stdout, cfg.CLI.Color, cfg.CLI.ShowReasons)

	log.Printf("Watching %s (Ctrl+C to exit)", path)
	err = runner.Run(ctx, func(res watcher.Result) {
		if res.Err != nil {
			log.Error("Analysis failed", "trigger", res.Trigger, "err", res.Err)
			return
		}
		if len(res.Ops) > 0 {
			fmt.Println(render.Ops(res.Ops))
		}
		fmt.Println(render.Summary(res.Unknown, len(res.Sidebar), runner.Engine().Stats().Last.String()))
	})
	if err != nil {
		log.Fatalf("Watch error: %v", err)
	}
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ WordCheck ] Marks what your lexicon doesn't know, as you type.")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(lexiconPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	if lexiconPath == "" {
		lexiconPath = "(empty)"
	}
	log.Infof("lexicon: ( %s )", lexiconPath)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
