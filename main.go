package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"quadris/client"
	"quadris/config"
	"quadris/level"
	"quadris/progress"
	"quadris/tetris"

	"golang.org/x/term"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[2J\033[H\033[?25h"

	// panelWidth is the width of the score panel next to the board.
	panelWidth = 28
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	noGhost := flag.Bool("noghost", false, "hide the ghost piece")
	startLevel := flag.Int("level", 0, "play this level right away")
	ephemeral := flag.Bool("ephemeral", false, "keep progress in memory only")
	flag.Parse()

	if err := run(*configFile, *noGhost, *startLevel, *ephemeral); err != nil {
		fmt.Fprintf(os.Stderr, "quadris: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, noGhost bool, startLevel int, ephemeral bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if noGhost {
		cfg.NoGhost = true
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	table := level.Default()
	if cfg.LevelsFile != "" {
		if table, err = level.LoadFile(cfg.LevelsFile); err != nil {
			logger.Error("unable to load levels", slog.String("path", cfg.LevelsFile), slog.String("error", err.Error()))
			return err
		}
	}
	if _, ok := table.Get(startLevel); startLevel != 0 && !ok {
		return fmt.Errorf("unknown level %d", startLevel)
	}

	var store progress.Store = progress.NewFileStore(cfg.ProgressFile)
	if ephemeral {
		store = progress.NewMemoryStore()
	}
	book := progress.NewBook(store, logger)
	manager := level.NewManager(level.Options{Table: table, Book: book, Logger: logger})
	engine := tetris.NewEngine(cfg.EngineOptions(logger))

	if err := checkTerminal(cfg.Board); err != nil {
		return err
	}

	restore, err := startRawConsole()
	if err != nil {
		return err
	}
	defer restore()

	cl, err := client.New(engine, manager, book, &client.Options{
		NoGhost: cfg.NoGhost,
		Level:   startLevel,
		Frame:   cfg.FrameInterval(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer cl.Close()

	logger.Info("quadris started", slog.Bool("ephemeral", ephemeral), slog.Int("levels", table.Len()))
	cl.Start()
	logger.Info("quadris stopped")
	return nil
}

// checkTerminal makes sure stdin is a terminal big enough for the board and its panel.
func checkTerminal(b config.Board) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal")
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("unable to read the terminal size: %w", err)
	}
	// every cell is two characters wide and the board has a border.
	wantW, wantH := 2*b.Width+2+panelWidth, b.Height+2
	if w < wantW || h < wantH {
		return fmt.Errorf("terminal is %dx%d, quadris needs at least %dx%d", w, h, wantW, wantH)
	}
	return nil
}

func startRawConsole() (func(), error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("error setting terminal to raw mode: %w", err)
	}
	fmt.Print(hideCursor)

	return func() {
		if err := term.Restore(fd, oldState); err != nil {
			fmt.Fprintf(os.Stderr, "unable to restore the terminal original state: %v\n", err)
		}
		fmt.Print(showCursor)
	}, nil
}
