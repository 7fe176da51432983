//go:build linux

// ojitype-ibus is the Linux IBus input method engine for typing
// syllabics on a QWERTY keyboard.
//
// It compiles the configured definition table (or loads it from the
// cache when unchanged), registers with the IBus daemon over D-Bus, and
// routes key events through the composition state machine. When live
// reload is enabled, edits to the definition file are recompiled and
// hot-swapped without restarting.
//
// Installation:
//  1. Copy binary to /usr/local/bin/ojitype-ibus
//  2. Run: ojitype-ibus -install
//  3. Restart IBus: ibus restart
//  4. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ojitype/internal/config"
	"ojitype/internal/export"
	"ojitype/internal/ime"
	"ojitype/internal/logging"
	"ojitype/internal/metrics"
	"ojitype/internal/store"
	"ojitype/internal/table"
	"ojitype/internal/watcher"
)

func main() {
	var (
		configPath    = flag.String("config", "", "configuration file (default: the platform config path)")
		installFlag   = flag.Bool("install", false, "install the IBus component and exit")
		uninstallFlag = flag.Bool("uninstall", false, "remove the IBus component and exit")
	)
	flag.Parse()

	if *installFlag {
		if err := installComponent(); err != nil {
			fmt.Fprintf(os.Stderr, "ojitype-ibus: install: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Installed. Run 'ibus restart' to load the engine.")
		return
	}
	if *uninstallFlag {
		if err := uninstallComponent(); err != nil {
			fmt.Fprintf(os.Stderr, "ojitype-ibus: uninstall: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Uninstalled.")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ojitype-ibus: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "ojitype-ibus: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ojitype-ibus: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logging.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("engine stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "ojitype-ibus",
	})
}

func run(cfg *config.Config, log *logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl, err := loadTable(cfg, log)
	if err != nil {
		return err
	}

	engine, err := ime.New(tbl, cfg.Layout(), log)
	if err != nil {
		return err
	}

	server := ime.NewIBusServer(engine, cfg.IBus.BusName, cfg.IBus.EngineName, log)
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()

	if cfg.Table.WatchReload {
		w, err := watcher.New(cfg.Table.Path, time.Duration(cfg.Table.DebounceMs)*time.Millisecond)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		go reloadLoop(ctx, cfg, engine, w, log)
	}

	log.Info("engine running",
		"table", cfg.Table.Path,
		"sequences", tbl.SequenceCount(),
		"bus_name", cfg.IBus.BusName)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info("shutting down", "signal", s.String())
	return nil
}

// loadTable compiles the definition table, consulting the cache first
// when enabled. Cache entries that fail schema validation are treated
// as misses and recompiled.
func loadTable(cfg *config.Config, log *logging.Logger) (*table.Table, error) {
	source, err := os.ReadFile(cfg.Table.Path)
	if err != nil {
		return nil, fmt.Errorf("read definition table: %w", err)
	}
	hash := store.HashSource(source)

	var s *store.Store
	if cfg.Table.CacheEnabled {
		s, err = store.Open(cfg.Table.CachePath)
		if err != nil {
			log.Warn("cache unavailable, compiling directly", "error", err)
		} else {
			defer s.Close()
			if tbl, err := fromCache(s, hash); err == nil {
				metrics.GetMetrics().CacheHitsTotal.Inc()
				log.Info("table loaded from cache", "hash", store.HashString(hash))
				return tbl, nil
			} else if !errors.Is(err, store.ErrNotFound) {
				log.Warn("cached artifact unusable, recompiling", "error", err)
			}
		}
	}

	start := time.Now()
	tbl, err := table.Compile(bytes.NewReader(source))
	if err != nil {
		return nil, err
	}
	metrics.GetMetrics().RecordCompile(time.Since(start), tbl.SequenceCount())

	if s != nil {
		artifact := export.FromTable(tbl, store.HashString(hash), cfg.Table.Path)
		if data, err := artifact.Marshal(); err == nil {
			if err := s.Put(hash, cfg.Table.Path, data); err != nil {
				log.Warn("cache write failed", "error", err)
			}
		}
	}
	return tbl, nil
}

func fromCache(s *store.Store, hash [32]byte) (*table.Table, error) {
	data, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	artifact, err := export.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return artifact.Table()
}

// reloadLoop recompiles and hot-swaps the table when the definition
// file changes. A broken edit is logged and the previous table stays
// active.
func reloadLoop(ctx context.Context, cfg *config.Config, engine *ime.Engine, w *watcher.Watcher, log *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			log.Info("definition file changed, recompiling", "path", ev.Path)

			tbl, err := loadTable(cfg, log)
			if err != nil {
				metrics.GetMetrics().RecordError()
				log.Error("reload failed, keeping previous table", "error", err)
				continue
			}
			if err := engine.SwapTable(tbl); err != nil {
				metrics.GetMetrics().RecordError()
				log.Error("table swap failed, keeping previous table", "error", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func installComponent() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	componentDir := filepath.Join(home, ".local", "share", "ibus", "component")
	if err := os.MkdirAll(componentDir, 0o755); err != nil {
		return err
	}

	binPath, err := os.Executable()
	if err != nil {
		binPath = "/usr/local/bin/ojitype-ibus"
	}

	componentXML := `<?xml version="1.0" encoding="utf-8"?>
<component>
    <name>org.ojitype.ibus</name>
    <description>Syllabics input method</description>
    <exec>` + binPath + `</exec>
    <version>1.0.0</version>
    <author>Ojitype</author>
    <license>MIT</license>
    <homepage>https://github.com/ojitype/ojitype</homepage>
    <textdomain>ojitype</textdomain>
    <engines>
        <engine>
            <name>ojitype</name>
            <language>oj</language>
            <license>MIT</license>
            <author>Ojitype</author>
            <icon>ojitype</icon>
            <layout>us</layout>
            <longname>Ojitype Syllabics</longname>
            <description>Compose Canadian Aboriginal syllabics on a QWERTY keyboard</description>
            <rank>99</rank>
            <symbol>&#x140A;</symbol>
        </engine>
    </engines>
</component>`

	componentPath := filepath.Join(componentDir, "ojitype.xml")
	return os.WriteFile(componentPath, []byte(componentXML), 0o644)
}

func uninstallComponent() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	componentPath := filepath.Join(home, ".local", "share", "ibus", "component", "ojitype.xml")
	if err := os.Remove(componentPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
