// ojitypec compiles a syllabics definition table: it parses the
// definition file, validates completeness, derives the canonical
// composition table, and optionally writes the JSON artifact, an HTML
// proofing chart, and a cache entry.
//
// Usage:
//
//	ojitypec -table chars.txt -out table.json -chart chart.html
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"ojitype/internal/chart"
	"ojitype/internal/export"
	"ojitype/internal/logging"
	"ojitype/internal/metrics"
	"ojitype/internal/store"
	"ojitype/internal/table"
)

func main() {
	var (
		tablePath    = flag.String("table", "", "definition table file (required)")
		outPath      = flag.String("out", "", "write the compiled table artifact to this file")
		chartPath    = flag.String("chart", "", "write an HTML proofing chart to this file")
		cachePath    = flag.String("cache", "", "store the compiled artifact in this SQLite cache")
		validateOnly = flag.Bool("validate", false, "parse and validate only, write nothing")
		logLevel     = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if *tablePath == "" {
		fmt.Fprintln(os.Stderr, "ojitypec: -table is required")
		flag.Usage()
		os.Exit(2)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ojitypec: %v\n", err)
		os.Exit(2)
	}
	log, err := logging.New(&logging.Config{
		Level:     level,
		Format:    logging.FormatText,
		Output:    "stderr",
		Component: "ojitypec",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ojitypec: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	if err := run(log, *tablePath, *outPath, *chartPath, *cachePath, *validateOnly); err != nil {
		log.Error("compile failed", "error", err)
		os.Exit(1)
	}
}

func run(log *logging.Logger, tablePath, outPath, chartPath, cachePath string, validateOnly bool) error {
	source, err := os.ReadFile(tablePath)
	if err != nil {
		return fmt.Errorf("read definition table: %w", err)
	}

	start := time.Now()
	builder, err := table.Build(bytes.NewReader(source))
	if err != nil {
		return err
	}
	tbl, err := builder.Table()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	metrics.GetMetrics().RecordCompile(elapsed, tbl.SequenceCount())

	log.Info("table compiled",
		"definitions", builder.Len(),
		"sequences", tbl.SequenceCount(),
		"elapsed", elapsed)

	if validateOnly {
		return nil
	}

	hash := store.HashSource(source)
	artifact := export.FromTable(tbl, store.HashString(hash), tablePath)

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create artifact file: %w", err)
		}
		if err := artifact.Write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close artifact file: %w", err)
		}
		log.Info("artifact written", "path", outPath)
	}

	if chartPath != "" {
		f, err := os.Create(chartPath)
		if err != nil {
			return fmt.Errorf("create chart file: %w", err)
		}
		if err := chart.Render(f, builder); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close chart file: %w", err)
		}
		log.Info("chart written", "path", chartPath)
	}

	if cachePath != "" {
		data, err := artifact.Marshal()
		if err != nil {
			return err
		}
		s, err := store.Open(cachePath)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Put(hash, tablePath, data); err != nil {
			return err
		}
		log.Info("artifact cached", "path", cachePath, "hash", store.HashString(hash))
	}

	return nil
}
