package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Build parses and validates a definition file, returning the populated
// indices. It is the first half of Compile, exposed separately for
// consumers of the raw definitions such as the proofing chart.
func Build(r io.Reader) (*Builder, error) {
	b := NewBuilder()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		def, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		if err := b.Add(def); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Table derives the canonical composition table from validated indices.
func (b *Builder) Table() (*Table, error) {
	return buildTable(b)
}

// Compile runs the whole pipeline: parse, build, validate, and derive
// the canonical table. Any failure aborts with no output.
func Compile(r io.Reader) (*Table, error) {
	b, err := Build(r)
	if err != nil {
		return nil, err
	}
	return b.Table()
}

// CompileFile compiles a definition file from disk.
func CompileFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition table: %w", err)
	}
	defer f.Close()
	t, err := Compile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
