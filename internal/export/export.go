// Package export serializes compiled tables to a versioned JSON
// artifact. Artifacts are what the SQLite cache stores and what the
// compiler CLI writes to disk; every artifact read back is validated
// against the embedded JSON schema before a table is rebuilt from it.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ojitype/internal/table"
)

// ArtifactVersion is the current artifact schema version.
const ArtifactVersion = 1

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		const url = "compiled-table-v1.schema.json"
		if err := compiler.AddResource(url, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(url)
	})
	return schema, schemaErr
}

// SequenceEntry is one canonical composition key and its output.
type SequenceEntry struct {
	Constituents []uint32 `json:"constituents"`
	Output       uint32   `json:"output"`
}

// Artifact is the JSON form of a compiled table.
type Artifact struct {
	Version    int             `json:"version"`
	SourceHash string          `json:"source_hash,omitempty"`
	SourcePath string          `json:"source_path,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Sequences  []SequenceEntry `json:"sequences"`

	BareVowels      map[string]uint32 `json:"bare_vowels"`
	BaseSyllables   map[string]uint32 `json:"base_syllables"`
	EasternFinals   map[string]uint32 `json:"eastern_finals"`
	WesternFinals   map[string]uint32 `json:"western_finals"`
	CommonFinals    map[string]uint32 `json:"common_finals"`
	AlternateFinals map[string]uint32 `json:"alternate_finals"`
	Punctuation     map[string]uint32 `json:"punctuation"`
}

// FromTable builds an artifact from a compiled table. Sequences are
// emitted in canonical key order so the artifact is byte-stable for a
// given table.
func FromTable(tbl *table.Table, sourceHash, sourcePath string) *Artifact {
	parts := tbl.Parts()

	keys := make([]string, 0, len(parts.Sequences))
	for k := range parts.Sequences {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sequences := make([]SequenceEntry, 0, len(keys))
	for _, k := range keys {
		runes := []rune(k)
		constituents := make([]uint32, len(runes))
		for i, r := range runes {
			constituents[i] = uint32(r)
		}
		sequences = append(sequences, SequenceEntry{
			Constituents: constituents,
			Output:       uint32(parts.Sequences[k]),
		})
	}

	return &Artifact{
		Version:         ArtifactVersion,
		SourceHash:      sourceHash,
		SourcePath:      sourcePath,
		CreatedAt:       time.Now().UTC(),
		Sequences:       sequences,
		BareVowels:      vowelMap(parts.BareVowels),
		BaseSyllables:   consonantMap(parts.BaseSyllables),
		EasternFinals:   consonantMap(parts.EasternFinals),
		WesternFinals:   consonantMap(parts.WesternFinals),
		CommonFinals:    consonantMap(parts.CommonFinals),
		AlternateFinals: consonantMap(parts.AlternateFinals),
		Punctuation:     stringMap(parts.Punctuation),
	}
}

// Table rebuilds a compiled table from the artifact.
func (a *Artifact) Table() (*table.Table, error) {
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", a.Version)
	}

	sequences := make(map[string]rune, len(a.Sequences))
	for _, entry := range a.Sequences {
		constituents := make([]rune, len(entry.Constituents))
		for i, cp := range entry.Constituents {
			constituents[i] = rune(cp)
		}
		key := table.SequenceKey(constituents)
		if prev, dup := sequences[key]; dup {
			return nil, fmt.Errorf("artifact repeats sequence for %U", prev)
		}
		sequences[key] = rune(entry.Output)
	}

	return table.FromParts(table.Parts{
		Sequences:       sequences,
		BareVowels:      toVowelMap(a.BareVowels),
		BaseSyllables:   toConsonantMap(a.BaseSyllables),
		EasternFinals:   toConsonantMap(a.EasternFinals),
		WesternFinals:   toConsonantMap(a.WesternFinals),
		CommonFinals:    toConsonantMap(a.CommonFinals),
		AlternateFinals: toConsonantMap(a.AlternateFinals),
		Punctuation:     toRuneMap(a.Punctuation),
	})
}

// Write serializes the artifact as indented JSON.
func (a *Artifact) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Marshal serializes the artifact to a JSON byte slice.
func (a *Artifact) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read parses and schema-validates an artifact.
func Read(r io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses and schema-validates an artifact from bytes.
func Unmarshal(data []byte) (*Artifact, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if err := s.Validate(instance); err != nil {
		return nil, fmt.Errorf("artifact failed schema validation: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

func vowelMap(m map[table.Vowel]rune) map[string]uint32 {
	out := make(map[string]uint32, len(m))
	for k, v := range m {
		out[string(k)] = uint32(v)
	}
	return out
}

func consonantMap(m map[table.Consonant]rune) map[string]uint32 {
	out := make(map[string]uint32, len(m))
	for k, v := range m {
		out[string(k)] = uint32(v)
	}
	return out
}

func stringMap(m map[string]rune) map[string]uint32 {
	out := make(map[string]uint32, len(m))
	for k, v := range m {
		out[k] = uint32(v)
	}
	return out
}

func toVowelMap(m map[string]uint32) map[table.Vowel]rune {
	out := make(map[table.Vowel]rune, len(m))
	for k, v := range m {
		out[table.Vowel(k)] = rune(v)
	}
	return out
}

func toConsonantMap(m map[string]uint32) map[table.Consonant]rune {
	out := make(map[table.Consonant]rune, len(m))
	for k, v := range m {
		out[table.Consonant(k)] = rune(v)
	}
	return out
}

func toRuneMap(m map[string]uint32) map[string]rune {
	out := make(map[string]rune, len(m))
	for k, v := range m {
		out[k] = rune(v)
	}
	return out
}
