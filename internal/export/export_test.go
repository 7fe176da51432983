package export_test

import (
	"bytes"
	"strings"
	"testing"

	"ojitype/internal/export"
	"ojitype/internal/table"
	"ojitype/internal/tabletest"
)

func fixtureTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := tabletest.Compile()
	if err != nil {
		t.Fatalf("compile fixture: %v", err)
	}
	return tbl
}

func TestArtifactRoundTrip(t *testing.T) {
	tbl := fixtureTable(t)
	hash := strings.Repeat("ab", 32)

	artifact := export.FromTable(tbl, hash, "chars.txt")

	var buf bytes.Buffer
	if err := artifact.Write(&buf); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	parsed, err := export.Read(&buf)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if parsed.SourceHash != hash {
		t.Errorf("source hash %q, want %q", parsed.SourceHash, hash)
	}

	rebuilt, err := parsed.Table()
	if err != nil {
		t.Fatalf("rebuild table: %v", err)
	}
	if rebuilt.SequenceCount() != tbl.SequenceCount() {
		t.Errorf("rebuilt table has %d sequences, want %d",
			rebuilt.SequenceCount(), tbl.SequenceCount())
	}

	base, _ := tbl.BaseSyllable("p")
	long := table.VowelLengthMark
	want, ok := tbl.LookupSequence([]rune{base, long, tbl.BareVowel(table.VowelI)})
	if !ok {
		t.Fatal("fixture table missing long pi sequence")
	}
	got, ok := rebuilt.LookupSequence([]rune{base, long, rebuilt.BareVowel(table.VowelI)})
	if !ok || got != want {
		t.Errorf("rebuilt lookup = %U, %v; want %U", got, ok, want)
	}
}

func TestArtifactStable(t *testing.T) {
	tbl := fixtureTable(t)

	a, err := export.FromTable(tbl, "", "").Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := export.FromTable(tbl, "", "").Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Strip the timestamps before comparing.
	strip := func(data []byte) string {
		var out []string
		for _, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, "created_at") {
				continue
			}
			out = append(out, line)
		}
		return strings.Join(out, "\n")
	}
	if strip(a) != strip(b) {
		t.Error("two exports of the same table differ")
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":      "not json",
		"wrong version": `{"version": 2}`,
		"missing maps":  `{"version": 1, "created_at": "2026-01-01T00:00:00Z", "sequences": []}`,
		"bad hash": `{"version": 1, "source_hash": "xyz", "created_at": "2026-01-01T00:00:00Z",
			"sequences": [], "bare_vowels": {}, "base_syllables": {}, "eastern_finals": {},
			"western_finals": {}, "common_finals": {}, "alternate_finals": {}, "punctuation": {}}`,
	}
	for name, data := range cases {
		if _, err := export.Unmarshal([]byte(data)); err == nil {
			t.Errorf("%s: Unmarshal succeeded, want error", name)
		}
	}
}

func TestTableRejectsDuplicateSequences(t *testing.T) {
	tbl := fixtureTable(t)
	artifact := export.FromTable(tbl, "", "")
	artifact.Sequences = append(artifact.Sequences, artifact.Sequences[0])

	if _, err := artifact.Table(); err == nil {
		t.Error("Table with duplicate sequence succeeded, want error")
	}
}
