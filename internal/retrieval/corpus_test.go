package retrieval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChunk(t *testing.T) {
	t.Run("small text single chunk", func(t *testing.T) {
		docs := Chunk("doc", "one paragraph only")
		if len(docs) != 1 {
			t.Fatalf("Chunk() produced %d documents, want 1", len(docs))
		}
		if docs[0].ID != "doc#0" {
			t.Errorf("ID = %q, want doc#0", docs[0].ID)
		}
	})

	t.Run("paragraphs packed up to cap", func(t *testing.T) {
		para := strings.Repeat("word ", 100) // ~500 chars
		text := para + "\n\n" + para + "\n\n" + para
		docs := Chunk("doc", text)
		if len(docs) < 2 {
			t.Fatalf("Chunk() produced %d documents, want at least 2", len(docs))
		}
		for _, d := range docs {
			// A single paragraph exceeds nothing here, so the cap holds.
			if len(d.Text) > maxChunkChars {
				t.Errorf("chunk %s has %d chars, cap is %d", d.ID, len(d.Text), maxChunkChars)
			}
		}
	})

	t.Run("oversized paragraph kept whole", func(t *testing.T) {
		big := strings.Repeat("x", maxChunkChars+100)
		docs := Chunk("doc", big)
		if len(docs) != 1 {
			t.Fatalf("Chunk() split an unbreakable paragraph into %d chunks", len(docs))
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if docs := Chunk("doc", "  \n\n  "); docs != nil {
			t.Errorf("Chunk() = %v, want nil", docs)
		}
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("b_oreo.txt", "Oreo cookies UPC 044000032029")
	write("a_cheetos.txt", "Cheetos snacks UPC 028400433303")
	write("notes.md", "ignored, not a corpus file")

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("LoadDir() loaded %d documents, want 2", len(docs))
	}
	// Lexicographic file order keeps IDs deterministic.
	if docs[0].ID != "a_cheetos#0" || docs[1].ID != "b_oreo#0" {
		t.Errorf("document order = [%s %s], want [a_cheetos#0 b_oreo#0]", docs[0].ID, docs[1].ID)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("LoadDir() on empty dir error = nil, want error")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Cheetos Crunchy", []string{"cheetos", "crunchy"}},
		{"UPC 028400433303!", []string{"upc", "028400433303"}},
		{"abc123def", []string{"abc", "123", "def"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := tokenize(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
