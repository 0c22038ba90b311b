package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is one searchable passage of the product corpus.
// IDs are unique within a corpus and stable across process restarts.
type Document struct {
	ID   string
	Text string
}

// maxChunkChars caps the size of a corpus chunk. Documents are split on
// paragraph boundaries and paragraphs are packed into chunks up to the cap,
// so a UPC and its surrounding description stay in the same passage.
const maxChunkChars = 750

// LoadDir loads all .txt files from dir and splits them into chunked
// Documents. File order is lexicographic so corpus IDs are deterministic.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []Document
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", name, err)
		}
		base := strings.TrimSuffix(name, ".txt")
		docs = append(docs, Chunk(base, string(data))...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no corpus documents found in %s", dir)
	}
	return docs, nil
}

// Chunk splits text into Documents of at most maxChunkChars, packing whole
// paragraphs per chunk. A single oversized paragraph becomes its own chunk
// rather than being split mid-sentence.
func Chunk(baseID, text string) []Document {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		docs []Document
		sb   strings.Builder
		n    int
	)
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		docs = append(docs, Document{
			ID:   fmt.Sprintf("%s#%d", baseID, n),
			Text: sb.String(),
		})
		sb.Reset()
		n++
	}

	for _, p := range paragraphs {
		if sb.Len() > 0 && sb.Len()+len(p)+2 > maxChunkChars {
			flush()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p)
	}
	flush()
	return docs
}

func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
