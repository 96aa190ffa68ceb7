package knowledge

import (
	"fmt"
	"maps"
	"strings"
	"unicode"
)

// Chunk splits doc into pieces of at most size runes that overlap by
// overlap runes. Cuts prefer the last whitespace inside the window. Chunk
// IDs are doc.ID + "#" + index; metadata records the chunk index.
func Chunk(doc Document, size, overlap int) []Document {
	text := []rune(strings.TrimSpace(doc.Content))
	if len(text) == 0 {
		return nil
	}

	if size <= 0 || len(text) <= size {
		c := doc
		c.Content = string(text)
		c.ID = chunkID(doc, 0)
		c.Metadata = chunkMetadata(doc, 0)

		return []Document{c}
	}

	var (
		out   []Document
		start int
	)

	for start < len(text) {
		end := min(start+size, len(text))

		if end < len(text) {
			for i := end; i > start+size/2; i-- {
				if unicode.IsSpace(text[i-1]) {
					end = i
					break
				}
			}
		}

		piece := strings.TrimSpace(string(text[start:end]))
		if piece != "" {
			c := doc
			c.Content = piece
			c.ID = chunkID(doc, len(out))
			c.Metadata = chunkMetadata(doc, len(out))
			out = append(out, c)
		}

		if end == len(text) {
			break
		}

		start = max(end-overlap, start+1)
	}

	return out
}

func chunkID(doc Document, i int) string {
	id := doc.ID
	if id == "" {
		id = doc.Source
	}

	return fmt.Sprintf("%s#%d", id, i)
}

func chunkMetadata(doc Document, i int) map[string]string {
	md := maps.Clone(doc.Metadata)
	if md == nil {
		md = map[string]string{}
	}

	md["chunk"] = fmt.Sprint(i)

	return md
}
