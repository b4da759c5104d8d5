package chunking

import (
	"regexp"
	"strings"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

var headingLine = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Splitter cuts markdown into fragments along headings, then windows long
// sections by rune count. Each fragment carries a contextualized variant
// prefixed with the document title and heading path so a chunk stays
// meaningful when retrieved on its own.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

var _ ports.Chunker = (*Splitter)(nil)

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

type section struct {
	path []string
	body strings.Builder
}

func (s *Splitter) Split(title, text string) []domain.DocumentFragment {
	sections := splitSections(text)

	var out []domain.DocumentFragment
	index := 0
	for _, sec := range sections {
		for _, chunk := range s.window(sec.body.String()) {
			out = append(out, domain.DocumentFragment{
				ChunkIndex:         index,
				ChunkText:          chunk,
				ContextualizedText: contextualize(title, sec.path, chunk),
			})
			index++
		}
	}
	return out
}

func splitSections(text string) []*section {
	current := &section{}
	sections := []*section{current}
	var stack []string

	for _, line := range strings.Split(text, "\n") {
		match := headingLine.FindStringSubmatch(strings.TrimRight(line, " \t"))
		if match == nil {
			current.body.WriteString(line)
			current.body.WriteString("\n")
			continue
		}

		level := len(match[1])
		if level <= len(stack) {
			stack = stack[:level-1]
		}
		stack = append(stack, strings.TrimSpace(match[2]))

		current = &section{path: append([]string(nil), stack...)}
		sections = append(sections, current)
	}
	return sections
}

func (s *Splitter) window(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

func contextualize(title string, path []string, chunk string) string {
	crumbs := append([]string{title}, path...)
	return strings.Join(crumbs, " > ") + "\n" + chunk
}
