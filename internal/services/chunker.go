package services

import (
	"strings"
	"unicode/utf8"

	"internmatch/profile-builder/internal/models"
)

const defaultChunkSize = 1000

// ProfileChunk is one piece of a resume document sent for embedding.
type ProfileChunk struct {
	Section string
	Text    string
}

type ResumeChunker interface {
	Chunk(doc models.ResumeDocument) []ProfileChunk
}

type resumeChunker struct {
	maxChunkSize int
}

func NewResumeChunker(maxChunkSize int) ResumeChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	return &resumeChunker{maxChunkSize: maxChunkSize}
}

// Chunk renders each resume section as text and splits sections longer
// than the chunk size. Chunks never span two sections.
func (c *resumeChunker) Chunk(doc models.ResumeDocument) []ProfileChunk {
	var chunks []ProfileChunk
	add := func(section string, blocks []string) {
		for _, text := range packBlocks(blocks, c.maxChunkSize) {
			chunks = append(chunks, ProfileChunk{Section: section, Text: text})
		}
	}

	if summary := strings.TrimSpace(doc.Profile.Summary); summary != "" {
		add("summary", []string{summary})
	}

	var blocks []string
	for _, w := range doc.WorkExperiences {
		blocks = append(blocks, entryText(joinNonEmpty(" at ", w.JobTitle, w.Company), w.Date, w.Descriptions))
	}
	add("experience", blocks)

	blocks = nil
	for _, e := range doc.Educations {
		blocks = append(blocks, entryText(joinNonEmpty(", ", e.Degree, e.School), e.Date, e.Descriptions))
	}
	add("education", blocks)

	blocks = nil
	for _, p := range doc.Projects {
		blocks = append(blocks, entryText(p.Project, p.Date, p.Descriptions))
	}
	add("projects", blocks)

	var skills []string
	for _, s := range doc.Skills.FeaturedSkills {
		skills = append(skills, s.Skill)
	}
	if len(skills) > 0 || len(doc.Skills.Descriptions) > 0 {
		add("skills", []string{joinNonEmpty("\n", "Skills: "+strings.Join(skills, ", "), strings.Join(doc.Skills.Descriptions, "\n"))})
	}

	add("accomplishments", doc.Custom.Descriptions)
	return chunks
}

func entryText(title, date string, descriptions []string) string {
	head := strings.TrimSpace(title)
	if date = strings.TrimSpace(date); date != "" {
		head += " (" + date + ")"
	}
	return joinNonEmpty("\n", head, strings.Join(descriptions, "\n"))
}

// packBlocks greedily joins blocks up to maxSize runes. A block that is
// too long on its own is split by sentences.
func packBlocks(blocks []string, maxSize int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	appendPart := func(part, sep string) {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(part)+len(sep) > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if utf8.RuneCountInString(block) <= maxSize {
			appendPart(block, "\n\n")
			continue
		}
		for _, sentence := range splitIntoSentences(block) {
			for _, piece := range splitRunes(sentence, maxSize) {
				appendPart(piece, " ")
			}
		}
	}
	flush()
	return chunks
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})

	var result []string
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// splitRunes cuts text into pieces of at most n runes.
func splitRunes(text string, n int) []string {
	runes := []rune(text)
	if len(runes) <= n {
		return []string{text}
	}
	var out []string
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
