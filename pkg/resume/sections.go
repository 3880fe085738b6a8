package resume

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxSkills           = 30
	MaxSkillLength      = 50 // exclusive
	MaxExperiences      = 10
	MaxExperienceLength = 500
	MinExperienceLength = 20 // exclusive
	MaxEducation        = 5
	MaxEducationLength  = 300
	MinEducationLength  = 10 // exclusive
	MinSummaryLength    = 50
	MaxSummaryLength    = 500
	MinSummaryParagraph = 100 // inclusive
	MaxSummaryParagraph = 500 // exclusive
	truncationSuffix    = "..."
)

// Sections holds the heuristic breakdown of a résumé.
type Sections struct {
	Skills      []string
	Experiences []string
	Education   []string
	Summary     string
}

// Analyze runs every section heuristic over cleaned, capped text.
func Analyze(text string) Sections {
	return Sections{
		Skills:      ExtractSkills(text),
		Experiences: ExtractExperiences(text),
		Education:   ExtractEducation(text),
		Summary:     ExtractSummary(text),
	}
}

var (
	skillPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)skills?[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)technical\s+skills?[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)programming\s+languages?[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)technologies?[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)frameworks?[:\s]+([^\n]+)`),
	}
	skillDelimiters = regexp.MustCompile(`[,;|•·]`)

	experienceLabel    = regexp.MustCompile(`(?i)(experience|employment|work\s+history)[:\s]*`)
	experienceEnd      = regexp.MustCompile(`(?i)education|skills|projects|certifications`)
	experienceBoundary = regexp.MustCompile(`(?i)^(?:\d{4}\s*[-–]|january|february|march|april|may|june|july|august|september|october|november|december)`)

	educationLabel    = regexp.MustCompile(`(?i)(education|academic|qualifications?)[:\s]*`)
	educationEnd      = regexp.MustCompile(`(?i)experience|skills|projects|certifications`)
	educationBoundary = regexp.MustCompile(`(?i)^(?:bachelor|master|phd|b\.s\.|m\.s\.|b\.a\.|m\.a\.|university|college|institute)`)

	summaryLabel = regexp.MustCompile(`(?i)(summary|objective|profile|about)[:\s]*([^\n]{50,500})`)
)

// ExtractSkills collects delimiter-separated entries from every line that
// follows a skills, technologies or frameworks label. Entries are trimmed,
// shorter than MaxSkillLength, distinct in first-seen order, and capped at MaxSkills.
func ExtractSkills(text string) []string {
	seen := make(map[string]struct{})
	skills := make([]string, 0)
	for _, p := range skillPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			for _, part := range skillDelimiters.Split(strings.TrimSpace(m[1]), -1) {
				s := strings.TrimSpace(part)
				if s == "" || utf8.RuneCountInString(s) >= MaxSkillLength {
					continue
				}
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				skills = append(skills, s)
				if len(skills) == MaxSkills {
					return skills
				}
			}
		}
	}
	return skills
}

// ExtractExperiences splits the region after the first experience label, up
// to the next section keyword, at year ranges and month names.
func ExtractExperiences(text string) []string {
	section, ok := labeledRegion(text, experienceLabel, experienceEnd)
	if !ok {
		return make([]string, 0)
	}
	return collectEntries(splitBefore(section, experienceBoundary), MinExperienceLength, MaxExperienceLength, MaxExperiences)
}

// ExtractEducation splits the region after the first education label, up to
// the next section keyword, at degree and institution words.
func ExtractEducation(text string) []string {
	section, ok := labeledRegion(text, educationLabel, educationEnd)
	if !ok {
		return make([]string, 0)
	}
	return collectEntries(splitBefore(section, educationBoundary), MinEducationLength, MaxEducationLength, MaxEducation)
}

// ExtractSummary returns the first 50 to 500 character span on the line after
// a summary label, or else the first paragraph whose length is in
// [MinSummaryParagraph, MaxSummaryParagraph). It returns "" when neither exists.
func ExtractSummary(text string) string {
	if m := summaryLabel.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	for _, para := range strings.Split(text, "\n\n") {
		n := utf8.RuneCountInString(para)
		if n >= MinSummaryParagraph && n < MaxSummaryParagraph {
			return strings.TrimSpace(para)
		}
	}
	return ""
}

// labeledRegion returns the trimmed text between the first match of label and
// the first following match of end, or the end of text.
func labeledRegion(text string, label, end *regexp.Regexp) (string, bool) {
	loc := label.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if stop := end.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return strings.TrimSpace(rest), true
}

// splitBefore cuts s at every position after the first where the anchored
// pattern matches, keeping the matched text at the start of its piece.
func splitBefore(s string, anchored *regexp.Regexp) []string {
	pieces := make([]string, 0)
	start := 0
	for i := range s {
		if i == 0 {
			continue
		}
		if anchored.MatchString(s[i:]) {
			pieces = append(pieces, s[start:i])
			start = i
		}
	}
	return append(pieces, s[start:])
}

// collectEntries keeps trimmed pieces longer than minLen runes, truncating
// those longer than maxLen with an ellipsis, up to limit entries.
func collectEntries(pieces []string, minLen, maxLen, limit int) []string {
	entries := make([]string, 0, limit)
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		n := utf8.RuneCountInString(p)
		if n <= minLen {
			continue
		}
		if n > maxLen {
			p = string([]rune(p)[:maxLen]) + truncationSuffix
		}
		entries = append(entries, p)
		if len(entries) == limit {
			break
		}
	}
	return entries
}
