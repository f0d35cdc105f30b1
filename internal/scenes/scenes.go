// Package scenes turns a narration script into a timed visual scene plan.
package scenes

import "strings"

// Type categorizes a scene for the renderer.
type Type string

const (
	TypeTitle      Type = "title"
	TypeFeatures   Type = "features"
	TypeTechnology Type = "technology"
	TypeCode       Type = "code"
	TypeConclusion Type = "conclusion"
	TypeContent    Type = "content"
)

// Scene is one visual segment of the final video.
type Scene struct {
	Type     Type
	Title    string
	Text     string
	Color    string
	Start    float64
	Duration float64
}

// Plan holds the ordered scenes and the total planned duration.
type Plan struct {
	Scenes        []Scene
	TotalDuration float64
}

const (
	// Narration pace of roughly 2.5 words per second.
	secondsPerWord = 0.4
	minDuration    = 30.0
	maxDuration    = 300.0

	sceneTextLimit  = 150
	sceneTitleLimit = 60
)

var palette = []string{
	"#2563eb", // blue
	"#7c3aed", // purple
	"#059669", // green
	"#dc2626", // red
	"#ea580c", // orange
	"#0891b2", // cyan
	"#6366f1", // indigo
	"#8b5cf6", // violet
}

var introWords = []string{"welcome", "introduction", "hello", "today", "overview"}
var featureWords = []string{"feature", "functionality", "capability", "includes"}
var codeWords = []string{"code", "implementation", "architecture", "technical"}
var outroWords = []string{"conclusion", "summary", "thank", "explore"}

// EstimateDuration derives the target video length from the script's word
// count, clamped to a 30 second floor and a 5 minute ceiling.
func EstimateDuration(script string) float64 {
	duration := float64(len(strings.Fields(script))) * secondsPerWord
	if duration < minDuration {
		return minDuration
	}
	if duration > maxDuration {
		return maxDuration
	}
	return duration
}

// Build splits the script into scenes, classifies each one, and assigns
// contiguous equal-length time slots covering the estimated duration.
func Build(script, repoName string, technologies []string) Plan {
	duration := EstimateDuration(script)
	sections := Split(script)

	sceneDuration := duration / float64(len(sections))
	plan := Plan{TotalDuration: duration}
	for i, section := range sections {
		plan.Scenes = append(plan.Scenes, Scene{
			Type:     Classify(section, technologies),
			Title:    TitleFor(section, repoName),
			Text:     truncate(section, sceneTextLimit),
			Color:    palette[i%len(palette)],
			Start:    float64(i) * sceneDuration,
			Duration: sceneDuration,
		})
	}
	return plan
}

// Split breaks a script into logical sections. It prefers timing markers,
// then blank-line paragraphs, then sentence groups, then word groups, and
// finally yields the whole script as one section.
func Split(script string) []string {
	if sections := splitByMarkers(script); len(sections) >= 2 {
		return sections
	}

	var paragraphs []string
	for _, p := range strings.Split(script, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	if len(paragraphs) > 1 {
		return paragraphs
	}

	sentences := strings.Split(script, ". ")
	if len(sentences) > 4 {
		return groupJoin(sentences, max(len(sentences)/4, 1), ". ")
	}

	words := strings.Fields(script)
	if len(words) > 40 {
		return groupJoin(words, max(len(words)/4, 20), " ")
	}

	if strings.TrimSpace(script) == "" {
		return []string{"Repository Overview"}
	}
	return []string{script}
}

// splitByMarkers starts a new section at every line containing a bracketed
// timing marker such as "[0:15]".
func splitByMarkers(script string) []string {
	if !strings.Contains(script, "[") || !strings.Contains(script, "]") {
		return nil
	}

	var (
		sections []string
		current  strings.Builder
	)
	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			sections = append(sections, trimmed)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		if isMarkerLine(line) {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	return sections
}

func isMarkerLine(line string) bool {
	if !strings.Contains(line, "[") || !strings.Contains(line, "]") {
		return false
	}
	return strings.ContainsAny(line, "0123456789")
}

// Classify picks a scene type from section keywords. Intro phrasing wins
// over everything, then features, then a technology name-drop, then code
// talk, then closing phrasing.
func Classify(section string, technologies []string) Type {
	lower := strings.ToLower(section)

	if containsAny(lower, introWords) {
		return TypeTitle
	}
	if containsAny(lower, featureWords) {
		return TypeFeatures
	}
	for _, tech := range technologies {
		if tech != "" && strings.Contains(lower, strings.ToLower(tech)) {
			return TypeTechnology
		}
	}
	if containsAny(lower, codeWords) {
		return TypeCode
	}
	if containsAny(lower, outroWords) {
		return TypeConclusion
	}
	return TypeContent
}

// TitleFor derives a short scene title from the section's first sentence,
// falling back to the repository name.
func TitleFor(section, repoName string) string {
	if idx := strings.LastIndex(section, "]"); idx >= 0 {
		section = section[idx+1:]
	}

	sentence, _, _ := strings.Cut(section, ".")
	title := strings.TrimSpace(sentence)
	title = strings.ReplaceAll(title, "Welcome to", "")
	title = strings.ReplaceAll(title, "Today", "")
	title = strings.TrimSpace(title)
	if len(title) > sceneTitleLimit {
		title = title[:sceneTitleLimit-3] + "..."
	}
	if title == "" {
		return repoName
	}
	return title
}

func groupJoin(parts []string, size int, sep string) []string {
	var sections []string
	for i := 0; i < len(parts); i += size {
		end := min(i+size, len(parts))
		if section := strings.Join(parts[i:end], sep); section != "" {
			sections = append(sections, section)
		}
	}
	return sections
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
