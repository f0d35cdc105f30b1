package scriptgen

import (
	"fmt"
	"strings"

	"reporeel/internal/analysis"
)

const promptSummaryLimit = 1200

// BuildPrompt assembles the narration request sent to the chat providers.
func BuildPrompt(report *analysis.Report) string {
	techList := "Various modern technologies"
	if len(report.Technologies) > 0 {
		techList = strings.Join(limitSlice(report.Technologies, 6), ", ")
	}

	featureList := "- Multiple innovative features"
	if len(report.MainFeatures) > 0 {
		var lines []string
		for _, feature := range limitSlice(report.MainFeatures, 6) {
			lines = append(lines, "- "+feature)
		}
		featureList = strings.Join(lines, "\n")
	}

	summary := report.ContentSummary
	if len(summary) > promptSummaryLimit {
		summary = summary[:promptSummaryLimit]
	}

	return fmt.Sprintf(`Create a comprehensive and engaging video script for a repository overview video about '%s'.

Repository Information:
- Name: %s
- Description: %s
- Technologies Used: %s
- Key Features:
%s

Repository Content Summary:
%s

Requirements for the Video Script:
1. Create a 2-3 minute video script (approximately 300-450 words)
2. Use an engaging, professional tone suitable for developers and tech enthusiasts
3. Structure the script with clear timing sections:
   - Introduction (30 seconds) - Hook the audience and introduce the project
   - Main features and functionality (90 seconds) - Detailed overview of capabilities
   - Technical highlights (60 seconds) - Architecture, technologies, and implementation details
   - Conclusion (30 seconds) - Summary and call-to-action

4. Include natural transitions between sections
5. Make it informative yet accessible to both technical and non-technical audiences
6. Focus on practical benefits, use cases, and real-world applications
7. End with a compelling call-to-action encouraging exploration or contribution
8. Include timing cues in brackets like [0:00 - 0:30] for each section

Style Guidelines:
- Use conversational, engaging language
- Include specific details about the project's functionality
- Highlight what makes this repository unique or valuable
- Keep sentences clear and well-paced for narration
- Include enthusiasm and excitement about the project
- Mention specific technologies and their benefits when relevant

Write a complete video script that effectively communicates the value and functionality of this repository:

Video Script:`,
		report.RepositoryName,
		report.RepositoryName,
		report.Description,
		techList,
		featureList,
		summary,
	)
}

func limitSlice(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}
