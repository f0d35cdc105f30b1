package analysis

import (
	"fmt"
	"strings"
)

// techKeywords maps a technology name to corpus fragments that imply it.
var techKeywords = []struct {
	name     string
	keywords []string
}{
	{"Python", []string{"python", ".py", "pip", "requirements.txt", "django", "flask", "fastapi", "import "}},
	{"JavaScript", []string{"javascript", ".js", "npm", "package.json", "node", "const ", "let ", "var "}},
	{"TypeScript", []string{"typescript", ".ts", ".tsx", "tsconfig"}},
	{"React", []string{"react", "jsx", "create-react-app", "usestate", "useeffect"}},
	{"Vue.js", []string{"vue", "vuejs", "vue.js", "<template>"}},
	{"Angular", []string{"angular", "@angular", "@component"}},
	{"Flask", []string{"flask", "from flask", "flask("}},
	{"Django", []string{"django", "from django"}},
	{"FastAPI", []string{"fastapi", "from fastapi", "fastapi("}},
	{"Express", []string{"express", "expressjs", "app.get(", "app.post("}},
	{"Node.js", []string{"nodejs", "node.js", "require(", "module.exports"}},
	{"Java", []string{".java", "public class", "import java"}},
	{"Go", []string{".go", "package main", "func main", "import \""}},
	{"Rust", []string{".rs", "fn main", "use std::", "cargo.toml"}},
	{"C++", []string{".cpp", ".cc", ".cxx", "#include <", "using namespace"}},
	{"C", []string{".c", "#include <stdio.h>", "int main("}},
	{"Docker", []string{"dockerfile", "docker-compose", "from ", "run "}},
	{"Kubernetes", []string{"kubernetes", "k8s", "apiversion:", "kind:"}},
	{"MongoDB", []string{"mongodb", "mongoose", "db.collection"}},
	{"PostgreSQL", []string{"postgresql", "postgres", "psql"}},
	{"MySQL", []string{"mysql", "mysqli"}},
	{"Redis", []string{"redis", "redis-server"}},
	{"Next.js", []string{"next.js", "nextjs", "next/"}},
	{"Svelte", []string{"svelte", ".svelte"}},
	{"PHP", []string{".php", "<?php", "composer.json"}},
	{"Ruby", []string{".rb", "gemfile", "require "}},
	{"Swift", []string{".swift", "import foundation"}},
	{"Kotlin", []string{".kt", "fun main"}},
}

var featureHeadings = []string{"features:", "functionality:", "## features", "## functionality", "### features", "what it does"}

var bulletPrefixes = []string{"-", "*", "+", "1.", "2.", "3.", "4.", "5.", "6.", "7.", "8.", "9.", "•"}

const (
	maxTechnologies = 10
	maxFeatures     = 8
	summaryLimit    = 2000
)

// extractReport distills the corpus into the structured report.
func extractReport(corpus, repoURL, repoName string) *Report {
	readmeLines := readmeSection(corpus)

	report := &Report{
		RepositoryName: repoName,
		RepositoryURL:  repoURL,
		Description:    extractDescription(readmeLines),
		Technologies:   detectTechnologies(corpus),
		MainFeatures:   extractFeatures(readmeLines),
		FileStructure:  extractFileStructure(corpus),
		AnalysisText:   corpus,
	}

	if report.Description == "" {
		report.Description = fmt.Sprintf("A comprehensive %s project", repoName)
	}
	report.ContentSummary = corpus
	if len(corpus) > summaryLimit {
		report.ContentSummary = corpus[:summaryLimit] + "..."
	}
	return report
}

// readmeSection returns the lines between the README header and the next
// corpus section marker.
func readmeSection(corpus string) []string {
	var (
		lines    []string
		inReadme bool
	)
	for _, line := range strings.Split(corpus, "\n") {
		switch {
		case strings.Contains(line, "=== README Content"):
			inReadme = true
		case inReadme && strings.HasPrefix(line, "==="):
			return lines
		case inReadme:
			lines = append(lines, line)
		}
	}
	return lines
}

// extractDescription looks for the first paragraph after the top-level
// README heading, skipping badges.
func extractDescription(readmeLines []string) string {
	limit := min(len(readmeLines), 20)
	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(readmeLines[i])
		if !strings.HasPrefix(line, "# ") {
			continue
		}
		for j := i + 1; j < min(i+5, len(readmeLines)); j++ {
			next := strings.TrimSpace(readmeLines[j])
			if next != "" && !strings.HasPrefix(next, "#") && !strings.HasPrefix(next, "[![") {
				return next
			}
		}
		return ""
	}
	return ""
}

func detectTechnologies(corpus string) []string {
	lower := strings.ToLower(corpus)
	var detected []string
	for _, tech := range techKeywords {
		for _, keyword := range tech.keywords {
			if strings.Contains(lower, keyword) {
				detected = append(detected, tech.name)
				break
			}
		}
		if len(detected) >= maxTechnologies {
			break
		}
	}
	return detected
}

// extractFeatures collects bullet points from a dedicated features section,
// falling back to any early bullet points in the README.
func extractFeatures(readmeLines []string) []string {
	var features []string
	inSection := false

	for _, line := range readmeLines {
		lower := strings.ToLower(strings.TrimSpace(line))
		switch {
		case containsHeading(lower):
			inSection = true
		case inSection && strings.HasPrefix(lower, "##"):
			return clampFeatures(features)
		case inSection:
			if feature, ok := stripBullet(line); ok && len(feature) > 10 && len(feature) < 150 {
				features = append(features, feature)
				if len(features) >= maxFeatures {
					return features
				}
			}
		}
	}
	if len(features) > 0 {
		return clampFeatures(features)
	}

	limit := min(len(readmeLines), 50)
	for _, line := range readmeLines[:limit] {
		if feature, ok := stripBullet(line); ok && len(feature) > 15 && len(feature) < 120 {
			features = append(features, feature)
			if len(features) >= 6 {
				break
			}
		}
	}
	return clampFeatures(features)
}

func containsHeading(lower string) bool {
	for _, heading := range featureHeadings {
		if strings.Contains(lower, heading) {
			return true
		}
	}
	return false
}

func stripBullet(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)), true
		}
	}
	return "", false
}

func clampFeatures(features []string) []string {
	if len(features) > maxFeatures {
		return features[:maxFeatures]
	}
	return features
}

func extractFileStructure(corpus string) []string {
	var files []string
	for _, line := range strings.Split(corpus, "\n") {
		if !strings.Contains(line, "=== File:") {
			continue
		}
		_, rest, _ := strings.Cut(line, "=== File:")
		if path := strings.TrimSpace(strings.ReplaceAll(rest, "===", "")); path != "" {
			files = append(files, path)
		}
	}
	return files
}
