package scenes_test

import (
	"math"
	"strings"
	"testing"

	"reporeel/internal/scenes"
)

func TestEstimateDurationClamps(t *testing.T) {
	cases := []struct {
		name  string
		words int
		want  float64
	}{
		{name: "short script hits floor", words: 10, want: 30},
		{name: "mid script scales by pace", words: 250, want: 100},
		{name: "long script hits ceiling", words: 2000, want: 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			script := strings.TrimSpace(strings.Repeat("word ", tc.words))
			if got := scenes.EstimateDuration(script); got != tc.want {
				t.Fatalf("EstimateDuration(%d words) = %v, want %v", tc.words, got, tc.want)
			}
		})
	}
}

func TestSplitPrefersTimingMarkers(t *testing.T) {
	script := "[0:00] Welcome to the project.\nIt does things.\n[0:15] Here are the features.\nMany of them."
	sections := scenes.Split(script)
	if len(sections) != 2 {
		t.Fatalf("expected 2 marker sections, got %d: %q", len(sections), sections)
	}
	if !strings.HasPrefix(sections[0], "[0:00]") || !strings.HasPrefix(sections[1], "[0:15]") {
		t.Fatalf("sections not split at markers: %q", sections)
	}
}

func TestSplitFallsBackToParagraphs(t *testing.T) {
	script := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph."
	sections := scenes.Split(script)
	if len(sections) != 3 {
		t.Fatalf("expected 3 paragraph sections, got %d: %q", len(sections), sections)
	}
}

func TestSplitGroupsSentences(t *testing.T) {
	script := "One one. Two two. Three three. Four four. Five five. Six six"
	sections := scenes.Split(script)
	if len(sections) < 2 {
		t.Fatalf("expected grouped sentence sections, got %q", sections)
	}
}

func TestSplitWholeScriptWhenShort(t *testing.T) {
	script := "Just a brief line about the repository"
	sections := scenes.Split(script)
	if len(sections) != 1 || sections[0] != script {
		t.Fatalf("short script should stay whole, got %q", sections)
	}
	if got := scenes.Split("   "); len(got) != 1 || got[0] != "Repository Overview" {
		t.Fatalf("empty script should yield placeholder, got %q", got)
	}
}

func TestBuildCoversDurationContiguously(t *testing.T) {
	script := "First paragraph about the project.\n\nSecond paragraph with features.\n\nThird paragraph in conclusion."
	plan := scenes.Build(script, "widgets", nil)

	if len(plan.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(plan.Scenes))
	}

	var sum float64
	for i, scene := range plan.Scenes {
		sum += scene.Duration
		wantStart := float64(i) * plan.Scenes[0].Duration
		if math.Abs(scene.Start-wantStart) > 1e-9 {
			t.Fatalf("scene %d start = %v, want %v", i, scene.Start, wantStart)
		}
	}
	if math.Abs(sum-plan.TotalDuration) > 1e-9 {
		t.Fatalf("scene durations sum to %v, want total %v", sum, plan.TotalDuration)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		name         string
		section      string
		technologies []string
		want         scenes.Type
	}{
		{name: "intro beats features", section: "Welcome! Key feature list follows", want: scenes.TypeTitle},
		{name: "features", section: "It includes many capabilities", want: scenes.TypeFeatures},
		{name: "technology mention", section: "Built with Django throughout", technologies: []string{"Django"}, want: scenes.TypeTechnology},
		{name: "code talk", section: "The architecture is layered", want: scenes.TypeCode},
		{name: "conclusion", section: "In summary, give it a try", want: scenes.TypeConclusion},
		{name: "default", section: "Some narration text", want: scenes.TypeContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scenes.Classify(tc.section, tc.technologies); got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.section, got, tc.want)
			}
		})
	}
}

func TestTitleFor(t *testing.T) {
	cases := []struct {
		name    string
		section string
		want    string
	}{
		{name: "strips marker and prefix", section: "[0:00] Welcome to widgets. More text.", want: "widgets"},
		{name: "first sentence", section: "A tidy summary. Extra detail.", want: "A tidy summary"},
		{name: "falls back to repo name", section: "", want: "repo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scenes.TitleFor(tc.section, "repo"); got != tc.want {
				t.Fatalf("TitleFor(%q) = %q, want %q", tc.section, got, tc.want)
			}
		})
	}

	long := strings.Repeat("x", 80) + ". Rest."
	title := scenes.TitleFor(long, "repo")
	if len(title) != 60 || !strings.HasSuffix(title, "...") {
		t.Fatalf("long title not truncated: %q (len %d)", title, len(title))
	}
}
