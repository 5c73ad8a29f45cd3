package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// KeywordRule maps a category to the keywords that select it. Rules are
// evaluated in order and the first match wins.
type KeywordRule struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

// ClassifierRules is the full, injectable rule set. It is plain data so
// deployments can swap it out via a JSON file without code changes.
type ClassifierRules struct {
	Rules []KeywordRule `json:"rules"`

	// Fallback heuristic inputs, applied when no ordered rule matches.
	TechKeywords          []string `json:"techKeywords"`
	EntertainmentKeywords []string `json:"entertainmentKeywords"`

	EntertainmentCategory string `json:"entertainmentCategory"`
	TechCategory          string `json:"techCategory"`
	DefaultCategory       string `json:"defaultCategory"`
}

// DefaultClassifierRules returns the built-in rule set. The entertainment
// rule deliberately precedes the media-type rules, so a playful name like
// "cute game" outranks its file extension.
func DefaultClassifierRules() ClassifierRules {
	return ClassifierRules{
		Rules: []KeywordRule{
			{Category: "Entertainment", Keywords: []string{"game", "play", "fun", "entertainment", "anime", "movie", "music"}},
			{Category: "Documents", Keywords: []string{"doc", "pdf", "txt", "report", "readme", "manual", "notes"}},
			{Category: "Images", Keywords: []string{"png", "jpg", "jpeg", "gif", "svg", "photo", "image", "icon"}},
			{Category: "Audio & Video", Keywords: []string{"mp3", "mp4", "wav", "avi", "mkv", "audio", "video"}},
			{Category: "Archives", Keywords: []string{"zip", "tar", "rar", "7z", "archive", "backup"}},
		},
		TechKeywords:          []string{"html", "css", "javascript", "python", "golang", "code", "api", "sdk", "server", "script", "web"},
		EntertainmentKeywords: []string{"game", "fun", "play", "entertainment"},
		EntertainmentCategory: "Entertainment",
		TechCategory:          "Development Tools",
		DefaultCategory:       "General Tools",
	}
}

// LoadClassifierRules reads a rule set from a JSON file. Missing fallback
// fields are filled from the defaults so a partial file stays usable.
func LoadClassifierRules(path string) (ClassifierRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClassifierRules{}, fmt.Errorf("reading classifier rules: %w", err)
	}

	rules := DefaultClassifierRules()
	if err := json.Unmarshal(data, &rules); err != nil {
		return ClassifierRules{}, fmt.Errorf("parsing classifier rules: %w", err)
	}
	if rules.EntertainmentCategory == "" || rules.TechCategory == "" || rules.DefaultCategory == "" {
		return ClassifierRules{}, fmt.Errorf("classifier rules: fallback categories must not be empty")
	}
	return rules, nil
}

// Classifier maps file metadata to a category name. It is pure: same input,
// same output, no side effects. Persisting the result is the catalog's job.
type Classifier struct {
	rules ClassifierRules
}

func NewClassifier(rules ClassifierRules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify lowercases and concatenates the display name, project name and
// project description, then applies the ordered rules first-match-wins. When
// nothing matches, a secondary heuristic kicks in: text that looks both
// technical and entertaining is entertainment, purely technical text is
// development tooling, anything else lands in the default bucket.
func (c *Classifier) Classify(displayName, projectName, projectDesc string) string {
	text := strings.ToLower(displayName + " " + projectName + " " + projectDesc)

	for _, rule := range c.rules.Rules {
		if containsAny(text, rule.Keywords) {
			return rule.Category
		}
	}

	tech := containsAny(text, c.rules.TechKeywords)
	entertainment := containsAny(text, c.rules.EntertainmentKeywords)

	switch {
	case tech && entertainment:
		return c.rules.EntertainmentCategory
	case tech:
		return c.rules.TechCategory
	default:
		return c.rules.DefaultCategory
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
