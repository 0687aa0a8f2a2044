package guardrails

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
)

// DefaultProhibitedPhrases is used when no phrases are configured.
var DefaultProhibitedPhrases = []string{
	"bad with money",
	"irresponsible",
	"reckless",
	"you're overspending",
	"you are overspending",
	"guaranteed returns",
	"guaranteed return",
	"get rich",
	"risk-free",
	"act now",
	"last chance",
}

// minShoutingWordLength excludes acronyms such as APR or ETF.
const minShoutingWordLength = 4

// ToneContent is the unit of tone judgment.
type ToneContent struct {
	Title       string
	Description string
	Rationale   string
}

// ToneResult is the outcome of validating one piece of content.
type ToneResult struct {
	IsValid    bool
	Violations []string
}

// ToneValidator enforces brand and compliance tone rules. It is stateless once built.
type ToneValidator struct {
	phrases           []string
	maxExclamations   int
	maxUppercaseWords int
}

// NewToneValidator builds a validator from the configured rules.
func NewToneValidator(cfg config.ToneConfig) *ToneValidator {
	phrases := cfg.ProhibitedPhrases
	if len(phrases) == 0 {
		phrases = DefaultProhibitedPhrases
	}
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			normalized = append(normalized, p)
		}
	}
	return &ToneValidator{
		phrases:           normalized,
		maxExclamations:   cfg.MaxExclamations,
		maxUppercaseWords: cfg.MaxUppercaseWords,
	}
}

// ContentOf extracts the tone unit from an item.
func ContentOf(item model.Item) ToneContent {
	return ToneContent{Title: item.Title, Description: item.Description, Rationale: item.Rationale}
}

// Validate judges title, description and rationale together.
func (v *ToneValidator) Validate(content ToneContent) ToneResult {
	text := strings.Join([]string{content.Title, content.Description, content.Rationale}, " ")
	lower := strings.ToLower(text)

	var violations []string
	for _, phrase := range v.phrases {
		if strings.Contains(lower, phrase) {
			violations = append(violations, fmt.Sprintf("prohibited phrase %q", phrase))
		}
	}

	if strings.Contains(text, "!!") || strings.Count(text, "!") > v.maxExclamations {
		violations = append(violations, "excessive urgency punctuation")
	}

	if n := countShoutingWords(text); n > v.maxUppercaseWords {
		violations = append(violations, fmt.Sprintf("%d fully upper-case words", n))
	}

	return ToneResult{IsValid: len(violations) == 0, Violations: violations}
}

// Filter drops every item whose content fails validation.
func (v *ToneValidator) Filter(items []model.Item) Result {
	result := Result{Retained: make([]model.Item, 0, len(items))}
	for _, item := range items {
		res := v.Validate(ContentOf(item))
		if res.IsValid {
			result.Retained = append(result.Retained, item)
			continue
		}
		result.Dropped = append(result.Dropped, DroppedItem{ID: item.ID, Title: item.Title, Reasons: res.Violations})
	}
	return result
}

func countShoutingWords(text string) int {
	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	count := 0
	for _, w := range words {
		if len([]rune(w)) < minShoutingWordLength {
			continue
		}
		if strings.ToUpper(w) == w && strings.ToLower(w) != w {
			count++
		}
	}
	return count
}
