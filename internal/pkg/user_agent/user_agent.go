package user_agent

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Device types
const (
	TypeDesktop = "desktop"
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeUnknown = "unknown"
)

// Fallback labels for browsers and operating systems
const (
	Other   = "Other"
	Unknown = "Unknown"
)

// Classification is the coarse device breakdown derived from a client signature.
type Classification struct {
	Type    string `json:"type"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

//go:embed rules.yml
var defaultRulesYAML []byte

// Rule matches when the lowercased signature contains any Match token and no Exclude token.
type Rule struct {
	Name    string   `yaml:"name"`
	Match   []string `yaml:"match"`
	Exclude []string `yaml:"exclude"`
}

type ruleFile struct {
	Types            []Rule `yaml:"types"`
	Browsers         []Rule `yaml:"browsers"`
	OperatingSystems []Rule `yaml:"operating_systems"`
}

// Classifier applies ordered first-match rules. It holds no mutable state.
type Classifier struct {
	types    []Rule
	browsers []Rule
	oss      []Rule
}

var defaultClassifier = mustNewClassifier(defaultRulesYAML)

// NewClassifier parses a YAML rule file.
func NewClassifier(data []byte) (*Classifier, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse classifier rules: %w", err)
	}

	c := &Classifier{
		types:    normalizeRules(file.Types),
		browsers: normalizeRules(file.Browsers),
		oss:      normalizeRules(file.OperatingSystems),
	}
	for _, set := range [][]Rule{c.types, c.browsers, c.oss} {
		for _, r := range set {
			if r.Name == "" || len(r.Match) == 0 {
				return nil, fmt.Errorf("parse classifier rules: rule %q needs a name and at least one match token", r.Name)
			}
		}
	}
	return c, nil
}

func mustNewClassifier(data []byte) *Classifier {
	c, err := NewClassifier(data)
	if err != nil {
		panic(err)
	}
	return c
}

func normalizeRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{
			Name:    r.Name,
			Match:   lowerAll(r.Match),
			Exclude: lowerAll(r.Exclude),
		}
	}
	return out
}

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

// Classify maps a raw signature to {type, browser, os}. Empty signatures are Unknown
// across the board; anything unrecognized falls back to desktop and Other.
func (c *Classifier) Classify(signature string) Classification {
	ua := strings.ToLower(strings.TrimSpace(signature))
	if ua == "" {
		return Classification{Type: TypeUnknown, Browser: Unknown, OS: Unknown}
	}

	return Classification{
		Type:    firstMatch(c.types, ua, TypeDesktop),
		Browser: firstMatch(c.browsers, ua, Other),
		OS:      firstMatch(c.oss, ua, Other),
	}
}

// Classify uses the embedded rule set.
func Classify(signature string) Classification {
	return defaultClassifier.Classify(signature)
}

func firstMatch(rules []Rule, ua, fallback string) string {
	for _, r := range rules {
		if containsAny(ua, r.Match) && !containsAny(ua, r.Exclude) {
			return r.Name
		}
	}
	return fallback
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
