package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// UserType is a visitor behavior profile.
type UserType struct {
	Name     string `yaml:"name"`
	Weight   int    `yaml:"weight"`
	MinPages int    `yaml:"min_pages"`
	MaxPages int    `yaml:"max_pages"`
}

// Transition lists the pages reachable from one page and how likely each is.
type Transition struct {
	Next    []string `yaml:"next"`
	Weights []int    `yaml:"weights"`
}

// Choice is a weighted value.
type Choice struct {
	Value  string `yaml:"value"`
	Weight int    `yaml:"weight"`
}

// Scenario describes the simulated site and its audience.
type Scenario struct {
	UserTypes    []UserType            `yaml:"user_types"`
	Site         map[string][]string   `yaml:"site"`
	Flows        map[string]Transition `yaml:"flows"`
	Sources      []Choice              `yaml:"sources"`
	LandingPages []Choice              `yaml:"landing_pages"`
	UserAgents   []Choice              `yaml:"user_agents"`
	Subnets      []string              `yaml:"subnets"`
	Resolutions  []string              `yaml:"resolutions"`
	Languages    []string              `yaml:"languages"`
	Timezone     string                `yaml:"timezone"`
}

// DefaultScenario is a small product site with docs, a blog and a checkout funnel.
func DefaultScenario() *Scenario {
	return &Scenario{
		UserTypes: []UserType{
			{Name: "bouncer", Weight: 40, MinPages: 1, MaxPages: 1},
			{Name: "browser", Weight: 30, MinPages: 2, MaxPages: 3},
			{Name: "engaged", Weight: 20, MinPages: 4, MaxPages: 8},
			{Name: "converter", Weight: 10, MinPages: 5, MaxPages: 12},
		},
		Site: map[string][]string{
			"landing":    {"/", "/home"},
			"products":   {"/products", "/products/item-1", "/products/item-2", "/products/item-3"},
			"docs":       {"/docs", "/docs/getting-started", "/docs/api-reference", "/docs/tutorial"},
			"blog":       {"/blog", "/blog/post-1", "/blog/post-2", "/blog/news"},
			"conversion": {"/pricing", "/signup", "/login", "/checkout", "/thank-you"},
			"other":      {"/about", "/contact", "/profile", "/settings", "/dashboard"},
		},
		Flows: map[string]Transition{
			"/":                     {Next: []string{"/products", "/docs", "/blog", "/about", "/pricing"}, Weights: []int{35, 25, 20, 10, 10}},
			"/home":                 {Next: []string{"/products", "/docs", "/about", "/pricing"}, Weights: []int{40, 30, 15, 15}},
			"/products":             {Next: []string{"/products/item-1", "/products/item-2", "/pricing", "/docs"}, Weights: []int{35, 30, 25, 10}},
			"/products/item-1":      {Next: []string{"/products/item-2", "/pricing", "/checkout", "/products"}, Weights: []int{30, 35, 20, 15}},
			"/products/item-2":      {Next: []string{"/products/item-3", "/pricing", "/checkout", "/products"}, Weights: []int{25, 35, 25, 15}},
			"/products/item-3":      {Next: []string{"/pricing", "/checkout", "/products"}, Weights: []int{40, 35, 25}},
			"/pricing":              {Next: []string{"/signup", "/checkout", "/products", "/contact"}, Weights: []int{35, 30, 20, 15}},
			"/signup":               {Next: []string{"/checkout", "/dashboard", "/"}, Weights: []int{50, 40, 10}},
			"/checkout":             {Next: []string{"/thank-you", "/products", "/"}, Weights: []int{70, 20, 10}},
			"/thank-you":            {Next: []string{"/dashboard", "/products", "/blog"}, Weights: []int{50, 30, 20}},
			"/docs":                 {Next: []string{"/docs/getting-started", "/docs/api-reference", "/products"}, Weights: []int{50, 35, 15}},
			"/docs/getting-started": {Next: []string{"/docs/api-reference", "/docs/tutorial", "/products"}, Weights: []int{45, 35, 20}},
			"/docs/api-reference":   {Next: []string{"/docs/tutorial", "/products", "/pricing"}, Weights: []int{40, 35, 25}},
			"/docs/tutorial":        {Next: []string{"/products", "/pricing", "/signup"}, Weights: []int{40, 35, 25}},
			"/blog":                 {Next: []string{"/blog/post-1", "/blog/post-2", "/products"}, Weights: []int{40, 35, 25}},
			"/blog/post-1":          {Next: []string{"/blog/post-2", "/products", "/signup"}, Weights: []int{40, 35, 25}},
			"/blog/post-2":          {Next: []string{"/blog/news", "/products", "/pricing"}, Weights: []int{35, 40, 25}},
			"/about":                {Next: []string{"/contact", "/products", "/pricing"}, Weights: []int{40, 35, 25}},
			"/contact":              {Next: []string{"/products", "/", "/about"}, Weights: []int{50, 30, 20}},
		},
		Sources: []Choice{
			{Value: "https://google.com/search?q=analytics+tool", Weight: 35},
			{Value: "https://google.com/search?q=website+tracking", Weight: 15},
			{Value: "", Weight: 15},
			{Value: "https://github.com/analytics", Weight: 8},
			{Value: "https://twitter.com/ref/analytics", Weight: 7},
			{Value: "https://linkedin.com/posts/tech", Weight: 6},
			{Value: "https://reddit.com/r/webdev", Weight: 5},
			{Value: "https://facebook.com/ads", Weight: 4},
			{Value: "https://producthunt.com/products/analytics", Weight: 3},
			{Value: "https://bing.com/search", Weight: 2},
		},
		LandingPages: []Choice{
			{Value: "/", Weight: 30},
			{Value: "/home", Weight: 15},
			{Value: "/products", Weight: 20},
			{Value: "/docs/getting-started", Weight: 15},
			{Value: "/blog/post-1", Weight: 8},
			{Value: "/pricing", Weight: 7},
			{Value: "/about", Weight: 5},
		},
		UserAgents: []Choice{
			{Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36", Weight: 35},
			{Value: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36", Weight: 20},
			{Value: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148", Weight: 20},
			{Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0", Weight: 8},
			{Value: "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/120.0.0.0 Mobile Safari/537.36", Weight: 7},
			{Value: "Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148", Weight: 5},
			{Value: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Safari/17.2", Weight: 5},
		},
		Subnets:     []string{"192.168.1", "10.0.0", "172.16.0", "203.45.67", "156.78.90", "89.123.45"},
		Resolutions: []string{"1920x1080", "1366x768", "390x844", "414x896"},
		Languages:   []string{"zh-CN", "en-US", "ja-JP"},
		Timezone:    "Asia/Shanghai",
	}
}

// LoadScenario reads a YAML scenario. Sections the file omits keep their defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	sc := DefaultScenario()
	var override Scenario
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.merge(&override)

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return sc, nil
}

func (s *Scenario) merge(o *Scenario) {
	if len(o.UserTypes) > 0 {
		s.UserTypes = o.UserTypes
	}
	if len(o.Site) > 0 {
		s.Site = o.Site
	}
	if len(o.Flows) > 0 {
		s.Flows = o.Flows
	}
	if len(o.Sources) > 0 {
		s.Sources = o.Sources
	}
	if len(o.LandingPages) > 0 {
		s.LandingPages = o.LandingPages
	}
	if len(o.UserAgents) > 0 {
		s.UserAgents = o.UserAgents
	}
	if len(o.Subnets) > 0 {
		s.Subnets = o.Subnets
	}
	if len(o.Resolutions) > 0 {
		s.Resolutions = o.Resolutions
	}
	if len(o.Languages) > 0 {
		s.Languages = o.Languages
	}
	if o.Timezone != "" {
		s.Timezone = o.Timezone
	}
}

// Validate checks that every weighted list can be drawn from.
func (s *Scenario) Validate() error {
	var errs []error
	if len(s.UserTypes) == 0 {
		errs = append(errs, errors.New("no user types"))
	}
	for _, ut := range s.UserTypes {
		if ut.Weight <= 0 {
			errs = append(errs, fmt.Errorf("user type %q: weight must be positive", ut.Name))
		}
		if ut.MinPages < 1 || ut.MaxPages < ut.MinPages {
			errs = append(errs, fmt.Errorf("user type %q: need 1 <= min_pages <= max_pages", ut.Name))
		}
	}
	for page, tr := range s.Flows {
		if len(tr.Next) == 0 || len(tr.Next) != len(tr.Weights) {
			errs = append(errs, fmt.Errorf("flow %q: next and weights must be non-empty and the same length", page))
		}
	}
	if len(s.allPages()) == 0 {
		errs = append(errs, errors.New("site has no pages"))
	}
	for name, list := range map[string][]Choice{"sources": s.Sources, "landing_pages": s.LandingPages, "user_agents": s.UserAgents} {
		if len(list) == 0 {
			errs = append(errs, fmt.Errorf("%s is empty", name))
		}
	}
	return errors.Join(errs...)
}

func (s *Scenario) allPages() []string {
	var pages []string
	for _, section := range sortedKeys(s.Site) {
		pages = append(pages, s.Site[section]...)
	}
	return pages
}

// pick draws one item with probability proportional to its weight. Non-positive weights
// count as 1.
func pick[T any](r *rand.Rand, items []T, weight func(T) int) T {
	total := 0
	for _, it := range items {
		total += max(weight(it), 1)
	}
	n := r.IntN(total)
	for _, it := range items {
		n -= max(weight(it), 1)
		if n < 0 {
			return it
		}
	}
	return items[len(items)-1]
}

func pickChoice(r *rand.Rand, items []Choice) string {
	return pick(r, items, func(c Choice) int { return c.Weight }).Value
}

func (s *Scenario) pickUserType(r *rand.Rand) UserType {
	return pick(r, s.UserTypes, func(u UserType) int { return u.Weight })
}

// nextPage follows the flow table, or jumps to any page when the current one has no
// outgoing transitions.
func (s *Scenario) nextPage(r *rand.Rand, current string) string {
	tr, ok := s.Flows[current]
	if !ok {
		pages := s.allPages()
		return pages[r.IntN(len(pages))]
	}
	idx := make([]int, len(tr.Next))
	for i := range idx {
		idx[i] = i
	}
	return tr.Next[pick(r, idx, func(i int) int { return tr.Weights[i] })]
}

// randomIP returns an address, 30% of the time from one of the shared subnets.
func (s *Scenario) randomIP(r *rand.Rand) string {
	if len(s.Subnets) > 0 && r.Float64() > 0.7 {
		return fmt.Sprintf("%s.%d", s.Subnets[r.IntN(len(s.Subnets))], r.IntN(256))
	}
	return fmt.Sprintf("%d.%d.%d.%d", r.IntN(223)+1, r.IntN(256), r.IntN(256), r.IntN(256))
}
