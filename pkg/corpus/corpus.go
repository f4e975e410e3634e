// Package corpus loads the factoid list and the per-style example quips
// that seed generation, and provides uniform random selection over them.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	factoidPattern = regexp.MustCompile(`^\d+\.\s+(.+)`)

	sectionPrefix = "## "
	bulletPrefix  = "- "
)

// Corpus holds the loaded factoids and style examples.
type Corpus struct {
	factoids []string
	examples map[string][]string
	styles   []string

	// flattened example set for the novelty check
	allExamples []string
}

// Load reads factoids and examples from the given markdown files.
func Load(factoidsPath, examplesPath string) (*Corpus, error) {
	factoids, err := loadFactoids(factoidsPath)
	if err != nil {
		return nil, fmt.Errorf("loading factoids: %w", err)
	}
	if len(factoids) == 0 {
		return nil, fmt.Errorf("no factoids found in %s", factoidsPath)
	}

	examples, err := loadExamples(examplesPath)
	if err != nil {
		return nil, fmt.Errorf("loading examples: %w", err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no style examples found in %s", examplesPath)
	}

	styles := make([]string, 0, len(examples))
	var all []string
	for style, exs := range examples {
		styles = append(styles, style)
		all = append(all, exs...)
	}
	sort.Strings(styles)

	return &Corpus{
		factoids:    factoids,
		examples:    examples,
		styles:      styles,
		allExamples: all,
	}, nil
}

// loadFactoids extracts numbered markdown items ("1. ...") from path.
func loadFactoids(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := factoidPattern.FindStringSubmatch(scanner.Text()); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items, scanner.Err()
}

// loadExamples parses "## Style" sections with "- example" bullets.
// Sections with no bullets are dropped.
func loadExamples(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sections := make(map[string][]string)
	current := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, sectionPrefix):
			current = strings.TrimSpace(strings.TrimPrefix(line, sectionPrefix))
		case current != "" && strings.HasPrefix(line, bulletPrefix):
			sections[current] = append(sections[current], strings.TrimSpace(strings.TrimPrefix(line, bulletPrefix)))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for style, exs := range sections {
		if len(exs) == 0 {
			delete(sections, style)
		}
	}
	return sections, nil
}

// Styles returns the known style names in sorted order.
func (c *Corpus) Styles() []string {
	return c.styles
}

// HasStyle reports whether name is a known style.
func (c *Corpus) HasStyle(name string) bool {
	_, ok := c.examples[name]
	return ok
}

// AllExamples returns every example across all styles.
func (c *Corpus) AllExamples() []string {
	return c.allExamples
}

// PickFactoid returns a uniformly random factoid.
func (c *Corpus) PickFactoid(rng *rand.Rand) string {
	return c.factoids[rng.Intn(len(c.factoids))]
}

// PickStyle returns a uniformly random style name and one of its examples.
func (c *Corpus) PickStyle(rng *rand.Rand) (style, example string, err error) {
	if len(c.styles) == 0 {
		return "", "", errors.New("corpus has no styles")
	}
	style = c.styles[rng.Intn(len(c.styles))]
	exs := c.examples[style]
	return style, exs[rng.Intn(len(exs))], nil
}
