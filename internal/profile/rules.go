package profile

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rules overrides the built-in topic lists used while building the graph.
// A list left out of the file keeps its default.
//
//	forbidden_topics: [general, unknown, shorts]
//	conflict_keywords: [racing, boxing, chess]
type Rules struct {
	ForbiddenTopics  []string `yaml:"forbidden_topics"`
	ConflictKeywords []string `yaml:"conflict_keywords"`
}

// LoadRules reads a rules file. An empty path yields empty rules.
func LoadRules(path string) (*Rules, error) {
	rules := &Rules{}
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rules file %s", path)
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, errors.Wrapf(err, "failed to parse rules file %s", path)
	}

	rules.ForbiddenTopics = normalizeList(rules.ForbiddenTopics)
	rules.ConflictKeywords = normalizeList(rules.ConflictKeywords)
	return rules, nil
}

func normalizeList(items []string) []string {
	var out []string
	for _, item := range items {
		if s := strings.ToLower(strings.TrimSpace(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
