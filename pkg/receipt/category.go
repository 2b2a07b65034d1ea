package receipt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps one category to the substrings that count as evidence for it.
type Rule struct {
	Category Category `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules is the built-in keyword table in priority order.
var DefaultRules = []Rule{
	{Food, []string{"food", "restaurant", "burger", "coffee", "cafe"}},
	{Travel, []string{"uber", "ola", "fuel", "petrol", "parking"}},
	{Groceries, []string{"mart", "grocer", "supermarket", "milk"}},
	{Shopping, []string{"mall", "apparel", "fashion", "electronics", "footwear"}},
	{Utilities, []string{"electricity", "broadband", "water bill", "gas bill", "recharge"}},
	{Medical, []string{"pharmacy", "hospital", "clinic", "chemist", "medical"}},
	{Salary, []string{"salary", "payroll", "payslip"}},
}

// Classifier assigns the first category whose keyword set occurs in the text.
// It is immutable once built and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier copies rules, lower-casing keywords and dropping empty ones.
func NewClassifier(rules []Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		c.rules = append(c.rules, Rule{Category: r.Category, Keywords: kw})
	}
	return c
}

// DefaultClassifier uses DefaultRules.
func DefaultClassifier() *Classifier { return NewClassifier(DefaultRules) }

// Classify returns the category of the first matching rule, or Other.
func (c *Classifier) Classify(text string) Category {
	low := strings.ToLower(text)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(low, k) {
				return r.Category
			}
		}
	}
	return Other
}

// Rules returns a copy of the classifier's table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

type ruleFile struct {
	Categories []Rule `yaml:"categories"`
}

// LoadRules reads a keyword table such as:
//
//	categories:
//	  - name: Food
//	    keywords: [cafe, restaurant]
func LoadRules(r io.Reader) ([]Rule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("keyword table is empty")
		}
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	for i, rule := range f.Categories {
		if strings.TrimSpace(string(rule.Category)) == "" {
			return nil, fmt.Errorf("keyword table entry %d has no name", i)
		}
	}
	return f.Categories, nil
}

// LoadRulesFile reads a YAML keyword table from path.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyword table: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}
