// Package texts holds every user-facing string of the bot.
package texts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Catalog struct {
	Welcome  string            `yaml:"welcome"`
	Menu     Menu              `yaml:"menu"`
	Methods  Methods           `yaml:"methods"`
	Prompts  map[string]string `yaml:"prompts"`
	Notices  map[string]string `yaml:"notices"`
	Results  Results           `yaml:"results"`
	Reminder Reminder          `yaml:"reminder"`
	Calendar Calendar          `yaml:"calendar"`
}

type Menu struct {
	Add         string `yaml:"add"`
	Delete      string `yaml:"delete"`
	List        string `yaml:"list"`
	Cancel      string `yaml:"cancel"`
	Placeholder string `yaml:"placeholder"`
}

type Methods struct {
	Calendar string `yaml:"calendar"`
	Manual   string `yaml:"manual"`
}

type Results struct {
	Added       string `yaml:"added"`
	Deleted     string `yaml:"deleted"`
	NotFound    string `yaml:"not_found"`
	DeleteEmpty string `yaml:"delete_empty"`
	EmptyList   string `yaml:"empty_list"`
	ListItem    string `yaml:"list_item"`
}

type Reminder struct {
	Text         string `yaml:"text"`
	DeleteButton string `yaml:"delete_button"`
}

type Calendar struct {
	Weekdays []string `yaml:"weekdays"`
	Months   []string `yaml:"months"`
}

// Default returns the built-in English catalog.
func Default() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		return nil, fmt.Errorf("parse default texts: %w", err)
	}
	return &c, nil
}

// Load returns the default catalog overlaid with the YAML file at path. Keys
// missing from the file keep their default value. An empty path returns the
// defaults.
func Load(path string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texts %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse texts %s: %w", path, err)
	}
	if len(c.Calendar.Weekdays) != 7 {
		return nil, fmt.Errorf("texts %s: calendar.weekdays must list 7 names", path)
	}
	if len(c.Calendar.Months) != 12 {
		return nil, fmt.Errorf("texts %s: calendar.months must list 12 names", path)
	}
	return c, nil
}

// Prompt returns the text for a prompt kind, or the kind itself when the
// catalog has no entry.
func (c *Catalog) Prompt(kind string) string {
	if v, ok := c.Prompts[kind]; ok && v != "" {
		return v
	}
	return kind
}

func (c *Catalog) Notice(kind string) string {
	if v, ok := c.Notices[kind]; ok && v != "" {
		return v
	}
	return kind
}

// Fill replaces {key} placeholders in tmpl. kv alternates keys and values.
func Fill(tmpl string, kv ...string) string {
	if len(kv) < 2 {
		return tmpl
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
