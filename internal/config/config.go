// Package config loads the optional project-level `.cspurity.kdl` file:
// extra prior-knowledge entries and method-name exclude patterns, so a
// project can tune the engine without touching its source.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/cspurity/cspurity/internal/knowledge"
	"github.com/cspurity/cspurity/internal/purity"
)

// FileName is the project config file's conventional name.
const FileName = ".cspurity.kdl"

// Config holds everything `.cspurity.kdl` can configure.
type Config struct {
	// ExtraKnowledge lists additional prior-knowledge entries.
	ExtraKnowledge []knowledge.Entry
	// ExcludePatterns are doublestar glob patterns matched against each
	// method's display form; matching methods are dropped from the
	// report only, never from the graph (the call graph must stay
	// closed under its own dependency edges).
	ExcludePatterns []string
}

// Load reads `.cspurity.kdl` from dir, if present. A missing file is not an
// error: it returns a zero-value Config, the engine's all-defaults case.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := &Config{}
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "prior_knowledge":
			for _, cn := range n.Children { // prior_knowledge { "Foo.Bar" "Impure" }
				name := nodeName(cn)
				if level, ok := firstStringArg(cn); ok {
					if lvl, ok := purity.Parse(level); ok {
						cfg.ExtraKnowledge = append(cfg.ExtraKnowledge, knowledge.Entry{Name: name, Level: lvl})
					}
				}
			}
		case "exclude":
			cfg.ExcludePatterns = append(cfg.ExcludePatterns, collectStringArgs(n)...)
		}
	}
	return cfg, nil
}

// MatchesExclude reports whether display matches any of cfg's exclude
// patterns (doublestar glob syntax, e.g. "*.Dispose" or "void Test*.*").
func (cfg *Config) MatchesExclude(display string) bool {
	for _, pattern := range cfg.ExcludePatterns {
		if ok, err := doublestar.Match(pattern, display); err == nil && ok {
			return true
		}
	}
	return false
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

// collectStringArgs reads either inline arguments (`exclude "a" "b"`) or
// block-form children (`exclude { "a"; "b" }`), matching the two notations
// KDL allows for a list of strings.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if name := nodeName(child); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
