package checklist

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hrygo/ghiseu/plugin/ai/docs"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Set is the case registry: every loaded checklist, indexed by program, intent and agent.
// A Set is read-only after loading and safe for concurrent use.
type Set struct {
	byProgram map[string]*Checklist
	byIntent  map[string]*Checklist
	byAgent   map[string]*Checklist
}

// NewSet indexes checklists, rejecting duplicate programs, intents or agents.
func NewSet(lists ...*Checklist) (*Set, error) {
	s := &Set{
		byProgram: make(map[string]*Checklist),
		byIntent:  make(map[string]*Checklist),
		byAgent:   make(map[string]*Checklist),
	}
	for _, c := range lists {
		if _, dup := s.byProgram[c.Program]; dup {
			return nil, fmt.Errorf("checklist: duplicate program %q", c.Program)
		}
		if _, dup := s.byIntent[c.Intent]; dup {
			return nil, fmt.Errorf("checklist: duplicate intent %q", c.Intent)
		}
		if _, dup := s.byAgent[c.Agent]; dup {
			return nil, fmt.Errorf("checklist: duplicate agent %q", c.Agent)
		}
		s.byProgram[c.Program] = c
		s.byIntent[c.Intent] = c
		s.byAgent[c.Agent] = c
	}
	return s, nil
}

// LoadDefaults loads the embedded checklists.
func LoadDefaults() (*Set, error) {
	return loadFS(defaultFS, "defaults")
}

// LoadDir loads every *.yaml file in dir. An empty dir loads the embedded defaults.
func LoadDir(dir string) (*Set, error) {
	if dir == "" {
		return LoadDefaults()
	}
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, root string) (*Set, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("checklist: read %s: %w", root, err)
	}
	var lists []*Checklist
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.ToSlash(filepath.Join(root, e.Name()))
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("checklist: read %s: %w", path, err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		lists = append(lists, c)
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("checklist: no checklists found in %s", root)
	}
	return NewSet(lists...)
}

// ByProgram finds a checklist by program code (CI, AS, TAXE).
func (s *Set) ByProgram(program string) (*Checklist, bool) {
	c, ok := s.byProgram[strings.ToUpper(strings.TrimSpace(program))]
	return c, ok
}

// ByIntent finds a checklist by router intent.
func (s *Set) ByIntent(intent string) (*Checklist, bool) {
	c, ok := s.byIntent[strings.ToLower(strings.TrimSpace(intent))]
	return c, ok
}

// ByAgent finds the checklist owned by an agent.
func (s *Set) ByAgent(agent string) (*Checklist, bool) {
	c, ok := s.byAgent[strings.ToLower(strings.TrimSpace(agent))]
	return c, ok
}

// All returns every checklist ordered by program.
func (s *Set) All() []*Checklist {
	out := make([]*Checklist, 0, len(s.byProgram))
	for _, c := range s.byProgram {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Program < out[j].Program })
	return out
}

// MissingDocs is the single missing-documents contract: required kinds for
// (program, type, reason) not present in present.
func (s *Set) MissingDocs(program, typ, reason string, present []docs.Kind) ([]docs.Kind, error) {
	c, ok := s.ByProgram(program)
	if !ok {
		return nil, fmt.Errorf("checklist: unknown program %q", program)
	}
	return c.MissingDocs(typ, reason, present)
}
