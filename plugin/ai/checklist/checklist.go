// Package checklist loads the declarative per-program wizard configuration.
//
// A checklist names the program, the agent that owns it, the accepted types and
// eligibility reasons, the required person fields, and the required documents.
// Conditional rules are CEL expressions over program, case_type and reason.
//
// checklist 包加载每个业务的声明式向导配置；条件规则以 CEL 表达式描述。
package checklist

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/ghiseu/plugin/ai/docs"
)

// DefaultPersonFields is used when a checklist does not list its own.
var DefaultPersonFields = []string{"cnp", "nume", "prenume", "email", "telefon", "adresa"}

// Checklist is one program's wizard configuration.
type Checklist struct {
	Program       string            `yaml:"program"`
	Intent        string            `yaml:"intent"`
	Agent         string            `yaml:"agent"`
	UIPath        string            `yaml:"ui_path"`
	SessionPrefix string            `yaml:"session_prefix"`
	Title         map[string]string `yaml:"title"`

	Types       []string `yaml:"types"`
	Reasons     []string `yaml:"reasons"`
	DefaultType string   `yaml:"default_type"`

	// TypeRules derive the type from the reason; first match wins.
	TypeRules []TypeRule `yaml:"type_rules"`
	// ForcesReason pins the eligibility reason for a type.
	ForcesReason map[string]string `yaml:"forces_reason"`

	PersonFields []string  `yaml:"person_fields"`
	Documents    []DocRule `yaml:"documents"`

	// ScheduleAfterCase decides whether the case agent chains to scheduling.
	ScheduleAfterCase string `yaml:"schedule_after_case"`

	scheduleAfter cel.Program
}

// TypeRule maps a reason condition to a type.
type TypeRule struct {
	When string `yaml:"when"`
	Type string `yaml:"type"`

	prg cel.Program
}

// DocRule requires a document kind, optionally under a condition.
type DocRule struct {
	Kind docs.Kind `yaml:"kind"`
	When string    `yaml:"when"`

	prg cel.Program
}

var celEnv = mustEnv()

func mustEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("program", cel.StringType),
		cel.Variable("case_type", cel.StringType),
		cel.Variable("reason", cel.StringType),
	)
	if err != nil {
		panic(fmt.Sprintf("checklist: cel env: %v", err))
	}
	return env
}

func compile(expr string) (cel.Program, error) {
	ast, iss := celEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must be boolean, got %s", expr, ast.OutputType())
	}
	return celEnv.Program(ast)
}

// Parse decodes and compiles one checklist.
func Parse(data []byte) (*Checklist, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("checklist: payload is empty")
	}
	var c Checklist
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("checklist: decode: %w", err)
	}
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("checklist %s: %w", c.Program, err)
	}
	return &c, nil
}

func (c *Checklist) init() error {
	c.Program = strings.ToUpper(strings.TrimSpace(c.Program))
	c.Intent = strings.ToLower(strings.TrimSpace(c.Intent))
	c.Agent = strings.ToLower(strings.TrimSpace(c.Agent))
	switch {
	case c.Program == "":
		return fmt.Errorf("program is required")
	case c.Intent == "":
		return fmt.Errorf("intent is required")
	case c.Agent == "":
		return fmt.Errorf("agent is required")
	case len(c.Types) == 0:
		return fmt.Errorf("at least one type is required")
	}
	if c.DefaultType == "" {
		c.DefaultType = c.Types[0]
	}
	if !c.ValidType(c.DefaultType) {
		return fmt.Errorf("default_type %q is not a declared type", c.DefaultType)
	}
	if c.SessionPrefix == "" {
		c.SessionPrefix = strings.ToLower(c.Program)
	}
	if len(c.PersonFields) == 0 {
		c.PersonFields = append([]string(nil), DefaultPersonFields...)
	}

	for i := range c.TypeRules {
		r := &c.TypeRules[i]
		if !c.ValidType(r.Type) {
			return fmt.Errorf("type rule %d: unknown type %q", i, r.Type)
		}
		prg, err := compile(r.When)
		if err != nil {
			return fmt.Errorf("type rule %d: %w", i, err)
		}
		r.prg = prg
	}
	for typ, reason := range c.ForcesReason {
		if !c.ValidType(typ) {
			return fmt.Errorf("forces_reason: unknown type %q", typ)
		}
		if !c.ValidReason(reason) {
			return fmt.Errorf("forces_reason: unknown reason %q", reason)
		}
	}

	seen := make(map[docs.Kind]bool)
	for i := range c.Documents {
		d := &c.Documents[i]
		k, ok := docs.ParseKind(string(d.Kind))
		if !ok {
			return fmt.Errorf("document %d: kind %q is not on the allow-list", i, d.Kind)
		}
		if seen[k] {
			return fmt.Errorf("document %d: duplicate kind %q", i, k)
		}
		seen[k] = true
		d.Kind = k
		if d.When == "" {
			continue
		}
		prg, err := compile(d.When)
		if err != nil {
			return fmt.Errorf("document %s: %w", k, err)
		}
		d.prg = prg
	}

	if c.ScheduleAfterCase != "" {
		prg, err := compile(c.ScheduleAfterCase)
		if err != nil {
			return fmt.Errorf("schedule_after_case: %w", err)
		}
		c.scheduleAfter = prg
	}
	return nil
}

func (c *Checklist) vars(typ, reason string) map[string]any {
	return map[string]any{
		"program":   c.Program,
		"case_type": typ,
		"reason":    reason,
	}
}

func eval(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T", out.Value())
	}
	return b, nil
}

// ValidType reports whether typ is declared.
func (c *Checklist) ValidType(typ string) bool {
	return slices.Contains(c.Types, typ)
}

// ValidReason reports whether reason is declared.
func (c *Checklist) ValidReason(reason string) bool {
	return slices.Contains(c.Reasons, reason)
}

// NeedsReason reports whether the program asks for an eligibility reason at all.
func (c *Checklist) NeedsReason() bool {
	return len(c.Reasons) > 0
}

// TitleFor returns the program title in lang, defaulting to Romanian.
func (c *Checklist) TitleFor(lang string) string {
	if t, ok := c.Title[lang]; ok && t != "" {
		return t
	}
	if t, ok := c.Title["ro"]; ok && t != "" {
		return t
	}
	return c.Program
}

// ResolveType derives the type for reason. Without a matching rule it returns DefaultType.
func (c *Checklist) ResolveType(reason string) (string, error) {
	vars := c.vars("", reason)
	for _, r := range c.TypeRules {
		ok, err := eval(r.prg, vars)
		if err != nil {
			return "", err
		}
		if ok {
			return r.Type, nil
		}
	}
	return c.DefaultType, nil
}

// ForcedReason returns the reason pinned by typ, if any.
func (c *Checklist) ForcedReason(typ string) (string, bool) {
	r, ok := c.ForcesReason[typ]
	return r, ok
}

// RequiredDocs returns the document kinds required for (type, reason), in checklist order.
func (c *Checklist) RequiredDocs(typ, reason string) ([]docs.Kind, error) {
	vars := c.vars(typ, reason)
	var required []docs.Kind
	for _, d := range c.Documents {
		if d.prg != nil {
			ok, err := eval(d.prg, vars)
			if err != nil {
				return nil, fmt.Errorf("document %s: %w", d.Kind, err)
			}
			if !ok {
				continue
			}
		}
		required = append(required, d.Kind)
	}
	return required, nil
}

// MissingDocs diffs the required kinds against present. Order of present is irrelevant.
func (c *Checklist) MissingDocs(typ, reason string, present []docs.Kind) ([]docs.Kind, error) {
	required, err := c.RequiredDocs(typ, reason)
	if err != nil {
		return nil, err
	}
	have := make(map[docs.Kind]bool, len(present))
	for _, k := range present {
		have[k] = true
	}
	var missing []docs.Kind
	for _, k := range required {
		if !have[k] {
			missing = append(missing, k)
		}
	}
	return missing, nil
}

// MissingPersonFields returns the required person fields that are blank, in checklist order.
func (c *Checklist) MissingPersonFields(person map[string]string) []string {
	var missing []string
	for _, f := range c.PersonFields {
		if strings.TrimSpace(person[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// SchedulesAfterCase reports whether a created case should continue to scheduling.
func (c *Checklist) SchedulesAfterCase(typ, reason string) bool {
	if c.scheduleAfter == nil {
		return false
	}
	ok, err := eval(c.scheduleAfter, c.vars(typ, reason))
	return err == nil && ok
}
