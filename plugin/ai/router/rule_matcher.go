package router

import (
	"regexp"

	"github.com/hrygo/ghiseu/internal/textutil"
)

// RuleMatcher is the deterministic keyword layer.
// Target: 0ms latency; conservative, returns unknown when nothing matches.
type RuleMatcher struct {
	// ordered by precedence: the first group that matches wins
	groups     []ruleGroup
	scheduling []*regexp.Regexp
}

type ruleGroup struct {
	intent   Intent
	patterns []*regexp.Regexp
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// NewRuleMatcher creates the Romanian/English keyword matcher.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		groups: []ruleGroup{
			{IntentOperator, compileAll(`\boperator\b`, `\btasks?\b`, `\bcaz(uri)?\b`, `\bdosar\b`, `\badmin\b`)},
			{IntentSocial, compileAll(`ajutor\s+social`, `\bvmi\b`, `venit\s+minim`, `benefici(i|u)`, `\bas+istenta\s+sociala\b`, `social\s+aid`)},
			{IntentCarteIdentitate, compileAll(
				`carte\s+de\s+identitate`, `\bbuletin\b`, `\bci\b`, `\bc\.i\.`, `preschimbare\b`,
				`expir(a|at)`, `schimbare\s+domiciliu`, `viza\s+de\s+flotant`, `identity\s+card`,
			)},
			{IntentTaxe, compileAll(`\btaxe\b`, `impozit`, `ghiseul`, `plata\b`, `\bamenzi\b`, `\btax(es)?\b`)},
			{IntentLegal, compileAll(`\blege\b`, `hotarare`, `regulament`, `care\s+este\s+procedura`, `acte\s+necesare`)},
		},
		scheduling: compileAll(
			`programar(e|i)`, `\bslot(uri)?\b`, `rezerv(a|are)`, `reprogram`,
			`cand\s+e\s+liber`, `appointment`, `schedule`,
		),
	}
}

// Match returns the first intent whose patterns hit the folded text.
func (m *RuleMatcher) Match(text string) Intent {
	t := textutil.Fold(text)
	if t == "" {
		return IntentUnknown
	}
	for _, g := range m.groups {
		if anyMatch(g.patterns, t) {
			return g.intent
		}
	}
	return IntentUnknown
}

// LooksLikeScheduling reports whether text uses appointment vocabulary.
func (m *RuleMatcher) LooksLikeScheduling(text string) bool {
	return anyMatch(m.scheduling, textutil.Fold(text))
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
