package docs

import (
	"path/filepath"
	"strings"

	"github.com/hrygo/ghiseu/internal/textutil"
)

// Input is one upload as seen by the normaliser.
type Input struct {
	RawKind  string // UI hint, "auto" or empty when absent
	Filename string
	Text     string // extracted or OCR text
}

// Match is the outcome of the rule-based pass.
type Match struct {
	Kind Kind
	// Candidates holds the competing kinds when the pass is inconclusive.
	Candidates []Kind
}

// Conclusive reports whether the rule pass settled on one kind.
func (m Match) Conclusive() bool {
	return m.Kind != ""
}

// RuleMatcher matches upload labels against keyword lists.
// Target: 0ms latency, no network.
type RuleMatcher struct {
	keywords map[Kind][]string
}

// NewRuleMatcher creates a matcher with the built-in Romanian/English keyword table.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		keywords: map[Kind][]string{
			KindCertNastere:  {"certificat de nastere", "certificat nastere", "birth certificate"},
			KindCIVeche:      {"carte identitate", "carte de identitate", "c.i. solicitant", "buletin", "ci veche", "buletin vechi", "old id"},
			KindDovadaAdresa: {"dovada adresa", "extras cf", "contract inchiriere", "utility bill"},
			KindPolitie:      {"politie", "furt", "declaratie politie", "police"},
			KindCerereAjutor: {"cerere ajutor", "cerere tip ajutor social", "formular ajutor social"},
			KindActeVenit:    {"adeverinta venit", "cupon pensie", "venit", "salariu"},
			KindActeLocuire:  {"contract inchiriere", "dovada locuire", "adeverinta spatiu"},
			KindActeFamilie:  {"certificat casatorie", "certificate copii", "nastere copil"},
			KindContBancar:   {"iban", "extras cont", "cont bancar"},
		},
	}
}

// Match runs the sources in priority order: raw kind, filename, text.
// The first source that names exactly one kind wins.
func (m *RuleMatcher) Match(in Input) Match {
	raw := strings.TrimSpace(in.RawKind)
	if raw != "" && !strings.EqualFold(raw, "auto") {
		if k, ok := ParseKind(raw); ok {
			return Match{Kind: k}
		}
	}

	var candidates []Kind
	seen := make(map[Kind]bool)
	for _, source := range []string{labelText(raw), labelText(stripExt(in.Filename)), in.Text} {
		hits := m.kindsIn(source)
		if len(hits) == 1 {
			return Match{Kind: hits[0]}
		}
		for _, k := range hits {
			if !seen[k] {
				seen[k] = true
				candidates = append(candidates, k)
			}
		}
	}
	return Match{Candidates: candidates}
}

// KindsIn returns every kind whose keywords occur in text, in canonical order.
func (m *RuleMatcher) KindsIn(text string) []Kind {
	return m.kindsIn(text)
}

func (m *RuleMatcher) kindsIn(text string) []Kind {
	folded := textutil.Fold(text)
	if folded == "" {
		return nil
	}
	var hits []Kind
	for _, k := range allKinds {
		for _, kw := range m.keywords[k] {
			if strings.Contains(folded, kw) {
				hits = append(hits, k)
				break
			}
		}
	}
	return hits
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// labelText turns identifiers like "dovada_adresa-2024" into searchable words.
func labelText(s string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
