// Package docs normalises uploaded-document labels into canonical document kinds.
//
// docs 包将上传文档的原始标签归一化为固定白名单中的规范文档类型。
package docs

import (
	"strings"
)

// Kind is a canonical document identifier from a fixed allow-list.
type Kind string

const (
	KindCertNastere  Kind = "cert_nastere"
	KindCIVeche      Kind = "ci_veche"
	KindDovadaAdresa Kind = "dovada_adresa"
	KindPolitie      Kind = "politie"
	KindCerereAjutor Kind = "cerere_ajutor"
	KindActeVenit    Kind = "acte_venit"
	KindActeLocuire  Kind = "acte_locuire"
	KindActeFamilie  Kind = "acte_familie"
	KindContBancar   Kind = "cont_bancar"
)

// allKinds is ordered; it is the allow-list and the tie-break order.
var allKinds = []Kind{
	KindCertNastere,
	KindCIVeche,
	KindDovadaAdresa,
	KindPolitie,
	KindCerereAjutor,
	KindActeVenit,
	KindActeLocuire,
	KindActeFamilie,
	KindContBancar,
}

// aliases maps accepted legacy labels to their canonical kind.
var aliases = map[string]Kind{
	"carte_identitate":   KindCIVeche,
	"buletin":            KindCIVeche,
	"ci":                 KindCIVeche,
	"certificat_nastere": KindCertNastere,
	"cerere_tip":         KindCerereAjutor,
}

var labels = map[Kind]map[string]string{
	KindCertNastere:  {"ro": "Certificat de nastere", "en": "Birth certificate"},
	KindCIVeche:      {"ro": "Carte de identitate (veche)", "en": "Identity card (old)"},
	KindDovadaAdresa: {"ro": "Dovada adresei", "en": "Proof of address"},
	KindPolitie:      {"ro": "Declaratie politie", "en": "Police report"},
	KindCerereAjutor: {"ro": "Cerere ajutor social", "en": "Social aid application"},
	KindActeVenit:    {"ro": "Acte venit", "en": "Proof of income"},
	KindActeLocuire:  {"ro": "Acte locuire", "en": "Proof of residence"},
	KindActeFamilie:  {"ro": "Acte familie", "en": "Family documents"},
	KindContBancar:   {"ro": "Extras cont bancar", "en": "Bank account statement"},
}

// AllKinds returns the allow-list in canonical order.
func AllKinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// Valid reports whether k is on the allow-list.
func (k Kind) Valid() bool {
	_, ok := labels[k]
	return ok
}

// Label returns the human label for lang, defaulting to Romanian.
func (k Kind) Label(lang string) string {
	l, ok := labels[k]
	if !ok {
		return string(k)
	}
	if s, ok := l[lang]; ok {
		return s
	}
	return l["ro"]
}

// ParseKind maps an exact canonical identifier or accepted alias to a Kind.
func ParseKind(s string) (Kind, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if k := Kind(key); k.Valid() {
		return k, true
	}
	if k, ok := aliases[key]; ok {
		return k, true
	}
	return "", false
}

// Strings converts kinds to plain strings.
func Strings(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
