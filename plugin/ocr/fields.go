package ocr

import (
	"regexp"
	"strings"
)

// Person field keys, shared with the wizard forms.
const (
	FieldCNP     = "cnp"
	FieldNume    = "nume"
	FieldPrenume = "prenume"
	FieldAdresa  = "adresa"
	FieldEmail   = "email"
	FieldTelefon = "telefon"
)

// FieldOrder is the display order of extracted fields.
var FieldOrder = []string{FieldNume, FieldPrenume, FieldCNP, FieldAdresa, FieldEmail, FieldTelefon}

// Fields maps a person field key to its extracted value.
type Fields map[string]string

// Warnings lists well-known gaps in an extraction.
func (f Fields) Warnings() []string {
	var warnings []string
	if f[FieldCNP] == "" {
		warnings = append(warnings, "missing_cnp")
	}
	if f[FieldNume] == "" || f[FieldPrenume] == "" {
		warnings = append(warnings, "missing_name")
	}
	return warnings
}

var (
	emailRe    = regexp.MustCompile(`\b([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`)
	phoneRe    = regexp.MustCompile(`\b(0\d{9})\b`)
	cnpRe      = regexp.MustCompile(`\b(\d{13})\b`)
	digitRunRe = regexp.MustCompile(`\d(?:[ .\-/]?\d)*`)
	nonDigitRe = regexp.MustCompile(`\D`)
	spaceRe    = regexp.MustCompile(`\s+`)

	lastNameLabel  = regexp.MustCompile(`(?i)\b(nume|last name)\b`)
	firstNameLabel = regexp.MustCompile(`(?i)\b(prenume|first name|given name)\b`)
	nameLabelWords = regexp.MustCompile(`(?i)^[\s/:=\-]*((nume|nom|prenume|pr[eé]nom|last name|first name|given name)[\s/:=\-]*)*$`)
	inlineLastRe   = regexp.MustCompile(`(?i)\bnume\s*[:=]\s*([A-Za-z\- ]{2,})`)
	inlineFirstRe  = regexp.MustCompile(`(?i)\bprenume\s*[:=]\s*([A-Za-z\- ]{2,})`)

	addrStartRe   = regexp.MustCompile(`(?i)\b(domiciliu|adresa|address)\b`)
	addrLabelRe   = regexp.MustCompile(`(?i)^.*\b(domiciliu|adresa|address)\b\s*[:=\-]*\s*`)
	addrContRe    = regexp.MustCompile(`(?i)^(nr\.?\b|no\.?\b|et\.?\b|ap\.?\b|bl\.?\b|sc\.?\b|jud\.?\b|sector\b|loc\.?\b|oras\b|mun\.?\b|sat\b|str\.?\b|calea\b|bd\.?\b|bulevard\b)`)
	addrNumericRe = regexp.MustCompile(`^[0-9]{1,6}$`)
	addrStopRe    = regexp.MustCompile(`(?i)^(seria\b|nr\b\s*\w|cnp\b|sex\b|s\.n\.p\b|data\b|emisa\b|valabil\b|nume\b|prenume\b|name\b|last name\b|first name\b|cetatenie\b|nationalitate\b|nationality\b|loc nastere\b|place of birth\b|semnatura\b|signature\b)`)
)

// maxAddressLines caps how many lines an address may span.
const maxAddressLines = 4

// Extract pulls person fields out of OCR text.
// Romanian ID cards print bilingual labels with the value on the following line;
// both that layout and "Label: value" are handled.
func Extract(raw string) Fields {
	lines := normLines(raw)
	if len(lines) == 0 {
		return Fields{}
	}

	out := Fields{}
	if cnp := extractCNP(raw); cnp != "" {
		out[FieldCNP] = cnp
	}
	if m := emailRe.FindStringSubmatch(raw); m != nil {
		out[FieldEmail] = m[1]
	}
	if m := phoneRe.FindStringSubmatch(raw); m != nil {
		out[FieldTelefon] = m[1]
	}
	for k, v := range extractName(lines) {
		out[k] = v
	}
	if addr := extractAddress(lines); addr != "" {
		out[FieldAdresa] = addr
	}

	for k, v := range out {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func normLines(raw string) []string {
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.TrimSpace(spaceRe.ReplaceAllString(ln, " "))
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// extractCNP finds a 13-digit CNP even when OCR splits it with separators.
// A split number is accepted only when its control digit checks out.
func extractCNP(raw string) string {
	if m := cnpRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	for _, run := range digitRunRe.FindAllString(raw, -1) {
		if digits := nonDigitRe.ReplaceAllString(run, ""); ValidCNP(digits) {
			return digits
		}
	}
	return ""
}

func valueAfterLabel(lines []string, label *regexp.Regexp) string {
	for i, ln := range lines {
		loc := label.FindStringIndex(ln)
		if loc == nil {
			continue
		}
		tail := strings.Trim(ln[loc[1]:], " :-\t")
		if tail != "" && !nameLabelWords.MatchString(tail) {
			return tail
		}
		if i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1])
		}
	}
	return ""
}

func extractName(lines []string) Fields {
	out := Fields{}

	if v := valueAfterLabel(lines, lastNameLabel); v != "" && !nameLabelWords.MatchString(v) {
		out[FieldNume] = v
	}
	if v := valueAfterLabel(lines, firstNameLabel); v != "" && !nameLabelWords.MatchString(v) {
		out[FieldPrenume] = v
	}

	joined := strings.Join(lines, "\n")
	if out[FieldNume] == "" {
		if m := inlineLastRe.FindStringSubmatch(joined); m != nil {
			out[FieldNume] = strings.TrimSpace(m[1])
		}
	}
	if out[FieldPrenume] == "" {
		if m := inlineFirstRe.FindStringSubmatch(joined); m != nil {
			out[FieldPrenume] = strings.TrimSpace(m[1])
		}
	}
	return out
}

func isAddressContinuation(ln string) bool {
	return addrContRe.MatchString(ln) || addrNumericRe.MatchString(ln)
}

func looksLikeStreet(ln string) bool {
	l := strings.ToLower(ln)
	return strings.HasPrefix(l, "str") || strings.Contains(l, " str") ||
		strings.Contains(l, "calea") || strings.HasPrefix(l, "bd") || strings.Contains(l, "bulevard")
}

func extractAddress(lines []string) string {
	start := -1
	for i, ln := range lines {
		if addrStartRe.MatchString(ln) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, ln := range lines {
			if looksLikeStreet(ln) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return ""
	}

	var buf []string
	if first := strings.TrimSpace(addrLabelRe.ReplaceAllString(lines[start], "")); first != "" {
		buf = append(buf, first)
	}
	for _, ln := range lines[start+1:] {
		if len(buf) >= maxAddressLines {
			break
		}
		if isAddressContinuation(ln) {
			buf = append(buf, ln)
			continue
		}
		if addrStopRe.MatchString(ln) {
			break
		}
		if len(ln) >= 3 {
			buf = append(buf, ln)
		}
	}
	return strings.Join(buf, ", ")
}
