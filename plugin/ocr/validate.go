package ocr

import (
	"regexp"
	"strings"
)

var (
	cnpExactRe   = regexp.MustCompile(`^\d{13}$`)
	emailExactRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneExactRe = regexp.MustCompile(`^0\d{9}$`)
)

// Validate returns human-readable problems with a person's fields.
// Empty fields are not errors; completeness is checked by the wizards.
func Validate(f Fields) []string {
	var errs []string
	if cnp := strings.TrimSpace(f[FieldCNP]); cnp != "" && !cnpExactRe.MatchString(cnp) {
		errs = append(errs, "cnp must be 13 digits")
	}
	if email := strings.TrimSpace(f[FieldEmail]); email != "" && !emailExactRe.MatchString(email) {
		errs = append(errs, "email is invalid")
	}
	if tel := strings.TrimSpace(f[FieldTelefon]); tel != "" && !phoneExactRe.MatchString(tel) {
		errs = append(errs, "telefon must look like 0XXXXXXXXX")
	}
	return errs
}

// cnpWeights are the control weights of the first twelve CNP digits.
const cnpWeights = "279146358279"

// ValidCNP reports whether s is a 13-digit CNP whose last digit matches the
// control sum of the first twelve.
func ValidCNP(s string) bool {
	if !cnpExactRe.MatchString(s) || s[0] == '0' {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(s[i]-'0') * int(cnpWeights[i]-'0')
	}
	control := sum % 11
	if control == 10 {
		control = 1
	}
	return int(s[12]-'0') == control
}
