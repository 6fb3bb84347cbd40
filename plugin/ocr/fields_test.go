package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const idCardText = `ROMANIA
CARTE DE IDENTITATE
CNP 1850101123456
Nume/Nom/Last name
POPESCU
Prenume/Prenom/First name
ION
Domiciliu/Adresse/Address
Mun. Bucuresti Sec. 3
Str. Lalelelor nr. 5
bl. A1 ap. 12
Emisa de SPCLEP Sector 3`

func TestExtract_IDCardLayout(t *testing.T) {
	f := Extract(idCardText)

	assert.Equal(t, "1850101123456", f[FieldCNP])
	assert.Equal(t, "POPESCU", f[FieldNume])
	assert.Equal(t, "ION", f[FieldPrenume])
	assert.Equal(t, "Mun. Bucuresti Sec. 3, Str. Lalelelor nr. 5, bl. A1 ap. 12", f[FieldAdresa])
	assert.Empty(t, f.Warnings())
}

func TestExtract_InlineLabels(t *testing.T) {
	text := "Nume: Ionescu\nPrenume: Maria\nEmail: maria.ionescu@example.ro\nTelefon 0722123456"
	f := Extract(text)

	assert.Equal(t, "Ionescu", f[FieldNume])
	assert.Equal(t, "Maria", f[FieldPrenume])
	assert.Equal(t, "maria.ionescu@example.ro", f[FieldEmail])
	assert.Equal(t, "0722123456", f[FieldTelefon])
	assert.Equal(t, []string{"missing_cnp"}, f.Warnings())
}

func TestExtract_SplitCNP(t *testing.T) {
	f := Extract("CNP: 2 900101 123459")
	assert.Equal(t, "2900101123459", f[FieldCNP])

	f = Extract("CNP 2-900101-123459")
	assert.Equal(t, "2900101123459", f[FieldCNP])
}

func TestExtract_SplitCNPNeedsControlDigit(t *testing.T) {
	f := Extract("CNP: 2 900101 123456")
	assert.Empty(t, f[FieldCNP])
}

func TestExtract_BillHasNoCNP(t *testing.T) {
	bill := "FACTURA nr 1234567\nData emiterii 01.02.2024\nTel 0722 123 456\nTotal de plata 1.234,56 lei\nCod client 99 88 77"
	f := Extract(bill)
	assert.Empty(t, f[FieldCNP])
	assert.Contains(t, f.Warnings(), "missing_cnp")
}

func TestExtract_AddressCap(t *testing.T) {
	text := "Adresa: Str. Unirii\nnr. 1\nbl. 2\nsc. B\nap. 44\net. 3"
	f := Extract(text)
	assert.Equal(t, "Str. Unirii, nr. 1, bl. 2, sc. B", f[FieldAdresa])
}

func TestExtract_StreetWithoutMarker(t *testing.T) {
	f := Extract("factura\nStr. Mihai Viteazu 10\nCNP 1850101123456")
	assert.Equal(t, "Str. Mihai Viteazu 10", f[FieldAdresa])
}

func TestExtract_Empty(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("   \n\t"))
	assert.Empty(t, Extract("lorem ipsum dolor"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   []string
	}{
		{"valid", Fields{FieldCNP: "1850101123456", FieldEmail: "a@b.ro", FieldTelefon: "0722123456"}, nil},
		{"empty fields are fine", Fields{}, nil},
		{"short cnp", Fields{FieldCNP: "12345"}, []string{"cnp must be 13 digits"}},
		{"bad email", Fields{FieldEmail: "a@b"}, []string{"email is invalid"}},
		{"bad phone", Fields{FieldTelefon: "+40722123456"}, []string{"telefon must look like 0XXXXXXXXX"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.fields))
		})
	}
}

func TestValidCNP(t *testing.T) {
	tests := []struct {
		cnp  string
		want bool
	}{
		{"2900101123459", true},
		{"1960229410015", true},
		{"1850101121011", true},
		{"2900101123456", false},
		{"0900101123459", false},
		{"290010112345", false},
		{"29001011234a9", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.cnp, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCNP(tt.cnp))
		})
	}
}
