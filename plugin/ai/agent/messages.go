package agent

import (
	"fmt"
	"strings"
)

// Supported reply languages. Romanian is written without diacritics.
const (
	LangRO      = "ro"
	LangEN      = "en"
	DefaultLang = LangRO
)

// MsgKey identifies a reply template.
type MsgKey string

const (
	MsgChooseLang MsgKey = "choose_lang"
	MsgLangSetRO  MsgKey = "lang_set_ro"
	MsgLangSetEN  MsgKey = "lang_set_en"

	MsgUploadRecognized   MsgKey = "upload_recognized"
	MsgUploadUnrecognized MsgKey = "upload_unrecognized"
	MsgOCRFoundFields     MsgKey = "ocr_found_fields"
	MsgOCRNoFields        MsgKey = "ocr_no_fields"
	MsgOCRToastUpdated    MsgKey = "ocr_toast_updated"
	MsgAutofillApplied    MsgKey = "autofill_applied"
	MsgAutofillIgnored    MsgKey = "autofill_ignored"

	MsgSchedHelp     MsgKey = "sched_help"
	MsgSchedReply    MsgKey = "sched_reply"
	MsgRouterAskNeed MsgKey = "router_ask_need"
	MsgRouterClarify MsgKey = "router_clarify"
	MsgEntryHelp     MsgKey = "entry_help"
	MsgEntryNavLink  MsgKey = "entry_nav_link"

	MsgWizardDetectUploads MsgKey = "wizard_detect_uploads"
	MsgWizardStep1         MsgKey = "wizard_step1"
	MsgWizardStep2         MsgKey = "wizard_step2"
	MsgWizardStep3         MsgKey = "wizard_step3"
	MsgWizardReasonForced  MsgKey = "wizard_reason_forced"
	MsgWizardMissingFields MsgKey = "wizard_missing_fields"
	MsgWizardMissingDocs   MsgKey = "wizard_missing_docs"
	MsgWizardReady         MsgKey = "wizard_ready"
	MsgWizardCaseExists    MsgKey = "wizard_case_exists"

	MsgCaseCreated  MsgKey = "case_created"
	MsgCaseFailed   MsgKey = "case_failed"
	MsgCaseInvalid  MsgKey = "case_invalid"
	MsgCaseNotReady MsgKey = "case_not_ready"

	MsgLegalPlaceholder  MsgKey = "legal_placeholder"
	MsgHubGovPlaceholder MsgKey = "hubgov_placeholder"
	MsgOperatorHelp      MsgKey = "operator_help"
	MsgOperatorCases     MsgKey = "operator_found_cases"

	MsgGreetEntry    MsgKey = "greet_entry"
	MsgGreetCI       MsgKey = "greet_ci"
	MsgGreetSocial   MsgKey = "greet_social"
	MsgGreetTaxe     MsgKey = "greet_taxe"
	MsgGreetOperator MsgKey = "greet_operator"

	MsgInternalFault MsgKey = "internal_fault"
	MsgUnknownAgent  MsgKey = "unknown_agent"

	MsgTitleUpload     MsgKey = "title_upload"
	MsgTitleOCR        MsgKey = "title_ocr"
	MsgTitleScheduling MsgKey = "title_scheduling"
	MsgTitleCase       MsgKey = "title_case"
	MsgTitleHubGov     MsgKey = "title_hubgov"
	MsgTitleLegal      MsgKey = "title_legal"
	MsgTitleMissing    MsgKey = "title_missing"
)

var messages = map[MsgKey]map[string]string{
	MsgChooseLang: {
		LangRO: "Preferi Romana sau English? Raspunde RO sau EN.",
		LangEN: "Do you prefer Romanian or English? Reply RO or EN.",
	},
	MsgLangSetRO: {
		LangRO: "Ok. Voi folosi Romana (fara diacritice te rog).",
		LangEN: "Ok. I will use Romanian (ASCII-only).",
	},
	MsgLangSetEN: {
		LangRO: "Ok. Voi folosi English.",
		LangEN: "Ok. I will use English.",
	},

	MsgUploadRecognized: {
		LangRO: "Am recunoscut: %s.",
		LangEN: "Recognized: %s.",
	},
	MsgUploadUnrecognized: {
		LangRO: "Nu am putut recunoaste tipul documentului. Incearca o imagine mai clara sau seteaza tipul documentului.",
		LangEN: "Could not recognize the document kind. Try a clearer image or set the document kind.",
	},
	MsgOCRFoundFields: {
		LangRO: "Am extras urmatoarele campuri din documente:\n%s\n\nVrei sa le completez automat in formular? Raspunde DA sau NU.",
		LangEN: "I extracted these fields from your documents:\n%s\n\nApply them to the form? Reply YES or NO.",
	},
	MsgOCRNoFields: {
		LangRO: "Am rulat OCR, dar nu am extras campuri utile. Poti completa manual.",
		LangEN: "OCR ran but no usable fields were found. You can fill them in manually.",
	},
	MsgOCRToastUpdated: {
		LangRO: "Am actualizat campurile OCR pentru documentele incarcate.",
		LangEN: "OCR fields updated for the uploaded documents.",
	},
	MsgAutofillApplied: {
		LangRO: "Ok. Am completat campurile in formular.",
		LangEN: "Ok. I applied the fields to the form.",
	},
	MsgAutofillIgnored: {
		LangRO: "Ok. Nu aplic valorile OCR.",
		LangEN: "Ok. I will not apply the OCR values.",
	},

	MsgSchedHelp: {
		LangRO: "Pentru programare: alege locatia, apoi slotul, apoi apasa Use this slot.",
		LangEN: "For scheduling: select the location, then the slot, then click Use this slot.",
	},
	MsgSchedReply: {
		LangRO: "Ok. Te-am ghidat catre pasul de programare din formular.",
		LangEN: "Ok. I guided you to the scheduling step in the form.",
	},
	MsgRouterAskNeed: {
		LangRO: "Spune-mi cu ce te pot ajuta (CI, ajutor social, taxe, programare, intrebari legale).",
		LangEN: "Tell me what you need help with (ID card, social aid, taxes, scheduling, legal questions).",
	},
	MsgRouterClarify: {
		LangRO: "Poti detalia ce vrei sa faci?",
		LangEN: "Can you clarify what you want to do?",
	},
	MsgEntryHelp: {
		LangRO: "Pot ajuta cu: carte de identitate, ajutor social, taxe, programare, sau intrebari legale. Spune-mi ce vrei sa faci.",
		LangEN: "I can help with: ID card, social aid, taxes, scheduling, or legal questions. Tell me what you want to do.",
	},
	MsgEntryNavLink: {
		LangRO: "%s: %s",
		LangEN: "%s: %s",
	},

	MsgWizardDetectUploads: {
		LangRO: "Am detectat documente incarcate. Verific si incerc sa completez automat.",
		LangEN: "I detected uploaded documents. I will check them and try to autofill.",
	},
	MsgWizardStep1: {
		LangRO: "Step 1/3: Selecteaza un slot in pagina (Slots) si apasa Use this slot. Dupa asta continui cu eligibilitate si documente.",
		LangEN: "Step 1/3: Select a slot in the page (Slots) and click Use this slot. Then we continue with eligibility and documents.",
	},
	MsgWizardStep2: {
		LangRO: "Step 2/3: Selecteaza eligibilitate (motiv) si apoi pot valida documentele.",
		LangEN: "Step 2/3: Choose the request type and eligibility reason, then I can validate the documents.",
	},
	MsgWizardStep3: {
		LangRO: "Step 3/3: Completeaza datele persoanei, apoi incarca documentele si apasa Valideaza.",
		LangEN: "Step 3/3: Fill in the person details, then upload the documents and click Validate.",
	},
	MsgWizardReasonForced: {
		LangRO: "Pentru tipul %s motivul este %s. L-am setat automat.",
		LangEN: "For type %s the reason is %s. I set it automatically.",
	},
	MsgWizardMissingFields: {
		LangRO: "Completeaza campurile lipsa.",
		LangEN: "Please fill in the missing fields.",
	},
	MsgWizardMissingDocs: {
		LangRO: "Lipsesc documente: %s. Incarca-le in pagina.",
		LangEN: "Missing documents: %s. Please upload them in the page.",
	},
	MsgWizardReady: {
		LangRO: "Perfect. Am toate datele si documentele necesare. Creez cererea.",
		LangEN: "Great. I have all required data and documents. Creating the request.",
	},
	MsgWizardCaseExists: {
		LangRO: "Cererea ta este deja inregistrata cu numarul %s.",
		LangEN: "Your request is already registered as %s.",
	},

	MsgCaseCreated: {
		LangRO: "Caz %s creat.",
		LangEN: "Case %s created.",
	},
	MsgCaseFailed: {
		LangRO: "Nu am putut crea cererea acum. Te rog trimite din nou peste cateva momente.",
		LangEN: "I could not create the request right now. Please submit again in a few moments.",
	},
	MsgCaseInvalid: {
		LangRO: "Cererea a fost respinsa: %s. Corecteaza datele si trimite din nou.",
		LangEN: "The request was rejected: %s. Please correct the data and submit again.",
	},
	MsgCaseNotReady: {
		LangRO: "Cererea nu este completa inca.",
		LangEN: "The request is not complete yet.",
	},

	MsgLegalPlaceholder: {
		LangRO: "Agentul legal este placeholder acum. Pune intrebarea ta si voi raspunde cand e integrat.",
		LangEN: "The legal agent is a placeholder for now. Ask your question and I will answer once it is integrated.",
	},
	MsgHubGovPlaceholder: {
		LangRO: "HubGov este placeholder acum. In viitor va apela serviciile CEI hub.",
		LangEN: "HubGov is a placeholder for now. Later it will call the CEI hub services.",
	},
	MsgOperatorHelp: {
		LangRO: "Operator: poti cere lista de cazuri (scrie: lista cazuri).",
		LangEN: "Operator: you can ask for the case list (type: list cases).",
	},
	MsgOperatorCases: {
		LangRO: "Am gasit %d cazuri.",
		LangEN: "Found %d cases.",
	},

	MsgGreetEntry: {
		LangRO: "Salut! Cu ce te pot ajuta? (CI, Ajutor social, Taxe, Programare, Legal)",
		LangEN: "Hi! How can I help? (ID card, Social aid, Taxes, Scheduling, Legal)",
	},
	MsgGreetCI: {
		LangRO: "Salut! Te ajut cu cererea pentru carte de identitate.",
		LangEN: "Hi! I can help with the ID card request.",
	},
	MsgGreetSocial: {
		LangRO: "Salut! Te ajut cu cererea pentru ajutor social.",
		LangEN: "Hi! I can help with the social aid request.",
	},
	MsgGreetTaxe: {
		LangRO: "Salut! Te ajut cu taxele si impozitele locale.",
		LangEN: "Hi! I can help with local taxes.",
	},
	MsgGreetOperator: {
		LangRO: "Salut! Spune-mi ce vrei sa faci ca operator.",
		LangEN: "Hi! Tell me what you want to do as an operator.",
	},

	MsgInternalFault: {
		LangRO: "Ne pare rau, a aparut o eroare interna. Te rog incearca din nou.",
		LangEN: "Sorry, something went wrong on our side. Please try again.",
	},
	MsgUnknownAgent: {
		LangRO: "Ne pare rau, nu pot procesa cererea acum.",
		LangEN: "Sorry, I cannot process the request right now.",
	},

	MsgTitleUpload:     {LangRO: "Upload", LangEN: "Upload"},
	MsgTitleOCR:        {LangRO: "OCR", LangEN: "OCR"},
	MsgTitleScheduling: {LangRO: "Programare", LangEN: "Scheduling"},
	MsgTitleCase:       {LangRO: "Caz", LangEN: "Case"},
	MsgTitleHubGov:     {LangRO: "HubGov", LangEN: "HubGov"},
	MsgTitleLegal:      {LangRO: "Legal", LangEN: "Legal"},
	MsgTitleMissing:    {LangRO: "Date lipsa", LangEN: "Missing data"},
}

// T renders key in lang, falling back to Romanian. Args are applied with fmt.Sprintf.
func T(lang string, key MsgKey, args ...any) string {
	table := messages[key]
	tmpl, ok := table[lang]
	if !ok || tmpl == "" {
		tmpl = table[DefaultLang]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// ParseLangChoice recognises an explicit language answer.
func ParseLangChoice(text string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ro", "romana", "romanian", "română":
		return LangRO, true
	case "en", "english", "engleza", "engleză":
		return LangEN, true
	}
	return "", false
}

// NormalizeLang maps a stored language to a supported one ("" stays unset).
func NormalizeLang(lang string) string {
	if l, ok := ParseLangChoice(lang); ok {
		return l
	}
	return ""
}
