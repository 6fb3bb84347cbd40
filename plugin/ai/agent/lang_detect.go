package agent

import (
	"strings"

	"github.com/hrygo/ghiseu/internal/textutil"
)

// KeywordLangDetector picks ro or en from common function words.
// It only answers when one side clearly wins.
type KeywordLangDetector struct{}

var (
	roWords = wordSet("vreau", "am", "nevoie", "de", "si", "sau", "pentru", "buna", "salut", "multumesc", "carte", "identitate", "buletin", "ajutor", "taxe", "impozit", "cum", "ce", "unde", "cand", "este", "nu", "da", "te", "rog", "mea", "meu")
	enWords = wordSet("i", "need", "want", "the", "and", "or", "for", "hello", "hi", "thanks", "please", "identity", "card", "help", "tax", "taxes", "how", "what", "where", "when", "is", "my", "to", "a", "an", "with")
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Detect implements LangDetector.
func (KeywordLangDetector) Detect(text string) (string, bool) {
	var ro, en int
	for _, w := range strings.FieldsFunc(textutil.Fold(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if roWords[w] {
			ro++
		}
		if enWords[w] {
			en++
		}
	}
	switch {
	case ro > en:
		return LangRO, true
	case en > ro:
		return LangEN, true
	}
	return "", false
}
