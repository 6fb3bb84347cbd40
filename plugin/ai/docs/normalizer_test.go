package docs

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
		ok    bool
	}{
		{"ci_veche", KindCIVeche, true},
		{"carte_identitate", KindCIVeche, true},
		{" Dovada-Adresa ", KindDovadaAdresa, true},
		{"cont_bancar", KindContBancar, true},
		{"pasaport", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseKind(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "Proof of address", KindDovadaAdresa.Label("en"))
	assert.Equal(t, "Dovada adresei", KindDovadaAdresa.Label("ro"))
	assert.Equal(t, "Dovada adresei", KindDovadaAdresa.Label("fr"))
	assert.Equal(t, "pasaport", Kind("pasaport").Label("ro"))
	assert.Len(t, AllKinds(), 9)
}

func TestRuleMatcher_Match(t *testing.T) {
	m := NewRuleMatcher()

	tests := []struct {
		name       string
		input      Input
		want       Kind
		candidates []Kind
	}{
		{
			name:  "canonical raw kind",
			input: Input{RawKind: "cert_nastere", Filename: "scan.jpg"},
			want:  KindCertNastere,
		},
		{
			name:  "alias raw kind",
			input: Input{RawKind: "carte_identitate"},
			want:  KindCIVeche,
		},
		{
			name:  "auto hint uses filename",
			input: Input{RawKind: "auto", Filename: "Buletin_vechi.PNG"},
			want:  KindCIVeche,
		},
		{
			name:  "diacritics folded in text",
			input: Input{Filename: "IMG_001.jpg", Text: "DECLARAȚIE POLIȚIE privind furtul actului"},
			want:  KindPolitie,
		},
		{
			name:  "filename beats text",
			input: Input{Filename: "extras_cont.pdf", Text: "salariu net"},
			want:  KindContBancar,
		},
		{
			name:       "shared keyword is inconclusive",
			input:      Input{Filename: "contract_inchiriere.pdf"},
			candidates: []Kind{KindDovadaAdresa, KindActeLocuire},
		},
		{
			name:  "unknown label",
			input: Input{RawKind: "misc", Filename: "photo.jpg", Text: "lorem ipsum"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.input)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.want != "", got.Conclusive())
			if tt.candidates != nil {
				assert.Equal(t, tt.candidates, got.Candidates)
			}
		})
	}
}

func TestRuleMatcher_KindsIn(t *testing.T) {
	m := NewRuleMatcher()
	assert.Equal(t, []Kind{KindActeVenit, KindContBancar}, m.KindsIn("Cupon pensie si IBAN RO49AAAA"))
	assert.Empty(t, m.KindsIn("   "))
}

type stubClassifier struct {
	kind  Kind
	err   error
	calls int
	seen  []Kind
}

func (s *stubClassifier) Classify(_ context.Context, _ Input, candidates []Kind) (Kind, error) {
	s.calls++
	s.seen = candidates
	return s.kind, s.err
}

func TestNormalizer(t *testing.T) {
	ctx := context.Background()

	t.Run("rule pass skips classifier", func(t *testing.T) {
		stub := &stubClassifier{kind: KindActeVenit}
		n := NewNormalizer(stub)

		res := n.Normalize(ctx, Input{Filename: "certificat_nastere.pdf"})
		assert.Equal(t, Result{Kind: KindCertNastere, Source: SourceRule}, res)
		assert.Zero(t, stub.calls)
	})

	t.Run("inconclusive without classifier is dropped", func(t *testing.T) {
		n := NewNormalizer(nil)
		res := n.Normalize(ctx, Input{Filename: "contract_inchiriere.pdf"})
		assert.False(t, res.Recognized())
		assert.Equal(t, SourceNone, res.Source)
	})

	t.Run("classifier resolves ambiguity", func(t *testing.T) {
		stub := &stubClassifier{kind: KindActeLocuire}
		n := NewNormalizer(stub)

		res := n.Normalize(ctx, Input{Filename: "contract_inchiriere.pdf"})
		assert.Equal(t, Result{Kind: KindActeLocuire, Source: SourceLLM}, res)
		assert.Equal(t, []Kind{KindDovadaAdresa, KindActeLocuire}, stub.seen)
	})

	t.Run("classifier error drops upload", func(t *testing.T) {
		n := NewNormalizer(&stubClassifier{err: errors.New("timeout")})
		res := n.Normalize(ctx, Input{Filename: "x.jpg"})
		assert.False(t, res.Recognized())
	})

	t.Run("classifier declines", func(t *testing.T) {
		n := NewNormalizer(&stubClassifier{})
		res := n.Normalize(ctx, Input{Filename: "x.jpg"})
		assert.False(t, res.Recognized())
	})
}

type fakeCompleter struct {
	content string
	err     error
	req     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func TestLLMClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("valid kind", func(t *testing.T) {
		fc := &fakeCompleter{content: `{"kind":"acte_locuire"}`}
		k, err := NewLLMClassifier(fc, "gpt-4o-mini").Classify(ctx, Input{Filename: "a.pdf"}, []Kind{KindDovadaAdresa})
		require.NoError(t, err)
		assert.Equal(t, KindActeLocuire, k)
		assert.Equal(t, "gpt-4o-mini", fc.req.Model)
		require.NotNil(t, fc.req.ResponseFormat)
		assert.Contains(t, fc.req.Messages[1].Content, "candidati: dovada_adresa")
	})

	t.Run("fenced answer", func(t *testing.T) {
		fc := &fakeCompleter{content: "```json\n{\"kind\":\"politie\"}\n```"}
		k, err := NewLLMClassifier(fc, "m").Classify(ctx, Input{}, nil)
		require.NoError(t, err)
		assert.Equal(t, KindPolitie, k)
	})

	t.Run("unknown answer", func(t *testing.T) {
		fc := &fakeCompleter{content: `{"kind":"unknown"}`}
		k, err := NewLLMClassifier(fc, "m").Classify(ctx, Input{}, nil)
		require.NoError(t, err)
		assert.Empty(t, k)
	})

	t.Run("off-list answer is ignored", func(t *testing.T) {
		fc := &fakeCompleter{content: `{"kind":"pasaport"}`}
		k, err := NewLLMClassifier(fc, "m").Classify(ctx, Input{}, nil)
		require.NoError(t, err)
		assert.Empty(t, k)
	})

	t.Run("transport error", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("connection refused")}
		_, err := NewLLMClassifier(fc, "m").Classify(ctx, Input{}, nil)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		fc := &fakeCompleter{content: "not json"}
		_, err := NewLLMClassifier(fc, "m").Classify(ctx, Input{}, nil)
		assert.Error(t, err)
	})
}
