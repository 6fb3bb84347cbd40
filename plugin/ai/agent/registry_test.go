package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(LegalAgent{}))
	assert.ErrorIs(t, r.Register(LegalAgent{}), ErrDuplicateAgent)
	assert.ErrorIs(t, r.Register(funcAgent{id: "ghost"}), ErrUnknownAgent)
	assert.Error(t, r.Register(nil))

	got, ok := r.Get(AgentLegal)
	require.True(t, ok)
	assert.Equal(t, AgentLegal, got.ID())
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_ValidateRequiresEveryAgent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(LegalAgent{}))

	err := r.Validate(nil)
	assert.ErrorIs(t, err, ErrMissingAgent)
}

func TestNewDefaultRegistry(t *testing.T) {
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)

	r, err := NewDefaultRegistry(Deps{Checklists: set})
	require.NoError(t, err)
	assert.ElementsMatch(t, AllAgentIDs(), r.List())

	for _, id := range []AgentID{AgentCI, AgentSocial, AgentTaxe} {
		a, ok := r.Get(id)
		require.True(t, ok)
		w, ok := a.(*WizardAgent)
		require.True(t, ok, "%s is a wizard", id)
		assert.Equal(t, string(id), w.Checklist().Agent)
	}

	_, err = NewDefaultRegistry(Deps{})
	assert.Error(t, err)
}

func TestDomainFor(t *testing.T) {
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)

	assert.Equal(t, AgentCI, DomainFor(set, "ci"))
	assert.Equal(t, AgentCI, DomainFor(set, "carte_identitate"))
	assert.Equal(t, AgentSocial, DomainFor(set, " Social "))
	assert.Equal(t, AgentOperator, DomainFor(set, "operator"))
	assert.Equal(t, AgentEntry, DomainFor(set, ""))
	assert.Equal(t, AgentEntry, DomainFor(set, "nowhere"))
	assert.True(t, IsWizardContext(set, "taxe"))
	assert.False(t, IsWizardContext(set, "entry"))
}

func TestKeywordLangDetector(t *testing.T) {
	d := KeywordLangDetector{}

	lang, ok := d.Detect("Bună ziua, vreau o carte de identitate")
	require.True(t, ok)
	assert.Equal(t, LangRO, lang)

	lang, ok = d.Detect("Hello, I need help with my taxes")
	require.True(t, ok)
	assert.Equal(t, LangEN, lang)

	_, ok = d.Detect("12345")
	assert.False(t, ok)
}

func TestPhase_AdvanceIsForwardOnly(t *testing.T) {
	p := PhaseAwaitingDocuments
	assert.Equal(t, PhaseAwaitingDocuments, p.Advance(PhaseAwaitingSlot))
	assert.Equal(t, PhaseReady, p.Advance(PhaseReady))

	text, err := PhaseReady.MarshalText()
	require.NoError(t, err)
	var back Phase
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, PhaseReady, back)
}
