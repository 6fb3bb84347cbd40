package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/router"
)

func newTestService(t *testing.T, st Store) *Service {
	t.Helper()
	set, err := checklist.LoadDefaults()
	require.NoError(t, err)
	cases := agent.NewMockCaseCreator()
	reg, err := agent.NewDefaultRegistry(agent.Deps{
		Checklists:   set,
		Resolver:     router.NewService(router.Config{}),
		Uploads:      agent.NewMockUploadSource(),
		Cases:        cases,
		CaseLister:   cases,
		PublicURL:    "https://ghiseu.test",
		NewSessionID: func(prefix string) string { return prefix + "-next" },
	})
	require.NoError(t, err)
	return NewService(ServiceConfig{
		Store:      st,
		Dispatcher: agent.NewDispatcher(reg, 0, nil),
		Locker:     NewLocker(0),
	})
}

func TestService_TurnPersistsSession(t *testing.T) {
	ctx := context.Background()
	st := NewMockStore()
	svc := newTestService(t, st)

	res, err := svc.Turn(ctx, TurnRequest{
		SessionID: "s1",
		Message:   memory.MarkerStart,
		Form:      &agent.FormInput{UIContext: "ci"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Reply, agent.T(agent.LangRO, agent.MsgChooseLang))
	assert.Contains(t, res.Reply, agent.T(agent.LangEN, agent.MsgChooseLang))
	assert.Equal(t, []agent.AgentID{agent.AgentRouter}, res.Trace)
	assert.NotNil(t, res.Steps)

	res, err = svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "ro"})
	require.NoError(t, err)
	assert.Equal(t, agent.LangRO, res.Lang)
	assert.Equal(t, []agent.AgentID{agent.AgentRouter, agent.AgentEntry}, res.Trace)

	sess, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, agent.LangRO, sess.Lang)
	assert.Equal(t, "ci", sess.App.UIContext)

	raw, err := svc.History(ctx, "s1", false)
	require.NoError(t, err)
	require.Len(t, raw, 4)
	assert.Equal(t, memory.MarkerStart, raw[0].Text)

	filtered, err := svc.History(ctx, "s1", true)
	require.NoError(t, err)
	require.Len(t, filtered, 3)
	assert.Equal(t, memory.RoleAssistant, filtered[0].Role)
	assert.Equal(t, "ro", filtered[1].Text)
}

func TestService_PersonFieldsMerge(t *testing.T) {
	ctx := context.Background()
	st := NewMockStore()
	svc := newTestService(t, st)

	_, err := svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "ro", Person: map[string]string{"nume": "Popescu"}})
	require.NoError(t, err)

	res, err := svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "salut"})
	require.NoError(t, err)
	assert.Equal(t, "Popescu", res.Person["nume"])
}

type brokenRouter struct{}

func (brokenRouter) ID() agent.AgentID { return agent.AgentRouter }

func (brokenRouter) Handle(context.Context, *agent.State) error {
	return errors.New("classifier exploded")
}

func TestService_FaultIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	st := NewMockStore()
	prev := New("s1", "taxe")
	prev.Lang = agent.LangRO
	st.SetSessionDirectly(prev)

	reg := agent.NewRegistry()
	require.NoError(t, reg.Register(brokenRouter{}))
	svc := NewService(ServiceConfig{Store: st, Dispatcher: agent.NewDispatcher(reg, 0, nil)})

	res, err := svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "vreau sa platesc"})
	assert.ErrorIs(t, err, agent.ErrAgentFailed)
	require.NotNil(t, res)
	assert.Equal(t, agent.T(agent.LangRO, agent.MsgInternalFault), res.Reply)
	assert.Zero(t, st.Saves())

	sess, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, sess.History.Len())
}

func TestService_RejectsConcurrentTurn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMockStore())

	unlock, err := svc.locker.Lock(ctx, "s1")
	require.NoError(t, err)

	_, err = svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "ro"})
	assert.ErrorIs(t, err, agent.ErrSessionBusy)
	assert.ErrorIs(t, svc.Reset(ctx, "s1"), agent.ErrSessionBusy)

	unlock()
	_, err = svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "ro"})
	assert.NoError(t, err)
}

func TestService_InvalidAndStoreErrors(t *testing.T) {
	ctx := context.Background()
	st := NewMockStore()
	svc := newTestService(t, st)

	_, err := svc.Turn(ctx, TurnRequest{SessionID: "  ", Message: "ro"})
	assert.ErrorIs(t, err, agent.ErrInvalidInput)

	st.Err = errors.New("disk full")
	_, err = svc.Turn(ctx, TurnRequest{SessionID: "s1", Message: "ro"})
	assert.Error(t, err)
}

func TestService_ResetAndList(t *testing.T) {
	ctx := context.Background()
	st := NewMockStore()
	svc := newTestService(t, st)

	for _, id := range []string{"a", "b"} {
		_, err := svc.Turn(ctx, TurnRequest{SessionID: id, Message: "en"})
		require.NoError(t, err)
	}
	list, err := svc.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Reset(ctx, "a"))
	got, err := svc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	turns, err := svc.History(ctx, "a", true)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
