package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SQLiteStore, *time.Time) {
	t.Helper()
	st, err := NewSQLite(t.Context(), filepath.Join(t.TempDir(), "panels.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	return st, &now
}

func panel(region string, verdict model.Verdict) model.RegionPanelOutput {
	return model.NewRegionPanel(region,
		model.BudgetAnalystOutput{KeyAllocations: []model.Allocation{}, CitationIDs: []string{}},
		model.PolicyAnalystOutput{ApprovalFrictionFactors: []string{}, Constraints: []string{}, CitationIDs: []string{}},
		model.UnderwriterOutput{Verdict: verdict, PlanVariant: model.PlanVariantFor(verdict), CitationIDs: []string{}},
		time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	)
}

func TestSQLite_SaveAndLatest(t *testing.T) {
	st, now := newTestStore(t)
	ctx := t.Context()

	first, err := st.Save(ctx, panel("springfield", model.VerdictCaution))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	*now = now.Add(time.Second)
	second, err := st.Save(ctx, panel("springfield", model.VerdictGo))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = st.Save(ctx, panel("shelbyville", model.VerdictAvoid))
	require.NoError(t, err)

	latest, err := st.Latest(ctx, "springfield")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, model.VerdictGo, latest.Verdict)
	assert.Equal(t, panel("springfield", model.VerdictGo), latest.Panel)
	assert.True(t, latest.CreatedAt.Equal(*now))
}

func TestSQLite_LatestNotFound(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.Latest(t.Context(), "nowhere")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_List(t *testing.T) {
	st, now := newTestStore(t)
	ctx := t.Context()

	for _, v := range []model.Verdict{model.VerdictAvoid, model.VerdictCaution, model.VerdictGo} {
		_, err := st.Save(ctx, panel("springfield", v))
		require.NoError(t, err)
		*now = now.Add(time.Millisecond)
	}

	all, err := st.List(ctx, "springfield", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.VerdictGo, all[0].Verdict)
	assert.Equal(t, model.VerdictAvoid, all[2].Verdict)

	two, err := st.List(ctx, "springfield", 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	none, err := st.List(ctx, "nowhere", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLite_SameInstantKeepsInsertOrder(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := t.Context()

	_, err := st.Save(ctx, panel("r", model.VerdictAvoid))
	require.NoError(t, err)
	last, err := st.Save(ctx, panel("r", model.VerdictGo))
	require.NoError(t, err)

	latest, err := st.Latest(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)
}
