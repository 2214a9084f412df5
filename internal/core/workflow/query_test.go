package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtures returns one application in each reachable shape.
func fixtures(t *testing.T) map[string]Application {
	t.Helper()
	e := newTestEngine(nil)

	fresh := freshApplication()
	atOfficer := mustApply(t, e, fresh, assistant, approve(StageITAssistant))
	atHead := mustApply(t, e, atOfficer, officer, approve(StageITOfficer))
	done := mustApply(t, e, atHead, head, approve(StageITHead))
	rejected := mustApply(t, e, fresh, assistant, TransitionRequest{Action: ActionReject, Remarks: "incomplete"})

	other := freshApplication()
	other.FiledBy = "clerk007"

	return map[string]Application{
		"fresh":      fresh,
		"atOfficer":  atOfficer,
		"atHead":     atHead,
		"done":       done,
		"rejected":   rejected,
		"otherFresh": other,
	}
}

func visible(t *testing.T, f Filter, apps map[string]Application) []string {
	t.Helper()
	var names []string
	for _, name := range []string{"fresh", "atOfficer", "atHead", "done", "rejected", "otherFresh"} {
		if f.Matches(apps[name]) {
			names = append(names, name)
		}
	}
	return names
}

func TestPlan_Approvers(t *testing.T) {
	p := DefaultPolicy()
	apps := fixtures(t)

	tests := []struct {
		role   Role
		bucket Bucket
		want   []string
	}{
		{RoleITAssistant, BucketPending, []string{"fresh", "otherFresh"}},
		{RoleITOfficer, BucketPending, []string{"fresh", "otherFresh"}},
		{RoleITHead, BucketPending, []string{"fresh", "atHead", "otherFresh"}},
		{RoleITOfficer, BucketApproved, []string{"atOfficer", "atHead", "done"}},
		{RoleITOfficer, BucketFullyApproved, []string{"done"}},
		{RoleITAssistant, BucketPartiallyApproved, []string{"atOfficer", "atHead"}},
		{RoleITHead, BucketRejected, []string{"rejected"}},
		{RoleITHead, BucketAll, []string{"fresh", "atOfficer", "atHead", "done", "rejected", "otherFresh"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.bucket), func(t *testing.T) {
			f, err := p.Plan(Viewer{Identity: "x", Role: tt.role}, tt.bucket)
			require.NoError(t, err)
			assert.Equal(t, tt.want, visible(t, f, apps))
		})
	}
}

func TestPlan_OfficerPendingSkipsOwnStage(t *testing.T) {
	p := DefaultPolicy()
	apps := fixtures(t)

	atOfficer := apps["atOfficer"]
	require.Equal(t, StageITOfficer, atOfficer.CurrentLevel)
	require.Equal(t, StatusApproved, atOfficer.Status)

	pending, err := p.Plan(Viewer{Identity: "it.officer", Role: RoleITOfficer}, BucketPending)
	require.NoError(t, err)
	assert.False(t, pending.Matches(atOfficer))

	partial, err := p.Plan(Viewer{Identity: "it.officer", Role: RoleITOfficer}, BucketPartiallyApproved)
	require.NoError(t, err)
	assert.True(t, partial.Matches(atOfficer))

	headPending, err := p.Plan(Viewer{Identity: "it.head", Role: RoleITHead}, BucketPending)
	require.NoError(t, err)
	assert.True(t, headPending.Matches(apps["atHead"]))
}

func TestPlan_RequesterSeesOnlyOwn(t *testing.T) {
	p := DefaultPolicy()
	apps := fixtures(t)

	f, err := p.Plan(Viewer{Identity: "emp001", Role: RoleEmployee}, BucketAll)
	require.NoError(t, err)
	assert.Equal(t, "emp001", f.FiledBy)
	assert.Equal(t, []string{"fresh", "atOfficer", "atHead", "done", "rejected"}, visible(t, f, apps))

	f, err = p.Plan(Viewer{Identity: "clerk007", Role: RoleClerk}, BucketPending)
	require.NoError(t, err)
	assert.Equal(t, []string{"otherFresh"}, visible(t, f, apps))

	f, err = p.Plan(Viewer{Identity: "emp001", Role: RoleEmployee}, BucketRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{"rejected"}, visible(t, f, apps))
}

func TestPlan_Errors(t *testing.T) {
	p := DefaultPolicy()

	_, err := p.Plan(Viewer{Identity: "x", Role: RoleITHead}, "archived")
	assert.ErrorIs(t, err, ErrUnknownBucket)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = p.Plan(Viewer{Identity: "x", Role: "Mayor"}, BucketPending)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	_, err = p.Plan(Viewer{Role: RoleITHead}, BucketPending)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestDeriveFlowStatus(t *testing.T) {
	apps := fixtures(t)

	assert.Equal(t, FlowStatus{
		StageITAssistant: FlowPending, StageITOfficer: FlowPending, StageITHead: FlowPending,
	}, DeriveFlowStatus(apps["fresh"]))

	assert.Equal(t, FlowStatus{
		StageITAssistant: FlowApproved, StageITOfficer: FlowApproved, StageITHead: FlowPending,
	}, DeriveFlowStatus(apps["atHead"]))

	assert.Equal(t, FlowStatus{
		StageITAssistant: FlowRejected, StageITOfficer: FlowRejected, StageITHead: FlowRejected,
	}, DeriveFlowStatus(apps["rejected"]))
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()

	p, err := LoadPolicyFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)

	good := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
requesters: [Employee, Clerk]
approvers:
  ITAssistant: {stage: ITAssistant, may_approve: [ITAssistant]}
  ITOfficer:   {stage: ITOfficer, may_approve: [ITOfficer]}
  ITHead:      {stage: ITHead, may_approve: [ITAssistant, ITOfficer, ITHead]}
`), 0o600))

	p, err = LoadPolicyFile(good)
	require.NoError(t, err)
	assert.True(t, p.CanApprove(RoleITHead, StageITAssistant))
	assert.False(t, p.CanApprove(RoleITOfficer, StageITAssistant))
	assert.True(t, p.IsRequester(RoleClerk))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
approvers:
  ITAssistant: {stage: ITAssistant, may_approve: [ITHead]}
`), 0o600))
	_, err = LoadPolicyFile(bad)
	assert.ErrorContains(t, err, "beyond its own stage")

	_, err = LoadPolicyFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
