package workflow

// FlowState is the per-stage state shown to users.
type FlowState string

const (
	FlowPending  FlowState = "pending"
	FlowApproved FlowState = "approved"
	FlowRejected FlowState = "rejected"
)

// FlowStatus maps every stage to its display state.
type FlowStatus map[Stage]FlowState

// DeriveFlowStatus computes the display view from the stage flags. A rejected
// application reports every stage as rejected.
func DeriveFlowStatus(app Application) FlowStatus {
	flow := make(FlowStatus, len(Stages))
	for _, s := range Stages {
		switch {
		case app.Status == StatusRejected:
			flow[s] = FlowRejected
		case app.Stage(s).Approved:
			flow[s] = FlowApproved
		default:
			flow[s] = FlowPending
		}
	}
	return flow
}
