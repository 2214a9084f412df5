package workflow

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Grant describes what an approver role may do. Stage is the role's home stage,
// used for rejection attribution and for the pending listing.
type Grant struct {
	Stage      Stage   `yaml:"stage"`
	MayApprove []Stage `yaml:"may_approve"`
}

// Policy is the role-to-stage authorization table.
type Policy struct {
	Requesters []Role         `yaml:"requesters"`
	Approvers  map[Role]Grant `yaml:"approvers"`
}

// DefaultPolicy lets each approver act on its own stage only.
func DefaultPolicy() *Policy {
	return &Policy{
		Requesters: []Role{RoleEmployee, RoleClerk},
		Approvers: map[Role]Grant{
			RoleITAssistant: {Stage: StageITAssistant, MayApprove: []Stage{StageITAssistant}},
			RoleITOfficer:   {Stage: StageITOfficer, MayApprove: []Stage{StageITOfficer}},
			RoleITHead:      {Stage: StageITHead, MayApprove: []Stage{StageITHead}},
		},
	}
}

// LoadPolicyFile reads a YAML policy. An empty path yields DefaultPolicy.
func LoadPolicyFile(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse workflow policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every grant refers to known stages and never reaches past
// the role's own stage.
func (p *Policy) Validate() error {
	if len(p.Approvers) == 0 {
		return fmt.Errorf("workflow policy: no approver roles defined")
	}
	for role, g := range p.Approvers {
		home := StageIndex(g.Stage)
		if home < 0 {
			return fmt.Errorf("workflow policy: role %s has unknown stage %q", role, g.Stage)
		}
		if slices.Contains(p.Requesters, role) {
			return fmt.Errorf("workflow policy: role %s is both requester and approver", role)
		}
		for _, s := range g.MayApprove {
			i := StageIndex(s)
			if i < 0 {
				return fmt.Errorf("workflow policy: role %s may approve unknown stage %q", role, s)
			}
			if i > home {
				return fmt.Errorf("workflow policy: role %s may not approve %s beyond its own stage %s", role, s, g.Stage)
			}
		}
	}
	return nil
}

// IsRequester reports whether role files applications rather than approving them.
func (p *Policy) IsRequester(role Role) bool {
	return slices.Contains(p.Requesters, role)
}

// HomeStage returns the stage owned by an approver role.
func (p *Policy) HomeStage(role Role) (Stage, bool) {
	g, ok := p.Approvers[role]
	if !ok {
		return "", false
	}
	return g.Stage, true
}

// CanApprove reports whether role may approve at stage.
func (p *Policy) CanApprove(role Role, stage Stage) bool {
	g, ok := p.Approvers[role]
	return ok && slices.Contains(g.MayApprove, stage)
}
