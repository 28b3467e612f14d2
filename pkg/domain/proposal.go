package domain

import "github.com/aretw0/switchyard/pkg/caps"

// TransformationStep is one concrete position of an instantiated chain:
// the factory it came from plus the caps both sides fixated to during the
// sandbox negotiation.
type TransformationStep struct {
	FactoryID   string
	SinkPadName string
	SrcPadName  string
	SinkCaps    caps.Caps
	SrcCaps     caps.Caps
}

// ParentKind discriminates what a proposal is rooted on.
type ParentKind int

const (
	// ParentRootInput roots the proposal directly on an input endpoint.
	ParentRootInput ParentKind = iota
	// ParentBranch roots the proposal on a step of another proposal.
	ParentBranch
)

// ProposalParent is the tagged parent reference of a proposal. For
// ParentBranch, Proposal is the handle of the parent proposal inside the
// owning arena and Step the index of the step branched from.
type ProposalParent struct {
	Kind     ParentKind
	Endpoint string
	Proposal int
	Step     int
}

// RootInput builds a parent reference for a direct proposal.
func RootInput(endpoint string) ProposalParent {
	return ProposalParent{Kind: ParentRootInput, Endpoint: endpoint}
}

// BranchOf builds a parent reference branching off step of proposal handle.
func BranchOf(proposal, step int) ProposalParent {
	return ProposalParent{Kind: ParentBranch, Proposal: proposal, Step: step}
}

// Proposal is a costed candidate delivering one output endpoint, possibly
// via the intermediate results of an ancestor proposal. A proposal with no
// steps is a passthrough: its parent's stream feeds SrcEndpoint directly.
type Proposal struct {
	Parent      ProposalParent
	SrcEndpoint string
	Steps       []TransformationStep
	Cost        uint32
}

// Passthrough reports whether the proposal carries no transformation.
func (p *Proposal) Passthrough() bool {
	return len(p.Steps) == 0
}

// Plan is the output of a planning pass: the proposal arena plus the
// handles selected by the minimum-cost cover. Handles in Selected and in
// ProposalParent references index into Proposals.
type Plan struct {
	Proposals []Proposal `json:"proposals"`
	Selected  []int      `json:"selected"`
	TotalCost uint32     `json:"total_cost"`
}

// Ancestors returns the handle chain from the proposal at handle up to its
// root, starting with handle itself.
func (pl *Plan) Ancestors(handle int) []int {
	var out []int
	for {
		out = append(out, handle)
		p := &pl.Proposals[handle]
		if p.Parent.Kind != ParentBranch {
			return out
		}
		handle = p.Parent.Proposal
	}
}
