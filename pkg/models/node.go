package models

// NodeID names a unit of work inside an agent workflow. The set of valid
// node IDs is closed per agent type and declared by its NodeSet.
type NodeID string

// Shared node IDs. Every agent graph begins at NodeStart and terminates at
// NodeEnd; agents that support human approval pause at NodeAwaitingApproval.
const (
	NodeStart            NodeID = "start"
	NodeEnd              NodeID = "end"
	NodeAwaitingApproval NodeID = "awaiting_approval"
)

// Daily audit nodes.
const (
	NodeFetchNotes  NodeID = "fetch_notes"
	NodeAnalyze     NodeID = "analyze"
	NodeSaveSummary NodeID = "save_summary"
)

// Routine generation nodes.
const (
	NodeFetchContext    NodeID = "fetch_context"
	NodeGenerateRoutine NodeID = "generate_routine"
	NodeSaveRoutine     NodeID = "save_routine"
)

// NodeSet declares the closed node graph of one agent type: the full node
// list, which node a fresh thread starts at, which node terminates it, which
// nodes may pause awaiting an external decision, and where an approval
// decision routes to.
type NodeSet struct {
	Nodes      []NodeID
	Start      NodeID
	Terminal   NodeID
	PauseNodes []NodeID

	// ApprovedNode is where an approved resume continues; a rejected resume
	// jumps straight to Terminal with the thread completed.
	ApprovedNode NodeID
}

// Contains reports whether id belongs to the set's declared nodes.
func (ns NodeSet) Contains(id NodeID) bool {
	for _, n := range ns.Nodes {
		if n == id {
			return true
		}
	}

	return false
}

// IsPauseNode reports whether id is a designated suspension point.
func (ns NodeSet) IsPauseNode(id NodeID) bool {
	for _, n := range ns.PauseNodes {
		if n == id {
			return true
		}
	}

	return false
}
