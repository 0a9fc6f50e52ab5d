package models

// ApprovalDecision is the human verdict applied to a paused thread. A
// rejected decision completes the thread without running its save node.
type ApprovalDecision struct {
	Approved  bool   `json:"approved"`
	ResumedBy string `json:"resumed_by,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
