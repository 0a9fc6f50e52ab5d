// Package registry maps each agent type's closed node set to its handler
// functions. Adding a node to an agent means adding a registry entry, not
// editing the engine loop.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/protocol"
)

// ErrAgentNotRegistered indicates no graph is registered for an agent type.
var ErrAgentNotRegistered = errors.New("agent type not registered")

// ErrUnknownNode indicates a node ID outside the agent's closed node set.
var ErrUnknownNode = errors.New("unknown node")

// AgentGraph binds one agent type's node set to its handlers.
type AgentGraph struct {
	agentType models.AgentType
	nodeSet   models.NodeSet
	handlers  map[models.NodeID]protocol.NodeHandler
}

// NodeSet returns the graph's declared node set.
func (g *AgentGraph) NodeSet() models.NodeSet {
	return g.nodeSet
}

// AgentType returns the agent type this graph belongs to.
func (g *AgentGraph) AgentType() models.AgentType {
	return g.agentType
}

// Handler resolves the handler for a node, or ErrUnknownNode when the node
// is outside the closed set.
func (g *AgentGraph) Handler(node models.NodeID) (protocol.NodeHandler, error) {
	handler, ok := g.handlers[node]
	if !ok {
		return nil, fmt.Errorf("%w: %s for agent %s", ErrUnknownNode, node, g.agentType)
	}

	return handler, nil
}

// Registry holds the agent graphs known to the engine.
type Registry struct {
	logger *slog.Logger
	graphs map[models.AgentType]*AgentGraph
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		graphs: make(map[models.AgentType]*AgentGraph),
	}
}

// RegisterGraph registers an agent's node set and handlers. Every node in
// the set except the terminal must have a handler, and the declared start,
// terminal, pause and approval-continuation nodes must belong to the set.
func (r *Registry) RegisterGraph(agentType models.AgentType, nodeSet models.NodeSet, handlers map[models.NodeID]protocol.NodeHandler) error {
	if !nodeSet.Contains(nodeSet.Start) {
		return fmt.Errorf("start node %s is not in the node set for agent %s", nodeSet.Start, agentType)
	}

	if !nodeSet.Contains(nodeSet.Terminal) {
		return fmt.Errorf("terminal node %s is not in the node set for agent %s", nodeSet.Terminal, agentType)
	}

	if nodeSet.ApprovedNode != "" && !nodeSet.Contains(nodeSet.ApprovedNode) {
		return fmt.Errorf("approval continuation node %s is not in the node set for agent %s", nodeSet.ApprovedNode, agentType)
	}

	for _, pause := range nodeSet.PauseNodes {
		if !nodeSet.Contains(pause) {
			return fmt.Errorf("pause node %s is not in the node set for agent %s", pause, agentType)
		}
	}

	for _, node := range nodeSet.Nodes {
		if node == nodeSet.Terminal {
			continue
		}

		if _, ok := handlers[node]; !ok {
			return fmt.Errorf("node %s has no handler for agent %s", node, agentType)
		}
	}

	for node := range handlers {
		if !nodeSet.Contains(node) {
			return fmt.Errorf("handler registered for %s which is not in the node set for agent %s", node, agentType)
		}
	}

	r.graphs[agentType] = &AgentGraph{
		agentType: agentType,
		nodeSet:   nodeSet,
		handlers:  handlers,
	}

	r.logger.Info("Registered agent graph", "agent_type", agentType, "nodes", len(nodeSet.Nodes))

	return nil
}

// Graph resolves the registered graph for an agent type.
func (r *Registry) Graph(agentType models.AgentType) (*AgentGraph, error) {
	graph, ok := r.graphs[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotRegistered, agentType)
	}

	return graph, nil
}
