package visible

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownKind is returned for a command whose kind is not an action.
	ErrUnknownKind = errors.New("unknown action kind")
	// ErrMissingField is returned when a command lacks a field its kind needs.
	ErrMissingField = errors.New("missing action field")
)

// Command is the serialised form of an action, as sent to the HTTP API or
// written in an exploration script.
type Command struct {
	Kind    Kind     `json:"kind" yaml:"kind" validate:"required"`
	Node    *int64   `json:"node,omitempty" yaml:"node,omitempty"`
	Edge    *int64   `json:"edge,omitempty" yaml:"edge,omitempty"`
	IDs     []int64  `json:"ids,omitempty" yaml:"ids,omitempty"`
	Types   []string `json:"types,omitempty" yaml:"types,omitempty"`
	Mutator string   `json:"mutator,omitempty" yaml:"mutator,omitempty"`
}

// Action converts c into the action it names.
func (c Command) Action() (Action, error) {
	switch c.Kind {
	case KindSetVisibleNodes:
		return SetVisibleNodes{IDs: c.IDs}, nil
	case KindSetVisibleEdges:
		return SetVisibleEdges{IDs: c.IDs}, nil
	case KindSetVisibleNodeTypes:
		return SetVisibleNodeTypes{Types: c.Types}, nil
	case KindSetVisibleEdgeTypes:
		return SetVisibleEdgeTypes{Types: c.Types}, nil
	case KindPullInNeighbors, KindHideNode, KindAddNode, KindRunMutatorFromNode:
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%q", c.Kind)
	}

	if c.Node == nil {
		return nil, errors.Wrapf(ErrMissingField, "%s needs node", c.Kind)
	}
	id := *c.Node
	switch c.Kind {
	case KindPullInNeighbors:
		return PullInNeighbors{Node: id}, nil
	case KindHideNode:
		return HideNode{Node: id}, nil
	case KindAddNode:
		return AddNode{Node: id}, nil
	}
	if c.Mutator == "" {
		return nil, errors.Wrapf(ErrMissingField, "%s needs mutator", c.Kind)
	}
	return RunMutatorFromNode{Node: id, Edge: c.Edge, Mutator: c.Mutator}, nil
}
