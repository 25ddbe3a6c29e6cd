package ast

// NodeID addresses a node in Tree.Nodes.
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }
