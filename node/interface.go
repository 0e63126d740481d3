package node

// Component is a long running part of the node.
type Component interface {
	Start()
	Stop()
	Name() string
}
