package filenode

import (
	"context"
	"fmt"

	"github.com/opd-ai/filenode/connection"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/transfer"
)

// Transfer returns an engine bound to the transfer with the given id. A
// Start fed to an unknown or finished id registers the transfer first, so
// the chaos driver can run against the node exactly as it runs against a
// local engine.
func (n *Node) Transfer(id string) interfaces.TransferEngine {
	return &nodeTransfer{node: n, id: id}
}

// Connection returns an engine bound to the node's connection state machine.
func (n *Node) Connection() interfaces.ConnectionEngine {
	return nodeConnection{node: n}
}

type nodeTransfer struct {
	node *Node
	id   string
}

func (t *nodeTransfer) Apply(ctx context.Context, ev transfer.Event) (transfer.State, []transfer.Action, error) {
	start, ok := ev.(transfer.Start)
	if !ok || t.live() {
		return t.node.HandleTransferEvent(ctx, t.id, ev)
	}
	if start.TransferID != "" && start.TransferID != t.id {
		return nil, nil, fmt.Errorf("transfer %s: start carries id %q", t.id, start.TransferID)
	}
	return t.node.StartTransferWithID(ctx, t.id, start.URL, start.TotalBytes)
}

// live reports whether the bound id has a transfer that is neither idle nor finished.
func (t *nodeTransfer) live() bool {
	state, ok := t.node.TransferState(t.id)
	if !ok {
		return false
	}
	return !transfer.IsTerminal(state) && state.Kind() != transfer.KindIdle
}

type nodeConnection struct {
	node *Node
}

func (c nodeConnection) Apply(ctx context.Context, ev connection.Event) (connection.State, []connection.Action, error) {
	return c.node.HandleConnectionEvent(ctx, ev)
}
