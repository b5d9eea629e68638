package file

import "fmt"

// CommandKind names a runtime command.
type CommandKind uint8

const (
	// CommandShutdown initiates graceful shutdown.
	CommandShutdown CommandKind = iota
	// CommandCancelTransfer cancels the transfer named by Command.TransferID.
	CommandCancelTransfer
	// CommandCancelAll cancels every live transfer.
	CommandCancelAll
)

// Command is a control message applied by SendCommand and broadcast to subscribers.
type Command struct {
	Kind       CommandKind
	TransferID string
}

// ShutdownCommand builds a CommandShutdown.
func ShutdownCommand() Command { return Command{Kind: CommandShutdown} }

// CancelTransferCommand builds a CommandCancelTransfer for id.
func CancelTransferCommand(id string) Command {
	return Command{Kind: CommandCancelTransfer, TransferID: id}
}

// CancelAllCommand builds a CommandCancelAll.
func CancelAllCommand() Command { return Command{Kind: CommandCancelAll} }

func (c Command) String() string {
	switch c.Kind {
	case CommandShutdown:
		return "Shutdown"
	case CommandCancelTransfer:
		return fmt.Sprintf("CancelTransfer(%s)", c.TransferID)
	case CommandCancelAll:
		return "CancelAllTransfers"
	default:
		return fmt.Sprintf("Command(%d)", uint8(c.Kind))
	}
}

// CommandBufferSize is the capacity of each subscriber channel.
const CommandBufferSize = 16
