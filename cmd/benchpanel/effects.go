package main

import (
	"log/slog"
	"time"
)

// runEffect executes a single reducer-emitted Command and reports failures
// via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the daemon loop.
func runEffect(cmd Command, logger *slog.Logger, onEvent func(Event)) {
	switch c := cmd.(type) {
	case CmdPublishStateSnapshot:
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop on a requester that went away.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		if onEvent != nil {
			onEvent(CommandFailed{
				Command: cmd,
				Err:     errUnknownCommand{cmd: cmd},
				At:      time.Now(),
			})
		}
	}
}

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
