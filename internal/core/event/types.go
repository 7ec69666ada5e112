package event

import (
	"github.com/traykit/tray/internal/core/session"
	"github.com/traykit/tray/internal/idtype"
)

// IDAdded is emitted when a datablock joins a registry.
type IDAdded struct {
	Code        idtype.Code
	Name        string
	SessionUUID session.UUID
}

// IDFreed is emitted when a datablock is freed outside of bulk teardown.
type IDFreed struct {
	Code        idtype.Code
	Name        string
	SessionUUID session.UUID
}

type IDRenamed struct {
	Code        idtype.Code
	OldName     string
	NewName     string
	SessionUUID session.UUID
}
