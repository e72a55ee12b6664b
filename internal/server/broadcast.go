package server

import (
	"github.com/dukerupert/habitrack/internal/backup"
	"github.com/dukerupert/habitrack/internal/tracker"
	"github.com/dukerupert/habitrack/internal/websocket"
)

// BroadcastChanges returns a tracker callback that pushes each committed
// change to websocket clients.
func BroadcastChanges(hub *websocket.Hub) tracker.ChangeCallback {
	return func(c tracker.Change) {
		hub.Broadcast(changeMessage(c))
	}
}

func changeMessage(c tracker.Change) websocket.Message {
	switch c.Kind {
	case tracker.ChangeDayUpdated:
		return websocket.NewMessage(websocket.EntityDay, "updated", c.Date.String(), nil)
	case tracker.ChangeDayCleared:
		return websocket.NewMessage(websocket.EntityDay, "cleared", c.Date.String(), nil)
	case tracker.ChangeStoreReset:
		return websocket.NewMessage(websocket.EntityStore, "reset", "", nil)
	default:
		return websocket.NewMessage(websocket.EntityStore, "replaced", "", nil)
	}
}

// BroadcastBackupStatus returns a backup callback that pushes status changes
// to websocket clients.
func BroadcastBackupStatus(hub *websocket.Hub) backup.StatusCallback {
	return func(s backup.Status) {
		hub.Broadcast(websocket.NewMessage(websocket.EntityBackup, "status", "", s))
	}
}
