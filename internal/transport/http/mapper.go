package http

import (
	"github.com/netziya/shell-server/internal/core"
	"github.com/netziya/shell-server/internal/proto"
)

func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventInit:
		return proto.Init{Type: proto.TypeInit, Code: event.Code}
	case core.EventPresence:
		return proto.Users{Type: proto.TypeUsers, Users: event.Users}
	case core.EventDocUpdate:
		return proto.Update{Type: proto.TypeUpdate, Code: event.Code}
	case core.EventFileAdded:
		return proto.FileEvent{Type: proto.TypeFile, Filename: event.Filename}
	case core.EventFileRemoved:
		return proto.FileEvent{Type: proto.TypeDelete, Filename: event.Filename}
	default:
		return nil
	}
}
