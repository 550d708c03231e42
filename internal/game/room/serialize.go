package room

import (
	"github.com/palemoky/fibbing-it/internal/protocol"
	"github.com/palemoky/fibbing-it/internal/protocol/convert"
)

// Snapshot 房间快照，仅在执行器内调用
func (r *Room) Snapshot() protocol.RoomPayload {
	return convert.RoomSnapshot(r.Code, r.GameType, r.State)
}
