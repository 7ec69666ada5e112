package kernel

type WalkFlag uint8

const (
	WalkReadOnly WalkFlag = 1 << iota
	// WalkIncludeUI also visits slots marked UsageUI.
	WalkIncludeUI
)

// LinkData describes one visited reference slot.
type LinkData struct {
	Self  Datablock
	Slot  *Datablock
	Usage Usage
}

// Walker enumerates the outgoing reference slots of a datablock.
type Walker interface {
	ForeachID(db Datablock, flag WalkFlag, fn func(*LinkData))
}

// WalkerFunc adapts a function to Walker.
type WalkerFunc func(db Datablock, flag WalkFlag, fn func(*LinkData))

func (f WalkerFunc) ForeachID(db Datablock, flag WalkFlag, fn func(*LinkData)) {
	f(db, flag, fn)
}

// DefaultWalker dispatches to the ForeachID hook registered for the
// datablock's type.
var DefaultWalker Walker = WalkerFunc(foreachID)

func foreachID(db Datablock, flag WalkFlag, fn func(*LinkData)) {
	ops := opsFor(db.Header().code)
	if ops.ForeachID == nil {
		return
	}
	ops.ForeachID(db, func(slot *Datablock, usage Usage) {
		if usage&UsageUI != 0 && flag&WalkIncludeUI == 0 {
			return
		}
		fn(&LinkData{Self: db, Slot: slot, Usage: usage})
	})
}
