package stable

// callGuard rejects nested entry into mutating operations from within an
// in-flight call on the same logical execution context. External token
// collaborators could otherwise call back into the engine before the
// initiating operation has committed its state. This is a call-scoped flag,
// not a lock: operations never block.
type callGuard struct {
	entered bool
}

func (g *callGuard) enter() error {
	if g.entered {
		return ErrReentrant
	}
	g.entered = true
	return nil
}

func (g *callGuard) exit() {
	g.entered = false
}
