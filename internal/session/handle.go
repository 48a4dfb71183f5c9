package session

// Handle is stored in each session namespace under "liaison", giving remote
// callers a resolvable target for session control, e.g.
// run("liaison.push", ...) or run("liaison.stop").
type Handle struct {
	session *Session
}

// Push sends a value to the peer out of band.
func (h *Handle) Push(value any) (string, error) {
	if err := h.session.Push(value); err != nil {
		return "", err
	}
	return "sent", nil
}

// Stop initiates session close. The close happens after the stop command's
// own reply is written.
func (h *Handle) Stop() string {
	h.session.RequestStop()
	return "stopping"
}

// State reports the session lifecycle phase.
func (h *Handle) State() string {
	return h.session.State().String()
}
