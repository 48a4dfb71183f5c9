package session

// Lifecycle markers emitted on the control channel, never as replies and
// never with an id. The start marker is suffixed with "@<address>" once the
// endpoint is bound; the stop marker is emitted alone on close.
const (
	StartMarker = "LIAISON_STARTED"
	StopMarker  = "LIAISON_STOPPED"
)

// Constants returns the marker tokens for operator queries.
func Constants() map[string]string {
	return map[string]string{
		"START_MARKER": StartMarker,
		"STOP_MARKER":  StopMarker,
	}
}
