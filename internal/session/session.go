package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/psychopy/liaison/internal/companion"
	"github.com/psychopy/liaison/internal/observability"
	"github.com/psychopy/liaison/internal/protocol"
	"github.com/psychopy/liaison/internal/registry"
)

// State is the session lifecycle phase.
type State int32

const (
	StateStarting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Session owns one connection: it decodes inbound envelopes, dispatches
// them to its Companion in arrival order, and writes exactly one reply per
// envelope, stamped with the inbound id. The Companion and its namespace
// live exactly as long as the session.
type Session struct {
	conn    *websocket.Conn
	comp    *companion.Companion
	history *History
	logger  zerolog.Logger
	idle    time.Duration

	writeMu       sync.Mutex
	state         atomic.Int32
	stopRequested atomic.Bool
	closeOnce     sync.Once
}

func newSession(conn *websocket.Conn, reg *registry.Registry, history *History, logger zerolog.Logger, idle time.Duration) *Session {
	s := &Session{
		conn:    conn,
		comp:    companion.New(reg),
		history: history,
		logger:  logger,
		idle:    idle,
	}
	s.comp.Namespace().Store("liaison", &Handle{session: s})
	return s
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run processes envelopes until the peer disconnects or Close is called.
// Dispatch is strictly serialized: a command fully completes before the
// next read.
func (s *Session) Run() {
	s.state.Store(int32(StateOpen))
	for {
		if s.idle > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.idle))
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.State() == StateOpen && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("session read ended")
			}
			break
		}
		s.history.Append(data)
		s.handleMessage(data)
		if s.stopRequested.Load() {
			break
		}
	}
	s.Close()
}

// RequestStop asks the session to close after the in-flight command's reply
// is written. Used by the liaison handle so the stop command still gets its
// reply.
func (s *Session) RequestStop() {
	s.stopRequested.Store(true)
}

// handleMessage turns one raw inbound message into at most one reply. A
// decode failure with no recoverable id is reported on the log channel only
// since no correlation is possible.
func (s *Session) handleMessage(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		observability.RecordDecodeFailure()
		id := env.ID
		if id == "" {
			recovered, ok := protocol.RecoverID(data)
			if !ok {
				s.logger.Warn().Err(err).Msg("envelope rejected, no recoverable id")
				return
			}
			id = recovered
		}
		s.writeReply(id, protocol.NewErrorReply(id, protocol.KindDecodeError, err.Error()))
		return
	}

	started := time.Now()
	result, err := s.comp.Dispatch(env.Command.Name, env.Command.Args, env.Command.Kwargs)
	observability.RecordCommand(env.Command.Name, err == nil, time.Since(started))
	if err != nil {
		s.logger.Debug().
			Str("command", env.Command.Name).
			Str("id", env.ID).
			Err(err).
			Msg("command failed")
		s.writeReply(env.ID, protocol.NewErrorReply(env.ID, errorKind(err), err.Error()))
		return
	}
	s.logger.Debug().
		Str("command", env.Command.Name).
		Str("id", env.ID).
		Dur("duration", time.Since(started)).
		Msg("command dispatched")
	s.writeReply(env.ID, protocol.NewReply(env.ID, result))
}

// Push sends a value to the peer outside the reply stream. Pushed messages
// carry no id.
func (s *Session) Push(value any) error {
	if s.State() != StateOpen {
		return errors.New("session: not open")
	}
	observability.RecordPush()
	return s.writeJSON(protocol.Coerce(value))
}

// Close transitions Closing -> Closed, sending a close frame on a
// best-effort basis. Safe to call from any goroutine and more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
		s.state.Store(int32(StateClosed))
	})
}

// writeReply delivers one frame for id. Every envelope must get exactly one
// reply, so a success frame that fails to encode degrades to a correlated
// error reply rather than silence.
func (s *Session) writeReply(id string, v any) {
	err := s.writeJSON(v)
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Str("id", id).Msg("reply write failed")
	if _, ok := v.(protocol.ErrorReply); ok {
		return
	}
	fallback := protocol.NewErrorReply(id, protocol.KindCallError,
		fmt.Sprintf("reply encoding failed: %v", err))
	if err := s.writeJSON(fallback); err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("fallback reply write failed")
	}
}

// gorilla/websocket allows one concurrent writer; replies and pushes share
// the write lock.
func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, companion.ErrNotFound):
		return protocol.KindNotFound
	case errors.Is(err, companion.ErrUnknownCommand):
		return protocol.KindUnknownCommand
	case errors.Is(err, protocol.ErrDecode):
		return protocol.KindDecodeError
	default:
		return protocol.KindCallError
	}
}
