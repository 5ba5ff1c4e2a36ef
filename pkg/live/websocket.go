package live

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/limits"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/metrics"
	"github.com/gabrielmiguelok/golivestepper/pkg/protocol"
)

// handleLive upgrades to a WebSocket bound to an existing session. The codec
// follows the negotiated subprotocol; the current HTML is sent first, then
// every event is answered with a render or an error carrying the HTML.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.URL.Query().Get("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   protocol.Subprotocols(),
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		// Accept has already written the response.
		logging.L(r.Context()).Debug("websocket accept failed", logging.Err(err))
		return
	}
	defer conn.CloseNow()

	codec, err := protocol.ForSubprotocol(conn.Subprotocol())
	if err != nil {
		conn.Close(websocket.StatusProtocolError, err.Error())
		return
	}
	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	session.conns.Add(1)
	defer session.conns.Add(-1)
	gauge := s.metrics.ConnectionsActive.WithLabelValues(codec.Name())
	gauge.Inc()
	defer gauge.Dec()

	logger := logging.L(r.Context()).With(logging.Session(session.ID), logging.String("codec", codec.Name()))
	logger.Debug("live connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	lc := &liveConn{server: s, conn: conn, codec: codec, session: session, logger: logger}
	err = lc.run(ctx)

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		logger.Debug("live disconnected")
	default:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("live connection closed", logging.Err(err))
		}
	}
}

type liveConn struct {
	server  *Server
	conn    *websocket.Conn
	codec   protocol.Codec
	session *Session
	logger  logging.Logger
}

func (lc *liveConn) run(ctx context.Context) error {
	html, err := lc.session.Render(ctx)
	if err != nil {
		return err
	}
	if err := lc.send(ctx, protocol.NewRender("", html)); err != nil {
		return err
	}

	for {
		_, data, err := lc.conn.Read(ctx)
		if err != nil {
			return err
		}

		msg, err := lc.codec.Decode(data)
		if err == nil {
			err = msg.Validate()
		}
		if err != nil {
			lc.server.metrics.RecordError("decode")
			if err := lc.send(ctx, protocol.NewError("", err)); err != nil {
				return err
			}
			continue
		}

		reply := lc.handle(ctx, msg)
		if err := lc.send(ctx, reply); err != nil {
			return err
		}
	}
}

func (lc *liveConn) handle(ctx context.Context, msg *protocol.Message) *protocol.Message {
	if msg.Type == protocol.MsgHeartbeat {
		return &protocol.Message{Type: protocol.MsgHeartbeat, Ref: msg.Ref}
	}

	if !lc.server.events.Allow(lc.session.ID) {
		return protocol.NewError(msg.Ref, limits.ErrRateLimitExceeded)
	}

	timer := metrics.NewTimer()
	html, err := lc.session.Do(ctx, func(ctx context.Context, c core.Component) error {
		return c.HandleEvent(ctx, msg.Event, msg.Payload)
	})
	lc.server.metrics.ObserveEvent(msg.Event, "ws", timer.Elapsed())

	if err != nil {
		lc.logger.Debug("event failed", logging.String("event", msg.Event), logging.Err(err))
		reply := protocol.NewError(msg.Ref, err)
		reply.HTML = html
		return reply
	}
	return protocol.NewRender(msg.Ref, html)
}

func (lc *liveConn) send(ctx context.Context, msg *protocol.Message) error {
	data, err := lc.codec.Encode(msg)
	if err != nil {
		return err
	}
	typ := websocket.MessageText
	if lc.codec.Binary() {
		typ = websocket.MessageBinary
	}

	ctx, cancel := context.WithTimeout(ctx, lc.server.cfg.WriteTimeout)
	defer cancel()
	return lc.conn.Write(ctx, typ, data)
}
