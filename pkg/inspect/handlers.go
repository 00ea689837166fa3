package inspect

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/protocol"
	"github.com/vango-dev/fibre/pkg/snapshot"
)

// QueryResult is one node returned by /query.
type QueryResult struct {
	Path []int  `json:"path"`
	HTML string `json:"html"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(protocol.FrameHeaderSize + protocol.MaxPayloadSize)

	c := newClient(conn, r.RemoteAddr)
	go c.writePump()

	var initErr error
	err = s.sched.Do(func() {
		frames, err := s.initialFrames()
		if err != nil {
			initErr = err
			c.close()
			return
		}
		if !c.sendAll(frames) {
			initErr = errors.New("initial state does not fit the send buffer")
			c.close()
			return
		}
		s.metrics.RecordFrames(len(frames))
		s.addClient(c)
	})
	if err != nil || initErr != nil {
		s.logger.Warn("websocket setup failed", "remote", c.remote, "err", errors.Join(err, initErr))
		if err != nil {
			// The loop is gone, nothing else touches c.
			c.close()
		}
		return
	}
	s.logger.Debug("client connected", "remote", c.remote)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.BinaryMessage {
			s.metrics.RecordWebSocketError("text_message")
			s.reply(c, protocol.NewError(protocol.ErrInvalidFrame, "expected a binary message"))
			continue
		}
		s.handleFrame(c, data)
	}

	err = s.sched.Do(func() {
		s.dropClient(c)
	})
	if err != nil {
		c.close()
	}
	s.logger.Debug("client disconnected", "remote", c.remote)
}

func (s *Server) handleFrame(c *client, data []byte) {
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		s.metrics.RecordWebSocketError("invalid_frame")
		s.reply(c, protocol.NewError(protocol.ErrInvalidFrame, err.Error()))
		return
	}
	if f.Type != protocol.FrameEvent {
		s.metrics.RecordWebSocketError("invalid_frame")
		s.reply(c, protocol.NewError(protocol.ErrInvalidFrame, "unexpected "+f.Type.String()+" frame"))
		return
	}
	ev, err := protocol.DecodeEvent(f.Payload)
	if err != nil {
		s.metrics.RecordWebSocketError("invalid_event")
		s.reply(c, protocol.NewError(protocol.ErrInvalidEvent, err.Error()))
		return
	}
	s.sched.Dispatch(func() {
		_, err := ev.Dispatch(s.doc)
		s.metrics.RecordEvent(ev.EventName(), err)
		if err != nil {
			s.sendError(c, protocol.NewError(protocol.ErrNodeNotFound, err.Error()))
		}
	})
}

// reply queues an error frame for c from any goroutine.
func (s *Server) reply(c *client, em *protocol.ErrorMessage) {
	s.sched.Dispatch(func() {
		s.sendError(c, em)
	})
}

// sendError runs on the loop.
func (s *Server) sendError(c *client, em *protocol.ErrorMessage) {
	if s.clients[c] {
		c.send(em.Frame())
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var body string
	if err := s.sched.Do(func() {
		body = dom.InnerHTML(s.doc.Body())
	}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	expr := r.URL.Query().Get("xpath")
	if expr == "" {
		http.Error(w, "missing xpath parameter", http.StatusBadRequest)
		return
	}
	var (
		results []QueryResult
		qerr    error
	)
	err := s.sched.Do(func() {
		nodes, err := dom.QueryAll(s.doc.Body(), expr)
		if err != nil {
			qerr = err
			return
		}
		results = make([]QueryResult, 0, len(nodes))
		for _, n := range nodes {
			results = append(results, QueryResult{Path: s.doc.Path(n), HTML: dom.OuterHTML(n)})
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if qerr != nil {
		http.Error(w, "invalid xpath: "+qerr.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	names, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list snapshots", "err", err)
		http.Error(w, "snapshot store unavailable", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	name := chi.URLParam(r, "name")
	if err := snapshot.ValidateName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var snap *snapshot.Snapshot
	if err := s.sched.Do(func() {
		snap = snapshot.Take(s.doc, name)
	}); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err := s.store.Put(r.Context(), snap); err != nil {
		s.logger.Error("store snapshot", "name", name, "err", err)
		http.Error(w, "snapshot store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, snapshot.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("load snapshot", "err", err)
		http.Error(w, "snapshot store unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(snap.HTML))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
