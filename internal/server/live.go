package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/gated/internal/demo"
	"github.com/vango-dev/gated/pkg/reactive"
	"github.com/vango-dev/gated/pkg/render"
)

// maxQueryMessage caps a client query frame.
const maxQueryMessage = 4096

// liveSession is one /live connection. The client sends query text; the
// server pushes the rendered component whenever it changes.
type liveSession struct {
	id           string
	conn         *websocket.Conn
	search       *demo.ObjectSearch
	writeTimeout time.Duration

	frames  chan string
	done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	log := s.logger.With("session_id", id)

	search, err := s.newSearch(r.URL.Query().Get("q"), log)
	if err != nil {
		log.Error("creating search failed", "error", err)
		conn.Close()
		return
	}

	ls := &liveSession{
		id:           id,
		conn:         conn,
		search:       search,
		writeTimeout: s.config.WriteTimeout,
		frames:       make(chan string, 1),
		done:         make(chan struct{}),
	}
	s.track(ls)
	log.Info("live session opened")

	renderer := render.NewRenderer(render.RendererConfig{})
	effect := reactive.CreateEffect(func() reactive.Cleanup {
		html, err := renderer.RenderToString(search.Render())
		if err != nil {
			log.Error("render failed", "error", err)
			return nil
		}
		ls.offer(html)
		return nil
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ls.writeLoop()
	}()

	ls.readLoop(log)

	ls.close(websocket.CloseNormalClosure, "")
	<-writerDone
	effect.Dispose()
	search.Dispose()
	s.untrack(ls)
	log.Info("live session closed")
}

func (s *Server) track(ls *liveSession) {
	s.mu.Lock()
	s.live[ls.id] = ls
	s.mu.Unlock()
	if s.liveGauge != nil {
		s.liveGauge.Inc()
	}
}

func (s *Server) untrack(ls *liveSession) {
	s.mu.Lock()
	delete(s.live, ls.id)
	s.mu.Unlock()
	if s.liveGauge != nil {
		s.liveGauge.Dec()
	}
}

func (ls *liveSession) readLoop(log *slog.Logger) {
	ls.conn.SetReadLimit(maxQueryMessage)
	for {
		_, data, err := ls.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				log.Debug("live connection lost", "error", err)
			}
			return
		}
		ls.search.SetQuery(string(data))
		ls.search.RunPending()
	}
}

// offer queues html for sending, replacing a frame that was not sent yet.
func (ls *liveSession) offer(html string) {
	select {
	case ls.frames <- html:
		return
	default:
	}
	select {
	case <-ls.frames:
	default:
	}
	select {
	case ls.frames <- html:
	default:
	}
}

func (ls *liveSession) writeLoop() {
	var last string
	for {
		select {
		case <-ls.done:
			return
		case html := <-ls.frames:
			if html == last {
				continue
			}
			ls.writeMu.Lock()
			ls.conn.SetWriteDeadline(time.Now().Add(ls.writeTimeout))
			err := ls.conn.WriteMessage(websocket.TextMessage, []byte(html))
			ls.writeMu.Unlock()
			if err != nil {
				ls.close(websocket.CloseAbnormalClosure, "")
				return
			}
			last = html
		}
	}
}

// close sends a close frame and closes the connection. Safe to call more
// than once.
func (ls *liveSession) close(code int, reason string) {
	ls.once.Do(func() {
		close(ls.done)
		ls.writeMu.Lock()
		defer ls.writeMu.Unlock()
		if code != websocket.CloseAbnormalClosure {
			ls.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason),
				time.Now().Add(time.Second))
		}
		ls.conn.Close()
	})
}
