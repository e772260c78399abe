package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/gated/internal/demo"
	. "github.com/vango-dev/gated/pkg/vdom"
)

// handlePage renders the full page. When ?q= passes the filter the handler
// waits up to RenderTimeout for results, then renders whatever state the
// component is in.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	log := s.logger.With("request_id", middleware.GetReqID(r.Context()))

	search, err := s.newSearch(query, log)
	if err != nil {
		log.Error("creating search failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer search.Dispose()

	if search.Accepts(query) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RenderTimeout)
		err := search.Wait(ctx)
		cancel()
		switch {
		case stderrors.Is(err, context.DeadlineExceeded):
			log.Warn("render timeout, sending loading state", "query", query)
		case err != nil:
			log.Debug("rendering failed search", "query", query, "error", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderToWriter(w, s.page(search)); err != nil {
		log.Error("render failed", "error", err)
	}
}

func (s *Server) page(search *demo.ObjectSearch) *VNode {
	return Html(AttrKV("lang", "en"),
		Head(
			Meta(Charset("utf-8")),
			Title(s.config.Title),
			Script(Raw(liveScript)),
		),
		Body(
			Main(ID("app"),
				H1(s.config.Title),
				search.Render(),
			),
		),
	)
}

// liveScript upgrades the page: it sends the query on every keystroke and
// swaps in the summary and results of each fragment the server pushes.
const liveScript = `
document.addEventListener('DOMContentLoaded', function () {
  var input = document.getElementById('q');
  if (!input || !window.WebSocket) return;
  var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  var ws = new WebSocket(proto + '//' + location.host + '/live?q=' + encodeURIComponent(input.value));
  ws.onmessage = function (ev) {
    var doc = new DOMParser().parseFromString(ev.data, 'text/html');
    ['summary', 'results'].forEach(function (id) {
      var next = doc.getElementById(id), cur = document.getElementById(id);
      if (next && cur) cur.replaceWith(next);
    });
  };
  input.form.addEventListener('submit', function (ev) {
    if (ws.readyState === WebSocket.OPEN) ev.preventDefault();
  });
  input.addEventListener('input', function () {
    if (ws.readyState === WebSocket.OPEN) ws.send(input.value);
  });
});
`
