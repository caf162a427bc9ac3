package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// WebSocketConfig configures the security-relevant bits of accepting a
// connection: which origins may open one.
type WebSocketConfig struct {
	AllowedOrigins  []string
	InsecureDevMode bool
}

// DefaultWebSocketConfig allows same-origin connections and requests that
// carry no Origin header.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{}
}

// WebSocketSender adapts a coder/websocket.Conn to Sender, writing each
// change map as one text frame. It serializes concurrent Send calls with
// a mutex — coder/websocket.Conn.Write is not itself safe for concurrent
// writers.
type WebSocketSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Accept upgrades an HTTP connection to a WebSocket, validating the
// request's Origin header against cfg, and wraps it as a Sender.
func Accept(w http.ResponseWriter, r *http.Request, cfg WebSocketConfig) (*WebSocketSender, error) {
	origin := r.Header.Get("Origin")
	if !originAllowed(origin, r.Host, cfg) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return nil, fmt.Errorf("%w: origin %q not allowed", ErrNotConnected, origin)
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: cfg.InsecureDevMode,
	})
	if err != nil {
		return nil, fmt.Errorf("accept websocket: %w", err)
	}

	return &WebSocketSender{conn: conn}, nil
}

// Send writes one change-map frame as a WebSocket text message.
func (s *WebSocketSender) Send(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return nil
}

// SendBinary writes one frame using the binary sub-protocol — paired
// with changemap.EncodeMsgpack on the caller side.
func (s *WebSocketSender) SendBinary(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return nil
}

// Close closes the underlying connection with a normal closure code.
func (s *WebSocketSender) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

// Read blocks for the next client message (e.g. an event payload the
// surrounding layer's event-dispatch handling decodes); it is exposed
// here only because coder/websocket.Conn needs a reader loop running to
// observe client-initiated closes, not because this package interprets
// message contents.
func (s *WebSocketSender) Read(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return data, nil
}

func originAllowed(origin, requestHost string, cfg WebSocketConfig) bool {
	if cfg.InsecureDevMode {
		return true
	}
	if origin == "" {
		return true
	}
	for _, allowed := range cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+requestHost || origin == "https://"+requestHost
}
