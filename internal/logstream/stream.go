package logstream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thruflo/ttsdash/internal/logging"
)

const closeTimeout = time.Second

// Options configures a Stream.
type Options struct {
	// Header is sent with the upgrade request.
	Header http.Header

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// OnError is called at most once, when the connection fails after it
	// was established. It is not called for a normal server close or for
	// Stop.
	OnError func(error)

	Logger *logging.Logger
}

// Stream is one open log socket feeding a Buffer.
type Stream struct {
	conn    *websocket.Conn
	buf     *Buffer
	onError func(error)
	logger  *logging.Logger

	stopped  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// Start clears buf, dials url and appends every text message to buf until
// the server closes, the connection fails, ctx is cancelled or Stop is
// called.
func Start(ctx context.Context, url string, buf *Buffer, opts Options) (*Stream, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("url", url)

	buf.Reset()

	conn, _, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	logger.Info("log stream connected")

	s := &Stream{
		conn:    conn,
		buf:     buf,
		onError: opts.OnError,
		logger:  logger,
		done:    make(chan struct{}),
	}

	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	return s, nil
}

func (s *Stream) readLoop() {
	var failure error
	defer func() {
		close(s.done)
		if failure != nil && s.onError != nil {
			s.onError(failure)
		}
	}()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			switch {
			case s.stopped.Load():
				s.logger.Debug("log stream stopped")
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				s.logger.Info("log stream closed by server")
			default:
				s.logger.Warn("log stream failed", "error", err)
				failure = err
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			s.conn.Close()
			return
		}
		if msgType != websocket.TextMessage || s.stopped.Load() {
			continue
		}
		s.buf.Append(string(data))
	}
}

// Stop closes the connection and waits for the reader to exit, so no entry
// is appended after Stop returns. It is idempotent and must not be called
// from a Buffer subscriber.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		s.conn.Close()
	})
	<-s.done
}

// Done is closed when the stream has ended for any reason.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the connection failure that ended the stream, or nil for a
// normal close or Stop.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the stream ends or ctx is done.
func (s *Stream) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
