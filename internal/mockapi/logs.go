package mockapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// handleTrainLogs streams "Training step N" lines, then closes normally.
// The loop ends early if the client goes away.
func (b *Backend) handleTrainLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("train-logs upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Reading is required to observe the client's close frame.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < b.trainSteps; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Training step %d", i))); err != nil {
			return
		}
		if b.trainInterval > 0 {
			select {
			case <-gone:
				return
			case <-time.After(b.trainInterval):
			}
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "training finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	select {
	case <-gone:
	case <-time.After(time.Second):
	}
}
