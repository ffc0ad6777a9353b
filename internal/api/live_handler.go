package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/live"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

const (
	liveWriteWait   = 10 * time.Second
	liveOutboxSize  = 256
	liveMaxReadSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 << 10,
	WriteBufferSize: 16 << 10,
	// the API is meant to be reached from a separately hosted UI
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler bridges a browser websocket to a live audio session.
//
// Client to server: binary frames of little-endian float32 mono samples at
// the capture rate, and text frames {"type":"mute"|"unmute"}.
// Server to client: {"type":"status"}, {"type":"play"} carrying base64
// 16-bit PCM with its start time on the session clock, {"type":"stop"} on
// interruption, and {"type":"error"} when the connection fails.
type LiveHandler struct {
	model      provider.Model
	classifier *apierror.Classifier
	models     types.ModelConfig
	cfg        types.LiveConfig
}

type liveStatusMessage struct {
	Type   string `json:"type"`
	State  string `json:"state"`
	Status string `json:"status"`
}

type livePlayMessage struct {
	Type       string  `json:"type"`
	Start      float64 `json:"start"`
	SampleRate int     `json:"sampleRate"`
	Data       string  `json:"data"`
}

type liveControlMessage struct {
	Type string `json:"type"`
}

type liveErrorMessage struct {
	Type            string `json:"type"`
	Error           string `json:"error"`
	CredentialIssue bool   `json:"credential_issue"`
}

// outbox serialises writes to the websocket through one goroutine
type outbox struct {
	ch   chan any
	done chan struct{}
}

func (o *outbox) send(v any) {
	select {
	case o.ch <- v:
	case <-o.done:
	}
}

// wsPlayer forwards scheduled fragments to the browser, which owns the speakers
type wsPlayer struct {
	out *outbox
}

func (p *wsPlayer) Play(samples []float32, sampleRate int, start float64) error {
	p.out.send(livePlayMessage{Type: "play", Start: start, SampleRate: sampleRate, Data: live.EncodeBase64PCM(samples)})
	return nil
}

func (p *wsPlayer) StopAll() {
	p.out.send(liveControlMessage{Type: "stop"})
}

// ServeHTTP handles GET /api/v1/studio/live. ?voice= overrides the configured voice.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	voice := r.URL.Query().Get("voice")
	if voice == "" {
		voice = h.cfg.Voice
	}
	if voice != "" && !provider.IsVoice(voice) {
		respondErr(w, r, badRequest("unknown voice: %s", voice))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "live").Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(liveMaxReadSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := &outbox{ch: make(chan any, liveOutboxSize), done: make(chan struct{})}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, out)
	}()

	session := live.NewSession(h.model, h.classifier, &wsPlayer{out: out}, live.NewWallClock(), live.Options{
		Model:            h.models.Live,
		Voice:            voice,
		InputSampleRate:  h.cfg.InputSampleRate,
		OutputSampleRate: h.cfg.OutputSampleRate,
		QueueSize:        h.cfg.SendQueueSize,
		OnStatus: func(state live.State, status string) {
			out.send(liveStatusMessage{Type: "status", State: string(state), Status: status})
		},
	})

	if err := session.Connect(ctx); err != nil {
		out.send(liveErrorMessage{Type: "error", Error: apierror.UserMessage(err), CredentialIssue: apierror.IsCredentialIssue(err)})
	} else {
		h.readLoop(conn, session)
	}

	session.Close()
	close(out.ch)
	<-writerDone
}

func (h *LiveHandler) readLoop(conn *websocket.Conn, session *live.Session) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Str("component", "live").Err(err).Msg("Websocket read ended")
			}
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			samples, err := live.DecodeFloat32LE(data)
			if err != nil {
				log.Warn().Str("component", "live").Err(err).Msg("Dropping malformed capture frame")
				continue
			}
			if err := session.PushCapture(samples); errors.Is(err, live.ErrQueueFull) {
				log.Debug().Str("component", "live").Int64("dropped", session.Dropped()).Msg("Capture frame dropped")
			}
		case websocket.TextMessage:
			var msg liveControlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "mute":
				session.SetMuted(true)
			case "unmute":
				session.SetMuted(false)
			case "close":
				return
			}
		}
	}
}

// writeLoop drains the outbox until it is closed
func (h *LiveHandler) writeLoop(conn *websocket.Conn, out *outbox) {
	defer close(out.done)
	for v := range out.ch {
		conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			log.Debug().Str("component", "live").Err(err).Msg("Websocket write failed")
			// keep draining so senders never block
			for range out.ch {
			}
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
