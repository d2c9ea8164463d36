package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/skillsenselab/voicekit/audio"
	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/provider"
)

// LiveSession is a streaming transcription session over the Deepgram
// websocket API. Send pushes PCM chunks, Recv yields finalized transcript
// segments in order.
type LiveSession struct {
	conn *websocket.Conn

	finals  chan string
	audio   chan []byte
	done    chan struct{}
	closing chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

var _ provider.DuplexStream[[]byte, string] = (*LiveSession)(nil)

// ListenStream opens a live transcription session. The session ends when
// the caller invokes Close, or CloseSend followed by draining Recv, or when
// ctx is canceled.
func (p *Provider) ListenStream(ctx context.Context, format audio.Format, language string) (*LiveSession, error) {
	secret, err := p.cfg.Credentials.Resolve(ctx, ProviderName)
	if err != nil {
		return nil, err
	}

	wsURL, err := p.streamURL(format, language)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+secret.Value())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect to deepgram stream: %w", err)
	}

	s := &LiveSession{
		conn:    conn,
		finals:  make(chan string, 16),
		audio:   make(chan []byte, 32),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.finals)
		close(s.done)
		_ = conn.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

func (p *Provider) streamURL(format audio.Format, language string) (string, error) {
	base := strings.TrimRight(p.cfg.Endpoint, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(base + listenPath)
	if err != nil {
		return "", fmt.Errorf("invalid deepgram endpoint: %w", err)
	}

	q := u.Query()
	q.Set("model", p.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(format.SampleRate))
	q.Set("channels", strconv.Itoa(format.Channels))
	q.Set("interim_results", "false")
	q.Set("smart_format", "true")
	if language != "" {
		q.Set("language", language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send queues a chunk of PCM audio for upload. The chunk is copied, so the
// caller may reuse its buffer.
func (s *LiveSession) Send(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("audio stream already closed")
	}

	buf := append([]byte(nil), chunk...)
	select {
	case s.audio <- buf:
		return nil
	case <-s.done:
		if err := s.sessionErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

// Recv returns the next finalized transcript segment. After CloseSend it
// keeps returning buffered segments until the server flushes, then io.EOF.
func (s *LiveSession) Recv() (string, error) {
	text, ok := <-s.finals
	if !ok {
		if err := s.sessionErr(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return text, nil
}

// CloseSend tells the server no more audio is coming. Results still in
// flight continue to arrive through Recv.
func (s *LiveSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

// Close tears the session down and waits for both pump loops to exit.
func (s *LiveSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.sessionErr()
}

func (s *LiveSession) sessionErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// setErr records the first failure. The filter takes the raw error from
// ReadMessage, unwrapped, because websocket.IsCloseError does not unwrap.
func (s *LiveSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *LiveSession) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("send audio: %w", err))
			return
		}
	}

	// The server flushes pending results and closes once it sees this.
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("finish stream: %w", err))
	}
}

func (s *LiveSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			// A read error after Close is the expected teardown, not a
			// session failure.
			select {
			case <-s.closing:
			default:
				s.setErr(err)
			}
			return
		}

		var msg liveMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		if strings.EqualFold(msg.Type, "Error") {
			reason := strings.TrimSpace(msg.Message)
			if reason == "" {
				reason = "stream rejected"
			}
			s.setErr(apperrors.ProviderRejected(ProviderName, reason))
			return
		}

		if !msg.IsFinal {
			continue
		}
		text := ""
		if len(msg.Channel.Alternatives) > 0 {
			text = strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
		}
		if text == "" {
			continue
		}

		select {
		case s.finals <- text:
		case <-s.closing:
			return
		}
	}
}

type liveMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	IsFinal bool   `json:"is_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}
