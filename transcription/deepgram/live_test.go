package deepgram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/skillsenselab/voicekit/audio"
)

// liveServer upgrades the connection and answers every binary frame with a
// finalized transcript segment. A CloseStream text frame triggers a normal
// websocket close, mirroring the real endpoint's session teardown.
func liveServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != listenPath {
			t.Errorf("path = %s, want %s", r.URL.Path, listenPath)
		}
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("Authorization = %q, want Token dg-key", got)
		}
		if got := r.URL.Query().Get("encoding"); got != "linear16" {
			t.Errorf("encoding = %q, want linear16", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		n := 0
		for {
			mt, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch mt {
			case websocket.BinaryMessage:
				n++
				msg := fmt.Sprintf(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"segment %d"}]}}`, n)
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			case websocket.TextMessage:
				if strings.Contains(string(payload), "CloseStream") {
					bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
					conn.WriteMessage(websocket.CloseMessage, bye)
					return
				}
			}
		}
	}))
}

func TestListenStream_CollectsFinalSegments(t *testing.T) {
	srv := liveServer(t)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	s, err := p.ListenStream(context.Background(), audio.DefaultFormat(), "en")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Send([]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	if err := s.CloseSend(); err != nil {
		t.Fatal(err)
	}

	var got []string
	for {
		text, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		got = append(got, text)
	}
	want := []string{"segment 1", "segment 2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("segments = %v, want %v", got, want)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close after clean drain: %v", err)
	}
}

func TestListenStream_EmptyChunksSkipped(t *testing.T) {
	srv := liveServer(t)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	s, err := p.ListenStream(context.Background(), audio.DefaultFormat(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Send(nil); err != nil {
		t.Errorf("empty chunk should be a no-op, got %v", err)
	}
	if err := s.Send([]byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.CloseSend(); err != nil {
		t.Fatal(err)
	}

	text, err := s.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if text != "segment 1" {
		t.Errorf("text = %q, want segment 1", text)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("expected EOF after drain, got %v", err)
	}
}

func TestListenStream_SendAfterCloseSendFails(t *testing.T) {
	srv := liveServer(t)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	s, err := p.ListenStream(context.Background(), audio.DefaultFormat(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.CloseSend(); err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{1, 2}); err == nil {
		t.Error("expected error sending after CloseSend")
	}
}

func TestListenStream_ServerErrorSurfaces(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Error","message":"bad model"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	s, err := p.ListenStream(context.Background(), audio.DefaultFormat(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Send([]byte{1, 2}); err != nil {
		t.Fatal(err)
	}

	for {
		_, err := s.Recv()
		if err == nil {
			continue
		}
		if err == io.EOF {
			t.Fatal("expected the server error, got clean EOF")
		}
		if !strings.Contains(err.Error(), "bad model") {
			t.Errorf("error should carry the server message, got %v", err)
		}
		break
	}
}
