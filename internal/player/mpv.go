package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MPVTransport drives an mpv subprocess over its JSON IPC socket. mpv is
// started idle; Load issues a loadfile and the "file-loaded" event maps to
// TransportReady.
type MPVTransport struct {
	socketPath string
	cmd        *exec.Cmd
	logger     *slog.Logger

	events    chan TransportEvent
	stop      chan struct{}
	stopOnce  sync.Once
	eventConn net.Conn

	mu       sync.Mutex
	position float64
	duration float64
}

type mpvCommand struct {
	Command []interface{} `json:"command"`
}

type mpvResponse struct {
	Error string      `json:"error"`
	Data  interface{} `json:"data"`
}

type mpvEvent struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// NewMPVTransport starts an idle mpv process and connects to its IPC socket.
func NewMPVTransport(logger *slog.Logger) (*MPVTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	socketPath := filepath.Join(os.TempDir(), "strollcast-mpv-"+uuid.NewString()+".sock")

	cmd := exec.Command("mpv",
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+socketPath,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	t := &MPVTransport{
		socketPath: socketPath,
		cmd:        cmd,
		logger:     logger,
		events:     make(chan TransportEvent, 16),
		stop:       make(chan struct{}),
	}

	if err := t.waitForSocket(5 * time.Second); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	if err := t.startEventListener(); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	return t, nil
}

func (t *MPVTransport) waitForSocket(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", t.socketPath); err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("mpv socket %s did not appear within %s", t.socketPath, timeout)
}

// sendCommand dials the socket, sends one command, and reads its response.
// A fresh connection has no events enabled, so the first line is always the
// command response.
func (t *MPVTransport) sendCommand(cmd mpvCommand) (*mpvResponse, error) {
	conn, err := net.Dial("unix", t.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("send command: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp mpvResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "success" {
		return &resp, fmt.Errorf("mpv error: %s", resp.Error)
	}
	return &resp, nil
}

func (t *MPVTransport) startEventListener() error {
	conn, err := net.Dial("unix", t.socketPath)
	if err != nil {
		return fmt.Errorf("connect for events: %w", err)
	}

	for _, name := range []string{"file-loaded", "end-file"} {
		enable := mpvCommand{Command: []interface{}{"enable_event", name}}
		data, _ := json.Marshal(enable)
		data = append(data, '\n')
		if _, err := conn.Write(data); err != nil {
			conn.Close()
			return fmt.Errorf("enable %s events: %w", name, err)
		}
	}

	t.eventConn = conn
	go t.handleEvents()
	return nil
}

func (t *MPVTransport) handleEvents() {
	defer t.eventConn.Close()

	reader := bufio.NewReader(t.eventConn)
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		t.eventConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			t.logger.Debug("mpv event reader stopped", "error", err)
			return
		}

		var event mpvEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		switch event.Event {
		case "file-loaded":
			t.refreshDuration()
			t.emit(TransportEvent{Kind: TransportReady})
		case "end-file":
			// loadfile-replace and quit also produce end-file; only a
			// natural eof or a playback error matter here.
			switch event.Reason {
			case "eof":
				t.mu.Lock()
				if t.duration > 0 {
					t.position = t.duration
				}
				t.mu.Unlock()
				t.emit(TransportEvent{Kind: TransportEnded})
			case "error":
				t.emit(TransportEvent{Kind: TransportFailed, Message: "playback failed"})
			}
		}
	}
}

func (t *MPVTransport) emit(ev TransportEvent) {
	select {
	case t.events <- ev:
	default:
	}
}

func (t *MPVTransport) refreshDuration() {
	resp, err := t.sendCommand(mpvCommand{Command: []interface{}{"get_property", "duration"}})
	if err != nil {
		return
	}
	if dur, ok := resp.Data.(float64); ok && dur > 0 {
		t.mu.Lock()
		t.duration = dur
		t.mu.Unlock()
	}
}

// Events returns the transport event channel.
func (t *MPVTransport) Events() <-chan TransportEvent {
	return t.events
}

// Load replaces the current media with uri.
func (t *MPVTransport) Load(uri string) error {
	t.mu.Lock()
	t.position = 0
	t.duration = 0
	t.mu.Unlock()

	if _, err := t.sendCommand(mpvCommand{Command: []interface{}{"loadfile", uri, "replace"}}); err != nil {
		return fmt.Errorf("load %s: %w", uri, err)
	}
	return nil
}

// Play unpauses playback.
func (t *MPVTransport) Play() error {
	_, err := t.sendCommand(mpvCommand{Command: []interface{}{"set_property", "pause", false}})
	return err
}

// Pause pauses playback.
func (t *MPVTransport) Pause() error {
	_, err := t.sendCommand(mpvCommand{Command: []interface{}{"set_property", "pause", true}})
	return err
}

// Seek jumps to an absolute position in seconds.
func (t *MPVTransport) Seek(seconds float64) error {
	if _, err := t.sendCommand(mpvCommand{Command: []interface{}{"seek", seconds, "absolute"}}); err != nil {
		return err
	}
	t.mu.Lock()
	t.position = seconds
	t.mu.Unlock()
	return nil
}

// Position returns the current playback position in seconds. When mpv cannot
// answer (e.g. between files) the last known position is returned.
func (t *MPVTransport) Position() float64 {
	resp, err := t.sendCommand(mpvCommand{Command: []interface{}{"get_property", "time-pos"}})
	if err != nil || resp == nil {
		return t.cachedPosition()
	}
	pos, ok := resp.Data.(float64)
	if !ok {
		return t.cachedPosition()
	}
	t.mu.Lock()
	t.position = pos
	t.mu.Unlock()
	return pos
}

func (t *MPVTransport) cachedPosition() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// Duration returns the media duration in seconds, or the last known value.
func (t *MPVTransport) Duration() float64 {
	resp, err := t.sendCommand(mpvCommand{Command: []interface{}{"get_property", "duration"}})
	if err == nil && resp != nil {
		if dur, ok := resp.Data.(float64); ok && dur > 0 {
			t.mu.Lock()
			t.duration = dur
			t.mu.Unlock()
			return dur
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// Close quits mpv, killing it if it does not exit promptly, and removes the
// IPC socket. Idempotent.
func (t *MPVTransport) Close() error {
	t.stopOnce.Do(func() {
		close(t.stop)

		_, _ = t.sendCommand(mpvCommand{Command: []interface{}{"quit"}})

		exited := make(chan struct{})
		go func() {
			_ = t.cmd.Wait()
			close(exited)
		}()
		select {
		case <-exited:
		case <-time.After(500 * time.Millisecond):
			_ = t.cmd.Process.Kill()
			<-exited
		}

		if strings.HasPrefix(filepath.Base(t.socketPath), "strollcast-mpv-") {
			_ = os.Remove(t.socketPath)
		}
	})
	return nil
}
