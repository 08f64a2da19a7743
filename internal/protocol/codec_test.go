package protocol

import (
	"bytes"
	"io"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"Identify", &Identify{ClientID: "c1", SessionName: "work", Term: "xterm-256color", Cols: 120, Rows: 40, Xpixel: 1920, Ypixel: 1080, Version: "abc123", Capabilities: []string{"clipboard", "kitty-keyboard"}}},
		{"IdentifyNoCaps", &Identify{ClientID: "c2", Capabilities: []string{}}},
		{"Environ", &Environ{Vars: []string{"TERM=xterm-256color", "HOME=/home/user"}}},
		{"EnvironEmpty", &Environ{Vars: []string{}}},
		{"Command", &Command{ID: 7, Argv: []string{"split-window", "-h"}}},
		{"Stdin", &Stdin{PaneID: 3, Data: []byte("ls\n")}},
		{"StdinEmpty", &Stdin{Data: []byte{}}},
		{"Resize", &Resize{Cols: 200, Rows: 50, Xpixel: 3200, Ypixel: 1600}},
		{"Suspend", &Suspend{Resume: false}},
		{"SuspendResume", &Suspend{Resume: true}},
		{"Keys", &Keys{Code: 0xE00A, Mods: 0x03}},
		{"Lock", &Lock{Password: "hunter2"}},
		{"Unlock", &Unlock{Password: "hunter2"}},
		{"Ready", &Ready{ID: 7, Ok: true, SessionName: "work", Cols: 120, Rows: 40, ScreenDump: []byte("screen content"), CursorRow: 10, CursorCol: 42, IsAlternateScreen: true}},
		{"ReadyError", &Ready{ID: 7, Ok: false, Error: "no such pane", ScreenDump: []byte{}}},
		{"Output", &Output{Data: []byte("\x1b[31mred\x1b[0m")}},
		{"Exit/0", &Exit{PaneID: 1, ExitCode: 0}},
		{"Exit/127", &Exit{PaneID: 2, ExitCode: 127}},
		{"Exit/-1", &Exit{PaneID: 3, ExitCode: -1}},
		{"Wakeup", &Wakeup{WindowID: 4, Reason: "bell"}},
		{"Shutdown", &Shutdown{Reason: "server restarting"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewConn(&buf)
			err := c.WriteMessage(tt.msg)
			assert.NilError(t, err)
			got, err := c.ReadMessage()
			assert.NilError(t, err)
			assert.Equal(t, got.Type(), tt.msg.Type())
			assert.DeepEqual(t, got, tt.msg)
		})
	}
}

func TestHandshake(t *testing.T) {
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()

	clientConn := NewConn(struct {
		io.Reader
		io.Writer
	}{cr, cw})
	serverConn := NewConn(struct {
		io.Reader
		io.Writer
	}{sr, sw})

	var serverVer uint8
	var serverRev string
	var serverErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		serverVer, serverRev, serverErr = serverConn.AcceptHandshake()
		if serverErr == nil {
			serverErr = serverConn.AcceptVersion(serverVer, serverRev)
		}
	}()

	accepted, rev, err := clientConn.Handshake(ProtocolVersion, "abc123")
	assert.NilError(t, err)
	assert.Equal(t, accepted, ProtocolVersion)
	assert.Equal(t, rev, "abc123")

	<-done
	assert.NilError(t, serverErr)
	assert.Equal(t, serverVer, ProtocolVersion)
	assert.Equal(t, serverRev, "abc123")
}

func TestHandshakeVersionMismatch(t *testing.T) {
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()

	clientConn := NewConn(struct {
		io.Reader
		io.Writer
	}{cr, cw})
	serverConn := NewConn(struct {
		io.Reader
		io.Writer
	}{sr, sw})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = serverConn.AcceptHandshake()
		serverConn.AcceptVersion(0, "")
	}()

	accepted, _, err := clientConn.Handshake(ProtocolVersion, "abc123")
	assert.NilError(t, err)
	assert.Equal(t, accepted, uint8(0))

	<-done
}

func TestUnknownMessageTypeIsFatal(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	err := enc.WriteU32(1)
	assert.NilError(t, err)
	err = enc.WriteU8(0xFF)
	assert.NilError(t, err)

	c := NewConn(&buf)
	_, err = c.ReadMessage()
	assert.ErrorContains(t, err, "unknown message type")
}

func TestTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	err := enc.WriteU32(100)
	assert.NilError(t, err)
	buf.Write([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	c := NewConn(&buf)
	_, err = c.ReadMessage()
	assert.ErrorContains(t, err, "unexpected EOF")
}

func TestEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	err := enc.WriteU32(0)
	assert.NilError(t, err)

	c := NewConn(&buf)
	_, err = c.ReadMessage()
	assert.ErrorContains(t, err, "empty message frame")
}

func TestReadMessageEOF(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewConn(buf)
	_, err := c.ReadMessage()
	assert.Error(t, err, "EOF")
}

func TestFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	err := enc.WriteU32(maxFrameSize + 1)
	assert.NilError(t, err)

	c := NewConn(&buf)
	_, err = c.ReadMessage()
	assert.ErrorContains(t, err, "too large")
}

func TestLargePayload(t *testing.T) {
	data := make([]byte, 1<<16)
	for i := range data {
		data[i] = byte(i % 256)
	}
	orig := &Output{Data: data}

	var buf bytes.Buffer
	c := NewConn(&buf)
	err := c.WriteMessage(orig)
	assert.NilError(t, err)
	got, err := c.ReadMessage()
	assert.NilError(t, err)
	assert.Equal(t, got.Type(), orig.Type())
	assert.DeepEqual(t, got, Message(orig))
}

func TestMultipleMessagesPreserveOrder(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf)

	msgs := []Message{
		&Identify{ClientID: "c1", SessionName: "s1"},
		&Stdin{Data: []byte("ls\n")},
		&Output{Data: []byte("file1\nfile2\n")},
		&Resize{Cols: 100, Rows: 50, Xpixel: 1600, Ypixel: 800},
		&Exit{PaneID: 1, ExitCode: 0},
	}

	for _, msg := range msgs {
		err := c.WriteMessage(msg)
		assert.NilError(t, err)
	}

	for i, orig := range msgs {
		got, err := c.ReadMessage()
		assert.NilError(t, err)
		assert.Equal(t, got.Type(), orig.Type(), "message %d", i)
	}
}
