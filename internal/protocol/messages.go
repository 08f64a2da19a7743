package protocol

import "fmt"

// Message type tags. Client→server tags stay below 0x80; server→client
// tags start at 0x80, mirroring the frame's [length][type][payload] shape
// in codec.go.
const (
	TypeIdentify uint8 = 0x01
	TypeEnviron  uint8 = 0x02
	TypeCommand  uint8 = 0x03
	TypeStdin    uint8 = 0x04
	TypeResize   uint8 = 0x05
	TypeSuspend  uint8 = 0x06
	TypeKeys     uint8 = 0x07
	TypeLock     uint8 = 0x08
	TypeUnlock   uint8 = 0x09

	TypeReady    uint8 = 0x80
	TypeOutput   uint8 = 0x81
	TypeExit     uint8 = 0x82
	TypeWakeup   uint8 = 0x83
	TypeShutdown uint8 = 0x84
)

// Message is any value that can travel over a Conn. Type identifies the
// wire tag; encode/decode serialize the payload that follows it.
type Message interface {
	Type() uint8
	encode(*Encoder) error
	decode(*Decoder) error
}

func newMessage(t uint8) (Message, error) {
	switch t {
	case TypeIdentify:
		return &Identify{}, nil
	case TypeEnviron:
		return &Environ{}, nil
	case TypeCommand:
		return &Command{}, nil
	case TypeStdin:
		return &Stdin{}, nil
	case TypeResize:
		return &Resize{}, nil
	case TypeSuspend:
		return &Suspend{}, nil
	case TypeKeys:
		return &Keys{}, nil
	case TypeLock:
		return &Lock{}, nil
	case TypeUnlock:
		return &Unlock{}, nil
	case TypeReady:
		return &Ready{}, nil
	case TypeOutput:
		return &Output{}, nil
	case TypeExit:
		return &Exit{}, nil
	case TypeWakeup:
		return &Wakeup{}, nil
	case TypeShutdown:
		return &Shutdown{}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown message type: 0x%02x", t)
	}
}

// --- Client → Server ---

// Identify is sent once immediately after the version handshake,
// describing the attaching client and the session it wants.
type Identify struct {
	ClientID     string
	SessionName  string
	Term         string
	Cols         uint16
	Rows         uint16
	Xpixel       uint16
	Ypixel       uint16
	Version      string
	Capabilities []string
}

func (m *Identify) Type() uint8 { return TypeIdentify }

func (m *Identify) encode(e *Encoder) error {
	if err := e.WriteString(m.ClientID); err != nil {
		return err
	}
	if err := e.WriteString(m.SessionName); err != nil {
		return err
	}
	if err := e.WriteString(m.Term); err != nil {
		return err
	}
	if err := e.WriteU16(m.Cols); err != nil {
		return err
	}
	if err := e.WriteU16(m.Rows); err != nil {
		return err
	}
	if err := e.WriteU16(m.Xpixel); err != nil {
		return err
	}
	if err := e.WriteU16(m.Ypixel); err != nil {
		return err
	}
	if err := e.WriteString(m.Version); err != nil {
		return err
	}
	return e.WriteStrings(m.Capabilities)
}

func (m *Identify) decode(d *Decoder) error {
	var err error
	if m.ClientID, err = d.ReadString(); err != nil {
		return err
	}
	if m.SessionName, err = d.ReadString(); err != nil {
		return err
	}
	if m.Term, err = d.ReadString(); err != nil {
		return err
	}
	if m.Cols, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Rows, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Xpixel, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Ypixel, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Version, err = d.ReadString(); err != nil {
		return err
	}
	m.Capabilities, err = d.ReadStrings()
	return err
}

// Environ carries "KEY=VALUE" pairs applied to a newly spawned pane's
// environment, the wire analogue of update-environment.
type Environ struct {
	Vars []string
}

func (m *Environ) Type() uint8 { return TypeEnviron }

func (m *Environ) encode(e *Encoder) error { return e.WriteStrings(m.Vars) }

func (m *Environ) decode(d *Decoder) error {
	var err error
	m.Vars, err = d.ReadStrings()
	return err
}

// Command is a tmux-style command line (e.g. "split-window -h"), tagged
// with an ID so the matching Ready response can be correlated.
type Command struct {
	ID   uint32
	Argv []string
}

func (m *Command) Type() uint8 { return TypeCommand }

func (m *Command) encode(e *Encoder) error {
	if err := e.WriteU32(m.ID); err != nil {
		return err
	}
	return e.WriteStrings(m.Argv)
}

func (m *Command) decode(d *Decoder) error {
	var err error
	if m.ID, err = d.ReadU32(); err != nil {
		return err
	}
	m.Argv, err = d.ReadStrings()
	return err
}

// Stdin carries raw bytes typed at the client, routed to PaneID (the
// session's active pane if PaneID is zero).
type Stdin struct {
	PaneID uint32
	Data   []byte
}

func (m *Stdin) Type() uint8 { return TypeStdin }

func (m *Stdin) encode(e *Encoder) error {
	if err := e.WriteU32(m.PaneID); err != nil {
		return err
	}
	return e.WriteBytes(m.Data)
}

func (m *Stdin) decode(d *Decoder) error {
	var err error
	if m.PaneID, err = d.ReadU32(); err != nil {
		return err
	}
	m.Data, err = d.ReadBytes()
	return err
}

// Resize reports the client terminal's new dimensions.
type Resize struct {
	Cols   uint16
	Rows   uint16
	Xpixel uint16
	Ypixel uint16
}

func (m *Resize) Type() uint8 { return TypeResize }

func (m *Resize) encode(e *Encoder) error {
	if err := e.WriteU16(m.Cols); err != nil {
		return err
	}
	if err := e.WriteU16(m.Rows); err != nil {
		return err
	}
	if err := e.WriteU16(m.Xpixel); err != nil {
		return err
	}
	return e.WriteU16(m.Ypixel)
}

func (m *Resize) decode(d *Decoder) error {
	var err error
	if m.Cols, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Rows, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Xpixel, err = d.ReadU16(); err != nil {
		return err
	}
	m.Ypixel, err = d.ReadU16()
	return err
}

// Suspend tells the server the client is pausing output delivery (e.g.
// the local terminal caught SIGTSTP) or resuming it.
type Suspend struct {
	Resume bool
}

func (m *Suspend) Type() uint8 { return TypeSuspend }

func (m *Suspend) encode(e *Encoder) error { return e.WriteBool(m.Resume) }

func (m *Suspend) decode(d *Decoder) error {
	var err error
	m.Resume, err = d.ReadBool()
	return err
}

// Keys carries a decoded key event (see internal/keys) for binding
// lookup at the server, used instead of Stdin when the client wants the
// server's key table consulted rather than passing raw bytes through.
type Keys struct {
	Code uint32
	Mods uint8
}

func (m *Keys) Type() uint8 { return TypeKeys }

func (m *Keys) encode(e *Encoder) error {
	if err := e.WriteU32(m.Code); err != nil {
		return err
	}
	return e.WriteU8(m.Mods)
}

func (m *Keys) decode(d *Decoder) error {
	var err error
	if m.Code, err = d.ReadU32(); err != nil {
		return err
	}
	m.Mods, err = d.ReadU8()
	return err
}

// Lock requests the session be locked behind password.
type Lock struct {
	Password string
}

func (m *Lock) Type() uint8 { return TypeLock }

func (m *Lock) encode(e *Encoder) error { return e.WriteString(m.Password) }

func (m *Lock) decode(d *Decoder) error {
	var err error
	m.Password, err = d.ReadString()
	return err
}

// Unlock attempts to unlock a locked session.
type Unlock struct {
	Password string
}

func (m *Unlock) Type() uint8 { return TypeUnlock }

func (m *Unlock) encode(e *Encoder) error { return e.WriteString(m.Password) }

func (m *Unlock) decode(d *Decoder) error {
	var err error
	m.Password, err = d.ReadString()
	return err
}

// --- Server → Client ---

// Ready acknowledges either the initial Identify (SessionName/Cols/Rows/
// ScreenDump describe the attached session) or a Command (ID matches the
// originating Command.ID, ScreenDump/Ok/Error describe its outcome).
type Ready struct {
	ID                uint32
	Ok                bool
	Error             string
	SessionName       string
	Cols              uint16
	Rows              uint16
	ScreenDump        []byte
	CursorRow         uint32
	CursorCol         uint32
	IsAlternateScreen bool
}

func (m *Ready) Type() uint8 { return TypeReady }

func (m *Ready) encode(e *Encoder) error {
	if err := e.WriteU32(m.ID); err != nil {
		return err
	}
	if err := e.WriteBool(m.Ok); err != nil {
		return err
	}
	if err := e.WriteString(m.Error); err != nil {
		return err
	}
	if err := e.WriteString(m.SessionName); err != nil {
		return err
	}
	if err := e.WriteU16(m.Cols); err != nil {
		return err
	}
	if err := e.WriteU16(m.Rows); err != nil {
		return err
	}
	if err := e.WriteBytes(m.ScreenDump); err != nil {
		return err
	}
	if err := e.WriteU32(m.CursorRow); err != nil {
		return err
	}
	if err := e.WriteU32(m.CursorCol); err != nil {
		return err
	}
	return e.WriteBool(m.IsAlternateScreen)
}

func (m *Ready) decode(d *Decoder) error {
	var err error
	if m.ID, err = d.ReadU32(); err != nil {
		return err
	}
	if m.Ok, err = d.ReadBool(); err != nil {
		return err
	}
	if m.Error, err = d.ReadString(); err != nil {
		return err
	}
	if m.SessionName, err = d.ReadString(); err != nil {
		return err
	}
	if m.Cols, err = d.ReadU16(); err != nil {
		return err
	}
	if m.Rows, err = d.ReadU16(); err != nil {
		return err
	}
	if m.ScreenDump, err = d.ReadBytes(); err != nil {
		return err
	}
	if m.CursorRow, err = d.ReadU32(); err != nil {
		return err
	}
	if m.CursorCol, err = d.ReadU32(); err != nil {
		return err
	}
	m.IsAlternateScreen, err = d.ReadBool()
	return err
}

// Output is a chunk of rendered bytes (raw PTY output or a full-screen
// redraw) to apply to the client's local terminal.
type Output struct {
	Data []byte
}

func (m *Output) Type() uint8 { return TypeOutput }

func (m *Output) encode(e *Encoder) error { return e.WriteBytes(m.Data) }

func (m *Output) decode(d *Decoder) error {
	var err error
	m.Data, err = d.ReadBytes()
	return err
}

// Exit reports that a pane's child process has exited.
type Exit struct {
	PaneID   uint32
	ExitCode int32
}

func (m *Exit) Type() uint8 { return TypeExit }

func (m *Exit) encode(e *Encoder) error {
	if err := e.WriteU32(m.PaneID); err != nil {
		return err
	}
	return e.WriteI32(m.ExitCode)
}

func (m *Exit) decode(d *Decoder) error {
	var err error
	if m.PaneID, err = d.ReadU32(); err != nil {
		return err
	}
	m.ExitCode, err = d.ReadI32()
	return err
}

// Wakeup tells a suspended client to resume rendering, optionally
// because a specific window produced an alert while suspended.
type Wakeup struct {
	WindowID uint32
	Reason   string
}

func (m *Wakeup) Type() uint8 { return TypeWakeup }

func (m *Wakeup) encode(e *Encoder) error {
	if err := e.WriteU32(m.WindowID); err != nil {
		return err
	}
	return e.WriteString(m.Reason)
}

func (m *Wakeup) decode(d *Decoder) error {
	var err error
	if m.WindowID, err = d.ReadU32(); err != nil {
		return err
	}
	m.Reason, err = d.ReadString()
	return err
}

// Shutdown tells every attached client the server is going away.
type Shutdown struct {
	Reason string
}

func (m *Shutdown) Type() uint8 { return TypeShutdown }

func (m *Shutdown) encode(e *Encoder) error { return e.WriteString(m.Reason) }

func (m *Shutdown) decode(d *Decoder) error {
	var err error
	m.Reason, err = d.ReadString()
	return err
}
