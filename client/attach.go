package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"tmuxd"
	"tmuxd/internal/keys"
	"tmuxd/internal/protocol"
)

func isConnClosed(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}

var alwaysForwardEnv = []string{"TERM", "SHELL"}

func collectEnv(extra []string) []string {
	var env []string
	for _, key := range alwaysForwardEnv {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	for _, key := range extra {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	return env
}

// RunAttach identifies as sessionName (creating it if needed), then
// drives the local terminal in raw mode until the daemon detaches or
// shuts the session down, or the user hits the detach keybinding dk.
func (c *Client) RunAttach(sessionName string, dk keys.Detach, forwardEnv []string) error {
	fd := int(os.Stdin.Fd())

	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return fmt.Errorf("client: get terminal size: %w", err)
	}

	if env := collectEnv(forwardEnv); len(env) > 0 {
		if err := c.WriteMessage(&protocol.Environ{Vars: env}); err != nil {
			return fmt.Errorf("client: send environ: %w", err)
		}
	}

	ready, err := c.Identify(&protocol.Identify{
		SessionName: sessionName,
		Term:        os.Getenv("TERM"),
		Cols:        ws.Col,
		Rows:        ws.Row,
		Xpixel:      ws.Xpixel,
		Ypixel:      ws.Ypixel,
		Version:     tmuxd.Version(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "tmuxd: attached to session %q\n", ready.SessionName)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("client: set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	os.Stdout.Write(ready.ScreenDump)

	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, unix.SIGWINCH)
	defer signal.Stop(sigwinch)

	var (
		exitCode int
		mu       sync.Mutex
		done     = make(chan struct{})
	)

	go func() {
		for {
			select {
			case <-sigwinch:
				ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
				if err != nil {
					continue
				}
				mu.Lock()
				werr := c.WriteMessage(&protocol.Resize{
					Cols: ws.Col, Rows: ws.Row, Xpixel: ws.Xpixel, Ypixel: ws.Ypixel,
				})
				mu.Unlock()
				if werr != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				data := buf[:n]
				if matched, length := dk.Matches(data); matched {
					if length < len(data) {
						mu.Lock()
						c.WriteMessage(&protocol.Stdin{Data: data[length:]})
						mu.Unlock()
					}
					mu.Lock()
					c.Close()
					mu.Unlock()
					return
				}
				mu.Lock()
				werr := c.WriteMessage(&protocol.Stdin{Data: data})
				mu.Unlock()
				if werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		msg, err := c.ReadMessage()
		if err != nil {
			close(done)
			term.Restore(fd, oldState)
			if err == io.EOF || isConnClosed(err) {
				fmt.Fprintf(os.Stderr, "tmuxd: detached\n")
				return nil
			}
			return fmt.Errorf("client: read message: %w", err)
		}
		switch m := msg.(type) {
		case *protocol.Output:
			os.Stdout.Write(m.Data)
		case *protocol.Exit:
			exitCode = int(m.ExitCode)
			close(done)
			term.Restore(fd, oldState)
			if exitCode != 0 {
				return &ExitError{Code: exitCode}
			}
			return nil
		case *protocol.Wakeup:
			fmt.Fprintf(os.Stderr, "\a")
		case *protocol.Shutdown:
			close(done)
			term.Restore(fd, oldState)
			fmt.Fprintf(os.Stderr, "tmuxd: %s\n", m.Reason)
			return nil
		}
	}
}
