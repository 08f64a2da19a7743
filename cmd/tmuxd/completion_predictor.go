package main

import (
	"os"
	"strings"

	"github.com/posener/complete"

	"tmuxd/client"
	"tmuxd/internal/config"
)

// sessionPredictor completes session names by asking a running daemon
// for list-sessions; it returns nothing rather than erroring out when
// no daemon is reachable, since shell completion must never block.
type sessionPredictor struct{}

func (p sessionPredictor) Predict(a complete.Args) []string {
	socket := socketFromCompletionArgs(a)
	c, err := client.Connect(socket)
	if err != nil {
		return nil
	}
	defer c.Close()

	reply, err := c.Command([]string{"list-sessions"})
	if err != nil {
		return nil
	}

	var out []string
	for _, line := range strings.Split(reply.Error, "\n") {
		name, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out = append(out, name)
	}
	return out
}

func socketFromCompletionArgs(a complete.Args) string {
	for i := 0; i < len(a.All); i++ {
		arg := a.All[i]
		if arg == "--socket" && i+1 < len(a.All) {
			return a.All[i+1]
		}
		if strings.HasPrefix(arg, "--socket=") {
			return strings.TrimPrefix(arg, "--socket=")
		}
	}
	if socket := os.Getenv("TMUXD_SOCKET"); socket != "" {
		return socket
	}
	return config.SocketPath()
}
