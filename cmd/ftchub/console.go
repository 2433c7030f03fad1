package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dcrubro/ftc-driver-hub/internal/engine"
	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
	"github.com/dcrubro/ftc-driver-hub/internal/station"
)

// consoleStation is what the interactive console drives.
type consoleStation interface {
	InitOpMode(name string) error
	StartOpMode(name string) error
	StopOpMode() error
	RequestOpModes() error
	OpModes() []station.OpMode
	RestartRobot() error
	SetMatchNumber(n int) error
	SendCommand(name, data string) error
	Gamepad(u engine.GamepadUpdate) (protocol.GamepadPacket, error)
	BeginHandshake() (bool, error)
	CompleteHandshake() (bool, error)
	Status() station.Status
}

const consoleHelp = `commands:
  init <op mode>          initialize an op mode
  start [op mode]         run the op mode (default: last initialized)
  stop                    stop the running op mode
  opmodes                 request and list op modes
  restart                 restart the robot
  match <n>               set the match number
  cmd <name> [data]       send a raw command
  stick <lx> <ly> <rx> <ry>
  triggers <left> <right>
  buttons <a+b|none>      set held buttons
  neutral                 release everything
  handshake               start the handshake burst
  confirm                 finish the handshake
  status                  show robot status
  quit
`

var errUsage = errors.New("usage")

type console struct {
	st  consoleStation
	out io.Writer
}

// run executes lines from in until quit, EOF, or ctx is done.
func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprint(c.out, "> ")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			quit, err := c.exec(line)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			fmt.Fprint(c.out, "> ")
		}
	}
}

// exec runs one console line. It reports whether the console should exit.
func (c *console) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.Join(args, " ")

	switch verb {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprint(c.out, consoleHelp)
		return false, nil
	case "init":
		return false, c.st.InitOpMode(rest)
	case "start":
		return false, c.st.StartOpMode(rest)
	case "stop":
		return false, c.st.StopOpMode()
	case "opmodes":
		if err := c.st.RequestOpModes(); err != nil {
			return false, err
		}
		c.printOpModes()
		return false, nil
	case "restart":
		return false, c.st.RestartRobot()
	case "match":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: match <n>", errUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("match number: %w", err)
		}
		return false, c.st.SetMatchNumber(n)
	case "cmd":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: cmd <name> [data]", errUsage)
		}
		return false, c.st.SendCommand(args[0], strings.Join(args[1:], " "))
	case "stick":
		v, err := parseFloats(args, 4)
		if err != nil {
			return false, fmt.Errorf("%w: stick <lx> <ly> <rx> <ry>: %v", errUsage, err)
		}
		return false, c.gamepad(engine.GamepadUpdate{}.Sticks(v[0], v[1], v[2], v[3]))
	case "triggers":
		v, err := parseFloats(args, 2)
		if err != nil {
			return false, fmt.Errorf("%w: triggers <left> <right>: %v", errUsage, err)
		}
		return false, c.gamepad(engine.GamepadUpdate{}.Triggers(v[0], v[1]))
	case "buttons":
		flags, err := protocol.ParseButtons(rest)
		if err != nil {
			return false, err
		}
		return false, c.gamepad(engine.GamepadUpdate{}.Buttons(flags))
	case "neutral":
		return false, c.gamepad(engine.GamepadUpdate{}.Neutral())
	case "handshake":
		changed, err := c.st.BeginHandshake()
		if err == nil && !changed {
			fmt.Fprintln(c.out, "handshake already started")
		}
		return false, err
	case "confirm":
		changed, err := c.st.CompleteHandshake()
		if err == nil && !changed {
			fmt.Fprintln(c.out, "no handshake in progress")
		}
		return false, err
	case "status":
		c.printStatus()
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", verb)
	}
}

func (c *console) gamepad(u engine.GamepadUpdate) error {
	p, err := c.st.Gamepad(u)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "sticks %.2f,%.2f %.2f,%.2f triggers %.2f,%.2f buttons %s\n",
		p.LeftStickX, p.LeftStickY, p.RightStickX, p.RightStickY,
		p.LeftTrigger, p.RightTrigger, p.Buttons)
	return nil
}

func (c *console) printOpModes() {
	modes := c.st.OpModes()
	if len(modes) == 0 {
		fmt.Fprintln(c.out, "no op modes known yet")
		return
	}
	for _, m := range modes {
		if m.Flavor == station.FlavorSystem {
			continue
		}
		fmt.Fprintf(c.out, "  %-10s %s / %s\n", strings.ToLower(m.Flavor), m.Group, m.Name)
	}
}

func (c *console) printStatus() {
	s := c.st.Status()
	fmt.Fprintf(c.out, "connected=%t robot_seen=%t ready=%t handshake=%s seq=%d\n",
		s.Connected, s.RobotSeen, s.Ready, s.Handshake, s.NextSeq)
	fmt.Fprintf(c.out, "state=%s op_mode=%q battery=%.2fV sdk=%s\n",
		s.RobotState, s.ActiveMode, s.Battery, s.RemoteSDK)
	if s.StatusText != "" {
		fmt.Fprintf(c.out, "status: %s\n", s.StatusText)
	}
	if s.LastError != "" {
		fmt.Fprintf(c.out, "last error:\n%s\n", s.LastError)
	}
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}
