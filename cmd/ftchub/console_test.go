package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dcrubro/ftc-driver-hub/internal/engine"
	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
	"github.com/dcrubro/ftc-driver-hub/internal/station"
)

type fakeConsoleStation struct {
	calls   []string
	gamepad protocol.GamepadPacket
}

func (f *fakeConsoleStation) note(s string) error {
	f.calls = append(f.calls, s)
	return nil
}

func (f *fakeConsoleStation) InitOpMode(name string) error  { return f.note("init " + name) }
func (f *fakeConsoleStation) StartOpMode(name string) error { return f.note("start " + name) }
func (f *fakeConsoleStation) StopOpMode() error             { return f.note("stop") }
func (f *fakeConsoleStation) RequestOpModes() error         { return f.note("opmodes") }
func (f *fakeConsoleStation) RestartRobot() error           { return f.note("restart") }
func (f *fakeConsoleStation) SendCommand(name, data string) error {
	return f.note("cmd " + name + "|" + data)
}

func (f *fakeConsoleStation) SetMatchNumber(n int) error {
	if n < 0 {
		return station.ErrBadMatchNumber
	}
	return f.note("match")
}

func (f *fakeConsoleStation) OpModes() []station.OpMode {
	return []station.OpMode{
		{Flavor: station.FlavorTeleOp, Group: "Main", Name: "Drive"},
		{Flavor: station.FlavorSystem, Name: protocol.StopOpMode},
	}
}

func (f *fakeConsoleStation) Gamepad(u engine.GamepadUpdate) (protocol.GamepadPacket, error) {
	f.note("gamepad")
	if u.IsZero() {
		return f.gamepad, errors.New("empty update")
	}
	return f.gamepad, nil
}

func (f *fakeConsoleStation) BeginHandshake() (bool, error)    { return true, f.note("handshake") }
func (f *fakeConsoleStation) CompleteHandshake() (bool, error) { return false, f.note("confirm") }

func (f *fakeConsoleStation) Status() station.Status {
	return station.Status{Connected: true, RobotState: "running", Battery: 12.5, LastError: "boom"}
}

func newTestConsole() (*console, *fakeConsoleStation, *bytes.Buffer) {
	st := &fakeConsoleStation{}
	out := &bytes.Buffer{}
	return &console{st: st, out: out}, st, out
}

func TestConsoleCommands(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"init Auto Blue Left", "init Auto Blue Left"},
		{"start", "start "},
		{"STOP", "stop"},
		{"restart", "restart"},
		{"match 12", "match"},
		{"cmd CMD_RESTART_ROBOT", "cmd CMD_RESTART_ROBOT|"},
		{"cmd CMD_X a b", "cmd CMD_X|a b"},
		{"stick 0.1 -0.2 0 1", "gamepad"},
		{"triggers 1 0", "gamepad"},
		{"buttons a+dpad_up", "gamepad"},
		{"neutral", "gamepad"},
		{"handshake", "handshake"},
		{"confirm", "confirm"},
	}
	for _, tt := range tests {
		c, st, _ := newTestConsole()
		quit, err := c.exec(tt.line)
		if err != nil || quit {
			t.Fatalf("%q: quit=%v err=%v", tt.line, quit, err)
		}
		if len(st.calls) != 1 || st.calls[0] != tt.want {
			t.Fatalf("%q: calls = %q, want %q", tt.line, st.calls, tt.want)
		}
	}
}

func TestConsoleUsageErrors(t *testing.T) {
	for _, line := range []string{"match", "match x", "cmd", "stick 1 2", "triggers a b", "buttons turbo", "dance"} {
		c, st, _ := newTestConsole()
		if _, err := c.exec(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
		if len(st.calls) != 0 {
			t.Fatalf("%q: unexpected calls %q", line, st.calls)
		}
	}
}

func TestConsoleQuitAndBlank(t *testing.T) {
	c, _, _ := newTestConsole()
	if quit, _ := c.exec("   "); quit {
		t.Fatal("blank line quit")
	}
	if quit, _ := c.exec("quit"); !quit {
		t.Fatal("quit did not quit")
	}
	if quit, _ := c.exec("exit"); !quit {
		t.Fatal("exit did not quit")
	}
}

func TestConsoleOutput(t *testing.T) {
	c, _, out := newTestConsole()
	c.exec("opmodes")
	if !strings.Contains(out.String(), "Main / Drive") || strings.Contains(out.String(), protocol.StopOpMode) {
		t.Fatalf("opmodes output:\n%s", out)
	}

	out.Reset()
	c.exec("status")
	if !strings.Contains(out.String(), "state=running") || !strings.Contains(out.String(), "boom") {
		t.Fatalf("status output:\n%s", out)
	}

	out.Reset()
	c.exec("confirm")
	if !strings.Contains(out.String(), "no handshake in progress") {
		t.Fatalf("confirm output:\n%s", out)
	}
}

func TestConsoleRun(t *testing.T) {
	c, st, _ := newTestConsole()
	in := strings.NewReader("stop\nbogus\nrestart\nquit\nstop\n")
	done := make(chan error, 1)
	go func() { done <- c.run(context.Background(), in) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("console did not quit")
	}
	if strings.Join(st.calls, ",") != "stop,restart" {
		t.Fatalf("calls = %q", st.calls)
	}
}

func TestConsoleRunEOF(t *testing.T) {
	c, st, _ := newTestConsole()
	if err := c.run(context.Background(), strings.NewReader("stop\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(st.calls) != 1 {
		t.Fatalf("calls = %q", st.calls)
	}
}
