package engine

import (
	"math"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

// DeadZone is the stick magnitude below which an axis reads as zero.
const DeadZone = 0.05

type gamepadField uint16

const (
	fieldLeftStick gamepadField = 1 << iota
	fieldRightStick
	fieldTriggers
	fieldTouch
	fieldButtons
	fieldPress
	fieldRelease
	fieldNeutral
)

// GamepadUpdate is a partial change to the latest gamepad snapshot. Only
// the fields set through its methods are applied. The zero value changes
// nothing.
//
//	e.UpdateGamepad(engine.GamepadUpdate{}.LeftStick(0.2, -1).Press(protocol.ButtonA))
type GamepadUpdate struct {
	set      gamepadField
	left     [2]float32
	right    [2]float32
	triggers [2]float32
	touch    [4]float32
	buttons  protocol.ButtonFlags
	press    protocol.ButtonFlags
	release  protocol.ButtonFlags
}

// Sticks sets all four stick axes.
func (u GamepadUpdate) Sticks(lx, ly, rx, ry float32) GamepadUpdate {
	return u.LeftStick(lx, ly).RightStick(rx, ry)
}

func (u GamepadUpdate) LeftStick(x, y float32) GamepadUpdate {
	u.set |= fieldLeftStick
	u.left = [2]float32{x, y}
	return u
}

func (u GamepadUpdate) RightStick(x, y float32) GamepadUpdate {
	u.set |= fieldRightStick
	u.right = [2]float32{x, y}
	return u
}

func (u GamepadUpdate) Triggers(left, right float32) GamepadUpdate {
	u.set |= fieldTriggers
	u.triggers = [2]float32{left, right}
	return u
}

func (u GamepadUpdate) Touch(x1, y1, x2, y2 float32) GamepadUpdate {
	u.set |= fieldTouch
	u.touch = [4]float32{x1, y1, x2, y2}
	return u
}

// Buttons replaces the whole button mask.
func (u GamepadUpdate) Buttons(f protocol.ButtonFlags) GamepadUpdate {
	u.set |= fieldButtons
	u.buttons = f
	return u
}

// Press sets the given buttons, leaving the rest alone.
func (u GamepadUpdate) Press(f protocol.ButtonFlags) GamepadUpdate {
	u.set |= fieldPress
	u.press |= f
	return u
}

// Release clears the given buttons, leaving the rest alone.
func (u GamepadUpdate) Release(f protocol.ButtonFlags) GamepadUpdate {
	u.set |= fieldRelease
	u.release |= f
	return u
}

// Neutral zeroes every axis and button before the other changes apply.
func (u GamepadUpdate) Neutral() GamepadUpdate {
	u.set |= fieldNeutral
	return u
}

// IsZero reports whether u changes nothing.
func (u GamepadUpdate) IsZero() bool {
	return u.set == 0
}

func (u GamepadUpdate) apply(p *protocol.GamepadPacket) {
	if u.set&fieldNeutral != 0 {
		p.LeftStickX, p.LeftStickY, p.RightStickX, p.RightStickY = 0, 0, 0, 0
		p.LeftTrigger, p.RightTrigger = 0, 0
		p.Touch1X, p.Touch1Y, p.Touch2X, p.Touch2Y = 0, 0, 0, 0
		p.Buttons = 0
	}
	if u.set&fieldLeftStick != 0 {
		p.LeftStickX, p.LeftStickY = u.left[0], u.left[1]
	}
	if u.set&fieldRightStick != 0 {
		p.RightStickX, p.RightStickY = u.right[0], u.right[1]
	}
	if u.set&fieldTriggers != 0 {
		p.LeftTrigger, p.RightTrigger = u.triggers[0], u.triggers[1]
	}
	if u.set&fieldTouch != 0 {
		p.Touch1X, p.Touch1Y, p.Touch2X, p.Touch2Y = u.touch[0], u.touch[1], u.touch[2], u.touch[3]
	}
	if u.set&fieldButtons != 0 {
		p.Buttons = u.buttons
	}
	p.Buttons |= u.press
	p.Buttons &^= u.release
}

// applyDeadZone zeroes stick axes inside the dead zone. Triggers and touch
// coordinates pass through unchanged.
func applyDeadZone(p *protocol.GamepadPacket) {
	p.LeftStickX = deadZone(p.LeftStickX)
	p.LeftStickY = deadZone(p.LeftStickY)
	p.RightStickX = deadZone(p.RightStickX)
	p.RightStickY = deadZone(p.RightStickY)
}

func deadZone(v float32) float32 {
	if math.Abs(float64(v)) < DeadZone {
		return 0
	}
	return v
}
