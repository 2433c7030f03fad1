package protocol

import (
	"fmt"
	"strings"
)

// ButtonFlags is the gamepad button bitmask.
type ButtonFlags uint32

const (
	ButtonRightBumper ButtonFlags = 1 << iota
	ButtonLeftBumper
	ButtonBack
	ButtonStart
	ButtonGuide
	ButtonY
	ButtonX
	ButtonB
	ButtonA
	ButtonDpadRight
	ButtonDpadLeft
	ButtonDpadDown
	ButtonDpadUp
	ButtonRightStick
	ButtonLeftStick
	ButtonTouchpad
	ButtonTouchpadFinger2
	ButtonTouchpadFinger1
)

// buttonNames is ordered by bit position.
var buttonNames = []struct {
	flag ButtonFlags
	name string
}{
	{ButtonRightBumper, "right_bumper"},
	{ButtonLeftBumper, "left_bumper"},
	{ButtonBack, "back"},
	{ButtonStart, "start"},
	{ButtonGuide, "guide"},
	{ButtonY, "y"},
	{ButtonX, "x"},
	{ButtonB, "b"},
	{ButtonA, "a"},
	{ButtonDpadRight, "dpad_right"},
	{ButtonDpadLeft, "dpad_left"},
	{ButtonDpadDown, "dpad_down"},
	{ButtonDpadUp, "dpad_up"},
	{ButtonRightStick, "right_stick"},
	{ButtonLeftStick, "left_stick"},
	{ButtonTouchpad, "touchpad"},
	{ButtonTouchpadFinger2, "touchpad_finger2"},
	{ButtonTouchpadFinger1, "touchpad_finger1"},
}

// Has reports whether every bit of b is set in f.
func (f ButtonFlags) Has(b ButtonFlags) bool {
	return f&b == b
}

// String lists the pressed buttons joined by "+", or "none".
func (f ButtonFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, bn := range buttonNames {
		if f.Has(bn.flag) {
			names = append(names, bn.name)
		}
	}
	if rest := f &^ allButtons; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "+")
}

const allButtons = ButtonTouchpadFinger1<<1 - 1

// ParseButtons parses a comma or plus separated list of button names.
func ParseButtons(s string) (ButtonFlags, error) {
	var f ButtonFlags
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' || r == ' ' })
	for _, field := range fields {
		field = strings.ToLower(field)
		if field == "none" {
			continue
		}
		found := false
		for _, bn := range buttonNames {
			if bn.name == field {
				f |= bn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown button %q", field)
		}
	}
	return f, nil
}
