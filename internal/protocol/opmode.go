package protocol

import "strconv"

// RobotOpModeState is the lifecycle state of the robot's op mode. Values
// outside the named set are kept as received.
type RobotOpModeState int8

const (
	OpModeUnknown          RobotOpModeState = -1
	OpModeNotStarted       RobotOpModeState = 0
	OpModeInitialized      RobotOpModeState = 1
	OpModeRunning          RobotOpModeState = 2
	OpModeStopped          RobotOpModeState = 3
	OpModeEmergencyStopped RobotOpModeState = 4
)

func (s RobotOpModeState) String() string {
	switch s {
	case OpModeUnknown:
		return "unknown"
	case OpModeNotStarted:
		return "notStarted"
	case OpModeInitialized:
		return "initialized"
	case OpModeRunning:
		return "running"
	case OpModeStopped:
		return "stopped"
	case OpModeEmergencyStopped:
		return "emergencyStopped"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Known reports whether s is one of the named states.
func (s RobotOpModeState) Known() bool {
	return s >= OpModeUnknown && s <= OpModeEmergencyStopped
}
