package station

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

const statusKey = "Status"

func (c *Controller) handleCommand(p *protocol.CommandPacket) {
	c.emit(EventCommandIn, p.Name, p.Data)

	switch p.Name {
	case protocol.CmdNotifyOpModeList:
		modes, err := parseOpModes(p.Data)
		if err != nil {
			c.log.Warn("bad op mode list", zap.Error(err))
			return
		}
		c.mu.Lock()
		c.opModes = modes
		c.mu.Unlock()
		c.emit(EventOpModes, "", strconv.Itoa(len(modes)))

	case protocol.CmdNotifyRobotState:
		n, err := strconv.ParseInt(strings.TrimSpace(p.Data), 10, 8)
		if err != nil {
			c.log.Warn("bad robot state", zap.String("data", p.Data), zap.Error(err))
			return
		}
		c.setState(protocol.RobotOpModeState(n), "")

	case protocol.CmdNotifyInitOpMode:
		if p.Data == protocol.StopOpMode {
			c.setState(protocol.OpModeStopped, "")
			return
		}
		c.mu.Lock()
		c.selected = p.Data
		c.mu.Unlock()
		c.setState(protocol.OpModeInitialized, p.Data)

	case protocol.CmdNotifyRunOpMode:
		if p.Data == protocol.StopOpMode {
			c.setState(protocol.OpModeStopped, "")
			return
		}
		c.setState(protocol.OpModeRunning, p.Data)

	case protocol.CmdShowStacktrace:
		c.recordStackTrace(p.Data)
	}
}

// setState records the robot op-mode state and mirrors it into outgoing
// Time packets.
func (c *Controller) setState(s protocol.RobotOpModeState, active string) {
	c.mu.Lock()
	changed := c.robotState != s || c.active != active
	c.robotState = s
	c.active = active
	eng := c.eng
	c.mu.Unlock()

	if eng != nil {
		eng.SetOpModeState(s)
	}
	if changed {
		c.log.Info("robot state", zap.Stringer("state", s), zap.String("op_mode", active))
		c.emit(EventState, s.String(), active)
	}
}

func (c *Controller) recordStackTrace(trace string) {
	if !strings.Contains(trace, "Exception") {
		c.log.Debug("ignoring stack trace without exception")
		return
	}
	lines := strings.Split(trace, "\n")
	if len(lines) > c.traceLines {
		lines = lines[:c.traceLines]
	}
	summary := strings.Join(lines, "\n")
	c.mu.Lock()
	c.lastError = summary
	c.mu.Unlock()
	c.log.Warn("robot exception", zap.String("trace", summary))
	c.emit(EventStackTrace, "", summary)
}

func (c *Controller) handleHeartbeat(p *protocol.HeartbeatPacket) {
	version := p.SDKVersion()
	ok, err := c.sdk.check(version)
	if err != nil {
		c.log.Debug("unparsable robot sdk version", zap.String("version", version), zap.Error(err))
	}

	c.mu.Lock()
	first := !c.robotSeen
	sdkChanged := c.remoteSDK != version
	c.robotSeen = true
	c.lastHeartbeat = c.now()
	c.remoteSDK = version
	c.sdkOK = ok
	c.mu.Unlock()

	if first {
		c.log.Info("robot seen", zap.String("sdk", version))
		c.emit(EventRobotSeen, "", version)
	}
	if sdkChanged && !ok {
		c.log.Warn("robot sdk does not satisfy constraint",
			zap.String("sdk", version), zap.String("constraint", c.sdk.raw))
		c.emit(EventSDKMismatch, "", version)
	}
}

func (c *Controller) handleTelemetry(p *protocol.TelemetryPacket) {
	at := c.now()
	for _, e := range p.Strings {
		switch e.Key {
		case protocol.BatteryKey:
			c.setBattery(e.Value)
		case statusKey:
			c.mu.Lock()
			changed := c.statusText != e.Value
			c.statusText = e.Value
			c.mu.Unlock()
			if changed {
				c.emit(EventStatus, "", e.Value)
			}
		default:
			k, v := splitLine(e.Key, e.Value)
			c.telemetry.Put(k, v, at)
			c.emit(EventTelemetry, k, v)
		}
	}
	for _, e := range p.Floats {
		v := strconv.FormatFloat(float64(e.Value), 'f', -1, 32)
		c.telemetry.Put(e.Key, v, at)
		c.emit(EventTelemetry, e.Key, v)
	}
}

func (c *Controller) setBattery(raw string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		c.log.Debug("bad battery level", zap.String("value", raw), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.battery = v
	c.mu.Unlock()
	c.emit(EventBattery, "", raw)
}

func (c *Controller) handleTime(p *protocol.TimePacket) {
	c.mu.Lock()
	c.robotTZ = p.Timezone
	c.mu.Unlock()
}
