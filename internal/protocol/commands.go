package protocol

// Command names understood by the robot controller.
const (
	CmdRestartRobot                       = "CMD_RESTART_ROBOT"
	CmdSetMatchNumber                     = "CMD_SET_MATCH_NUMBER"
	CmdNotifyRobotState                   = "CMD_NOTIFY_ROBOT_STATE"
	CmdRequestOpModeList                  = "CMD_REQUEST_OP_MODE_LIST"
	CmdNotifyOpModeList                   = "CMD_NOTIFY_OP_MODE_LIST"
	CmdActivateConfiguration              = "CMD_ACTIVATE_CONFIGURATION"
	CmdSaveConfiguration                  = "CMD_SAVE_CONFIGURATION"
	CmdDeleteConfiguration                = "CMD_DELETE_CONFIGURATION"
	CmdRequestActiveConfig                = "CMD_REQUEST_ACTIVE_CONFIG"
	CmdNotifyActiveConfiguration          = "CMD_NOTIFY_ACTIVE_CONFIGURATION"
	CmdRequestConfigurations              = "CMD_REQUEST_CONFIGURATIONS"
	CmdRequestConfigurationsResp          = "CMD_REQUEST_CONFIGURATIONS_RESP"
	CmdRequestParticularConfiguration     = "CMD_REQUEST_PARTICULAR_CONFIGURATION"
	CmdRequestParticularConfigurationResp = "CMD_REQUEST_PARTICULAR_CONFIGURATION_RESP"
	CmdInitOpMode                         = "CMD_INIT_OP_MODE"
	CmdRunOpMode                          = "CMD_RUN_OP_MODE"
	CmdNotifyInitOpMode                   = "CMD_NOTIFY_INIT_OP_MODE"
	CmdNotifyRunOpMode                    = "CMD_NOTIFY_RUN_OP_MODE"
	CmdShowStacktrace                     = "CMD_SHOW_STACKTRACE"
)

// StopOpMode is the op-mode name that stops whatever is running.
const StopOpMode = "$Stop$Robot$"

// BatteryKey is the telemetry key carrying the robot battery voltage.
const BatteryKey = "$Robot$Battery$Level$"
