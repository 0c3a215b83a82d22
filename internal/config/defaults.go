package config

const (
	defaultDataDir            = "~/.local/share/xcam"
	defaultLogDir             = "~/.local/share/xcam/logs"
	defaultCaptureDir         = "~/.local/share/xcam/captures"
	defaultAPIBind            = "127.0.0.1:7584"
	defaultRTSPPort           = 554
	defaultStreamCodec        = "h264"
	defaultChannel            = 1
	defaultCGIPort            = 8000
	defaultCGITimeout         = 10
	defaultFrameWidth         = 1920
	defaultFrameHeight        = 1080
	defaultGrabTimeout        = 30
	defaultDiscoveryNetwork   = "192.168.1.0/24"
	defaultProbeTimeoutMillis = 500
	defaultDiscoveryWorkers   = 100
	defaultScanInterval       = 300
	defaultWorkers            = 2
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10
	defaultActionTimeout      = 120
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			CaptureDir: defaultCaptureDir,
			APIBind:    defaultAPIBind,
		},
		Camera: Camera{
			RTSPPort:       defaultRTSPPort,
			StreamCodec:    defaultStreamCodec,
			DefaultChannel: defaultChannel,
			CGIPort:        defaultCGIPort,
			CGITimeout:     defaultCGITimeout,
		},
		Capture: Capture{
			FrameWidth:  defaultFrameWidth,
			FrameHeight: defaultFrameHeight,
			GrabTimeout: defaultGrabTimeout,
		},
		Discovery: Discovery{
			Enabled:      true,
			Network:      defaultDiscoveryNetwork,
			ProbeTimeout: defaultProbeTimeoutMillis,
			MaxWorkers:   defaultDiscoveryWorkers,
			ScanInterval: defaultScanInterval,
		},
		Dispatcher: Dispatcher{
			Workers:            defaultWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			ActionTimeout:      defaultActionTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
