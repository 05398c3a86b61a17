package config

const (
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultLogRetention = 14

	defaultAPIBind = "127.0.0.1:8420"

	defaultJobTTLSeconds       = 21600
	defaultReaperIntervalSecs  = 60
	defaultMaxBatchItems       = 10

	defaultDemucsMP3Bitrate = 256
	defaultDemucsJobs       = 2

	defaultASRStartupTimeoutSeconds = 30
	defaultASRRequestTimeoutSeconds = 900
	defaultASRIdleShutdownSeconds   = 300

	defaultTranscodeBinary = "ffmpeg"
	defaultSeparateBinary  = "demucs"
	defaultRecognizeBinary = "asr-worker"
	defaultPackBinary      = "zip"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TmpDir:     defaultTmpDir(),
			UploadsDir: "~/.local/share/transomd/uploads",
			JobsDir:    "~/.local/share/transomd/jobs-v2",
			BatchesDir: "~/.local/share/transomd/batches",
			LogDir:     "~/.local/share/transomd/logs",
			APIBind:    defaultAPIBind,
		},
		Engine: Engine{
			TranscodeBinary: defaultTranscodeBinary,
			SeparateBinary:  defaultSeparateBinary,
			RecognizeBinary: defaultRecognizeBinary,
			PackBinary:      defaultPackBinary,
			ASRWorkerBinary: defaultRecognizeBinary,
		},
		Jobs: Jobs{
			TTLSeconds:     defaultJobTTLSeconds,
			ReaperInterval: defaultReaperIntervalSecs,
			MaxBatchItems:  defaultMaxBatchItems,
		},
		Demucs: Demucs{
			MP3Bitrate: defaultDemucsMP3Bitrate,
			Jobs:       defaultDemucsJobs,
		},
		ASRWorker: ASRWorker{
			StartupTimeoutSeconds: defaultASRStartupTimeoutSeconds,
			RequestTimeoutSeconds: defaultASRRequestTimeoutSeconds,
			IdleShutdownSeconds:   defaultASRIdleShutdownSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
