package config

const (
	defaultLibraryDir        = "~/.local/share/blugr/library"
	defaultLogDir            = "~/.local/share/blugr/logs"
	defaultAPIBind           = "127.0.0.1:7417"
	defaultDownloaderBinary  = "yt-dlp"
	defaultAudioFormat       = "bestaudio[ext=m4a]/bestaudio/best"
	defaultVideoFormat       = "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultDownloadTimeout   = 1800
	defaultWhisperModel      = "large-v3-turbo"
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultGeminiTimeout     = 120
	defaultStorageRegion     = "us-east-1"
	defaultStoragePrefix     = "content"
	defaultDocDatabase       = "blugr"
	defaultDocCollection     = "content_items"
	defaultTaskRetentionMins = 60
	defaultFFmpegBinary      = "ffmpeg"
	defaultClipSeconds       = 8
	defaultGIFWidth          = 640
	defaultNotifyTimeout     = 10
	defaultRetryAttempts     = 3
	defaultRetryDelay        = 5
	defaultClaimTTLMinutes   = 120
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Downloader: Downloader{
			Binary:         defaultDownloaderBinary,
			AudioFormat:    defaultAudioFormat,
			VideoFormat:    defaultVideoFormat,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Whisper: Whisper{
			Model: defaultWhisperModel,
		},
		Gemini: Gemini{
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Storage: Storage{
			Enabled: true,
			Region:  defaultStorageRegion,
			Prefix:  defaultStoragePrefix,
		},
		DocStore: DocStore{
			Database:   defaultDocDatabase,
			Collection: defaultDocCollection,
		},
		Tasks: Tasks{
			RetentionMinutes: defaultTaskRetentionMins,
		},
		Media: Media{
			FFmpegBinary: defaultFFmpegBinary,
			ClipSeconds:  defaultClipSeconds,
			GIFEnabled:   true,
			GIFWidth:     defaultGIFWidth,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Errors:         true,
		},
		Workflow: Workflow{
			RetryAttempts:     defaultRetryAttempts,
			RetryDelaySeconds: defaultRetryDelay,
			ClaimTTLMinutes:   defaultClaimTTLMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
