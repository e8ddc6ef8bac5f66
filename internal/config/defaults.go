package config

const (
	defaultConfigPath             = "~/.config/framescribe/config.toml"
	defaultLogDir                 = "~/.local/share/framescribe/logs"
	defaultHistoryDB              = "~/.local/share/framescribe/history.db"
	defaultDownloaderBackend      = BackendYTDLP
	defaultDownloaderBinary       = "yt-dlp"
	defaultDownloaderFormat       = "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b"
	defaultSubtitleLanguage       = "en"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultTempFrameDirName       = "temp_frames"
	defaultFrameImageQuality      = 95
	defaultPageSize               = "A4"
	defaultOrientation            = "L"
	defaultMarginMM               = 10
	defaultTargetPDFSizeMB        = 8
	defaultCompressedImageQuality = 75
	defaultQualityFloor           = 10
	defaultQualityStep            = 10
	defaultCollisionPolicy        = CollisionSuffix
	defaultMinFreeMB              = 512
	defaultNtfyRequestTimeout     = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Downloader backends.
const (
	BackendYTDLP  = "yt-dlp"
	BackendNative = "native"
)

// Output folder collision policies.
const (
	CollisionSuffix = "suffix"
	CollisionFail   = "fail"
)

// Answers for questions that may be pre-answered in config or flags.
const (
	AnswerAsk = "ask"
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Environment variables that override the matching config keys.
const (
	EnvTargetPDFSizeMB        = "TARGET_PDF_SIZE_MB"
	EnvCompressedImageQuality = "COMPRESSED_IMAGE_QUALITY"
	EnvTempFrameDirName       = "TEMP_FRAME_DIR_NAME"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Downloader: Downloader{
			Backend:          defaultDownloaderBackend,
			Binary:           defaultDownloaderBinary,
			Format:           defaultDownloaderFormat,
			SubtitleLanguage: defaultSubtitleLanguage,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Frames: Frames{
			TempDirName:  defaultTempFrameDirName,
			ImageQuality: defaultFrameImageQuality,
		},
		PDF: PDF{
			PageSize:               defaultPageSize,
			Orientation:            defaultOrientation,
			MarginMM:               defaultMarginMM,
			TargetSizeMB:           defaultTargetPDFSizeMB,
			CompressedImageQuality: defaultCompressedImageQuality,
			QualityFloor:           defaultQualityFloor,
			QualityStep:            defaultQualityStep,
			Compress:               AnswerAsk,
			KeepCompressed:         AnswerAsk,
		},
		Output: Output{
			OpenFolder: true,
			Collision:  defaultCollisionPolicy,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Preflight: Preflight{
			MinFreeMB: defaultMinFreeMB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
