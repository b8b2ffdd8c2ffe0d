package config

const (
	defaultInputDir             = "packages"
	defaultOutputDir            = "encoded"
	defaultCacheDir             = ".cache"
	defaultFFmpeg               = "ffmpeg"
	defaultBitrate              = 96
	defaultSourceDir            = "sounds"
	defaultMaxRemediationPasses = 4
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 10
	defaultLogMaxBackups        = 3
	defaultPublishConcurrency   = 4
	defaultWatchDebounceMillis  = 750
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		InputDir:             defaultInputDir,
		OutputDir:            defaultOutputDir,
		CacheDir:             defaultCacheDir,
		FFmpeg:               defaultFFmpeg,
		Bitrate:              defaultBitrate,
		UseCache:             true,
		MaxRemediationPasses: defaultMaxRemediationPasses,
		Formats: Formats{
			WebM: true,
			MP4:  true,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			Format:     defaultLogFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
		Journal: Journal{
			Enabled: true,
		},
		Publish: Publish{
			UseSSL:      true,
			Concurrency: defaultPublishConcurrency,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounceMillis,
		},
		Packages: map[string]Package{},
	}
}
