package config

// Default values applied before a config file is read.
const (
	DefaultStagingDir = "~/.local/share/reporeel/staging"
	DefaultOutputDir  = "~/.local/share/reporeel/output"
	DefaultLogDir     = "~/.local/share/reporeel/logs"
	DefaultAPIBind    = "127.0.0.1:7575"

	DefaultAnalysisTimeout  = 30
	DefaultMaxCodeFiles     = 10
	DefaultMaxContentBytes  = 2000
	DefaultScriptTimeout    = 60
	DefaultScriptMaxTokens  = 800
	DefaultGroqModel        = "llama3-8b-8192"
	DefaultOpenAIModel      = "gpt-3.5-turbo"
	DefaultAnthropicModel   = "claude-3-haiku-20240307"
	DefaultTogetherModel    = "meta-llama/Llama-2-7b-chat-hf"
	DefaultSpeechTimeout    = 120
	DefaultEspeakVoice      = "en+m3"
	DefaultEspeakSpeed      = 160
	DefaultEdgeVoice        = "en-US-AriaNeural"
	DefaultRenderWidth      = 1920
	DefaultRenderHeight     = 1080
	DefaultRenderFPS        = 25
	DefaultRenderTimeout    = 600
	DefaultProbeTimeout     = 30
	DefaultMergeTimeout     = 300
	DefaultWorkerCount      = 2
	DefaultQueueCapacity    = 8
	DefaultNotifyTimeout    = 30
	DefaultLogFormat        = "console"
	DefaultLogLevel         = "info"
)

// DefaultBranches are the branch names tried when downloading a repository
// archive, in order.
func DefaultBranches() []string {
	return []string{"main", "master", "dev", "develop"}
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: DefaultStagingDir,
			OutputDir:  DefaultOutputDir,
			LogDir:     DefaultLogDir,
			APIBind:    DefaultAPIBind,
		},
		Analysis: Analysis{
			RequestTimeout:  DefaultAnalysisTimeout,
			Branches:        DefaultBranches(),
			MaxCodeFiles:    DefaultMaxCodeFiles,
			MaxContentBytes: DefaultMaxContentBytes,
		},
		Script: Script{
			GroqModel:      DefaultGroqModel,
			OpenAIModel:    DefaultOpenAIModel,
			AnthropicModel: DefaultAnthropicModel,
			TogetherModel:  DefaultTogetherModel,
			RequestTimeout: DefaultScriptTimeout,
			MaxTokens:      DefaultScriptMaxTokens,
		},
		Speech: Speech{
			EspeakVoice:    DefaultEspeakVoice,
			EspeakSpeed:    DefaultEspeakSpeed,
			EdgeVoice:      DefaultEdgeVoice,
			RequestTimeout: DefaultSpeechTimeout,
		},
		Render: Render{
			Width:          DefaultRenderWidth,
			Height:         DefaultRenderHeight,
			FPS:            DefaultRenderFPS,
			RequestTimeout: DefaultRenderTimeout,
		},
		Merge: Merge{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			ProbeTimeout:  DefaultProbeTimeout,
			MergeTimeout:  DefaultMergeTimeout,
		},
		Workflow: Workflow{
			WorkerCount:   DefaultWorkerCount,
			QueueCapacity: DefaultQueueCapacity,
		},
		Notifications: Notifications{
			RequestTimeout: DefaultNotifyTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
	}
}
