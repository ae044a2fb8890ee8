package config

// Config is the complete configuration of a tessnode invocation. It is
// loaded once from defaults, a config file, the environment and flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine" json:"engine"`
	Operation OperationConfig `mapstructure:"operation" yaml:"operation" json:"operation"`
	PDF       PDFConfig       `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output" json:"output"`
}

// EngineConfig is applied once to the shared engine worker.
type EngineConfig struct {
	// Language is one or more traineddata names joined by "+", e.g. "eng+deu".
	Language string `mapstructure:"language" yaml:"language" json:"language"`
	// PSM is a page segmentation mode name such as SINGLE_BLOCK.
	PSM string `mapstructure:"psm" yaml:"psm" json:"psm"`
	// DPI overrides the resolution the engine assumes; 0 keeps its guess.
	DPI            int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Whitelist      string `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
	Blacklist      string `mapstructure:"blacklist" yaml:"blacklist" json:"blacklist"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// OperationConfig controls what is recognized and how results are emitted.
type OperationConfig struct {
	// Mode is "ocr" for plain text or "boxes" for structured entries.
	Mode           string     `mapstructure:"mode" yaml:"mode" json:"mode"`
	Granularity    string     `mapstructure:"granularity" yaml:"granularity" json:"granularity"`
	Field          string     `mapstructure:"field" yaml:"field" json:"field"`
	BBox           BBoxConfig `mapstructure:"bbox" yaml:"bbox" json:"bbox"`
	TimeoutMS      int        `mapstructure:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
	ResizePercent  int        `mapstructure:"resize_percent" yaml:"resize_percent" json:"resize_percent"`
	KeepBinary     bool       `mapstructure:"keep_binary" yaml:"keep_binary" json:"keep_binary"`
	MinConfidence  float64    `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	ContinueOnFail bool       `mapstructure:"continue_on_fail" yaml:"continue_on_fail" json:"continue_on_fail"`
	MaxConcurrency int        `mapstructure:"max_concurrency" yaml:"max_concurrency" json:"max_concurrency"`
}

// BBoxConfig restricts recognition to a region when enabled.
type BBoxConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Top     int  `mapstructure:"top" yaml:"top" json:"top"`
	Left    int  `mapstructure:"left" yaml:"left" json:"left"`
	Width   int  `mapstructure:"width" yaml:"width" json:"width"`
	Height  int  `mapstructure:"height" yaml:"height" json:"height"`
}

// PDFConfig controls image discovery in PDF inputs.
type PDFConfig struct {
	Strategy      string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	Pages         string `mapstructure:"pages" yaml:"pages" json:"pages"`
	UserPassword  string `mapstructure:"user_password" yaml:"user_password" json:"user_password"`
	OwnerPassword string `mapstructure:"owner_password" yaml:"owner_password" json:"owner_password"`
}

// OutputConfig controls how the run command writes results.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format" json:"format"`
	File        string `mapstructure:"file" yaml:"file" json:"file"`
	Pretty      bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}
