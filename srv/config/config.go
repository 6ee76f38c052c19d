package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opd-ai/repairdoc/reportcompiler"
)

// Config is the root service configuration.
type Config struct {
	Server ServerConfig
	Dirs   DirsConfig
	Log    LogConfig
	Rate   RateConfig
	Export ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSEnabled   bool
	TLSCertFile  string
	TLSKeyFile   string
}

// DirsConfig holds the service directory layout.
type DirsConfig struct {
	Data    string // project JSON files
	Uploads string // uploaded source images
	Outputs string // finished export documents
	Temp    string // scratch space for image artifacts
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// RateConfig holds request rate limiting settings.
type RateConfig struct {
	Requests int
	Window   time.Duration
}

// ExportConfig holds document generation settings. Layout fields are
// millimeters for the PDF and Excel character units for column widths;
// zero keeps the built-in value.
type ExportConfig struct {
	FontPath        string
	ExcelFitWidth   int
	ExcelFitHeight  int
	ExcelScale      float64
	ExcelRowMin     float64
	ExcelRowFactor  float64
	ExcelColIndex   float64
	ExcelColDesc    float64
	ExcelColImage   float64
	Sharpen         bool
	JPEGQuality     int
	PDFSingleW      float64
	PDFSingleH      float64
	PDFTwoColCell   float64
	PDFThreeColCell float64
	SectionGap      float64
	BreakEvery      int
	BreakImageCount int
	KeepTogetherMax int
	JobTimeout      time.Duration
	DisposeDelay    time.Duration
	JobTTL          time.Duration
}

// Load reads configuration from file and environment variables.
// A missing config file is not an error; defaults and environment
// variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("repairdoc")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/repairdoc")
	}

	v.SetEnvPrefix("REPAIRDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("export.sharpen", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
			TLSEnabled:   v.GetBool("server.tls_enabled"),
			TLSCertFile:  v.GetString("server.tls_cert_file"),
			TLSKeyFile:   v.GetString("server.tls_key_file"),
		},
		Dirs: DirsConfig{
			Data:    v.GetString("dirs.data"),
			Uploads: v.GetString("dirs.uploads"),
			Outputs: v.GetString("dirs.outputs"),
			Temp:    v.GetString("dirs.temp"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Rate: RateConfig{
			Requests: v.GetInt("rate.requests"),
			Window:   v.GetDuration("rate.window"),
		},
		Export: ExportConfig{
			FontPath:        v.GetString("export.font_path"),
			ExcelFitWidth:   v.GetInt("export.excel_fit_width"),
			ExcelFitHeight:  v.GetInt("export.excel_fit_height"),
			ExcelScale:      v.GetFloat64("export.excel_scale"),
			ExcelRowMin:     v.GetFloat64("export.excel_row_min"),
			ExcelRowFactor:  v.GetFloat64("export.excel_row_factor"),
			ExcelColIndex:   v.GetFloat64("export.excel_col_index"),
			ExcelColDesc:    v.GetFloat64("export.excel_col_desc"),
			ExcelColImage:   v.GetFloat64("export.excel_col_image"),
			Sharpen:         v.GetBool("export.sharpen"),
			JPEGQuality:     v.GetInt("export.jpeg_quality"),
			PDFSingleW:      v.GetFloat64("export.pdf_single_image_w"),
			PDFSingleH:      v.GetFloat64("export.pdf_single_image_h"),
			PDFTwoColCell:   v.GetFloat64("export.pdf_two_col_cell"),
			PDFThreeColCell: v.GetFloat64("export.pdf_three_col_cell"),
			SectionGap:      v.GetFloat64("export.section_gap"),
			BreakEvery:      v.GetInt("export.break_every"),
			BreakImageCount: v.GetInt("export.break_image_count"),
			KeepTogetherMax: v.GetInt("export.keep_together_max"),
			JobTimeout:      v.GetDuration("export.job_timeout"),
			DisposeDelay:    v.GetDuration("export.dispose_delay"),
			JobTTL:          v.GetDuration("export.job_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8780"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Dirs.Data == "" {
		cfg.Dirs.Data = "data/projects"
	}
	if cfg.Dirs.Uploads == "" {
		cfg.Dirs.Uploads = "data/uploads"
	}
	if cfg.Dirs.Outputs == "" {
		cfg.Dirs.Outputs = "data/outputs"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Rate.Requests == 0 {
		cfg.Rate.Requests = 60
	}
	if cfg.Rate.Window == 0 {
		cfg.Rate.Window = time.Minute
	}
	if cfg.Export.JPEGQuality == 0 {
		cfg.Export.JPEGQuality = 92
	}
	if cfg.Export.JobTimeout == 0 {
		cfg.Export.JobTimeout = 5 * time.Minute
	}
	if cfg.Export.DisposeDelay == 0 {
		cfg.Export.DisposeDelay = 5 * time.Second
	}
	if cfg.Export.JobTTL == 0 {
		cfg.Export.JobTTL = 24 * time.Hour
	}
}

func (c *Config) validate() error {
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be between 1 and 100, got %d", c.Export.JPEGQuality)
	}
	if c.Export.ExcelScale < 0 {
		return fmt.Errorf("export.excel_scale must not be negative, got %g", c.Export.ExcelScale)
	}
	if c.Rate.Requests < 1 {
		return fmt.Errorf("rate.requests must be positive, got %d", c.Rate.Requests)
	}
	if c.Server.TLSEnabled && c.Server.TLSCertFile != "" && c.Server.TLSKeyFile == "" {
		return fmt.Errorf("server.tls_key_file is required when server.tls_cert_file is set")
	}
	return nil
}

// Options materializes document generation options from the export
// section, leaving untouched fields at their built-in values.
func (e ExportConfig) Options(tempDir string) reportcompiler.Options {
	opts := reportcompiler.DefaultOptions()
	opts.TempDir = tempDir
	opts.FontPath = e.FontPath
	opts.Sharpen = e.Sharpen
	if e.ExcelFitWidth > 0 {
		opts.ExcelFitWidth = e.ExcelFitWidth
	}
	if e.ExcelFitHeight > 0 {
		opts.ExcelFitHeight = e.ExcelFitHeight
	}
	if e.ExcelScale > 0 {
		opts.ExcelScale = e.ExcelScale
	}
	if e.ExcelRowMin > 0 {
		opts.ExcelRowMin = e.ExcelRowMin
	}
	if e.ExcelRowFactor > 0 {
		opts.ExcelRowFactor = e.ExcelRowFactor
	}
	if e.ExcelColIndex > 0 {
		opts.ExcelColIndex = e.ExcelColIndex
	}
	if e.ExcelColDesc > 0 {
		opts.ExcelColDesc = e.ExcelColDesc
	}
	if e.ExcelColImage > 0 {
		opts.ExcelColImage = e.ExcelColImage
	}
	if e.JPEGQuality > 0 {
		opts.JPEGQuality = e.JPEGQuality
	}
	if e.PDFSingleW > 0 {
		opts.SingleImageW = e.PDFSingleW
	}
	if e.PDFSingleH > 0 {
		opts.SingleImageH = e.PDFSingleH
	}
	if e.PDFTwoColCell > 0 {
		opts.TwoColCell = e.PDFTwoColCell
	}
	if e.PDFThreeColCell > 0 {
		opts.ThreeColCell = e.PDFThreeColCell
	}
	if e.SectionGap > 0 {
		opts.SectionGap = e.SectionGap
	}
	if e.BreakEvery > 0 {
		opts.BreakEvery = e.BreakEvery
	}
	if e.BreakImageCount > 0 {
		opts.BreakImageCount = e.BreakImageCount
	}
	if e.KeepTogetherMax > 0 {
		opts.KeepTogetherMax = e.KeepTogetherMax
	}
	return opts
}
