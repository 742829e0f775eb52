package utils

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"
)

const (
	buildInfoFilename = "build-info.yaml"
	buildInfoGroup    = "build"

	modulePath = "github.com/case-framework/records-portal"
)

type BuildInfoMode int

const (
	BuildInfoNever BuildInfoMode = iota
	BuildInfoOnce
	BuildInfoAlways
)

type LoggerConfig struct {
	LogToFile        bool   `json:"log_to_file" yaml:"log_to_file"`
	Filename         string `json:"filename" yaml:"filename"`
	MaxSize          int    `json:"max_size" yaml:"max_size"`
	MaxAge           int    `json:"max_age" yaml:"max_age"`
	MaxBackups       int    `json:"max_backups" yaml:"max_backups"`
	LogLevel         string `json:"log_level" yaml:"log_level"`
	IncludeSrc       bool   `json:"include_src" yaml:"include_src"`
	CompressOldLogs  bool   `json:"compress_old_logs" yaml:"compress_old_logs"`
	IncludeBuildInfo string `json:"include_build_info" yaml:"include_build_info"` // never, always, once
}

// BuildInfo is the content of build-info.yaml written by the image build.
type BuildInfo map[string]string

func (b BuildInfo) attr() slog.Attr {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, b[k]))
	}
	return slog.Group(buildInfoGroup, attrs...)
}

func loadBuildInfo(filename string) (BuildInfo, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	info := BuildInfo{}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// InitLogger installs the default slog logger of a service or job. Every
// record carries the service name.
func InitLogger(service string, conf LoggerConfig) {
	var out io.Writer = os.Stdout
	if conf.LogToFile && conf.Filename != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   conf.Filename,
			MaxSize:    conf.MaxSize, // megabytes
			MaxAge:     conf.MaxAge,  // days
			MaxBackups: conf.MaxBackups,
			Compress:   conf.CompressOldLogs,
		})
	}

	mode := getBuildInfoMode(conf.IncludeBuildInfo)
	var info BuildInfo
	var infoErr error
	if mode != BuildInfoNever {
		info, infoErr = loadBuildInfo(buildInfoFilename)
	}

	logger := newLogger(out, service, conf, mode, info)
	slog.SetDefault(logger)

	switch {
	case infoErr != nil:
		slog.Warn("build info unavailable", slog.String("file", buildInfoFilename), slog.String("error", infoErr.Error()))
	case mode == BuildInfoOnce && len(info) > 0:
		slog.Info("build info", info.attr())
	}
}

func newLogger(out io.Writer, service string, conf LoggerConfig, mode BuildInfoMode, info BuildInfo) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       logLevelFromString(conf.LogLevel),
		AddSource:   conf.IncludeSrc,
		ReplaceAttr: trimSource,
	}

	attrs := []slog.Attr{}
	if service != "" {
		attrs = append(attrs, slog.String("service", service))
	}
	if mode == BuildInfoAlways && len(info) > 0 {
		attrs = append(attrs, info.attr())
	}
	return slog.New(slog.NewJSONHandler(out, opts).WithAttrs(attrs))
}

// trimSource shortens source locations to the file name and the package path inside the module.
func trimSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if source, ok := a.Value.Any().(*slog.Source); ok && source != nil {
		source.File = filepath.Base(source.File)
		source.Function = strings.TrimPrefix(source.Function, modulePath)
	}
	return a
}

func logLevelFromString(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getBuildInfoMode(includeBuildInfo string) BuildInfoMode {
	switch strings.ToLower(includeBuildInfo) {
	case "always":
		return BuildInfoAlways
	case "once":
		return BuildInfoOnce
	default:
		return BuildInfoNever
	}
}
