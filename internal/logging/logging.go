// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config contains the configuration for the global logger.
type Config struct {
	Format string `help:"Format to write log lines in" enum:"text,json" default:"text"`
	Level  string `help:"Lowest log level that will be emitted" enum:"trace,debug,info,warn,error" default:"info"`
	File   string `help:"File to direct logs to. If left blank, or '-', logs go to stderr" default:"-"`
	// Rotation limits for File.
	MaxSizeMB  int `help:"Rotate the log file after this many megabytes" default:"100"`
	MaxBackups int `help:"Rotated log files to keep" default:"10"`
	MaxAgeDays int `help:"Days to keep rotated log files" default:"14"`
}

// Configure applies cfg to the standard logrus logger.
func (cfg *Config) Configure() error {
	return cfg.Apply(log.StandardLogger())
}

// Apply applies cfg to l. File output is rotated by lumberjack.
func (cfg *Config) Apply(l *log.Logger) error {
	if cfg.Level != "" {
		level, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		l.SetLevel(level)
	}

	switch cfg.Format {
	case "", "text":
		l.SetFormatter(&log.TextFormatter{
			FullTimestamp:          true,
			TimestampFormat:        "2006/01/02 15:04:05",
			DisableLevelTruncation: true,
		})
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("log format must be either text or json, got %q", cfg.Format)
	}

	l.SetOutput(cfg.Writer())
	return nil
}

// Writer returns the destination described by File.
func (cfg *Config) Writer() io.Writer {
	if cfg.File == "" || cfg.File == "-" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
}
