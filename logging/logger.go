// Package logging 基于 zerolog 的全局日志初始化
package logging

import (
	"io"
	"os"
	"time"

	"chatdesk/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New 按配置创建 logger：level 解析失败回退 info，output 支持 stdout/stderr/文件路径
func New(cfg config.LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	switch cfg.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			writer = os.Stdout
		} else {
			writer = f
		}
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Setup 设置全局 logger
func Setup(cfg config.LogConfig) {
	log.Logger = New(cfg)
}
