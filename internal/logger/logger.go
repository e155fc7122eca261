package logger

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const prefix = "[PIICLEANER]"

// prependEncoder wraps the console encoder with a coloured prefix, the level
// and a timestamp.
type prependEncoder struct {
	zapcore.Encoder
	cfg  zapcore.EncoderConfig
	pool buffer.Pool
}

func newPrependEncoder(cfg zapcore.EncoderConfig) *prependEncoder {
	return &prependEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		pool:    buffer.NewPool(),
		cfg:     cfg,
	}
}

func (e *prependEncoder) Clone() zapcore.Encoder {
	return &prependEncoder{
		Encoder: e.Encoder.Clone(),
		pool:    buffer.NewPool(),
		cfg:     e.cfg,
	}
}

func (e *prependEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := e.pool.Get()

	tag := color.New(color.BgBlue).Sprint(prefix)
	if entry.Level >= zapcore.WarnLevel {
		tag = color.New(color.BgRed).Sprint(prefix)
	}

	buf.AppendString(tag)
	buf.AppendString(" ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" | ")
	buf.AppendString(entry.Time.Format(time.RFC3339))
	buf.AppendString(" | ")

	line, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}
	defer line.Free()
	if _, err := buf.Write(line.Bytes()); err != nil {
		return nil, err
	}
	return buf, nil
}

// New returns a logger for mode writing to stdout. "production" logs JSON at
// info level; anything else logs coloured console lines at debug level.
func New(mode string) *zap.Logger {
	if mode == "production" {
		return NewWithWriter(mode, zapcore.Lock(os.Stdout))
	}
	return NewWithWriter(mode, zapcore.AddSync(colorable.NewColorableStdout()))
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(mode string, w zapcore.WriteSyncer) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "ts",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	if mode == "production" {
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, zapcore.InfoLevel)
		return zap.New(core)
	}

	encCfg.LevelKey = zapcore.OmitKey
	encCfg.TimeKey = zapcore.OmitKey
	core := zapcore.NewCore(newPrependEncoder(encCfg), w, zapcore.DebugLevel)
	return zap.New(core)
}
