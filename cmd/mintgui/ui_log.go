package main

import (
	"image/color"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxLogLines = 500

// logPane is a read-only log view fed by the zap logger.
type logPane struct {
	mu     sync.Mutex
	lines  []string
	box    *widget.Entry
	scroll *container.Scroll
}

func newLogPane() *logPane {
	p := &logPane{box: widget.NewMultiLineEntry()}
	p.box.Disable()
	p.box.Wrapping = fyne.TextWrapWord
	p.scroll = container.NewVScroll(p.box)
	p.scroll.SetMinSize(fyne.NewSize(700, 140))
	return p
}

func (p *logPane) content() fyne.CanvasObject {
	bg := canvas.NewLinearGradient(color.NRGBA{12, 16, 24, 255}, color.NRGBA{20, 28, 40, 255}, 90)
	return container.NewStack(bg, p.scroll)
}

// Write implements zapcore.WriteSyncer.
func (p *logPane) Write(b []byte) (int, error) {
	p.mu.Lock()
	for _, l := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		p.lines = append(p.lines, l)
	}
	if len(p.lines) > maxLogLines {
		p.lines = p.lines[len(p.lines)-maxLogLines:]
	}
	text := strings.Join(p.lines, "\n")
	p.mu.Unlock()

	p.box.SetText(text)
	p.scroll.ScrollToBottom()
	return len(b), nil
}

func (p *logPane) Sync() error { return nil }

// tee sends log entries to both base and the pane.
func (p *logPane) tee(base *zap.Logger, level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(p), level)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
}
