package hooking

import (
	"github.com/sirupsen/logrus"
)

// LogHook writes every hook invocation it receives to a logrus logger at the
// debug level. Positions can be filtered so that only the interesting events
// are logged.
type LogHook struct {
	logger    logrus.FieldLogger
	positions map[*HookPos]bool
}

// NewLogHook creates a LogHook. If no positions are given, all positions are
// logged.
func NewLogHook(logger logrus.FieldLogger, positions ...*HookPos) *LogHook {
	h := &LogHook{
		logger:    logger,
		positions: make(map[*HookPos]bool),
	}

	for _, p := range positions {
		h.positions[p] = true
	}

	return h
}

// Func logs the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	if len(h.positions) > 0 && !h.positions[ctx.Pos] {
		return
	}

	fields := logrus.Fields{
		"cycle": ctx.Now,
		"pos":   ctx.Pos.Name,
	}

	if n, ok := ctx.Domain.(Named); ok {
		fields["where"] = n.Name()
	}

	if ctx.Detail != nil {
		fields["detail"] = ctx.Detail
	}

	h.logger.WithFields(fields).Debugf("%+v", ctx.Item)
}
