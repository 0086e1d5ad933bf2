// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/swipeflow/models"
)

// SecurityReporter receives branch targets rejected at run time.
// Events are for operators; participants never see them.
type SecurityReporter interface {
	ReportInvalidBranch(ctx context.Context, ev models.SecurityEvent)
}

// LogReporter writes security events as warn-level log lines
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter uses slog.Default when logger is nil
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportInvalidBranch(ctx context.Context, ev models.SecurityEvent) {
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "invalid branch target rejected",
		"flow_id", ev.FlowID,
		"run_id", ev.RunID,
		"source_card_id", ev.SourceCardID,
		"invalid_card_id", ev.InvalidTarget,
		"answer", int(ev.Answer),
		"ip", ev.RequesterIP,
		"user_agent", ev.UserAgent,
	)
}
