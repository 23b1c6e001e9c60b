package telemetry

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceMonitor samples process-host cpu and memory usage. Long grid
// searches log a snapshot between configurations so runaway memory growth
// shows up in the run log.
type ResourceMonitor struct {
	logger *logrus.Logger
}

// NewResourceMonitor wraps a logrus logger as a resource stats sink.
func NewResourceMonitor(logger *logrus.Logger) *ResourceMonitor {
	return &ResourceMonitor{logger: logger}
}

// LogSnapshot samples and logs current cpu/memory usage. Sampling failures
// are logged at debug level and otherwise ignored; telemetry never aborts a
// run.
func (r *ResourceMonitor) LogSnapshot(ctx context.Context) {
	fields := logrus.Fields{}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fields["mem_used_pct"] = memInfo.UsedPercent
		fields["mem_available_mb"] = memInfo.Available / (1024 * 1024)
	} else {
		r.logger.WithError(err).Debug("Memory sample failed")
	}

	if cpuPercent, err := cpu.PercentWithContext(ctx, time.Second, false); err == nil && len(cpuPercent) > 0 {
		fields["cpu_pct"] = cpuPercent[0]
	} else if err != nil {
		r.logger.WithError(err).Debug("CPU sample failed")
	}

	if len(fields) > 0 {
		r.logger.WithFields(fields).Debug("Resource snapshot")
	}
}
