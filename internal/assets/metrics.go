package assets

import (
	"context"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/webtools/internal/telemetry"
)

func (p *Pipeline) recordBuild(ctx context.Context, result *api.BuildResult, elapsed time.Duration, err error) {
	var size int64
	for _, file := range result.OutputFiles {
		size += int64(len(file.Contents))
	}
	telemetry.GetMetrics().RecordBuild(ctx, p.config.Mode, elapsed, len(result.OutputFiles), size, err)
}
