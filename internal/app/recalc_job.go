package app

import (
	"context"

	"github.com/keyquest/keyquest/internal/config"
	"github.com/keyquest/keyquest/internal/platform/logging"
	"github.com/keyquest/keyquest/internal/usecase"
)

// RunRecalcJob executes one points recalculation against the configured
// storage backend and tears the backend down afterwards. Used by the
// standalone job binary; the HTTP path goes through the recalc service
// wired in NewHTTPServer.
func RunRecalcJob(ctx context.Context, cfg config.Config, logger *logging.Logger, input usecase.RecalcInput) (usecase.RecalcResult, error) {
	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return usecase.RecalcResult{}, err
	}
	defer cleanup()

	svc := usecase.NewRecalcService(repos.users, repos.points, nil, logger)
	return svc.RecalculateAll(ctx, input)
}
