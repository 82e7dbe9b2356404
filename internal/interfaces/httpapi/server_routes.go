package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/levels", handler.ListLevels)
	mux.HandleFunc("GET /v1/levels/current", handler.GetCurrentLevel)
	mux.HandleFunc("GET /v1/levels/week/{week}", handler.GetLevelByWeek)
	mux.HandleFunc("GET /v1/teams/{teamID}/progress", handler.GetTeamProgress)
	mux.HandleFunc("GET /v1/leaderboard", handler.GetLeaderboard)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/tasks/{taskID}/submissions", RequireAuth(verifier, http.HandlerFunc(handler.SubmitTaskAnswer)))
	mux.Handle("GET /v1/submissions/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMySubmissions)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/recalculate-points", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecalculatePointsJob)))
	mux.Handle("POST /v1/internal/jobs/schedule-recalculations", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunScheduleRecalculationsJob)))
	mux.Handle("POST /v1/internal/teams/{teamID}/reset", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResetTeamProgress)))
}
