package http

import (
	"net/http"
	"time"

	"github.com/hms-dta/agencyauth/pkg/authsdk"
	"github.com/hms-dta/agencyauth/pkg/httpx"
)

// LivezHandler is the liveness probe. It returns 200 OK whenever the process
// is up, with uptime and build version.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Seconds(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
