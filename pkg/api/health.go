package api

import (
	"net/http"

	"github.com/clockwise-hq/clockwise/pkg/db"
)

func Health(w http.ResponseWriter, dbc *db.DB) {
	sqlDB, err := dbc.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		RespondWithJSON(http.StatusServiceUnavailable, w, map[string]string{"status": "unhealthy", "message": err.Error()})
		return
	}
	RespondWithJSON(http.StatusOK, w, map[string]string{"status": "ok"})
}
