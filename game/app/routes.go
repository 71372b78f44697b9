package app

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/gomida/gamebot/core/opsserver"
	"github.com/gomida/gamebot/game/play"
)

type verifyResponse struct {
	Valid  bool         `json:"valid"`
	Error  string       `json:"error,omitempty"`
	Claims *play.Claims `json:"claims,omitempty"`
}

// mountPlayRoutes lets game frontends check a launch token.
func mountPlayRoutes(r *mux.Router, linker *play.Linker) {
	r.HandleFunc("/play/verify", func(w http.ResponseWriter, req *http.Request) {
		token := strings.TrimSpace(req.URL.Query().Get("token"))
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "))
		}
		if token == "" {
			opsserver.WriteJSON(w, http.StatusBadRequest, verifyResponse{Error: "token is required"})
			return
		}
		claims, err := linker.Verify(token)
		if err != nil {
			opsserver.WriteJSON(w, http.StatusUnauthorized, verifyResponse{Error: err.Error()})
			return
		}
		opsserver.WriteJSON(w, http.StatusOK, verifyResponse{Valid: true, Claims: claims})
	}).Methods(http.MethodGet)
}
