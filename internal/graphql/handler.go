package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

// ServeHTTP handles POST /graphql.
func (r *Resolver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		writeResponse(w, Response{Errors: gqlerror.List{gqlerror.Errorf("Method not allowed, use POST")}})
		return
	}

	var body Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeResponse(w, Response{Errors: gqlerror.List{gqlerror.Errorf("Invalid JSON: %s", err)}})
		return
	}

	resp, ok := r.Execute(req.Context(), body)
	if !ok {
		r.Logger.Ctx(req.Context()).Debug("Rejected GraphQL document", zap.Error(resp.Errors))
		w.WriteHeader(http.StatusBadRequest)
	}
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	_ = json.NewEncoder(w).Encode(resp)
}
