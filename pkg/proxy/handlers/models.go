package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/proxy"
	"mercator-hq/ganymede/pkg/proxy/types"
)

// ModelsHandler serves GET /v1/models with the catalog contents, so
// client tooling can discover what the gateway offers. Legacy aliases
// resolve on the completion endpoint but are not advertised here.
type ModelsHandler struct {
	catalog *catalog.Catalog
}

// NewModelsHandler creates a model list handler.
func NewModelsHandler(cat *catalog.Catalog) *ModelsHandler {
	return &ModelsHandler{catalog: cat}
}

// ServeHTTP implements http.Handler.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errResp := types.NewInvalidRequestError(
			fmt.Sprintf("Method %s not allowed. Use GET instead.", r.Method),
			"method",
			types.CodeMethodNotAllowed,
		)
		if err := proxy.WriteJSONResponse(w, http.StatusMethodNotAllowed, errResp); err != nil {
			slog.ErrorContext(r.Context(), "failed to write error response", "error", err)
		}
		return
	}

	entries := h.catalog.List()
	now := time.Now().Unix()

	list := types.ModelList{
		Object: "list",
		Data:   make([]types.Model, 0, len(entries)),
	}
	for _, e := range entries {
		list.Data = append(list.Data, types.Model{
			ID:      e.ID,
			Object:  "model",
			Created: now,
			OwnedBy: types.ModelOwner,
		})
	}

	if err := proxy.WriteJSONResponse(w, http.StatusOK, list); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}
