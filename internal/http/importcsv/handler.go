package importcsv

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
	"github.com/MrJamesThe3rd/orderdesk/internal/importer"
)

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	kind := importer.Kind(r.FormValue("kind"))
	if kind == "" {
		http.Error(w, "kind field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), kind, file)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if result.Errors == nil {
		result.Errors = []importer.RowError{}
	}

	respond.JSON(w, http.StatusOK, result)
}
