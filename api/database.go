package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"new-launcher/database"
)

func (h *handler) getDocument(name database.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h.store.Read(name)
		if err != nil {
			// A corrupt file is surfaced as a server error, never masked.
			log.Printf("read %s: %v", name, err)
			http.Error(w, "failed to read document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (h *handler) postDocument(name database.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if _, err := h.store.Write(name, body); err != nil {
			if errors.Is(err, database.ErrInvalidJSON) {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			log.Printf("write %s: %v", name, err)
			http.Error(w, "failed to save document", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
