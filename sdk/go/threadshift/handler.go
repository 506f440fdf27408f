package threadshift

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Handler exposes the engine as a JSON HTTP API:
//
//	POST /validate     {"body": {...}, "partial": bool}
//	POST /swap         {"source": {...}, "target": {...}, "garment": "5.0103"}
//	POST /reverse/{id}
//	POST /preview      {"charA": {...}, "charB": {...}, "garmentsWorn": [...]}
//	POST /reciprocal   same as /preview
//	GET  /status
//	GET  /history
func (c *Client) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Body    BodyMap `json:"body"`
			Partial bool    `json:"partial"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Partial {
			writeJSON(w, http.StatusOK, c.ValidatePartial(req.Body))
			return
		}
		writeJSON(w, http.StatusOK, c.Validate(req.Body))
	})

	mux.HandleFunc("POST /swap", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Source  *Character `json:"source"`
			Target  *Character `json:"target"`
			Garment string     `json:"garment"`
		}
		if !decode(w, r, &req) {
			return
		}
		id, err := c.Swap(r.Context(), req.Source, req.Target, req.Garment)
		if err != nil {
			writeError(w, err)
			return
		}
		rec, _ := c.Record(id)
		writeJSON(w, http.StatusOK, map[string]any{
			"swap_id": id,
			"source":  req.Source,
			"target":  req.Target,
			"record":  rec,
		})
	})

	mux.HandleFunc("POST /reverse/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		src, tgt, _ := c.Participants(id)
		if err := c.Reverse(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"swap_id": id,
			"status":  "reversed",
			"source":  src,
			"target":  tgt,
		})
	})

	mux.HandleFunc("POST /preview", func(w http.ResponseWriter, r *http.Request) {
		var p Pair
		if !decode(w, r, &p) {
			return
		}
		res, err := c.Preview(p.A, p.B, p.Garments)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("POST /reciprocal", func(w http.ResponseWriter, r *http.Request) {
		var p Pair
		if !decode(w, r, &p) {
			return
		}
		res, err := c.Reciprocal(p.A, p.B, p.Garments)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Status(r.Context()))
	})

	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.History())
	})

	return mux
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSwapNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrValidationFailed),
		errors.Is(err, ErrNoZones),
		errors.Is(err, ErrInvalidCharacter),
		errors.Is(err, ErrMalformedRef),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidBodyMap):
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
