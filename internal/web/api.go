package web

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/yuzeguitarist/qrgen/internal/barcode"
	"github.com/yuzeguitarist/qrgen/internal/generator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type apiRequest struct {
	Text        string `json:"text"`
	Type        string `json:"type"`
	BarcodeType string `json:"barcode_type"`
	Resolution  string `json:"resolution"`
}

// apiGenerate is the JSON form of a submission. The response is the Result
// itself: png data uri and svg markup, or error.
func (s *Server) apiGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var in apiRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	sym := barcode.Symbology(in.BarcodeType)
	if sym == "" {
		sym = barcode.Code128
	}
	res := s.Gen.Generate(generator.Request{
		Text:      in.Text,
		Kind:      generator.ParseKind(in.Type),
		Symbology: sym,
		Scale:     generator.ParseResolution(in.Resolution).Scale(),
	})
	status := http.StatusOK
	if res.Err != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
