package httpfront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/model"
)

const maxBodyBytes = 32 << 20 // 32 MiB, generous for a single JPEG/PNG frame

type greetingResponse struct {
	Type     string            `json:"type"`
	From     string            `json:"from"`
	Message  string            `json:"message"`
	WhatNext map[string]string `json:"what next"`
}

func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, greetingResponse{
		Type:    "greeting",
		From:    "heteroserving",
		Message: "welcome to heteroserving inference server version 1",
		WhatNext: map[string]string{
			"API":  "GET /v1/ for supported API",
			"INFO": "GET /metadata/ for model information",
		},
	})
}

type engineInfo struct {
	Device string `json:"device"`
	Model  string `json:"model"`
	Labels int    `json:"labels"`
}

type metadataResponse struct {
	From    string       `json:"from"`
	Message string       `json:"message"`
	Engines []engineInfo `json:"engines"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	engines := make([]engineInfo, 0, 4)
	for _, e := range s.dispatcher.Metadata() {
		engines = append(engines, engineInfo{Device: string(e.Device), Model: string(e.Model), Labels: e.Labels})
	}
	writeJSON(w, http.StatusOK, metadataResponse{
		From:    "heteroserving",
		Message: "this is metadata request",
		Engines: engines,
	})
}

// handleHead answers any recognized target's HEAD with the basic server
// information: a 200, a content-type derived from the target, no body.
func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", mimeType(r.URL.Path))
	w.WriteHeader(http.StatusOK)
}

type boxJSON struct {
	LabelID      int     `json:"label_id"`
	Label        string  `json:"label"`
	Confidences  float64 `json:"confidences"`
	DetectionBox [4]int  `json:"detection_box"`
}

type inferenceResponse struct {
	Status      string    `json:"status"`
	Why         string    `json:"why,omitempty"`
	Predictions []boxJSON `json:"predictions"`
}

// handleInference builds a handler bound to a fixed device (used for the
// bare /inference path, where device is "" and Dispatcher picks its
// default).
func (s *Server) handleInference(device string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.runInference(w, r, device)
	}
}

// handleInferenceWithDevice reads {device} from the route, rejecting
// segments the Dispatcher has no engine for.
func (s *Server) handleInferenceWithDevice(w http.ResponseWriter, r *http.Request) {
	device := mux.Vars(r)["device"]
	s.runInference(w, r, device)
}

func (s *Server) runInference(w http.ResponseWriter, r *http.Request, device string) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusOK, map[string]string{"message": "not an image"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	pred, err := s.dispatcher.Dispatch(device, data)
	if err != nil {
		var nie *apperr.NotImplementedError
		if errors.As(err, &nie) {
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		}
		// DecodeError and InferenceError both degrade to an empty
		// detection result rather than a hard failure, matching how a
		// worker that failed mid-request still rings its caller's bell.
		writeJSON(w, http.StatusOK, inferenceResponse{
			Status:      "not ok",
			Why:         "empty detection box",
			Predictions: []boxJSON{},
		})
		return
	}
	writeJSON(w, http.StatusOK, toInferenceResponse(pred))
}

// toInferenceResponse always reports "ok": a Prediction with zero boxes
// is a legitimate "nothing detected" result, not a failure (model.Prediction's
// doc comment is explicit about this), so it gets the same status as a
// non-empty one, just with an empty predictions array.
func toInferenceResponse(pred model.Prediction) inferenceResponse {
	resp := inferenceResponse{Status: "ok", Predictions: make([]boxJSON, 0, len(pred))}
	for _, b := range pred {
		resp.Predictions = append(resp.Predictions, boxJSON{
			LabelID:      b.LabelID,
			Label:        b.Label,
			Confidences:  b.Score,
			DetectionBox: b.DetectionBox(),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writePlainText serves the short, non-JSON text bodies used for a bad
// method or an illegal/unknown request-target.
func writePlainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
