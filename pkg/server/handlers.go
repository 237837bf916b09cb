package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/justyntemme/granulator/pkg/framework/param"
	"github.com/justyntemme/granulator/pkg/granular"
	"github.com/justyntemme/granulator/pkg/sample"
	"github.com/justyntemme/granulator/pkg/synth"
	"github.com/pkg/errors"
)

const maxBodySize = 64 << 10

type grainsResponse struct {
	synth.Stats
	Grains []granular.Description `json:"grains"`
}

type paramResponse struct {
	ID    uint32  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Unit  string  `json:"unit,omitempty"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type setParamRequest struct {
	Value string `json:"value"`
}

type boundsRequest struct {
	Begin float64 `json:"begin"`
	End   float64 `json:"end"`
}

type sampleRequest struct {
	Path string `json:"path"`
}

type sampleResponse struct {
	Name     string  `json:"name"`
	Frames   int     `json:"frames"`
	Rate     float64 `json:"rate"`
	Duration float64 `json:"duration"`
	Hash     string  `json:"hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleGrains(w http.ResponseWriter, r *http.Request) {
	grains, stats := s.synth.Descriptions(nil)
	if grains == nil {
		grains = []granular.Description{}
	}
	s.writeJSON(w, http.StatusOK, grainsResponse{Stats: stats, Grains: grains})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	all := s.synth.Params().All()
	out := make([]paramResponse, 0, len(all))
	for _, p := range all {
		out = append(out, describeParam(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleParam(w http.ResponseWriter, r *http.Request) {
	p, err := s.synth.Params().Lookup(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, describeParam(p))
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req setParamRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	params := s.synth.Params()
	if err := params.Set(name, req.Value); err != nil {
		status := http.StatusBadRequest
		if errors.Cause(err) == param.ErrUnknown {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return
	}
	p, _ := params.Lookup(name)
	s.logger.Info("set %s = %s", name, p.String())
	s.writeJSON(w, http.StatusOK, describeParam(p))
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	b := s.synth.Shared().Bounds()
	s.writeJSON(w, http.StatusOK, boundsRequest{Begin: b.Begin, End: b.End})
}

func (s *Server) handleSetBounds(w http.ResponseWriter, r *http.Request) {
	var req boundsRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	b := granular.ReadBounds{Begin: req.Begin, End: req.End}
	if err := s.synth.SetReadBounds(b); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.synth.LoadFile(req.Path)
	if err != nil {
		status := http.StatusInternalServerError
		switch errors.Cause(err) {
		case sample.ErrUnsupportedFormat, sample.ErrEmptyBuffer, sample.ErrInvalidRate:
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	s.logger.Info("loaded %s (%d frames, %.0f Hz)", b.Name, b.Len(), b.Rate)
	s.writeJSON(w, http.StatusOK, sampleResponse{
		Name:     b.Name,
		Frames:   b.Len(),
		Rate:     b.Rate,
		Duration: b.Duration(),
		Hash:     strconv.FormatUint(b.Hash, 16),
	})
}

func (s *Server) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	note, err := noteParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	velocity := uint8(100)
	if v := r.URL.Query().Get("velocity"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil || n > 127 {
			s.writeError(w, http.StatusBadRequest, errors.Errorf("invalid velocity %q", v))
			return
		}
		velocity = uint8(n)
	}
	if !s.synth.NoteOn(note, velocity) {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("note queue full"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	note, err := noteParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tail := true
	if v := r.URL.Query().Get("tail"); v != "" {
		tail, err = strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, errors.Errorf("invalid tail %q", v))
			return
		}
	}
	if !s.synth.NoteOff(note, tail) {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("note queue full"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAllNotesOff(w http.ResponseWriter, r *http.Request) {
	if !s.synth.AllNotesOff() {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("note queue full"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func noteParam(r *http.Request) (uint8, error) {
	raw := chi.URLParam(r, "note")
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || n > 127 {
		return 0, errors.Errorf("invalid note %q", raw)
	}
	return uint8(n), nil
}

func describeParam(p *param.Parameter) paramResponse {
	return paramResponse{
		ID:    p.ID,
		Name:  p.Name,
		Value: p.GetPlainValue(),
		Text:  p.String(),
		Unit:  p.Unit,
		Min:   p.Min,
		Max:   p.Max,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
