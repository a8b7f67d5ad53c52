package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rtsim/internal/sched"
	"rtsim/internal/store"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Policy    string `json:"policy"`
	Now       int64  `json:"now"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var resp healthResponse
	err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		resp.Policy = sim.Policy().Name()
		resp.Now = sim.Now()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp.Status = "healthy"
	resp.GoVersion = runtime.Version()
	resp.Uptime = time.Since(s.startTime).Round(time.Second).String()
	respondOK(w, RequestIDFromContext(r.Context()), resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap sched.Snapshot
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		snap = sim.Snapshot()
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), snap)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st sched.Stats
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		st = sim.Stats()
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), st)
}

// handleExport streams the task list as a downloadable file, outside the
// envelope.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = sched.FormatJSON
	}

	var entries []sched.ExportEntry
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		entries = sim.Export()
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := sched.EncodeExport(&buf, format, entries); err != nil {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest,
			&APIError{Code: ErrValidation, Message: err.Error(),
				Details: []FieldError{{Field: "format", Message: "must be json or yaml"}}})
		return
	}

	ext, ctype := "json", "application/json"
	if format != sched.FormatJSON {
		ext, ctype = "yaml", "application/yaml"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tasks.%s"`, ext))
	w.Write(buf.Bytes())
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var spec sched.TaskSpec
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			&APIError{Code: ErrValidation, Message: "invalid JSON body: " + err.Error()})
		return
	}

	var task sched.Task
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		var err error
		task, err = sim.AddTask(spec)
		return err
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	respondCreated(w, reqID, task)
}

// handleRemoveTask answers 204 whether or not the task existed.
func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest,
			&APIError{Code: ErrValidation, Message: "task id must be a non-negative integer",
				Details: []FieldError{{Field: "id", Message: err.Error()}}})
		return
	}
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		sim.RemoveTask(sched.TaskID(id))
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), sched.PresetNames())
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	specs, err := sched.Preset(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var snap sched.Snapshot
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		if err := sim.LoadPreset(specs); err != nil {
			return err
		}
		snap = sim.Snapshot()
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), snap)
}

// control runs fn and answers with the resulting snapshot.
func (s *Server) control(w http.ResponseWriter, r *http.Request, fn func(*sched.Simulator) error) {
	var snap sched.Snapshot
	if err := s.runner.Do(r.Context(), func(sim *sched.Simulator) error {
		if err := fn(sim); err != nil {
			return err
		}
		snap = sim.Snapshot()
		return nil
	}); err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(sim *sched.Simulator) error {
		sim.Reset()
		return nil
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(sim *sched.Simulator) error {
		sim.Pause()
		return nil
	})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(sim *sched.Simulator) error {
		sim.Resume()
		return nil
	})
}

// handleTick runs one manual step and returns what it did.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Step(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), res)
}

type speedRequest struct {
	Speed      int `json:"speed"`
	IntervalMS int `json:"interval_ms"`
}

// handleSpeed changes the trigger cadence. Zero fields are left unchanged.
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			&APIError{Code: ErrValidation, Message: "invalid JSON body: " + err.Error()})
		return
	}
	if req.Speed == 0 && req.IntervalMS == 0 {
		respondError(w, reqID, http.StatusBadRequest,
			&APIError{Code: ErrValidation, Message: "speed or interval_ms is required"})
		return
	}
	if req.Speed != 0 {
		if err := s.runner.SetSpeed(r.Context(), req.Speed); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if req.IntervalMS != 0 {
		if err := s.runner.SetInterval(r.Context(), time.Duration(req.IntervalMS)*time.Millisecond); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	respondOK(w, reqID, req)
}

type quantumRequest struct {
	Value int64 `json:"value"`
}

// handleQuantum sets the base quantum (adaptive) or the tick size (rm).
func (s *Server) handleQuantum(w http.ResponseWriter, r *http.Request) {
	var req quantumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest,
			&APIError{Code: ErrValidation, Message: "invalid JSON body: " + err.Error()})
		return
	}
	s.control(w, r, func(sim *sched.Simulator) error {
		if sim.Policy().Name() == sched.PolicyAdaptive {
			return sim.SetQuantumBase(req.Value)
		}
		return sim.SetTickSize(req.Value)
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	respondOK(w, RequestIDFromContext(r.Context()), runs)
}

type runDetail struct {
	Run     store.Run          `json:"run"`
	Results []store.TaskResult `json:"results"`
	Slots   []sched.Slot       `json:"slots"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	results, err := s.store.GetResults(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	slots, err := s.store.GetSlots(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), runDetail{Run: run, Results: results, Slots: slots})
}
