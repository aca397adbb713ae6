package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/internal/lesson"
	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// maxBodyBytes caps PUT bodies.
const maxBodyBytes = 1 << 20

// VariableInfo describes one variable over HTTP.
type VariableInfo struct {
	Name        string       `json:"name"`
	Declared    bool         `json:"declared"`
	Kind        string       `json:"kind,omitempty"`
	Label       string       `json:"label,omitempty"`
	Description string       `json:"description,omitempty"`
	Unit        string       `json:"unit,omitempty"`
	Min         *float64     `json:"min,omitempty"`
	Max         *float64     `json:"max,omitempty"`
	Step        *float64     `json:"step,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Schema      string       `json:"schema,omitempty"`
	Default     *value.Value `json:"default,omitempty"`
	Value       *value.Value `json:"value,omitempty"`
}

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func declaredInfo(name string, def registry.Definition) VariableInfo {
	d := def.Default
	return VariableInfo{
		Name:        name,
		Declared:    true,
		Kind:        string(def.Kind),
		Label:       def.Label,
		Description: def.Description,
		Unit:        def.Unit,
		Min:         def.Min,
		Max:         def.Max,
		Step:        def.Step,
		Options:     def.Options,
		Placeholder: def.Placeholder,
		Schema:      def.Schema,
		Default:     &d,
	}
}

// listVariables returns every declared variable in declaration order,
// followed by undeclared names that hold a value.
func (s *Server) listVariables(w http.ResponseWriter, r *http.Request) {
	reg := s.page.Registry()
	st := s.page.Store()
	snapshot := st.Snapshot()

	out := make([]VariableInfo, 0, len(snapshot)+reg.Len())
	for _, e := range reg.Entries() {
		info := declaredInfo(e.Name, e.Definition)
		if v, ok := snapshot[e.Name]; ok {
			info.Value = &v
		}
		out = append(out, info)
	}
	for _, name := range st.Names() {
		if reg.Has(name) {
			continue
		}
		v := snapshot[name]
		out = append(out, VariableInfo{Name: name, Value: &v})
	}

	writeJSON(w, http.StatusOK, map[string]any{"variables": out})
}

func (s *Server) getVariable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	reg := s.page.Registry()

	var info VariableInfo
	if def, ok := reg.DefinitionOf(name); ok {
		info = declaredInfo(name, def)
	} else {
		info = VariableInfo{Name: name}
	}

	v, ok := s.page.Store().Get(name)
	if !ok && !info.Declared {
		writeError(w, http.StatusNotFound, "", "variable "+name+" is neither declared nor set")
		return
	}
	if ok {
		info.Value = &v
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) putVariable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		e := errors.New("E402").WithVariable(name).Wrap(err)
		writeError(w, status, e.Code, e.Error())
		return
	}

	var v value.Value
	if err := json.Unmarshal(data, &v); err != nil {
		e := errors.New("E402").WithVariable(name).Wrap(err)
		writeError(w, http.StatusUnprocessableEntity, e.Code, e.Error())
		return
	}

	if err := s.page.Binder().SetVariable(r.Context(), name, v); err != nil {
		status := http.StatusUnprocessableEntity
		if !stderrors.Is(err, binding.ErrKindMismatch) {
			status = http.StatusInternalServerError
		}
		writeError(w, status, errors.Code(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lessonResponse is the lesson rendered for the current angle.
type lessonResponse struct {
	Angle  float64        `json:"angle"`
	Blocks []lesson.Block `json:"blocks"`
	Wave   []lesson.Point `json:"wave"`
}

func (s *Server) getLesson(w http.ResponseWriter, r *http.Request) {
	angle, ok := s.page.Binder().Read(lesson.SineAngle, value.Number(lesson.DefaultAngle)).AsNumber()
	if !ok {
		angle = lesson.DefaultAngle
	}
	writeJSON(w, http.StatusOK, lessonResponse{
		Angle:  angle,
		Blocks: lesson.Blocks(angle),
		Wave:   lesson.WaveCurve(s.opts.WaveSamples),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"variables":   s.page.Store().Len(),
		"connections": s.hub.Count(),
	})
}
