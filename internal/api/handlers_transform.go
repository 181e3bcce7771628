package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/dgallion1/pagecraft/internal/loader"
	"github.com/dgallion1/pagecraft/internal/results"
)

// formOverhead is allowed on top of MaxUploadBytes for multipart framing and
// the other fields.
const formOverhead = 1 << 20

type optionsRequest struct {
	AutoDetectNav *bool `json:"auto_detect_nav"`
	Prettify      *bool `json:"prettify"`
	UseFallback   *bool `json:"use_fallback"`
}

type transformRequest struct {
	Input       string          `json:"input"`
	Instruction string          `json:"instruction"`
	Options     *optionsRequest `json:"options"`
}

// errUploadTooLarge maps to 413.
var errUploadTooLarge = errors.New("upload too large")

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)

	var (
		req transformRequest
		src *loader.Source
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, src, err = s.readMultipart(r)
	} else {
		err = json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			err = fmt.Errorf("invalid json body: %w", err)
		}
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr), errors.Is(err, errUploadTooLarge):
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		default:
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	if n := utf8.RuneCountInString(req.Instruction); n > s.cfg.MaxInstructionChars {
		jsonError(w, fmt.Sprintf("instruction exceeds %d characters", s.cfg.MaxInstructionChars), http.StatusBadRequest)
		return
	}

	input := req.Input
	if src != nil {
		input = src.Text
	}
	opts := s.resolveOptions(req.Options)

	res, err := s.engine.Transform(r.Context(), input, req.Instruction, opts)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("transform failed", "error", err)
		jsonError(w, "transform failed", http.StatusInternalServerError)
		return
	}

	rec := results.NewRecord(res, input)
	if src != nil {
		rec.InputName = src.Filename
		rec.InputFormat = string(src.Format)
	}
	s.results.Put(rec)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"result_id":    rec.ID,
		"kind":         rec.Kind,
		"filename":     rec.Filename,
		"content_type": rec.ContentType,
		"source":       rec.Source,
		"operations":   rec.Operations.Names(),
		"headings":     rec.Headings,
		"output":       rec.Output,
		"download_url": fmt.Sprintf("/api/results/%s/download", rec.ID),
	})
}

// readMultipart reads the instruction, options, and either an uploaded file
// or pasted input. The file wins when both are sent.
func (s *Server) readMultipart(r *http.Request) (transformRequest, *loader.Source, error) {
	var req transformRequest
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return req, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	req.Input = r.FormValue("input")
	req.Instruction = r.FormValue("instruction")

	opts := &optionsRequest{}
	for field, dst := range map[string]**bool{
		"auto_detect_nav": &opts.AutoDetectNav,
		"prettify":        &opts.Prettify,
		"use_fallback":    &opts.UseFallback,
	} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, nil, fmt.Errorf("invalid %s: %q", field, v)
		}
		*dst = &b
	}
	req.Options = opts

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, fmt.Errorf("read file: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return req, nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return req, nil, errUploadTooLarge
	}

	src, err := loader.Load(data, filename)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupported) {
			return req, nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
		}
		return req, nil, err
	}
	return req, src, nil
}

// resolveOptions overlays request options on the configured defaults.
func (s *Server) resolveOptions(o *optionsRequest) engine.Options {
	opts := s.cfg.EngineOptions()
	if o == nil {
		return opts
	}
	if o.AutoDetectNav != nil {
		opts.AutoDetectNav = *o.AutoDetectNav
	}
	if o.Prettify != nil {
		opts.Prettify = *o.Prettify
	}
	if o.UseFallback != nil {
		opts.PreferExternalFallback = *o.UseFallback
	}
	return opts
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
