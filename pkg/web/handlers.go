package web

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/chunkd/chunkd/pkg/cas"
	"github.com/chunkd/chunkd/pkg/errors"
	"github.com/chunkd/chunkd/pkg/model"
	"github.com/chunkd/chunkd/pkg/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errNoEngine = errors.New("web: a file manager engine is required")

// maxUploadMemory bounds the part of a multipart body held in memory;
// larger uploads spill to temporary files.
const maxUploadMemory = 32 << 20

// manifestResponse is the JSON manifest shape returned by upload and
// update.
type manifestResponse struct {
	Filename    string   `json:"filename"`
	Size        uint64   `json:"size"`
	ContentType string   `json:"content_type"`
	CreatedAt   string   `json:"created_at"`
	ChunkCIDs   []string `json:"chunk_cids"`
}

func toManifestResponse(m model.FileMetadata) manifestResponse {
	return manifestResponse{
		Filename:    m.Filename,
		Size:        m.Size,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt,
		ChunkCIDs:   m.Chunks,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.l.Warn("writing response", zap.Error(err))
	}
}

// writeError maps the error taxonomy to status codes: not found 404,
// invalid input 400, everything else 500 with the detail in the body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidName):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.l.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// filePart extracts the uploaded file part and the effective content
// type from a multipart request.
func filePart(r *http.Request) (multipart.File, *multipart.FileHeader, string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, nil, "", fmt.Errorf("parsing multipart body: %v", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, "", fmt.Errorf("missing file part: %v", err)
	}
	contentType := r.FormValue("content_type")
	if contentType == "" {
		contentType = header.Header.Get("Content-Type")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, header, contentType, nil
}

// HandleUploadFile stores a new file from a multipart body. The file
// name defaults to the part's file name and may be overridden with a
// "filename" field.
func (s *Server) HandleUploadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, contentType, err := filePart(r)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		defer file.Close()

		name := r.FormValue("filename")
		if name == "" {
			name = header.Filename
		}

		metadata, err := s.engine.Upload(r.Context(), file, name, contentType)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, toManifestResponse(metadata))
	}
}

// HandleUpdateFile replaces the content of an existing file.
func (s *Server) HandleUpdateFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		file, _, contentType, err := filePart(r)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		defer file.Close()

		metadata, err := s.engine.Update(r.Context(), file, name, contentType)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toManifestResponse(metadata))
	}
}

// HandleDownloadFile serves the reassembled file bytes. The body is
// buffered before the first byte is written, so a missing chunk turns
// into a clean error response instead of a truncated download.
func (s *Server) HandleDownloadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		data, metadata, err := s.engine.Retrieve(r.Context(), name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", metadata.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", metadata.Filename))
		_, _ = w.Write(data)
	}
}

// HandleDeleteFile removes a file and garbage collects its chunks.
func (s *Server) HandleDeleteFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := s.engine.Delete(r.Context(), name); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDownloadChunk serves one raw chunk by its hex key.
func (s *Server) HandleDownloadChunk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cid := chi.URLParam(r, "cid")
		if _, err := cas.KeyFromString(cid); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		data, err := s.engine.RetrieveChunk(r.Context(), cid)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}
}

// HandleHealth reports liveness and current store totals.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.engine.Stats(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}
