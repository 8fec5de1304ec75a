// Package web exposes the file operations over HTTP.
//
// Routes:
//
//	POST   /files          multipart upload, 201 with the manifest
//	GET    /files/{name}   raw bytes as an attachment
//	PUT    /files/{name}   multipart update of an existing file, 200
//	DELETE /files/{name}   204
//	GET    /chunks/{cid}   raw chunk bytes
//	GET    /healthz        store totals
//	GET    /metrics        prometheus registry
package web

import (
	"net/http"

	"github.com/chunkd/chunkd/pkg/core"
	"github.com/chunkd/chunkd/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server holds the handler dependencies.
type Server struct {
	engine *core.FileManager
	l      *zap.Logger
}

// ServerParams groups the dependencies of NewServer.
type ServerParams struct {
	Engine *core.FileManager
	Logger *zap.Logger
}

// NewServer creates the handler set backed by a file manager.
func NewServer(params ServerParams) (*Server, error) {
	if params.Engine == nil {
		return nil, errNoEngine
	}
	l := params.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{engine: params.Engine, l: l}, nil
}

// InitRouter builds the route table for a server.
func InitRouter(srv *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(srv.l))

	r.Post("/files", srv.HandleUploadFile())
	r.Get("/files/{name}", srv.HandleDownloadFile())
	r.Put("/files/{name}", srv.HandleUpdateFile())
	r.Delete("/files/{name}", srv.HandleDeleteFile())
	r.Get("/chunks/{cid}", srv.HandleDownloadChunk())

	r.Get("/healthz", srv.HandleHealth())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Info("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()))
		})
	}
}
