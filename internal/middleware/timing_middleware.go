package middleware

import (
	"strconv"
	"time"

	"github.com/esiagate/esiagate/internal/config"

	"github.com/gin-gonic/gin"
)

type TimingMiddleware struct{}

func NewTimingMiddleware() *TimingMiddleware {
	return &TimingMiddleware{}
}

func (m *TimingMiddleware) Init() error {
	return nil
}

// Middleware sets the processing time header, in seconds, right before the headers are flushed
func (m *TimingMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		writer := &timingWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Writer = writer
		c.Next()

		if !writer.Written() {
			writer.stamp()
		}
	}
}

type timingWriter struct {
	gin.ResponseWriter
	start   time.Time
	written bool
}

func (w *timingWriter) stamp() {
	if w.written {
		return
	}
	w.written = true
	elapsed := time.Since(w.start).Seconds()
	w.ResponseWriter.Header().Set(config.ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', 6, 64))
}

func (w *timingWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timingWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *timingWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

func (w *timingWriter) Flush() {
	w.stamp()
	w.ResponseWriter.Flush()
}
