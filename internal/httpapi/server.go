// Package httpapi is the minimal gin-based HTTP surface wrapping
// model.Generate. spec.md names an HTTP surface out of scope for the core
// engine; SPEC_FULL.md §3 still carries one as ambient dressing, grounded
// on the teacher's server package (Server holding a loaded model, gin
// routes, streamResponse ndjson helper) but trimmed to the one operation
// this repo actually implements: streaming token generation. Tokenization
// is out of scope too, so requests and responses carry token ids, not text.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/model"
	"github.com/ollamacore/llamacore/session"
)

// Server wraps one loaded model and the pool bounding concurrent
// generations over it.
type Server[T kernel.Weight] struct {
	pool *session.Pool[T]
}

// New builds a Server over an already-loaded model and pool.
func New[T kernel.Weight](pool *session.Pool[T]) *Server[T] {
	return &Server[T]{pool: pool}
}

// Routes registers this server's handlers on r.
func (s *Server[T]) Routes(r *gin.Engine) {
	r.POST("/api/generate", s.GenerateHandler)
}

// generateRequest is the request body for /api/generate: a prompt already
// expressed as token ids (no tokenizer is implemented by this repo) plus
// sampling knobs. Profile, if set, overrides TopP/TopK/Temperature with a
// named preset (model.StoryProfile, model.ChatProfile).
type generateRequest struct {
	Ids         []uint32 `json:"ids" binding:"required"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Profile     string   `json:"profile"`
	TopP        float32  `json:"top_p"`
	TopK        int      `json:"top_k"`
	Temperature float32  `json:"temperature"`
}

type generateChunk struct {
	Token uint32 `json:"token"`
	Done  bool   `json:"done"`
}

// GenerateHandler streams one token id per ndjson line, mirroring the
// teacher's streamResponse helper for /api/generate.
func (s *Server[T]) GenerateHandler(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := resolveParams(req)
	maxNew := req.MaxNewTokens
	if maxNew <= 0 {
		maxNew = 256
	}

	ch := make(chan any, 1)
	go func() {
		defer close(ch)
		out, err := s.pool.Generate(c.Request.Context(), req.Ids, maxNew, params)
		if err != nil {
			ch <- gin.H{"error": err.Error(), "status": http.StatusInternalServerError}
			return
		}
		for _, tok := range out {
			ch <- generateChunk{Token: tok}
		}
		ch <- generateChunk{Done: true}
	}()

	streamResponse(c, ch)
}

func resolveParams(req generateRequest) model.SampleParams {
	switch req.Profile {
	case model.StoryProfile.Name:
		return model.StoryProfile.Params
	case model.ChatProfile.Name:
		return model.ChatProfile.Params
	}
	return model.SampleParams{TopP: req.TopP, TopK: req.TopK, Temperature: req.Temperature}
}

// streamResponse is the teacher's ndjson streaming helper
// (server/routes_misc.go), trimmed to this package's single error shape.
func streamResponse(c *gin.Context, ch chan any) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Stream(func(w io.Writer) bool {
		val, ok := <-ch
		if !ok {
			return false
		}

		if h, ok := val.(gin.H); ok {
			if e, ok := h["error"].(string); ok {
				status, _ := h["status"].(int)
				if status == 0 {
					status = http.StatusInternalServerError
				}
				if !c.Writer.Written() {
					c.JSON(status, gin.H{"error": e})
				} else if err := json.NewEncoder(c.Writer).Encode(gin.H{"error": e}); err != nil {
					slog.Error("httpapi: failed to encode streamed error", "error", err)
				}
				return false
			}
		}

		bts, err := json.Marshal(val)
		if err != nil {
			slog.Error("httpapi: failed to marshal streamed chunk", "error", err)
			return false
		}
		bts = append(bts, '\n')
		if _, err := w.Write(bts); err != nil {
			slog.Error("httpapi: failed to write streamed chunk", "error", err)
			return false
		}
		return true
	})
}
