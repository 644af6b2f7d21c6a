// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeranaias/chatvault/internal/model"
	"github.com/jeranaias/chatvault/internal/storage"
)

// ============================================================================
// RESPONSE TYPES
// ============================================================================

// ChatsResponse is the body of GET /api/chats.
type ChatsResponse struct {
	Chats  []model.Record `json:"chats"`
	Source string         `json:"source"`
	Error  string         `json:"error,omitempty"`
}

// SaveResponse summarizes a SaveReport.
type SaveResponse struct {
	OK         bool   `json:"ok"`
	Queued     bool   `json:"queued,omitempty"`
	Chats      int    `json:"chats"`
	Summarized int    `json:"summarized"`
	Truncated  int    `json:"truncated"`
	Fast       string `json:"fast,omitempty"`
	Durable    string `json:"durable,omitempty"`
	Fallback   string `json:"fallback,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newSaveResponse(r storage.SaveReport) SaveResponse {
	resp := SaveResponse{
		OK:         r.OK(),
		Chats:      r.Chats,
		Summarized: r.Summarized(),
		Truncated:  r.Truncated(),
		Fast:       r.Fast.String(),
		Durable:    r.Durable.String(),
	}
	if r.Fallback != nil {
		resp.Fallback = r.Fallback.String()
	}
	if err := r.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "pending": s.saver.Pending()})
}

// loadRecords flushes queued saves so reads observe the latest PUT.
func (s *Server) loadRecords(c *gin.Context) ([]*model.Chat, storage.LoadReport, bool) {
	if err := s.saver.Flush(c.Request.Context()); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, "flush: "+err.Error())
		return nil, storage.LoadReport{}, false
	}
	chats, report := s.store.Load(c.Request.Context())
	return chats, report, true
}

func (s *Server) handleList(c *gin.Context) {
	chats, report, ok := s.loadRecords(c)
	if !ok {
		return
	}
	recs, err := model.Records(chats)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ChatsResponse{Chats: recs, Source: string(report.Source)}
	if err := report.Err(); err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGet(c *gin.Context) {
	chats, _, ok := s.loadRecords(c)
	if !ok {
		return
	}
	id := c.Param("id")
	for _, chat := range chats {
		if chat.ID != id {
			continue
		}
		rec, err := chat.Record()
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, rec)
		return
	}
	errorJSON(c, http.StatusNotFound, "chat not found: "+id)
}

func (s *Server) handleSave(c *gin.Context) {
	var recs []model.Record
	if err := c.ShouldBindJSON(&recs); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorJSON(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		errorJSON(c, http.StatusBadRequest, "body must be a JSON array of chats")
		return
	}
	chats, err := model.FromRecords(recs)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	if c.Query("sync") == "true" {
		if err := s.saver.Flush(c.Request.Context()); err != nil {
			errorJSON(c, http.StatusServiceUnavailable, "flush: "+err.Error())
			return
		}
		report := s.store.Save(c.Request.Context(), chats)
		status := http.StatusOK
		if !report.OK() {
			status = http.StatusInternalServerError
		}
		c.JSON(status, newSaveResponse(report))
		return
	}

	if err := s.saver.Enqueue(chats); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, SaveResponse{OK: true, Queued: true, Chats: len(chats)})
}

func (s *Server) handleFlush(c *gin.Context) {
	if err := s.saver.Flush(c.Request.Context()); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.saver.Flush(c.Request.Context()); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, "flush: "+err.Error())
		return
	}
	id := c.Param("id")
	report, found := s.store.Delete(c.Request.Context(), id)
	if !found {
		errorJSON(c, http.StatusNotFound, "chat not found: "+id)
		return
	}
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusInternalServerError
	}
	c.JSON(status, newSaveResponse(report))
}

func (s *Server) handleClear(c *gin.Context) {
	if err := s.saver.Flush(c.Request.Context()); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, "flush: "+err.Error())
		return
	}
	report := s.store.Clear(c.Request.Context())
	if !report.OK() {
		errorJSON(c, http.StatusInternalServerError, report.Err().Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleStats(c *gin.Context) {
	if err := s.saver.Flush(c.Request.Context()); err != nil {
		errorJSON(c, http.StatusServiceUnavailable, "flush: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, s.store.Stats(c.Request.Context()).Format())
}
