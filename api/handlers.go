package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/generator"
	"github.com/quipworks/quips/pkg/inference"
	"github.com/quipworks/quips/pkg/quip"
	"github.com/quipworks/quips/pkg/store"
)

const quipsPerPage = 20

// GenerateResponse is the payload for a freshly generated quip.
type GenerateResponse struct {
	ID   string `json:"id"`
	Quip string `json:"quip"`
}

// ListResponse is the paginated listing payload.
type ListResponse struct {
	Quips      []quip.Record `json:"quips"`
	Count      int           `json:"count"`
	TotalAll   int           `json:"total_all"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Style      string        `json:"style,omitempty"`
}

// ShareResponse reports the result of a synchronous remote push.
type ShareResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGenerate produces one new quip. Failure taxonomy: no live
// deployment and retry exhaustion are both "try again later" conditions
// for the caller, with distinct messages.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	rec, err := s.gen.GenerateOne(c.Context())
	if err != nil {
		switch {
		case errors.Is(err, inference.ErrNoActiveDeployment):
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no active model deployment"})
		case errors.Is(err, generator.ErrExhausted):
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "generation exhausted, try again"})
		default:
			s.logger.Error("generate failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "generation failed"})
		}
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(GenerateResponse{ID: rec.ID, Quip: rec.Text})
}

// handleListQuips returns a page of records from the cache snapshot,
// optionally filtered by style.
func (s *Server) handleListQuips(c *fiber.Ctx) error {
	all, err := s.snapshots.Snapshot(c.Context())
	if err != nil {
		s.logger.Error("snapshot failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list quips"})
	}

	style := c.Query("style")
	filtered := all
	if style != "" && s.crp.HasStyle(style) {
		filtered = make([]quip.Record, 0, len(all))
		for _, rec := range all {
			if rec.Style == style {
				filtered = append(filtered, rec)
			}
		}
	} else {
		style = ""
	}

	total := len(filtered)
	totalPages := (total + quipsPerPage - 1) / quipsPerPage
	if totalPages == 0 {
		totalPages = 1
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * quipsPerPage
	end := min(start+quipsPerPage, total)

	return c.JSON(ListResponse{
		Quips:      filtered[start:end],
		Count:      total,
		TotalAll:   len(all),
		Page:       page,
		TotalPages: totalPages,
		Style:      style,
	})
}

// handleGetQuip returns a single record by ID. When the local copy is gone
// (a restart wiped local storage) it falls back to the remote durable store.
func (s *Server) handleGetQuip(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	rec, err := s.storer.Get(c.Context(), id)
	if err != nil {
		var notFound store.NotFoundError
		if !errors.As(err, &notFound) {
			s.logger.Error("record lookup failed", zap.String("id", id), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "lookup failed"})
		}

		rec, err = s.fetchRemote(c, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "quip not found"})
		}
	}

	return c.JSON(rec)
}

// handleStyles enumerates the known generation styles.
func (s *Server) handleStyles(c *fiber.Ctx) error {
	return c.JSON(map[string]any{"styles": s.crp.Styles()})
}

// handleShare pushes one record to the remote durable store synchronously.
// Unlike the background pusher, the caller asked for durability and gets
// the outcome.
func (s *Server) handleShare(c *fiber.Ctx) error {
	if s.remote == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "remote store not configured"})
	}

	id := c.Params("id")
	rec, err := s.storer.Get(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "quip not found"})
	}

	if err := s.remote.Put(c.Context(), rec.Filename(), rec.MarshalMarkdown()); err != nil {
		s.logger.Warn("share push failed", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "remote store error"})
	}

	return c.JSON(ShareResponse{OK: true, ID: id})
}

func (s *Server) fetchRemote(c *fiber.Ctx, id string) (quip.Record, error) {
	if s.remote == nil {
		return quip.Record{}, store.NotFoundError{ID: id}
	}

	data, err := s.remote.Get(c.Context(), id+".md")
	if err != nil {
		return quip.Record{}, err
	}
	return quip.ParseMarkdown(id, data)
}
