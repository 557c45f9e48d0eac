package console

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/go-querystring/query"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/pkg/response"
	"anycomp/internal/publish"
	"anycomp/internal/querycache"
)

func filtersFrom(c *gin.Context) domain.SpecialistFilters {
	f := domain.SpecialistFilters{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	if v, err := strconv.ParseBool(c.Query("isDraft")); err == nil {
		f.IsDraft = &v
	}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		f.MaxPrice = &v
	}
	return f
}

func (s *Server) ListSpecialists(c *gin.Context) {
	f := filtersFrom(c)
	v, err := query.Values(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FILTERS", "Invalid filters")
		return
	}

	key := querycache.Key(querycache.KeySpecialists, "list", v.Encode())
	page, err := querycache.Fetch(c.Request.Context(), s.cache, key, func(ctx context.Context) (domain.Page[domain.Specialist], error) {
		return s.client.Specialists.List(ctx, f)
	})
	if err != nil {
		s.fail(c, err, "Loading specialists")
		return
	}
	response.Paginated(c, http.StatusOK, page.Items, page.Pagination)
}

func (s *Server) GetSpecialist(c *gin.Context) {
	id := c.Param("id")
	sp, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.Key(querycache.KeySpecialists, id),
		func(ctx context.Context) (*domain.Specialist, error) {
			return s.client.Specialists.Get(ctx, id)
		})
	if err != nil {
		s.fail(c, err, "Loading specialist")
		return
	}
	response.Success(c, http.StatusOK, sp)
}

func (s *Server) ListMedia(c *gin.Context) {
	id := c.Param("id")
	media, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.Key(querycache.KeySpecialistMedia, id),
		func(ctx context.Context) ([]domain.Media, error) {
			return s.client.Media.ListBySpecialist(ctx, id)
		})
	if err != nil {
		s.fail(c, err, "Loading media")
		return
	}
	response.Success(c, http.StatusOK, media)
}

// Publish runs the publish gate. A listing without service offerings is an
// expected outcome and is answered with 422 and the edit path.
func (s *Server) Publish(c *gin.Context) {
	out := s.gate.Publish(c.Request.Context(), c.Param("id"))
	switch out.Status {
	case publish.Published:
		response.Success(c, http.StatusOK, out)
	case publish.NeedsServiceOffering:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   gin.H{"code": publish.CodeNoServiceOfferings, "message": out.Message},
			"data":    out,
		})
	default:
		var apiErr *apiclient.APIError
		if !errors.As(out.Err, &apiErr) || apiErr.Unauthorized() || apiErr.Status >= 500 {
			s.fail(c, out.Err, "Publishing")
			return
		}
		c.JSON(apiErr.Status, gin.H{
			"success": false,
			"error":   gin.H{"code": "PUBLISH_REJECTED", "message": out.Message},
			"data":    out,
		})
	}
}

// DeleteSpecialist needs ?confirm=true; the listing, its media and offering
// links are removed on the server.
func (s *Server) DeleteSpecialist(c *gin.Context) {
	if c.Query("confirm") != "true" {
		response.Error(c, http.StatusBadRequest, "CONFIRMATION_REQUIRED", "Deleting a specialist must be confirmed")
		return
	}

	id := c.Param("id")
	if err := s.client.Specialists.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err, "Deleting specialist")
		return
	}
	s.dropEdit(id)
	s.invalidate(c.Request.Context(), querycache.KeySpecialists, querycache.Key(querycache.KeySpecialistMedia, id))
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "redirect": "/specialists"})
}

func (s *Server) DeleteMedia(c *gin.Context) {
	if err := s.client.Media.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err, "Deleting image")
		return
	}
	s.invalidate(c.Request.Context(), querycache.KeySpecialistMedia, querycache.KeySpecialists)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type reorderForm struct {
	DisplayOrder *int `json:"displayOrder" validate:"required,gte=0"`
}

func (s *Server) ReorderMedia(c *gin.Context) {
	var form reorderForm
	if !bind(c, &form) {
		return
	}
	m, err := s.client.Media.Reorder(c.Request.Context(), c.Param("id"), *form.DisplayOrder)
	if err != nil {
		s.fail(c, err, "Reordering image")
		return
	}
	mediaKey := querycache.KeySpecialistMedia
	if m.SpecialistID != "" {
		mediaKey = querycache.Key(querycache.KeySpecialistMedia, m.SpecialistID)
	}
	s.invalidate(c.Request.Context(), mediaKey, querycache.KeySpecialists)
	response.Success(c, http.StatusOK, m)
}
