package console

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"anycomp/internal/domain"
	"anycomp/internal/pkg/response"
	"anycomp/internal/querycache"
)

/* ---------- service offerings ---------- */

func (s *Server) ListOfferings(c *gin.Context) {
	items, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.KeyServiceOfferings,
		func(ctx context.Context) ([]domain.ServiceOffering, error) {
			return s.client.ServiceOfferings.List(ctx)
		})
	if err != nil {
		s.fail(c, err, "Loading service offerings")
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (s *Server) GetOffering(c *gin.Context) {
	id := c.Param("id")
	o, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.Key(querycache.KeyServiceOfferings, id),
		func(ctx context.Context) (*domain.ServiceOffering, error) {
			return s.client.ServiceOfferings.Get(ctx, id)
		})
	if err != nil {
		s.fail(c, err, "Loading service offering")
		return
	}
	response.Success(c, http.StatusOK, o)
}

func (s *Server) CreateOffering(c *gin.Context) {
	var form domain.ServiceOfferingRequest
	if !bind(c, &form) {
		return
	}
	o, err := s.client.ServiceOfferings.Create(c.Request.Context(), form)
	if err != nil {
		s.fail(c, err, "Creating service offering")
		return
	}
	s.offeringsChanged(c.Request.Context())
	response.Success(c, http.StatusCreated, o)
}

func (s *Server) UpdateOffering(c *gin.Context) {
	var form domain.ServiceOfferingRequest
	if !bind(c, &form) {
		return
	}
	o, err := s.client.ServiceOfferings.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		s.fail(c, err, "Updating service offering")
		return
	}
	s.offeringsChanged(c.Request.Context())
	response.Success(c, http.StatusOK, o)
}

func (s *Server) DeleteOffering(c *gin.Context) {
	if err := s.client.ServiceOfferings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err, "Deleting service offering")
		return
	}
	s.offeringsChanged(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// offeringsChanged drops cached offerings and the specialists that embed
// them.
func (s *Server) offeringsChanged(ctx context.Context) {
	s.invalidate(ctx, querycache.KeyServiceOfferings, querycache.KeySpecialists)
}

/* ---------- platform fees ---------- */

func (s *Server) ListFees(c *gin.Context) {
	items, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.KeyPlatformFees,
		func(ctx context.Context) ([]domain.PlatformFee, error) {
			return s.client.PlatformFees.List(ctx)
		})
	if err != nil {
		s.fail(c, err, "Loading platform fees")
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (s *Server) GetFee(c *gin.Context) {
	id := c.Param("id")
	f, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.Key(querycache.KeyPlatformFees, id),
		func(ctx context.Context) (*domain.PlatformFee, error) {
			return s.client.PlatformFees.Get(ctx, id)
		})
	if err != nil {
		s.fail(c, err, "Loading platform fee")
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (s *Server) CreateFee(c *gin.Context) {
	var form domain.PlatformFeeRequest
	if !bind(c, &form) {
		return
	}
	f, err := s.client.PlatformFees.Create(c.Request.Context(), form)
	if err != nil {
		s.fail(c, err, "Creating platform fee")
		return
	}
	s.feesChanged(c.Request.Context())
	response.Success(c, http.StatusCreated, f)
}

func (s *Server) UpdateFee(c *gin.Context) {
	var form domain.PlatformFeeRequest
	if !bind(c, &form) {
		return
	}
	f, err := s.client.PlatformFees.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		s.fail(c, err, "Updating platform fee")
		return
	}
	s.feesChanged(c.Request.Context())
	response.Success(c, http.StatusOK, f)
}

func (s *Server) DeleteFee(c *gin.Context) {
	if err := s.client.PlatformFees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err, "Deleting platform fee")
		return
	}
	s.feesChanged(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// feesChanged also drops specialists: the server reprices them.
func (s *Server) feesChanged(ctx context.Context) {
	s.invalidate(ctx, querycache.KeyPlatformFees, querycache.KeySpecialists)
}

/* ---------- users ---------- */

func (s *Server) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	key := querycache.Key(querycache.KeyUsers, strconv.Itoa(page), strconv.Itoa(limit))
	res, err := querycache.Fetch(c.Request.Context(), s.cache, key, func(ctx context.Context) (domain.Page[domain.User], error) {
		return s.client.Users.List(ctx, page, limit)
	})
	if err != nil {
		s.fail(c, err, "Loading users")
		return
	}
	response.Paginated(c, http.StatusOK, res.Items, res.Pagination)
}

func (s *Server) GetUser(c *gin.Context) {
	id := c.Param("id")
	u, err := querycache.Fetch(c.Request.Context(), s.cache, querycache.Key(querycache.KeyUsers, "id", id),
		func(ctx context.Context) (*domain.User, error) {
			return s.client.Users.Get(ctx, id)
		})
	if err != nil {
		s.fail(c, err, "Loading user")
		return
	}
	response.Success(c, http.StatusOK, u)
}

func (s *Server) DeleteUser(c *gin.Context) {
	if err := s.client.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err, "Deleting user")
		return
	}
	s.invalidate(c.Request.Context(), querycache.KeyUsers)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
