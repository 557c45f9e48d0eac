package mockapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"anycomp/internal/domain"
	"anycomp/internal/middleware"
	"anycomp/internal/pkg/response"
	"anycomp/internal/pkg/validator"
	"anycomp/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetString(middleware.ContextUserID),
		Role:   domain.UserRole(c.GetString(middleware.ContextRole)),
	}
}

// bind decodes the JSON body into req and runs struct validation. It writes
// the error response itself and reports whether the handler may continue.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if fields := validator.Validate(req); fields != nil {
		validationError(c, fields)
		return false
	}
	return true
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

/* ---------- auth ---------- */

func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if !bind(c, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if !bind(c, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

/* ---------- specialists ---------- */

func (h *Handler) ListSpecialists(c *gin.Context) {
	page, limit := pageParams(c)
	f := repository.ListFilter{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if v, err := strconv.ParseBool(c.Query("isDraft")); err == nil {
		f.IsDraft = &v
	}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		f.MaxPrice = &v
	}

	items, total, err := h.service.ListSpecialists(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, domain.NewPagination(page, limit, int(total)))
}

func (h *Handler) GetSpecialist(c *gin.Context) {
	sp, err := h.service.GetSpecialist(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sp)
}

func (h *Handler) CreateSpecialist(c *gin.Context) {
	var req domain.CreateSpecialistRequest
	if !bind(c, &req) {
		return
	}
	sp, err := h.service.CreateSpecialist(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sp)
}

func (h *Handler) UpdateSpecialist(c *gin.Context) {
	var req domain.UpdateSpecialistRequest
	if !bind(c, &req) {
		return
	}
	sp, err := h.service.UpdateSpecialist(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sp)
}

func (h *Handler) PublishSpecialist(c *gin.Context) {
	sp, err := h.service.PublishSpecialist(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sp)
}

func (h *Handler) DeleteSpecialist(c *gin.Context) {
	if err := h.service.DeleteSpecialist(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

/* ---------- media ---------- */

func (h *Handler) UploadMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxFileSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}
	specialistID := c.PostForm("specialistId")
	if specialistID == "" {
		validationError(c, map[string]string{"specialistId": "specialistId is required"})
		return
	}

	var order *int
	if raw := c.PostForm("displayOrder"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			validationError(c, map[string]string{"displayOrder": "must be a whole number"})
			return
		}
		order = &v
	}

	m, err := h.service.UploadMedia(c.Request.Context(), actorFrom(c), specialistID, fh, order)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) ListMedia(c *gin.Context) {
	items, err := h.service.ListMedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) ReorderMedia(c *gin.Context) {
	var req struct {
		DisplayOrder *int `json:"displayOrder" validate:"required"`
	}
	if !bind(c, &req) {
		return
	}
	m, err := h.service.ReorderMedia(c.Request.Context(), actorFrom(c), c.Param("id"), *req.DisplayOrder)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

func (h *Handler) DeleteMedia(c *gin.Context) {
	if err := h.service.DeleteMedia(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

/* ---------- catalog ---------- */

func (h *Handler) ListOfferings(c *gin.Context) {
	items, err := h.service.ListOfferings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, domain.NewPagination(1, len(items), len(items)))
}

func (h *Handler) GetOffering(c *gin.Context) {
	o, err := h.service.GetOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

func (h *Handler) CreateOffering(c *gin.Context) {
	var req domain.ServiceOfferingRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.service.CreateOffering(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, o)
}

func (h *Handler) UpdateOffering(c *gin.Context) {
	var req domain.ServiceOfferingRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.service.UpdateOffering(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

func (h *Handler) DeleteOffering(c *gin.Context) {
	if err := h.service.DeleteOffering(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ListFees(c *gin.Context) {
	items, err := h.service.ListFees(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, domain.NewPagination(1, len(items), len(items)))
}

func (h *Handler) GetFee(c *gin.Context) {
	f, err := h.service.GetFee(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) CreateFee(c *gin.Context) {
	h.saveFee(c, "", http.StatusCreated)
}

func (h *Handler) UpdateFee(c *gin.Context) {
	h.saveFee(c, c.Param("id"), http.StatusOK)
}

func (h *Handler) saveFee(c *gin.Context, id string, status int) {
	var req domain.PlatformFeeRequest
	if !bind(c, &req) {
		return
	}
	f, err := h.service.SaveFee(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, status, f)
}

func (h *Handler) DeleteFee(c *gin.Context) {
	if err := h.service.DeleteFee(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

/* ---------- users ---------- */

func (h *Handler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := h.service.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, users, domain.NewPagination(page, limit, int(total)))
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
