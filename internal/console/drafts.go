package console

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/draft"
	"anycomp/internal/pkg/response"
)

// specialistForm is the content of the create form. It is sent together
// with isDraft=false in a single update.
type specialistForm struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required,min=10"`
	BasePrice    float64  `json:"basePrice" validate:"gte=0"`
	DurationDays int      `json:"durationDays" validate:"gte=1"`
	Slug         string   `json:"slug,omitempty"`
	ServiceIDs   []string `json:"serviceIds,omitempty"`
}

func (f specialistForm) update() domain.UpdateSpecialistRequest {
	req := domain.UpdateSpecialistRequest{
		Title:        &f.Title,
		Description:  &f.Description,
		BasePrice:    &f.BasePrice,
		DurationDays: &f.DurationDays,
		ServiceIDs:   f.ServiceIDs,
	}
	if f.Slug != "" {
		req.Slug = &f.Slug
	}
	return req
}

/* ---------- creation surface ---------- */

// OpenCreation opens the create form. The placeholder draft is created the
// first time only; reopening an open form returns its current state.
func (s *Server) OpenCreation(c *gin.Context) {
	s.mu.Lock()
	sess := s.creation
	if sess == nil || sess.Closed() {
		sess = draft.NewCreate(s.draftDeps(), s.opts)
		s.creation = sess
	}
	s.mu.Unlock()

	if _, err := sess.Ensure(background(c)); err != nil {
		s.log.Warn().Err(err).Msg("draft unavailable, uploads disabled")
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

func (s *Server) CreationSnapshot(c *gin.Context) {
	sess := s.openCreation()
	if sess == nil {
		response.Error(c, http.StatusNotFound, "NO_OPEN_DRAFT", "The create form is not open")
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// CloseCreation drops the create form without saving. Any server-side draft
// stays for the backend to clean up.
func (s *Server) CloseCreation(c *gin.Context) {
	s.mu.Lock()
	sess := s.creation
	s.creation = nil
	s.mu.Unlock()

	if sess != nil {
		sess.Abandon()
	}
	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

func (s *Server) AttachCreation(c *gin.Context) {
	sess := s.openCreation()
	if sess == nil {
		response.Error(c, http.StatusNotFound, "NO_OPEN_DRAFT", "The create form is not open")
		return
	}
	s.attach(c, sess)
}

func (s *Server) RetryCreation(c *gin.Context) {
	sess := s.openCreation()
	if sess == nil {
		response.Error(c, http.StatusNotFound, "NO_OPEN_DRAFT", "The create form is not open")
		return
	}
	s.retry(c, sess)
}

func (s *Server) SubmitCreation(c *gin.Context) {
	sess := s.openCreation()
	if sess == nil {
		response.Error(c, http.StatusNotFound, "NO_OPEN_DRAFT", "The create form is not open")
		return
	}

	var form specialistForm
	if !bind(c, &form) {
		return
	}

	sp, err := sess.Finalize(background(c), form.update())
	if err != nil {
		s.finalizeFailed(c, err)
		return
	}

	s.mu.Lock()
	if s.creation == sess {
		s.creation = nil
	}
	s.mu.Unlock()
	response.Success(c, http.StatusCreated, gin.H{"specialist": sp, "redirect": "/specialists/" + sp.ID})
}

func (s *Server) openCreation() *draft.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creation == nil || s.creation.Closed() {
		return nil
	}
	return s.creation
}

/* ---------- edit surface ---------- */

func (s *Server) EditSnapshot(c *gin.Context) {
	sess := s.editSession(c)
	response.Success(c, http.StatusOK, sess.Snapshot())
}

func (s *Server) AttachEdit(c *gin.Context) {
	s.attach(c, s.editSession(c))
}

func (s *Server) RetryEdit(c *gin.Context) {
	s.retry(c, s.editSession(c))
}

// SubmitEdit saves a partial update of an existing specialist. Like the
// create form it publishes the listing in the same request.
func (s *Server) SubmitEdit(c *gin.Context) {
	var form domain.UpdateSpecialistRequest
	if !bind(c, &form) {
		return
	}

	id := c.Param("id")
	sess := s.editSession(c)
	sp, err := sess.Finalize(background(c), form)
	if err != nil {
		s.finalizeFailed(c, err)
		return
	}
	s.dropEdit(id)
	response.Success(c, http.StatusOK, gin.H{"specialist": sp, "redirect": "/specialists/" + id})
}

func (s *Server) editSession(c *gin.Context) *draft.Session {
	id := c.Param("id")

	s.mu.Lock()
	sess, ok := s.edits[id]
	if !ok || sess.Closed() {
		sess = draft.NewEdit(s.draftDeps(), s.opts, id)
		s.edits[id] = sess
	}
	s.mu.Unlock()

	_, _ = sess.Ensure(background(c))
	return sess
}

func (s *Server) dropEdit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.edits[id]; ok {
		sess.Abandon()
		delete(s.edits, id)
	}
}

func (s *Server) abandonAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creation != nil {
		s.creation.Abandon()
		s.creation = nil
	}
	for id, sess := range s.edits {
		sess.Abandon()
		delete(s.edits, id)
	}
}

/* ---------- shared ---------- */

// attach reads the "files" parts of a multipart form and uploads them. The
// response lists rejected files next to the session snapshot.
func (s *Server) attach(c *gin.Context, sess *draft.Session) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Please correct the highlighted fields",
			map[string]string{"files": "at least one file is required"})
		return
	}

	files := make([]*draft.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
			return
		}
		files = append(files, f)
	}

	rejected, err := sess.Attach(background(c), files...)
	switch {
	case errors.Is(err, draft.ErrNoTarget), errors.Is(err, draft.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   gin.H{"code": "UPLOADS_DISABLED", "message": "Uploads are not available for this form"},
			"data":    sess.Snapshot(),
		})
		return
	case err != nil:
		s.fail(c, err, "Uploading images")
		return
	}

	if rejected == nil {
		rejected = []draft.Rejection{}
	}
	response.Success(c, http.StatusOK, gin.H{"rejected": rejected, "draft": sess.Snapshot()})
}

func (s *Server) retry(c *gin.Context, sess *draft.Session) {
	err := sess.Retry(background(c), c.Param("fileId"))
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, sess.Snapshot())
	case errors.Is(err, draft.ErrUnknownFile):
		response.Error(c, http.StatusNotFound, "UNKNOWN_FILE", "No such file in this form")
	case errors.Is(err, draft.ErrUploadInFlight), errors.Is(err, draft.ErrNotFailed),
		errors.Is(err, draft.ErrNoTarget), errors.Is(err, draft.ErrClosed):
		response.Error(c, http.StatusConflict, "RETRY_NOT_ALLOWED", err.Error())
	case apiclient.IsStatus(err, http.StatusUnauthorized), apiclient.IsStatus(err, http.StatusForbidden):
		s.fail(c, err, "Retrying upload")
	default:
		// the item is back in Failed with the new error
		response.Success(c, http.StatusOK, sess.Snapshot())
	}
}

func (s *Server) finalizeFailed(c *gin.Context, err error) {
	if errors.Is(err, draft.ErrNoTarget) || errors.Is(err, draft.ErrClosed) {
		response.Error(c, http.StatusConflict, "DRAFT_UNAVAILABLE", "This form can no longer be saved")
		return
	}
	s.fail(c, err, "Saving specialist")
}

// readPart loads one uploaded part. Anything past the size limit is cut off
// so validation still sees an oversized file without buffering all of it.
func readPart(fh *multipart.FileHeader) (*draft.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, draft.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return draft.FromBytes(fh.Filename, data), nil
}
