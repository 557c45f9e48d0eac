package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"anycomp/internal/domain"
)

type MediaService struct {
	client *Client
}

// UploadFile is one file part of a media upload.
type UploadFile struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Upload posts a multipart form with file, specialistId and, when set,
// displayOrder.
func (s *MediaService) Upload(ctx context.Context, specialistID string, file UploadFile, displayOrder *int) (*domain.Media, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("copy %s: %w", file.Name, err)
	}
	if err := w.WriteField("specialistId", specialistID); err != nil {
		return nil, err
	}
	if displayOrder != nil {
		if err := w.WriteField("displayOrder", strconv.Itoa(*displayOrder)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.resolve("media/upload"), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	env, err := s.client.do(req)
	if err != nil {
		return nil, err
	}
	var out domain.Media
	if err := decodeData(env, &out); err != nil {
		return nil, fmt.Errorf("decode uploaded media: %w", err)
	}
	return &out, nil
}

func (s *MediaService) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Media, error) {
	var out []domain.Media
	if err := s.client.call(ctx, http.MethodGet, "media/specialist/"+url.PathEscape(specialistID), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Media{}
	}
	return out, nil
}

func (s *MediaService) Delete(ctx context.Context, id string) error {
	return s.client.call(ctx, http.MethodDelete, "media/"+url.PathEscape(id), nil, nil)
}

func (s *MediaService) Reorder(ctx context.Context, id string, displayOrder int) (*domain.Media, error) {
	var out domain.Media
	body := map[string]int{"displayOrder": displayOrder}
	if err := s.client.call(ctx, http.MethodPatch, "media/"+url.PathEscape(id)+"/reorder", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
