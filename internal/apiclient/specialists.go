package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"

	"anycomp/internal/domain"
)

type SpecialistService struct {
	client *Client
}

func (s *SpecialistService) List(ctx context.Context, f domain.SpecialistFilters) (domain.Page[domain.Specialist], error) {
	v, err := query.Values(f)
	if err != nil {
		return domain.Page[domain.Specialist]{}, fmt.Errorf("encode specialist filters: %w", err)
	}
	path := "specialists"
	if qs := v.Encode(); qs != "" {
		path += "?" + qs
	}
	return list[domain.Specialist](ctx, s.client, path)
}

func (s *SpecialistService) Get(ctx context.Context, id string) (*domain.Specialist, error) {
	var out domain.Specialist
	if err := s.client.call(ctx, http.MethodGet, "specialists/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SpecialistService) Create(ctx context.Context, req domain.CreateSpecialistRequest) (*domain.Specialist, error) {
	var out domain.Specialist
	if err := s.client.call(ctx, http.MethodPost, "specialists", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SpecialistService) Update(ctx context.Context, id string, req domain.UpdateSpecialistRequest) (*domain.Specialist, error) {
	var out domain.Specialist
	if err := s.client.call(ctx, http.MethodPatch, "specialists/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Publish moves a draft to published. The server rejects specialists
// without service offerings.
func (s *SpecialistService) Publish(ctx context.Context, id string) (*domain.Specialist, error) {
	var out domain.Specialist
	if err := s.client.call(ctx, http.MethodPatch, "specialists/"+url.PathEscape(id)+"/publish", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SpecialistService) Delete(ctx context.Context, id string) error {
	return s.client.call(ctx, http.MethodDelete, "specialists/"+url.PathEscape(id), nil, nil)
}
