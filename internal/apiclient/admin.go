package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"anycomp/internal/domain"
)

type ServiceOfferingService struct {
	client *Client
}

func (s *ServiceOfferingService) List(ctx context.Context) ([]domain.ServiceOffering, error) {
	page, err := list[domain.ServiceOffering](ctx, s.client, "service-offerings")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *ServiceOfferingService) Get(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	var out domain.ServiceOffering
	if err := s.client.call(ctx, http.MethodGet, "service-offerings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ServiceOfferingService) Create(ctx context.Context, req domain.ServiceOfferingRequest) (*domain.ServiceOffering, error) {
	var out domain.ServiceOffering
	if err := s.client.call(ctx, http.MethodPost, "service-offerings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ServiceOfferingService) Update(ctx context.Context, id string, req domain.ServiceOfferingRequest) (*domain.ServiceOffering, error) {
	var out domain.ServiceOffering
	if err := s.client.call(ctx, http.MethodPatch, "service-offerings/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ServiceOfferingService) Delete(ctx context.Context, id string) error {
	return s.client.call(ctx, http.MethodDelete, "service-offerings/"+url.PathEscape(id), nil, nil)
}

type PlatformFeeService struct {
	client *Client
}

func (s *PlatformFeeService) List(ctx context.Context) ([]domain.PlatformFee, error) {
	page, err := list[domain.PlatformFee](ctx, s.client, "platform-fees")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *PlatformFeeService) Get(ctx context.Context, id string) (*domain.PlatformFee, error) {
	var out domain.PlatformFee
	if err := s.client.call(ctx, http.MethodGet, "platform-fees/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PlatformFeeService) Create(ctx context.Context, req domain.PlatformFeeRequest) (*domain.PlatformFee, error) {
	var out domain.PlatformFee
	if err := s.client.call(ctx, http.MethodPost, "platform-fees", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PlatformFeeService) Update(ctx context.Context, id string, req domain.PlatformFeeRequest) (*domain.PlatformFee, error) {
	var out domain.PlatformFee
	if err := s.client.call(ctx, http.MethodPatch, "platform-fees/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PlatformFeeService) Delete(ctx context.Context, id string) error {
	return s.client.call(ctx, http.MethodDelete, "platform-fees/"+url.PathEscape(id), nil, nil)
}

type UserService struct {
	client *Client
}

func (s *UserService) List(ctx context.Context, page, limit int) (domain.Page[domain.User], error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return list[domain.User](ctx, s.client, fmt.Sprintf("users?page=%d&limit=%d", page, limit))
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	if err := s.client.call(ctx, http.MethodGet, "users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.client.call(ctx, http.MethodDelete, "users/"+url.PathEscape(id), nil, nil)
}
