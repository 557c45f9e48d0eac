package mockapi

import (
	"context"
	"fmt"
	"mime/multipart"

	"anycomp/internal/domain"
)

// UploadMedia stores an image for a specialist. Without an explicit order the
// image goes after the last one; an explicit order must be unused.
func (s *Service) UploadMedia(ctx context.Context, actor Actor, specialistID string, fh *multipart.FileHeader, order *int) (*domain.Media, error) {
	sp, err := s.specialists.GetByID(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if !actor.canEdit(sp) {
		return nil, ErrForbidden
	}

	displayOrder, err := s.resolveOrder(ctx, specialistID, order, "")
	if err != nil {
		return nil, err
	}

	stored, err := s.storage.Save(specialistID, fh)
	if err != nil {
		return nil, err
	}

	m := &domain.Media{
		SpecialistID: specialistID,
		FileName:     stored.Name,
		FileSize:     stored.Size,
		MimeType:     stored.MimeType,
		URL:          stored.URL,
		DisplayOrder: displayOrder,
	}
	if err := s.media.Create(ctx, m, stored.Path); err != nil {
		s.storage.Remove(stored.Path)
		return nil, fmt.Errorf("save media record: %w", err)
	}

	s.log.Info().
		Str("specialist_id", specialistID).
		Str("media_id", m.ID).
		Int("display_order", displayOrder).
		Msg("media uploaded")
	return m, nil
}

func (s *Service) resolveOrder(ctx context.Context, specialistID string, order *int, exceptID string) (int, error) {
	if order == nil {
		return s.media.NextOrder(ctx, specialistID)
	}
	if *order < 0 {
		return 0, ErrInvalidOrder
	}
	taken, err := s.media.OrderTaken(ctx, specialistID, *order, exceptID)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrOrderTaken
	}
	return *order, nil
}

func (s *Service) ListMedia(ctx context.Context, specialistID string) ([]domain.Media, error) {
	if _, err := s.specialists.GetByID(ctx, specialistID); err != nil {
		return nil, err
	}
	return s.media.ListBySpecialist(ctx, specialistID)
}

func (s *Service) ReorderMedia(ctx context.Context, actor Actor, id string, order int) (*domain.Media, error) {
	m, _, err := s.media.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSpecialist(ctx, actor, m.SpecialistID); err != nil {
		return nil, err
	}
	if _, err := s.resolveOrder(ctx, m.SpecialistID, &order, id); err != nil {
		return nil, err
	}
	if err := s.media.UpdateOrder(ctx, id, order); err != nil {
		return nil, err
	}
	m.DisplayOrder = order
	return m, nil
}

func (s *Service) DeleteMedia(ctx context.Context, actor Actor, id string) error {
	m, path, err := s.media.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeSpecialist(ctx, actor, m.SpecialistID); err != nil {
		return err
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	s.storage.Remove(path)
	return nil
}

func (s *Service) authorizeSpecialist(ctx context.Context, actor Actor, specialistID string) error {
	sp, err := s.specialists.GetByID(ctx, specialistID)
	if err != nil {
		return err
	}
	if !actor.canEdit(sp) {
		return ErrForbidden
	}
	return nil
}
