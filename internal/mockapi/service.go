package mockapi

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"anycomp/internal/domain"
	"anycomp/internal/pkg/jwt"
	"anycomp/internal/repository"
)

// Service is the business layer of the reference backend.
type Service struct {
	users       *repository.UserRepository
	specialists *repository.SpecialistRepository
	media       *repository.MediaRepository
	offerings   *repository.OfferingRepository
	fees        *repository.PlatformFeeRepository
	jwt         *jwt.Service
	storage     *Storage
	log         zerolog.Logger
}

func NewService(db *gorm.DB, jwtSvc *jwt.Service, storage *Storage, log zerolog.Logger) *Service {
	return &Service{
		users:       repository.NewUserRepository(db),
		specialists: repository.NewSpecialistRepository(db),
		media:       repository.NewMediaRepository(db),
		offerings:   repository.NewOfferingRepository(db),
		fees:        repository.NewPlatformFeeRepository(db),
		jwt:         jwtSvc,
		storage:     storage,
		log:         log,
	}
}

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   domain.UserRole
}

func (a Actor) canEdit(s *domain.Specialist) bool {
	return a.Role == domain.RoleAdmin || (a.UserID != "" && a.UserID == s.OwnerID)
}

// --- auth ---

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	role := req.Role
	if role == "" {
		role = domain.RoleClient
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Email: req.Email, Role: role}
	if err := s.users.Create(ctx, u, string(hash)); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	if req.Email == "" && req.Username == "" {
		return nil, ErrInvalidCredentials
	}
	u, hash, err := s.users.GetCredentials(ctx, req.Email, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *Service) issue(u *domain.User) (*domain.AuthResult, error) {
	token, err := s.jwt.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: u, Token: token}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// --- specialists ---

func (s *Service) ListSpecialists(ctx context.Context, f repository.ListFilter) ([]domain.Specialist, int64, error) {
	return s.specialists.List(ctx, f)
}

func (s *Service) GetSpecialist(ctx context.Context, id string) (*domain.Specialist, error) {
	return s.specialists.GetByID(ctx, id)
}

func (s *Service) CreateSpecialist(ctx context.Context, actor Actor, req domain.CreateSpecialistRequest) (*domain.Specialist, error) {
	if !req.IsDraft && len(req.ServiceIDs) == 0 {
		return nil, ErrNoServiceOfferings
	}
	fee, final, err := s.price(ctx, req.BasePrice)
	if err != nil {
		return nil, err
	}

	sp := &domain.Specialist{
		OwnerID:            actor.UserID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Slug:               strings.TrimSpace(req.Slug),
		BasePrice:          req.BasePrice,
		PlatformFee:        fee,
		FinalPrice:         final,
		Currency:           "MYR",
		DurationDays:       req.DurationDays,
		IsDraft:            req.IsDraft,
		VerificationStatus: domain.VerificationPending,
	}
	if err := s.specialists.Create(ctx, sp, req.ServiceIDs); err != nil {
		return nil, s.uniqueErr(err)
	}
	s.log.Info().Str("specialist_id", sp.ID).Bool("draft", sp.IsDraft).Msg("specialist created")
	return sp, nil
}

// UpdateSpecialist applies a partial update. Leaving draft state through an
// update is subject to the same offering rule as Publish.
func (s *Service) UpdateSpecialist(ctx context.Context, actor Actor, id string, req domain.UpdateSpecialistRequest) (*domain.Specialist, error) {
	sp, err := s.specialists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canEdit(sp) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		sp.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		sp.Description = *req.Description
	}
	if req.DurationDays != nil {
		sp.DurationDays = *req.DurationDays
	}
	if req.Slug != nil {
		sp.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.BasePrice != nil {
		sp.BasePrice = *req.BasePrice
	}
	sp.PlatformFee, sp.FinalPrice, err = s.price(ctx, sp.BasePrice)
	if err != nil {
		return nil, err
	}

	if req.IsDraft != nil {
		if sp.IsDraft && !*req.IsDraft {
			offerings := len(sp.ServiceOfferings)
			if req.ServiceIDs != nil {
				offerings = len(req.ServiceIDs)
			}
			if offerings == 0 {
				return nil, ErrNoServiceOfferings
			}
		}
		sp.IsDraft = *req.IsDraft
	}

	if err := s.specialists.Update(ctx, sp, req.ServiceIDs); err != nil {
		return nil, s.uniqueErr(err)
	}
	return sp, nil
}

func (s *Service) PublishSpecialist(ctx context.Context, actor Actor, id string) (*domain.Specialist, error) {
	sp, err := s.specialists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canEdit(sp) {
		return nil, ErrForbidden
	}
	if !sp.IsDraft {
		return nil, ErrAlreadyPublished
	}

	n, err := s.specialists.CountOfferings(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoServiceOfferings
	}

	sp.IsDraft = false
	if err := s.specialists.Update(ctx, sp, nil); err != nil {
		return nil, err
	}
	s.log.Info().Str("specialist_id", id).Msg("specialist published")
	return sp, nil
}

func (s *Service) DeleteSpecialist(ctx context.Context, actor Actor, id string) error {
	sp, err := s.specialists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.canEdit(sp) {
		return ErrForbidden
	}
	return s.purge(ctx, id)
}

func (s *Service) purge(ctx context.Context, id string) error {
	removed, err := s.specialists.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.RemoveAll(id); err != nil {
		s.log.Warn().Err(err).Str("specialist_id", id).Int("media", len(removed)).Msg("failed to remove stored files")
	}
	return nil
}

func (s *Service) price(ctx context.Context, base float64) (float64, float64, error) {
	tiers, err := s.fees.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	fee, final := Price(tiers, base)
	return fee, final, nil
}

// uniqueErr maps a slug collision to ErrSlugTaken. Postgres reports it as
// 23505; sqlite only in the message text.
func (s *Service) uniqueErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrSlugTaken
		}
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return ErrSlugTaken
	}
	return err
}

// --- catalog ---

func (s *Service) ListOfferings(ctx context.Context) ([]domain.ServiceOffering, error) {
	return s.offerings.List(ctx)
}

func (s *Service) GetOffering(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	return s.offerings.Get(ctx, id)
}

// CreateOffering stores an offering and, when the request names one, links
// it to a specialist.
func (s *Service) CreateOffering(ctx context.Context, req domain.ServiceOfferingRequest) (*domain.ServiceOffering, error) {
	if req.SpecialistID != "" {
		if _, err := s.specialists.GetByID(ctx, req.SpecialistID); err != nil {
			return nil, err
		}
	}
	o := &domain.ServiceOffering{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		BasePrice:   req.BasePrice,
		IsActive:    req.IsActive,
	}
	if err := s.offerings.Create(ctx, o); err != nil {
		return nil, err
	}
	if req.SpecialistID != "" {
		if err := s.specialists.LinkOffering(ctx, req.SpecialistID, o.ID); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (s *Service) UpdateOffering(ctx context.Context, id string, req domain.ServiceOfferingRequest) (*domain.ServiceOffering, error) {
	o := &domain.ServiceOffering{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		BasePrice:   req.BasePrice,
		IsActive:    req.IsActive,
	}
	if err := s.offerings.Update(ctx, o); err != nil {
		return nil, err
	}
	if req.SpecialistID != "" {
		if err := s.specialists.LinkOffering(ctx, req.SpecialistID, id); err != nil {
			return nil, err
		}
	}
	return s.offerings.Get(ctx, id)
}

func (s *Service) DeleteOffering(ctx context.Context, id string) error {
	return s.offerings.Delete(ctx, id)
}

func (s *Service) ListFees(ctx context.Context) ([]domain.PlatformFee, error) {
	return s.fees.List(ctx)
}

func (s *Service) GetFee(ctx context.Context, id string) (*domain.PlatformFee, error) {
	return s.fees.Get(ctx, id)
}

// SaveFee creates (id == "") or updates a tier and reprices every
// specialist so stored prices follow the tiers.
func (s *Service) SaveFee(ctx context.Context, id string, req domain.PlatformFeeRequest) (*domain.PlatformFee, error) {
	f := &domain.PlatformFee{
		ID:                    id,
		TierName:              req.TierName,
		MinValue:              req.MinValue,
		MaxValue:              req.MaxValue,
		PlatformFeePercentage: req.PlatformFeePercentage,
	}

	tiers, err := s.fees.List(ctx)
	if err != nil {
		return nil, err
	}
	if overlaps(tiers, *f) {
		return nil, ErrTierOverlap
	}

	if id == "" {
		err = s.fees.Create(ctx, f)
	} else {
		err = s.fees.Update(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	if err := s.reprice(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) DeleteFee(ctx context.Context, id string) error {
	if err := s.fees.Delete(ctx, id); err != nil {
		return err
	}
	return s.reprice(ctx)
}

func (s *Service) reprice(ctx context.Context) error {
	tiers, err := s.fees.List(ctx)
	if err != nil {
		return err
	}
	n, err := s.specialists.Reprice(ctx, func(base float64) (float64, float64) { return Price(tiers, base) })
	if err != nil {
		return err
	}
	s.log.Info().Int("specialists", n).Msg("prices recomputed")
	return nil
}

// --- users ---

func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	return s.users.List(ctx, page, limit)
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) DeleteUser(ctx context.Context, actor Actor, id string) error {
	if actor.UserID == id {
		return ErrForbidden
	}
	return s.users.Delete(ctx, id)
}
