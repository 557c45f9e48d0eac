package mockapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"anycomp/internal/domain"
)

// SeedAccount is a login installed by Seed when its email is unused.
type SeedAccount struct {
	Email    string
	Password string
	Role     domain.UserRole
}

var defaultOfferings = []domain.ServiceOffering{
	{Name: "Company Incorporation", Description: "Registration of a private limited company with the registrar.", BasePrice: 1000, IsActive: true},
	{Name: "Company Secretary", Description: "Appointment of a qualified company secretary for statutory filings.", BasePrice: 600, IsActive: true},
	{Name: "Registered Address", Description: "Use of a registered business address for official correspondence.", BasePrice: 300, IsActive: true},
	{Name: "Annual Return Filing", Description: "Preparation and lodgement of the annual return.", BasePrice: 450, IsActive: true},
}

// Seed installs the default fee tiers, a starter service catalog and the
// given accounts. Running it twice is harmless.
func (s *Service) Seed(ctx context.Context, accounts ...SeedAccount) error {
	for _, t := range DefaultTiers() {
		tier := t
		if err := s.fees.Upsert(ctx, &tier); err != nil {
			return fmt.Errorf("seed tier %s: %w", t.TierName, err)
		}
	}

	existing, err := s.offerings.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, o := range defaultOfferings {
			offering := o
			if err := s.offerings.Create(ctx, &offering); err != nil {
				return fmt.Errorf("seed offering %q: %w", o.Name, err)
			}
		}
	}

	for _, a := range accounts {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := s.users.Create(ctx, &domain.User{Email: email, Role: a.Role}, string(hash)); err != nil {
			return fmt.Errorf("seed account %s: %w", email, err)
		}
		s.log.Info().Str("email", email).Str("role", string(a.Role)).Msg("account created")
	}

	return s.reprice(ctx)
}

// PurgeDrafts deletes drafts untouched for longer than maxAge together with
// their stored images. It returns how many drafts were removed.
func (s *Service) PurgeDrafts(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := s.specialists.StaleDraftIDs(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.purge(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("specialist_id", id).Msg("draft purge failed")
			continue
		}
		removed++
	}
	return removed, nil
}
