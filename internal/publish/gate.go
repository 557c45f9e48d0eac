// Package publish moves a draft specialist to published and tells the
// caller what to do next.
package publish

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/querycache"
)

// CodeNoServiceOfferings is the error code the backend returns when a
// specialist without offerings is published.
const CodeNoServiceOfferings = "NO_SERVICE_OFFERINGS"

const (
	serviceRequirementText = "at least one service"
	rejectedFallback       = "Failed to publish specialist"
)

type Status string

const (
	Published            Status = "published"
	NeedsServiceOffering Status = "needs_service_offering"
	Rejected             Status = "rejected"
)

// Outcome is the result of a publish attempt. RedirectPath is set on
// success, EditPath when the listing has to get an offering first. Err is
// the backend error behind any other status.
type Outcome struct {
	Status       Status             `json:"status"`
	Specialist   *domain.Specialist `json:"specialist,omitempty"`
	Message      string             `json:"message,omitempty"`
	RedirectPath string             `json:"redirectPath,omitempty"`
	EditPath     string             `json:"editPath,omitempty"`
	Err          error              `json:"-"`
}

func (o Outcome) OK() bool { return o.Status == Published }

type Publisher interface {
	Publish(ctx context.Context, id string) (*domain.Specialist, error)
}

type Gate struct {
	specialists Publisher
	cache       querycache.Cache
	log         zerolog.Logger
}

func NewGate(p Publisher, cache querycache.Cache, log zerolog.Logger) *Gate {
	return &Gate{specialists: p, cache: cache, log: log}
}

func (g *Gate) Publish(ctx context.Context, id string) Outcome {
	sp, err := g.specialists.Publish(ctx, id)
	if err == nil {
		if err := g.cache.Invalidate(ctx, querycache.KeySpecialists); err != nil {
			g.log.Warn().Err(err).Msg("invalidate specialists cache")
		}
		g.log.Info().Str("specialist_id", id).Msg("specialist published")
		return Outcome{
			Status:       Published,
			Specialist:   sp,
			RedirectPath: "/specialists/" + url.PathEscape(id),
		}
	}

	msg := apiclient.Message(err, rejectedFallback)
	if RequiresServiceOffering(err) {
		g.log.Info().Str("specialist_id", id).Msg("publish blocked: no service offerings")
		return Outcome{
			Status:   NeedsServiceOffering,
			Message:  msg,
			EditPath: "/specialists/" + url.PathEscape(id) + "/edit",
			Err:      err,
		}
	}

	g.log.Warn().Err(err).Str("specialist_id", id).Msg("publish rejected")
	return Outcome{Status: Rejected, Message: msg, Err: err}
}

// RequiresServiceOffering reports whether err is the "needs an offering"
// rejection. The error code is preferred; older backends only say so in
// the message text.
func RequiresServiceOffering(err error) bool {
	if err == nil {
		return false
	}
	if apiclient.HasCode(err, CodeNoServiceOfferings) {
		return true
	}
	msg := apiclient.Message(err, "")
	return strings.Contains(strings.ToLower(msg), serviceRequirementText)
}
