package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// ASNService surfaces Alberta Student Number ownership conflicts. Conflicts
// are reported, never auto-resolved.
type ASNService interface {
	ListIssues(ctx context.Context) (dto.ASNIssueListResponse, error)
}

type asnService struct {
	asns   repository.ASNRepository
	logger zerolog.Logger
}

// NewASNService constructs the ASN service.
func NewASNService(asns repository.ASNRepository, logger zerolog.Logger) ASNService {
	return &asnService{
		asns:   asns,
		logger: logger.With().Str("component", "asn_service").Logger(),
	}
}

func (s *asnService) ListIssues(ctx context.Context) (dto.ASNIssueListResponse, error) {
	records, err := s.asns.List(ctx)
	if err != nil {
		return dto.ASNIssueListResponse{}, err
	}

	items := make([]dto.ASNIssueResponse, 0)
	for _, record := range records {
		if !record.HasIssue() {
			continue
		}

		owners := record.CurrentOwners()
		sort.Strings(owners)

		emails := make([]string, 0, len(owners))
		for _, owner := range owners {
			emails = append(emails, utils.RestoreEmail(owner))
		}

		items = append(items, dto.ASNIssueResponse{
			ASN:           record.ASN,
			CurrentOwners: owners,
			Emails:        emails,
			UpdatedAt:     record.UpdatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ASN < items[j].ASN })

	return dto.ASNIssueListResponse{Items: items, Total: len(items)}, nil
}
