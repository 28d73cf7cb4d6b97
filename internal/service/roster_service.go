package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/options"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/internal/utils"
	"github.com/rtdacademy/roster-api/pkg/export"
)

const statsCacheKey = "roster:stats"

// RosterFilters is the full conjunction of roster filter dimensions. Empty
// fields do not constrain the view.
type RosterFilters struct {
	Search        string
	Status        string
	Course        string
	State         string
	StudentType   string
	SchoolYear    string
	Term          string
	DiplomaMonth  string
	Category      string // teacherKey:categoryId
	RecordType    string
	HasSchedule   *bool
	ASNIssues     bool
	StartAfter    *time.Time
	StartBefore   *time.Time
	EndAfter      *time.Time
	EndBefore     *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Sort          string
	Descending    bool
}

// RosterService presents every stored record, whether fully linked,
// summary-only, or provincial-registry-only, as one filterable, sortable
// collection.
type RosterService interface {
	List(ctx context.Context, filters RosterFilters) (dto.RosterListResponse, error)
	ResolveSelection(ctx context.Context, filters RosterFilters) (dto.SelectionResolveResponse, error)
	Stats(ctx context.Context) (dto.RosterStatsResponse, error)
	Export(ctx context.Context, req dto.ExportRequest) ([]byte, error)
}

type rosterService struct {
	summaries repository.SummaryRepository
	pasi      repository.PASIRepository
	asns      repository.ASNRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	csv       *export.CSVExporter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRosterService constructs the roster service.
func NewRosterService(
	summaries repository.SummaryRepository,
	pasi repository.PASIRepository,
	asns repository.ASNRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) RosterService {
	return &rosterService{
		summaries: summaries,
		pasi:      pasi,
		asns:      asns,
		cache:     cache,
		cacheTTL:  cacheTTL,
		csv:       export.NewCSVExporter(),
		logger:    logger.With().Str("component", "roster_service").Logger(),
		now:       time.Now,
	}
}

func (s *rosterService) List(ctx context.Context, filters RosterFilters) (dto.RosterListResponse, error) {
	records, err := s.assemble(ctx)
	if err != nil {
		return dto.RosterListResponse{}, err
	}

	filtered := FilterRecords(records, filters)
	SortRecords(filtered, filters.Sort, filters.Descending)

	return dto.RosterListResponse{Items: filtered, Total: len(filtered)}, nil
}

// ResolveSelection returns the keys of the currently filtered view, which is
// what "select all" means: selection is filter-relative, never the full
// unfiltered collection.
func (s *rosterService) ResolveSelection(ctx context.Context, filters RosterFilters) (dto.SelectionResolveResponse, error) {
	list, err := s.List(ctx, filters)
	if err != nil {
		return dto.SelectionResolveResponse{}, err
	}

	keys := make([]string, 0, len(list.Items))
	for _, record := range list.Items {
		keys = append(keys, record.Key)
	}
	return dto.SelectionResolveResponse{Keys: keys, Total: len(keys)}, nil
}

func (s *rosterService) Stats(ctx context.Context) (dto.RosterStatsResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey).Result(); err == nil {
			var response dto.RosterStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Msg("roster stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read roster stats cache")
		}
	}

	records, err := s.assemble(ctx)
	if err != nil {
		return dto.RosterStatsResponse{}, err
	}

	response := dto.RosterStatsResponse{
		Total:       len(records),
		ByStatus:    map[string]int{},
		ByState:     map[string]int{},
		GeneratedAt: s.now().UTC(),
	}
	for _, record := range records {
		if record.StatusValue != "" {
			response.ByStatus[record.StatusValue]++
		}
		if record.ActiveFutureArchived != "" {
			response.ByState[record.ActiveFutureArchived]++
		}
		if record.ASNIssue {
			response.ASNIssues++
		}
		if record.RecordType == dto.RecordKindPASIOnly {
			response.PASIOnly++
		}
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store roster stats cache")
			}
		}
	}

	return response, nil
}

// Export renders the selected records as CSV using the caller's column set
// and order. Date cells use MM/DD/YYYY.
func (s *rosterService) Export(ctx context.Context, req dto.ExportRequest) ([]byte, error) {
	summaries, err := s.summaries.GetByKeys(ctx, req.Keys)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		row := make(map[string]string, len(req.Columns))
		for _, column := range req.Columns {
			value, err := exportCell(summary, column)
			if err != nil {
				return nil, err
			}
			row[column] = value
		}
		rows = append(rows, row)
	}

	return s.csv.Render(export.Dataset{Headers: req.Columns, Rows: rows})
}

// assemble builds the unified record list: every summary row plus every
// provincial registry row with no local match. Nothing is dropped; reduced
// rows are classified pasiOnly.
func (s *rosterService) assemble(ctx context.Context) ([]dto.RosterRecord, error) {
	summaries, err := s.summaries.List(ctx)
	if err != nil {
		return nil, err
	}
	pasiRecords, err := s.pasi.List(ctx)
	if err != nil {
		return nil, err
	}
	asnRecords, err := s.asns.List(ctx)
	if err != nil {
		return nil, err
	}

	issues := make(map[string]bool, len(asnRecords))
	for _, record := range asnRecords {
		if record.HasIssue() {
			issues[record.ASN] = true
		}
	}

	matchedASNs := make(map[string]bool, len(summaries))
	records := make([]dto.RosterRecord, 0, len(summaries)+len(pasiRecords))
	for _, summary := range summaries {
		record := recordFromSummary(summary)
		record.ASNIssue = issues[utils.NormalizeASN(summary.ASN)]
		if summary.ASN != "" {
			matchedASNs[utils.NormalizeASN(summary.ASN)] = true
		}
		records = append(records, record)
	}

	for _, pasiRecord := range pasiRecords {
		if matchedASNs[utils.NormalizeASN(pasiRecord.ASN)] {
			continue
		}
		record := recordFromPASI(pasiRecord)
		record.ASNIssue = issues[utils.NormalizeASN(pasiRecord.ASN)]
		records = append(records, record)
	}

	return records, nil
}

func recordFromSummary(summary models.EnrollmentSummary) dto.RosterRecord {
	record := dto.RosterRecord{
		Key:                  summary.Key,
		EnrollmentID:         summary.EnrollmentID,
		EmailKey:             summary.EmailKey,
		StudentEmail:         summary.StudentEmail,
		FirstName:            summary.FirstName,
		LastName:             summary.LastName,
		PreferredFirstName:   summary.PreferredFirstName,
		ASN:                  summary.ASN,
		CourseID:             summary.CourseID,
		StatusValue:          summary.StatusValue,
		ActiveFutureArchived: summary.ActiveFutureArchived,
		StudentType:          summary.StudentType,
		SchoolYear:           summary.SchoolYear,
		Term:                 summary.Term,
		DiplomaMonth:         summary.DiplomaMonth,
		PaymentStatus:        summary.PaymentStatus,
		PASI:                 summary.PASI,
		Categories:           boolFlags(summary.Categories),
		HasSchedule:          summary.ScheduleStart != nil && summary.ScheduleEnd != nil,
		ScheduleStart:        summary.ScheduleStart,
		ScheduleEnd:          summary.ScheduleEnd,
		CreatedAt:            summary.CreatedAt,
	}
	record.RecordType = classifySummary(summary)
	return record
}

func recordFromPASI(record models.PASIRecord) dto.RosterRecord {
	return dto.RosterRecord{
		Key:        "pasi_" + record.RecordID,
		RecordType: dto.RecordKindPASIOnly,
		PASIName:   record.StudentName,
		ASN:        record.ASN,
		CourseID:   record.CourseCode,
		Term:       record.Term,
		SchoolYear: record.SchoolYear,
		PASI:       true,
		CreatedAt:  record.CreatedAt,
	}
}

// classifySummary places a summary row into exactly one record kind. Rows
// missing the minimum identifying fields, or parked in the "Not Set" state,
// render with the reduced provincial-record presentation.
func classifySummary(summary models.EnrollmentSummary) string {
	if summary.EmailKey == "" || summary.ActiveFutureArchived == options.StateNotSet || summary.ActiveFutureArchived == "" {
		return dto.RecordKindPASIOnly
	}
	if summary.EnrollmentID == 0 {
		return dto.RecordKindSummaryOnly
	}
	return dto.RecordKindLinked
}

// FilterRecords applies the filter conjunction. Each dimension is an
// independent predicate, so the outcome does not depend on the order the
// filters were expressed in.
func FilterRecords(records []dto.RosterRecord, filters RosterFilters) []dto.RosterRecord {
	predicates := buildPredicates(filters)

	out := make([]dto.RosterRecord, 0, len(records))
	for _, record := range records {
		keep := true
		for _, predicate := range predicates {
			if !predicate(record) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, record)
		}
	}
	return out
}

type recordPredicate func(dto.RosterRecord) bool

func buildPredicates(filters RosterFilters) []recordPredicate {
	var predicates []recordPredicate

	if search := strings.TrimSpace(filters.Search); search != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool {
			return matchesSearch(r, search)
		})
	}
	if filters.Status != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.StatusValue == filters.Status })
	}
	if filters.Course != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.CourseID == filters.Course })
	}
	if filters.State != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.ActiveFutureArchived == filters.State })
	}
	if filters.StudentType != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.StudentType == filters.StudentType })
	}
	if filters.SchoolYear != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.SchoolYear == filters.SchoolYear })
	}
	if filters.Term != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.Term == filters.Term })
	}
	if filters.DiplomaMonth != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.DiplomaMonth == filters.DiplomaMonth })
	}
	if filters.Category != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.Categories[filters.Category] })
	}
	if filters.RecordType != "" {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.RecordType == filters.RecordType })
	}
	if filters.HasSchedule != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.HasSchedule == *filters.HasSchedule })
	}
	if filters.ASNIssues {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return r.ASNIssue })
	}
	if filters.StartAfter != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool {
			return r.ScheduleStart != nil && !r.ScheduleStart.Before(*filters.StartAfter)
		})
	}
	if filters.StartBefore != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool {
			return r.ScheduleStart != nil && !r.ScheduleStart.After(*filters.StartBefore)
		})
	}
	if filters.EndAfter != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool {
			return r.ScheduleEnd != nil && !r.ScheduleEnd.Before(*filters.EndAfter)
		})
	}
	if filters.EndBefore != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool {
			return r.ScheduleEnd != nil && !r.ScheduleEnd.After(*filters.EndBefore)
		})
	}
	if filters.CreatedAfter != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return !r.CreatedAt.Before(*filters.CreatedAfter) })
	}
	if filters.CreatedBefore != nil {
		predicates = append(predicates, func(r dto.RosterRecord) bool { return !r.CreatedAt.After(*filters.CreatedBefore) })
	}

	return predicates
}

// matchesSearch checks the free-text search against every name permutation
// the record offers plus its digits-only ASN.
func matchesSearch(record dto.RosterRecord, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}

	candidates := []string{
		record.StudentEmail,
		record.FirstName + " " + record.LastName,
		record.LastName + " " + record.FirstName,
	}
	if record.PreferredFirstName != "" {
		candidates = append(candidates, record.PreferredFirstName+" "+record.LastName)
	}
	if record.PASIName != "" {
		candidates = append(candidates, record.PASIName, parsePASIName(record.PASIName))
	}

	for _, candidate := range candidates {
		if candidate != "" && strings.Contains(strings.ToLower(candidate), needle) {
			return true
		}
	}

	if digits := utils.NormalizeASN(needle); digits != "" {
		if strings.Contains(utils.NormalizeASN(record.ASN), digits) {
			return true
		}
	}

	return false
}

// parsePASIName turns the registry's "Last, First Middle" format into
// "first last" for matching.
func parsePASIName(name string) string {
	parts := strings.SplitN(name, ",", 2)
	if len(parts) != 2 {
		return name
	}
	last := strings.TrimSpace(parts[0])
	given := strings.Fields(strings.TrimSpace(parts[1]))
	if len(given) == 0 {
		return last
	}
	return given[0] + " " + last
}

// SortRecords orders the view by a single key, ascending unless descending
// is set. Unknown keys fall back to the record key.
func SortRecords(records []dto.RosterRecord, key string, descending bool) {
	less := lessFunc(key)
	sort.SliceStable(records, func(i, j int) bool {
		if descending {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func lessFunc(key string) func(a, b dto.RosterRecord) bool {
	switch key {
	case "firstName":
		return func(a, b dto.RosterRecord) bool { return sortName(a.FirstName, a.Key) < sortName(b.FirstName, b.Key) }
	case "lastName":
		return func(a, b dto.RosterRecord) bool { return sortName(a.LastName, a.Key) < sortName(b.LastName, b.Key) }
	case "status":
		return func(a, b dto.RosterRecord) bool { return a.StatusValue < b.StatusValue }
	case "course":
		return func(a, b dto.RosterRecord) bool { return a.CourseID < b.CourseID }
	case "state":
		return func(a, b dto.RosterRecord) bool { return a.ActiveFutureArchived < b.ActiveFutureArchived }
	case "createdAt":
		return func(a, b dto.RosterRecord) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "scheduleStart":
		return func(a, b dto.RosterRecord) bool {
			return timeOrZero(a.ScheduleStart).Before(timeOrZero(b.ScheduleStart))
		}
	default:
		return func(a, b dto.RosterRecord) bool { return a.Key < b.Key }
	}
}

func sortName(name, fallback string) string {
	if name == "" {
		// empty names sort last
		return "￿" + fallback
	}
	return strings.ToLower(name)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func boolFlags(raw map[string]interface{}) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]bool, len(raw))
	for key, value := range raw {
		if flag, ok := value.(bool); ok && flag {
			out[key] = true
		}
	}
	return out
}

const exportDateFormat = "01/02/2006"

// exportCell resolves one CSV cell. Columns map one-to-one onto roster view
// fields; unknown columns fail the export rather than writing blanks.
func exportCell(summary models.EnrollmentSummary, column string) (string, error) {
	switch column {
	case "First Name":
		return summary.FirstName, nil
	case "Last Name":
		return summary.LastName, nil
	case "Preferred Name":
		return summary.PreferredFirstName, nil
	case "Email":
		return summary.StudentEmail, nil
	case "ASN":
		return summary.ASN, nil
	case "Course":
		return summary.CourseID, nil
	case "Status":
		return summary.StatusValue, nil
	case "State":
		return summary.ActiveFutureArchived, nil
	case "Student Type":
		return summary.StudentType, nil
	case "School Year":
		return summary.SchoolYear, nil
	case "Term":
		return summary.Term, nil
	case "Diploma Month":
		return summary.DiplomaMonth, nil
	case "Payment Status":
		return summary.PaymentStatus, nil
	case "Schedule Start":
		return formatDate(summary.ScheduleStart), nil
	case "Schedule End":
		return formatDate(summary.ScheduleEnd), nil
	case "Last Updated":
		return summary.LastUpdated.Format(exportDateFormat), nil
	default:
		return "", fmt.Errorf("unknown export column %q", column)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateFormat)
}
