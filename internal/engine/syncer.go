package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/steveyegge/bizzy/internal/beads"
	"github.com/steveyegge/bizzy/internal/fizzy"
	"github.com/steveyegge/bizzy/internal/ledger"
	"github.com/steveyegge/bizzy/internal/mapper"
)

// cardURLPattern recovers a card number from a card URL when the create
// response carries no number field.
var cardURLPattern = regexp.MustCompile(`/cards/(\d+)`)

// syncer implements the Syncer interface.
type syncer struct {
	config  Config
	client  Client
	reader  Reader
	state   *ledger.Ledger
	mapper  *mapper.Mapper
	logger  *log.Logger
	columns map[string]string
}

// New creates a Syncer. A nil mapper gets the default column mapping; a
// nil Config.Logger defaults to stderr.
func New(config Config, client Client, reader Reader, state *ledger.Ledger, m *mapper.Mapper) Syncer {
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if m == nil {
		m = mapper.New(nil)
	}
	return &syncer{
		config:  config,
		client:  client,
		reader:  reader,
		state:   state,
		mapper:  m,
		logger:  logger,
		columns: make(map[string]string),
	}
}

// SyncAll implements Syncer.SyncAll.
func (s *syncer) SyncAll(ctx context.Context, includeClosed, dryRun bool) (*Result, error) {
	if !dryRun {
		if err := s.EnsureColumns(ctx); err != nil {
			return nil, err
		}
	}

	issues, err := s.reader.ListIssues(ctx, includeClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	return s.syncBatch(ctx, issues, dryRun), nil
}

// SyncBatch implements Syncer.SyncBatch.
func (s *syncer) SyncBatch(ctx context.Context, issues []*beads.Issue, dryRun bool) (*Result, error) {
	if !dryRun {
		if err := s.EnsureColumns(ctx); err != nil {
			return nil, err
		}
	}
	return s.syncBatch(ctx, issues, dryRun), nil
}

// syncBatch syncs the given issues in order and tallies outcomes.
func (s *syncer) syncBatch(ctx context.Context, issues []*beads.Issue, dryRun bool) *Result {
	result := &Result{}
	for _, issue := range issues {
		outcome := s.SyncIssue(ctx, issue, dryRun)
		switch outcome.Action {
		case ActionCreated:
			result.Created++
		case ActionUpdated:
			result.Updated++
		case ActionSkipped:
			result.Skipped++
		case ActionError:
			result.Errors = append(result.Errors, outcome)
		}
		if s.config.OnOutcome != nil {
			s.config.OnOutcome(outcome)
		}
	}
	return result
}

// SyncIssue implements Syncer.SyncIssue.
func (s *syncer) SyncIssue(ctx context.Context, issue *beads.Issue, dryRun bool) Outcome {
	checksum, err := Checksum(issue)
	if err != nil {
		return Outcome{Action: ActionError, IssueID: issue.ID, Error: err.Error()}
	}

	// Unchanged content is the sole skip condition.
	if stored, ok := s.state.ChecksumFor(issue.ID); ok && stored == checksum {
		return Outcome{Action: ActionSkipped, IssueID: issue.ID, Reason: "unchanged"}
	}

	if dryRun {
		if number, ok := s.state.CardNumberFor(issue.ID); ok {
			return Outcome{Action: ActionUpdated, IssueID: issue.ID, CardNumber: number, DryRun: true}
		}
		return Outcome{Action: ActionCreated, IssueID: issue.ID, DryRun: true}
	}

	payload := s.mapper.CardForIssue(issue)
	columnID := s.columnID(s.mapper.ColumnForStatus(issue.Status))

	if number, ok := s.state.CardNumberFor(issue.ID); ok {
		if err := s.updateCard(ctx, number, issue, payload, columnID); err != nil {
			return Outcome{Action: ActionError, IssueID: issue.ID, Error: err.Error()}
		}
		if err := s.state.RecordSync(issue.ID, number, checksum); err != nil {
			return Outcome{Action: ActionError, IssueID: issue.ID, Error: err.Error()}
		}
		s.logger.Printf("Updated card #%d for %s", number, issue.ID)
		return Outcome{Action: ActionUpdated, IssueID: issue.ID, CardNumber: number}
	}

	number, err := s.createCard(ctx, issue, payload, columnID)
	if err != nil {
		return Outcome{Action: ActionError, IssueID: issue.ID, Error: err.Error()}
	}
	if err := s.state.RecordSync(issue.ID, number, checksum); err != nil {
		return Outcome{Action: ActionError, IssueID: issue.ID, Error: err.Error()}
	}
	s.logger.Printf("Created card #%d for %s", number, issue.ID)
	return Outcome{Action: ActionCreated, IssueID: issue.ID, CardNumber: number}
}

// EnsureColumns implements Syncer.EnsureColumns.
func (s *syncer) EnsureColumns(ctx context.Context) error {
	existing, err := s.client.ListColumns(ctx, s.config.BoardID)
	if err != nil {
		return fmt.Errorf("failed to list columns: %w", err)
	}
	s.columns = columnIndex(existing)

	if !s.config.AutoCreateColumns {
		return nil
	}

	for _, name := range s.mapper.WorkColumns() {
		if _, ok := s.columns[name]; ok {
			continue
		}
		s.logger.Printf("Creating column: %s", name)
		if _, err := s.client.CreateColumn(ctx, s.config.BoardID, name, mapper.ColorForColumn(name)); err != nil {
			return fmt.Errorf("failed to create column %s: %w", name, err)
		}
		// Re-list so the cache carries the server-assigned ID.
		existing, err = s.client.ListColumns(ctx, s.config.BoardID)
		if err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}
		s.columns = columnIndex(existing)
	}

	return nil
}

// createCard creates a card for an issue, places it, closes it when the
// issue is closed, and applies tags. Tag failures are logged, never fatal.
func (s *syncer) createCard(ctx context.Context, issue *beads.Issue, payload mapper.CardPayload, columnID string) (int, error) {
	card, err := s.client.CreateCard(ctx, s.config.BoardID, payload.Title, payload.Description)
	if err != nil {
		return 0, err
	}
	number, err := cardNumber(card)
	if err != nil {
		return 0, err
	}

	if columnID != "" {
		if err := s.client.TriageCard(ctx, number, columnID); err != nil {
			return 0, err
		}
	}

	if issue.Status == beads.StatusClosed {
		if err := s.client.CloseCard(ctx, number); err != nil {
			return 0, err
		}
	}

	if s.config.PriorityAsTag || s.config.TypeAsTag {
		for _, tag := range s.mapper.TagsForIssue(issue) {
			if err := s.client.ToggleTag(ctx, number, tag); err != nil {
				s.logger.Printf("WARNING: failed to tag card #%d with %q: %v", number, tag, err)
			}
		}
	}

	return number, nil
}

// updateCard refreshes a card's content and state. Column and closure
// adjustments tolerate cards already in the target state.
func (s *syncer) updateCard(ctx context.Context, number int, issue *beads.Issue, payload mapper.CardPayload, columnID string) error {
	if _, err := s.client.UpdateCard(ctx, number, &payload.Title, &payload.Description); err != nil {
		return err
	}

	if columnID != "" {
		if err := s.client.TriageCard(ctx, number, columnID); err != nil {
			return err
		}
	} else if issue.Status == beads.StatusOpen {
		// Open means back to the built-in inbox.
		if err := s.client.UntriageCard(ctx, number); err != nil {
			s.logger.Printf("WARNING: failed to untriage card #%d: %v", number, err)
		}
	}

	if issue.Status == beads.StatusClosed {
		if err := s.client.CloseCard(ctx, number); err != nil {
			s.logger.Printf("WARNING: failed to close card #%d: %v", number, err)
		}
	} else {
		if err := s.client.ReopenCard(ctx, number); err != nil {
			s.logger.Printf("WARNING: failed to reopen card #%d: %v", number, err)
		}
	}

	return nil
}

// columnID resolves a column name through the cache. Unknown and empty
// names resolve to "", which leaves the card untriaged.
func (s *syncer) columnID(name string) string {
	if name == "" {
		return ""
	}
	return s.columns[name]
}

// cardNumber extracts the card number from a create response, falling back
// to the card URL when the number field is absent.
func cardNumber(card *fizzy.Card) (int, error) {
	if card.Number != 0 {
		return card.Number, nil
	}
	if card.URL != "" {
		if m := cardURLPattern.FindStringSubmatch(card.URL); m != nil {
			number, err := strconv.Atoi(m[1])
			if err == nil {
				return number, nil
			}
		}
	}
	return 0, fmt.Errorf("could not determine card number for %q", card.Title)
}

func columnIndex(columns []fizzy.Column) map[string]string {
	index := make(map[string]string, len(columns))
	for _, column := range columns {
		index[column.Name] = column.ID
	}
	return index
}
