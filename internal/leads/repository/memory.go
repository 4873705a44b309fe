package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"realestate_ai_backend/platform/phone"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for local runs (STORE_DRIVER=memory)
// and tests. Nothing survives a restart.
type MemoryStore struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]Lead
	turns      []ConversationTurn
	dnc        map[string]DncEntry
	meetings   map[uuid.UUID]Meeting
	followUps  map[uuid.UUID]FollowUp
	activities []ActivityLogEntry
	accounts   map[string]uuid.UUID
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:     make(map[uuid.UUID]Lead),
		dnc:       make(map[string]DncEntry),
		meetings:  make(map[uuid.UUID]Meeting),
		followUps: make(map[uuid.UUID]FollowUp),
		accounts:  make(map[string]uuid.UUID),
		now:       time.Now,
	}
}

func dncKey(tenantID uuid.UUID, address string) string {
	return tenantID.String() + "|" + address
}

// PutLead inserts or replaces a lead, assigning an ID when missing.
func (s *MemoryStore) PutLead(lead Lead) Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	s.leads[lead.ID] = lead
	return lead
}

// RegisterChannelAccount maps a provider destination to a tenant.
func (s *MemoryStore) RegisterChannelAccount(channel, destination string, tenantID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[channel+"|"+destination] = tenantID
}

func (s *MemoryStore) FindLeadByPhone(_ context.Context, tenantID uuid.UUID, phoneNumber string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lead := range s.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if lead.Phone == phoneNumber || lead.Phone == phone.Digits(phoneNumber) {
			return lead, nil
		}
	}
	return Lead{}, ErrNotFound
}

func (s *MemoryStore) GetLeadByID(_ context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func fillString(dst **string, v *string) {
	if *dst == nil && v != nil {
		c := *v
		*dst = &c
	}
}

func (s *MemoryStore) ApplyLeadUpdate(_ context.Context, tenantID, leadID uuid.UUID, u LeadUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return ErrNotFound
	}

	fillString(&lead.Name, u.Name)
	fillString(&lead.Email, u.Email)
	fillString(&lead.PropertyAddress, u.PropertyAddress)
	fillString(&lead.PropertyType, u.PropertyType)
	fillString(&lead.OwnerGoal, u.OwnerGoal)
	fillString(&lead.Timeline, u.Timeline)
	fillString(&lead.PriceExpectation, u.PriceExpectation)
	if lead.Bedrooms == nil && u.Bedrooms != nil {
		v := *u.Bedrooms
		lead.Bedrooms = &v
	}
	if lead.Bathrooms == nil && u.Bathrooms != nil {
		v := *u.Bathrooms
		lead.Bathrooms = &v
	}
	if lead.Sqft == nil && u.Sqft != nil {
		v := *u.Sqft
		lead.Sqft = &v
	}
	if lead.Budget == nil && u.Budget != nil {
		v := *u.Budget
		lead.Budget = &v
	}
	if text := u.NotesText(); text != "" {
		if lead.Notes == "" {
			lead.Notes = text
		} else {
			lead.Notes += "\n" + text
		}
	}
	lead.Qualified = lead.Qualified || u.MarkQualified
	lead.UpdatedAt = s.now()
	s.leads[leadID] = lead
	return nil
}

func (s *MemoryStore) RecordLeadResponse(_ context.Context, tenantID, leadID uuid.UUID, at time.Time) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return Lead{}, ErrNotFound
	}
	lead.ResponseCount++
	lead.LastResponseAt = &at
	s.leads[leadID] = lead
	return lead, nil
}

func (s *MemoryStore) UpdateLeadScore(_ context.Context, tenantID, leadID uuid.UUID, u ScoreUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return ErrNotFound
	}
	lead.Status = u.Status
	lead.Score = u.Score
	lead.ScoreCategory = u.ScoreCategory
	s.leads[leadID] = lead
	return nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, p CreateTurnParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, ConversationTurn{
		ID:                uuid.New(),
		TenantID:          p.TenantID,
		Address:           p.Address,
		LeadID:            p.LeadID,
		Direction:         p.Direction,
		Channel:           p.Channel,
		Body:              p.Body,
		ProviderMessageID: p.ProviderMessageID,
		CreatedAt:         s.now(),
	})
	return nil
}

func (s *MemoryStore) ListRecentTurns(_ context.Context, tenantID uuid.UUID, address string, limit int) ([]ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]ConversationTurn, 0)
	for _, turn := range s.turns {
		if turn.TenantID == tenantID && turn.Address == address {
			matched = append(matched, turn)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

// Turns returns every stored turn for an address, oldest first.
func (s *MemoryStore) Turns(tenantID uuid.UUID, address string) []ConversationTurn {
	turns, _ := s.ListRecentTurns(context.Background(), tenantID, address, 0)
	return turns
}

func (s *MemoryStore) IsBlocked(_ context.Context, tenantID uuid.UUID, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dnc[dncKey(tenantID, address)]
	return ok, nil
}

func (s *MemoryStore) UpsertDNC(_ context.Context, entry DncEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dncKey(entry.TenantID, entry.Address)
	if existing, ok := s.dnc[key]; ok {
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.CreatedAt = s.now()
	}
	s.dnc[key] = entry
	return nil
}

func (s *MemoryStore) RemoveDNC(_ context.Context, tenantID uuid.UUID, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dncKey(tenantID, address)
	_, ok := s.dnc[key]
	delete(s.dnc, key)
	return ok, nil
}

func (s *MemoryStore) ListDNC(_ context.Context, tenantID uuid.UUID, limit, offset int) ([]DncEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]DncEntry, 0)
	for _, entry := range s.dnc {
		if entry.TenantID == tenantID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	total := len(entries)
	if offset >= total {
		return []DncEntry{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return entries[offset:end], total, nil
}

func (s *MemoryStore) CreateMeeting(_ context.Context, p CreateMeetingParams) (Meeting, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.meetings {
		if m.SourceEventID == p.SourceEventID {
			return m, false, nil
		}
	}
	now := s.now()
	m := Meeting{
		ID:              uuid.New(),
		TenantID:        p.TenantID,
		LeadID:          p.LeadID,
		LeadPhone:       p.LeadPhone,
		LeadName:        p.LeadName,
		Title:           p.Title,
		PropertyAddress: p.PropertyAddress,
		Description:     p.Description,
		Notes:           p.Notes,
		ScheduledAt:     p.ScheduledAt,
		Status:          "scheduled",
		Source:          MeetingSourceBot,
		SourceEventID:   p.SourceEventID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.meetings[m.ID] = m
	return m, true, nil
}

func (s *MemoryStore) FindUpcomingMeeting(_ context.Context, tenantID uuid.UUID, leadPhone string, after time.Time) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *Meeting
	for _, m := range s.meetings {
		if m.TenantID != tenantID || m.LeadPhone != leadPhone || m.Source != MeetingSourceBot {
			continue
		}
		if m.Status != "scheduled" || !m.ScheduledAt.After(after) {
			continue
		}
		if found == nil || m.ScheduledAt.Before(found.ScheduledAt) {
			c := m
			found = &c
		}
	}
	if found == nil {
		return Meeting{}, ErrRecordNotFound
	}
	return *found, nil
}

func (s *MemoryStore) RescheduleMeeting(_ context.Context, tenantID, meetingID uuid.UUID, scheduledAt time.Time, notes *string) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok || m.TenantID != tenantID {
		return Meeting{}, ErrRecordNotFound
	}
	m.ScheduledAt = scheduledAt
	if notes != nil {
		m.Notes = notes
	}
	m.UpdatedAt = s.now()
	s.meetings[meetingID] = m
	return m, nil
}

// Meetings returns all meetings for a tenant.
func (s *MemoryStore) Meetings(tenantID uuid.UUID) []Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Meeting, 0)
	for _, m := range s.meetings {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out
}

func (s *MemoryStore) CreateFollowUp(_ context.Context, p CreateFollowUpParams) (FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := FollowUp{
		ID:          uuid.New(),
		TenantID:    p.TenantID,
		LeadID:      p.LeadID,
		MeetingID:   p.MeetingID,
		MessageText: p.MessageText,
		ScheduledAt: p.ScheduledAt,
		Status:      FollowUpPending,
		Channel:     p.Channel,
		CreatedAt:   s.now(),
	}
	s.followUps[f.ID] = f
	return f, nil
}

func (s *MemoryStore) GetFollowUp(_ context.Context, tenantID, id uuid.UUID) (FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.followUps[id]
	if !ok || f.TenantID != tenantID {
		return FollowUp{}, ErrRecordNotFound
	}
	return f, nil
}

func (s *MemoryStore) updateFollowUp(tenantID, id uuid.UUID, fn func(*FollowUp)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.followUps[id]
	if !ok || f.TenantID != tenantID {
		return ErrRecordNotFound
	}
	fn(&f)
	s.followUps[id] = f
	return nil
}

func (s *MemoryStore) MarkFollowUpSent(_ context.Context, tenantID, id uuid.UUID, at time.Time) error {
	return s.updateFollowUp(tenantID, id, func(f *FollowUp) {
		f.Status = FollowUpSent
		f.SentAt = &at
		f.ErrorMessage = nil
	})
}

func (s *MemoryStore) RecordFollowUpFailure(_ context.Context, tenantID, id uuid.UUID, message string, final bool) error {
	return s.updateFollowUp(tenantID, id, func(f *FollowUp) {
		f.RetryCount++
		f.ErrorMessage = &message
		if final {
			f.Status = FollowUpFailed
		}
	})
}

func (s *MemoryStore) CancelFollowUp(_ context.Context, tenantID, id uuid.UUID, reason string) error {
	return s.updateFollowUp(tenantID, id, func(f *FollowUp) {
		if f.Status == FollowUpPending {
			f.Status = FollowUpCancelled
			f.ErrorMessage = &reason
		}
	})
}

func (s *MemoryStore) CancelPendingFollowUps(_ context.Context, tenantID uuid.UUID, filter FollowUpFilter, reason string) (int, error) {
	if filter.MeetingID == nil && filter.LeadID == nil {
		return 0, errors.New("cancel follow-ups: empty filter")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cancelled := 0
	for id, f := range s.followUps {
		if f.TenantID != tenantID || f.Status != FollowUpPending {
			continue
		}
		if filter.MeetingID != nil && (f.MeetingID == nil || *f.MeetingID != *filter.MeetingID) {
			continue
		}
		if filter.LeadID != nil && f.LeadID != *filter.LeadID {
			continue
		}
		f.Status = FollowUpCancelled
		r := reason
		f.ErrorMessage = &r
		s.followUps[id] = f
		cancelled++
	}
	return cancelled, nil
}

func (s *MemoryStore) ListDueFollowUps(_ context.Context, before time.Time, limit int) ([]FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FollowUp, 0)
	for _, f := range s.followUps {
		if f.Status == FollowUpPending && !f.ScheduledAt.After(before) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FollowUps returns all follow-ups for a tenant ordered by schedule time.
func (s *MemoryStore) FollowUps(tenantID uuid.UUID) []FollowUp {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FollowUp, 0)
	for _, f := range s.followUps {
		if f.TenantID == tenantID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (s *MemoryStore) LogActivity(_ context.Context, entry ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.CreatedAt = s.now()
	s.activities = append(s.activities, entry)
	return nil
}

// Activities returns logged entries with the given event type, or all when empty.
func (s *MemoryStore) Activities(eventType string) []ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActivityLogEntry, 0)
	for _, a := range s.activities {
		if eventType == "" || strings.EqualFold(a.EventType, eventType) {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemoryStore) ResolveTenant(_ context.Context, channel, destination string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.accounts[channel+"|"+destination]; ok {
		return id, nil
	}
	return uuid.Nil, ErrTenantNotFound
}

var _ Store = (*MemoryStore)(nil)
