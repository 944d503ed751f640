// Package incident binds teams to incoming incidents: it freezes
// membership snapshots, derives the primary contact, tracks per-team
// acknowledgment and drives the incident lifecycle.
package incident

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openaid/respond/core/audit"
	"github.com/openaid/respond/core/deck"
	"github.com/openaid/respond/core/events"
	"github.com/openaid/respond/core/geo"
	"github.com/openaid/respond/core/logger"
	"github.com/openaid/respond/core/metrics"
	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/notify"
	"github.com/openaid/respond/core/roster"
	"github.com/openaid/respond/core/store"
	"github.com/openaid/respond/internal/eventbus"
)

// ReasonOther is the cancellation reason code that requires free text.
const ReasonOther = "other"

// Coordinator creates incidents from deck and directory state and
// drives their lifecycle. All remote writes go through the document
// store; a failed write leaves no local state behind.
type Coordinator struct {
	decks     *deck.Store
	directory *roster.Directory
	docs      store.DocumentStore
	gateway   notify.Gateway
	geocoder  geo.Geocoder
	trail     audit.Store
	sink      metrics.Sink
	bus       *eventbus.Bus
	log       logger.Logger
	clock     func() time.Time
	codes     codeSequence
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source; used by tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithGeocoder lets Create resolve an address that arrived without
// coordinates.
func WithGeocoder(g geo.Geocoder) Option {
	return func(c *Coordinator) { c.geocoder = g }
}

// WithAudit records lifecycle transitions on the given trail.
func WithAudit(trail audit.Store) Option {
	return func(c *Coordinator) { c.trail = trail }
}

// WithMetrics records dispatch and acknowledgment events on the sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// WithBus publishes coordination events on the bus.
func WithBus(bus *eventbus.Bus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// NewCoordinator creates a coordinator.
func NewCoordinator(decks *deck.Store, directory *roster.Directory, docs store.DocumentStore, gateway notify.Gateway, log logger.Logger, opts ...Option) (*Coordinator, error) {
	if decks == nil || directory == nil || docs == nil {
		return nil, fmt.Errorf("incident: nil parameter provided to NewCoordinator")
	}
	if gateway == nil {
		gateway = notify.NopGateway{}
	}
	c := &Coordinator{
		decks:     decks,
		directory: directory,
		docs:      docs,
		gateway:   gateway,
		sink:      metrics.NopSink{},
		log:       log,
		clock:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Get loads one incident.
func (c *Coordinator) Get(ctx context.Context, id string) (model.Incident, error) {
	var inc model.Incident
	if err := c.docs.Get(ctx, store.Incidents, id, &inc); err != nil {
		return model.Incident{}, err
	}
	return inc, nil
}

// List returns every incident, newest first.
func (c *Coordinator) List(ctx context.Context) ([]model.Incident, error) {
	raws, err := c.docs.List(ctx, store.Incidents)
	if err != nil {
		return nil, err
	}
	incidents := make([]model.Incident, 0, len(raws))
	for _, raw := range raws {
		var inc model.Incident
		if err := json.Unmarshal(raw, &inc); err != nil {
			c.log.Warnf("skipping malformed incident document: %v", err)
			continue
		}
		incidents = append(incidents, inc)
	}
	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].CreatedAt.After(incidents[j].CreatedAt)
	})
	return incidents, nil
}

// Create validates the form, freezes a membership snapshot per selected
// team, persists the incident and fans the alert out to the assigned
// responders. Notification failures are logged and counted, never
// rolled back into the incident write.
func (c *Coordinator) Create(ctx context.Context, form Form) (model.Incident, error) {
	if err := form.validate(); err != nil {
		return model.Incident{}, err
	}
	now := c.clock()

	loc := form.Location
	if !loc.Resolved() {
		resolved, err := c.resolveLocation(ctx, loc)
		if err != nil {
			return model.Incident{}, err
		}
		loc = resolved
	}

	snapshots, acks, err := c.resolveTeams(form.TeamIDs, now)
	if err != nil {
		return model.Incident{}, err
	}
	members := 0
	for _, s := range snapshots {
		members += len(s.Members)
	}
	if members == 0 {
		return model.Incident{}, ErrNoAvailableResponders
	}

	code, err := c.codes.generate(ctx, c.docs, now)
	if err != nil {
		return model.Incident{}, fmt.Errorf("seed incident code: %w", err)
	}

	inc := model.Incident{
		ID:                    uuid.NewString(),
		Code:                  code,
		Severity:              form.Severity,
		Type:                  form.Type,
		Location:              loc,
		Reporter:              model.Reporter{Name: form.ReporterName, Contact: form.ReporterContact},
		RespondingTeamIDs:     append([]string(nil), form.TeamIDs...),
		TeamSnapshots:         snapshots,
		Acknowledgments:       acks,
		AssignedResponderUIDs: assignedUIDs(snapshots),
		PrimaryTeamID:         form.TeamIDs[0],
		PrimaryTeamLeaderUID:  c.primaryLeader(form.TeamIDs[0]),
		Status:                model.IncidentPending,
		Notes:                 form.Notes,
		CreatedAt:             now,
	}
	if err := c.persist(ctx, inc); err != nil {
		return model.Incident{}, err
	}

	receipt := c.notifyResponders(ctx, inc)

	// The incident is dispatched once persisted and fan-out attempted;
	// delivery failures do not hold it in pending.
	inc.Status = model.IncidentDispatched
	if err := c.persist(ctx, inc); err != nil {
		c.log.Errorf("incident %s stuck in pending: %v", inc.ID, err)
		return model.Incident{}, err
	}

	c.appendAudit(ctx, audit.Entry{
		Timestamp:  now,
		Kind:       audit.KindDispatch,
		IncidentID: inc.ID,
		Code:       inc.Code,
		Teams:      teamNames(snapshots),
		MemberUIDs: inc.AssignedResponderUIDs,
		Location:   loc.Address,
		Delivery:   receipt.Errors,
	})
	c.recordDispatch(inc, receipt)
	if c.bus != nil {
		c.bus.Publish(events.IncidentCreatedEvent{
			IncidentID: inc.ID,
			Code:       inc.Code,
			TeamNames:  teamNames(snapshots),
			Targets:    len(inc.AssignedResponderUIDs),
			CreatedAt:  now,
		})
	}
	incidentsCreated.WithLabelValues(inc.Severity).Inc()
	c.log.Infof("incident %s dispatched to %d teams, %d responders", inc.Code, len(snapshots), len(inc.AssignedResponderUIDs))
	return inc, nil
}

// resolveLocation attempts geocoding when coordinates are missing.
func (c *Coordinator) resolveLocation(ctx context.Context, loc model.Location) (model.Location, error) {
	if c.geocoder == nil {
		return model.Location{}, ErrLocationUnresolved
	}
	res, err := c.geocoder.Resolve(ctx, loc.Address)
	if err != nil {
		return model.Location{}, fmt.Errorf("%w: %v", ErrLocationUnresolved, err)
	}
	lat, lng := res.Lat, res.Lng
	loc.Lat, loc.Lng = &lat, &lng
	loc.Precision = res.Precision
	loc.PlaceID = res.PlaceID
	if res.MatchedLocation != "" {
		loc.Address = res.MatchedLocation
	}
	return loc, nil
}

// resolveTeams builds the frozen snapshot and acknowledgment entry for
// each selected team id. A role filled by a now-unavailable responder
// is dropped from the snapshot, not substituted.
func (c *Coordinator) resolveTeams(teamIDs []string, now time.Time) ([]model.TeamSnapshot, map[string]model.Acknowledgment, error) {
	var snapshots []model.TeamSnapshot
	acks := make(map[string]model.Acknowledgment)
	for _, id := range teamIDs {
		var snap model.TeamSnapshot
		if id == model.AllRespondersTeam {
			snap = c.allRespondersSnapshot(now)
		} else {
			key, err := model.ParseDeckKey(id)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrTeamUnavailable, err)
			}
			d, ok := c.decks.Current(key)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrTeamUnavailable, id)
			}
			snap = c.deckSnapshot(id, d, now)
		}
		snapshots = append(snapshots, snap)
		acks[snap.TeamName] = model.Acknowledgment{Members: snap.Members}
	}
	return snapshots, acks, nil
}

func (c *Coordinator) allRespondersSnapshot(now time.Time) model.TeamSnapshot {
	snap := model.TeamSnapshot{TeamName: model.AllRespondersName}
	for _, r := range c.directory.All() {
		if roster.IsAvailable(&r, now) {
			snap.Members = append(snap.Members, r.Ref())
		}
	}
	return snap
}

func (c *Coordinator) deckSnapshot(teamID string, d model.Deck, now time.Time) model.TeamSnapshot {
	snap := model.TeamSnapshot{TeamName: teamID}
	for _, slot := range model.RoleSlots {
		ref := d.Roles[slot]
		if ref == nil {
			continue
		}
		r, ok := c.directory.Get(ref.UID)
		if !ok || !roster.IsAvailable(&r, now) {
			c.log.Debugf("dropping %s from %s snapshot: unavailable at dispatch", ref.UID, teamID)
			continue
		}
		snap.Members = append(snap.Members, *ref)
	}
	return snap
}

// primaryLeader returns the teamLeader uid of the primary team, or
// empty when the primary selection has no leader (including the
// all-responders sentinel).
func (c *Coordinator) primaryLeader(teamID string) string {
	if teamID == model.AllRespondersTeam {
		return ""
	}
	key, err := model.ParseDeckKey(teamID)
	if err != nil {
		return ""
	}
	d, ok := c.decks.Current(key)
	if !ok {
		return ""
	}
	if ref := d.Roles[model.SlotTeamLeader]; ref != nil {
		return ref.UID
	}
	return ""
}

// Acknowledge records one team's confirmation. Acknowledging twice
// simply overwrites the timestamp.
func (c *Coordinator) Acknowledge(ctx context.Context, id, teamName, byUID string) (model.Incident, error) {
	inc, err := c.Get(ctx, id)
	if err != nil {
		return model.Incident{}, err
	}
	ack, ok := inc.Acknowledgments[teamName]
	if !ok {
		return model.Incident{}, fmt.Errorf("%w: %s", ErrUnknownTeam, teamName)
	}
	now := c.clock()
	ack.Acknowledged = true
	ack.AcknowledgedBy = byUID
	ack.AcknowledgedAt = &now
	inc.Acknowledgments[teamName] = ack
	if err := c.persist(ctx, inc); err != nil {
		return model.Incident{}, err
	}
	c.appendAudit(ctx, audit.Entry{
		Timestamp:  now,
		Kind:       audit.KindAcknowledge,
		IncidentID: inc.ID,
		Code:       inc.Code,
		Teams:      []string{teamName},
		Actor:      byUID,
	})
	if ar, ok := c.sink.(metrics.AckRecorder); ok {
		if err := ar.RecordAck(metrics.AckRecord{
			IncidentID: inc.ID,
			TeamName:   teamName,
			ByUID:      byUID,
			Latency:    now.Sub(inc.CreatedAt),
			Time:       now,
		}); err != nil {
			c.log.Errorf("ack metrics error: %v", err)
		}
	}
	if c.bus != nil {
		c.bus.Publish(events.TeamAckEvent{IncidentID: inc.ID, TeamName: teamName, ByUID: byUID, At: now})
	}
	return inc, nil
}

// Cancel moves a pending or dispatched incident to cancelled. The audit
// entry is written before the status mutation.
func (c *Coordinator) Cancel(ctx context.Context, id, reason, detail, byUID string) (model.Incident, error) {
	if reason == "" || (reason == ReasonOther && strings.TrimSpace(detail) == "") {
		return model.Incident{}, ErrInvalidReason
	}
	inc, err := c.Get(ctx, id)
	if err != nil {
		return model.Incident{}, err
	}
	if inc.Status != model.IncidentPending && inc.Status != model.IncidentDispatched {
		return model.Incident{}, fmt.Errorf("%w: status %s", ErrAlreadyClosed, inc.Status)
	}
	now := c.clock()
	c.appendAudit(ctx, audit.Entry{
		Timestamp:   now,
		Kind:        audit.KindCancel,
		IncidentID:  inc.ID,
		Code:        inc.Code,
		Teams:       teamNames(inc.TeamSnapshots),
		Actor:       byUID,
		PriorStatus: string(inc.Status),
		Reason:      reason,
		Location:    inc.Location.Address,
	})
	inc.Cancellation = &model.Cancellation{
		PriorStatus: inc.Status,
		Reason:      reason,
		Detail:      detail,
		CancelledBy: byUID,
		CancelledAt: now,
	}
	inc.Status = model.IncidentCancelled
	if err := c.persist(ctx, inc); err != nil {
		return model.Incident{}, err
	}
	if c.bus != nil {
		c.bus.Publish(events.IncidentClosedEvent{IncidentID: inc.ID, Status: inc.Status, ByUID: byUID, At: now})
	}
	return inc, nil
}

// Resolve closes a dispatched incident.
func (c *Coordinator) Resolve(ctx context.Context, id, byUID string) (model.Incident, error) {
	inc, err := c.Get(ctx, id)
	if err != nil {
		return model.Incident{}, err
	}
	if inc.Status != model.IncidentPending && inc.Status != model.IncidentDispatched {
		return model.Incident{}, fmt.Errorf("%w: status %s", ErrAlreadyClosed, inc.Status)
	}
	now := c.clock()
	inc.Status = model.IncidentResolved
	if err := c.persist(ctx, inc); err != nil {
		return model.Incident{}, err
	}
	c.appendAudit(ctx, audit.Entry{
		Timestamp:  now,
		Kind:       audit.KindResolve,
		IncidentID: inc.ID,
		Code:       inc.Code,
		Actor:      byUID,
	})
	if c.bus != nil {
		c.bus.Publish(events.IncidentClosedEvent{IncidentID: inc.ID, Status: inc.Status, ByUID: byUID, At: now})
	}
	return inc, nil
}

// UpdateNotes changes the free-text notes. Snapshots, location and code
// are immutable after creation; notes are the only operator-editable
// field outside lifecycle transitions.
func (c *Coordinator) UpdateNotes(ctx context.Context, id, notes string) (model.Incident, error) {
	inc, err := c.Get(ctx, id)
	if err != nil {
		return model.Incident{}, err
	}
	inc.Notes = notes
	if err := c.persist(ctx, inc); err != nil {
		return model.Incident{}, err
	}
	return inc, nil
}

func (c *Coordinator) persist(ctx context.Context, inc model.Incident) error {
	if err := c.docs.Put(ctx, store.Incidents, inc.ID, inc); err != nil {
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// notifyResponders fans the alert out. Best-effort: the receipt is
// recorded, failures logged, nothing rolled back.
func (c *Coordinator) notifyResponders(ctx context.Context, inc model.Incident) notify.Receipt {
	if len(inc.AssignedResponderUIDs) == 0 {
		return notify.Receipt{}
	}
	receipt, err := c.gateway.Send(ctx, notify.Alert{
		TargetUIDs: inc.AssignedResponderUIDs,
		Title:      fmt.Sprintf("Incident %s", inc.Code),
		Body:       fmt.Sprintf("%s (%s) at %s", inc.Type, inc.Severity, inc.Location.Address),
		Data:       map[string]string{"incident_id": inc.ID},
	})
	if err != nil {
		c.log.Errorf("notification fan-out for %s failed: %v", inc.Code, err)
		notifyFailures.Add(float64(len(inc.AssignedResponderUIDs)))
		return notify.Receipt{Failure: len(inc.AssignedResponderUIDs)}
	}
	if receipt.Failure > 0 {
		c.log.Warnf("incident %s: %d of %d notifications failed", inc.Code, receipt.Failure, receipt.Success+receipt.Failure)
		notifyFailures.Add(float64(receipt.Failure))
	}
	if dr, ok := c.sink.(metrics.DeliveryRecorder); ok {
		if err := dr.RecordDelivery(metrics.DeliveryRecord{
			IncidentID: inc.ID,
			Success:    receipt.Success,
			Failure:    receipt.Failure,
			Time:       c.clock(),
		}); err != nil {
			c.log.Errorf("delivery metrics error: %v", err)
		}
	}
	return receipt
}

func (c *Coordinator) recordDispatch(inc model.Incident, receipt notify.Receipt) {
	if c.sink == nil {
		return
	}
	var recs []metrics.DispatchRecord
	for _, s := range inc.TeamSnapshots {
		recs = append(recs, metrics.DispatchRecord{
			IncidentID: inc.ID,
			Code:       inc.Code,
			Severity:   inc.Severity,
			TeamName:   s.TeamName,
			Members:    len(s.Members),
			Time:       inc.CreatedAt,
		})
	}
	if err := c.sink.RecordDispatch(recs); err != nil {
		c.log.Errorf("dispatch metrics error: %v", err)
	}
}

func (c *Coordinator) appendAudit(ctx context.Context, e Entry) {
	if c.trail == nil {
		return
	}
	if err := c.trail.Append(ctx, e); err != nil {
		c.log.Errorf("audit append failed: %v", err)
	}
}

// Entry aliases the audit entry type for brevity inside this package.
type Entry = audit.Entry

// assignedUIDs returns the deduplicated union of member uids across all
// snapshots, preserving first-seen order.
func assignedUIDs(snapshots []model.TeamSnapshot) []string {
	seen := make(map[string]struct{})
	var uids []string
	for _, s := range snapshots {
		for _, m := range s.Members {
			if _, ok := seen[m.UID]; ok {
				continue
			}
			seen[m.UID] = struct{}{}
			uids = append(uids, m.UID)
		}
	}
	return uids
}

func teamNames(snapshots []model.TeamSnapshot) []string {
	names := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		names = append(names, s.TeamName)
	}
	return names
}
