// internal/app/services/invites/invitesvc.go

// Package invitesvc owns invite tokens: issuing, delivering, redeeming,
// cancelling and resending them, and the approval queue that redemption
// feeds when a group requires it.
package invitesvc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/policy/accesspolicy"
	groupstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/groups"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auditlog"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/htmlsanitize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/limits"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/mailer"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/metrics"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/normalize"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	DefaultExpiryDays = 7
	MaxExpiryDays     = 90
	// ResendWindow is how far a resend pushes the expiry.
	ResendWindow = 7 * 24 * time.Hour

	tokenBytes = 16
)

// GroupStore is the group persistence the invite lifecycle needs.
type GroupStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	GetByInviteToken(ctx context.Context, token string) (models.Group, error)
	PushInvites(ctx context.Context, id primitive.ObjectID, invites []models.Invite, entry models.AuditEntry) error
	AddMember(ctx context.Context, id primitive.ObjectID, m models.Membership, token string, status models.InviteStatus, entry *models.AuditEntry) (bool, error)
	AddPending(ctx context.Context, id primitive.ObjectID, p models.PendingMembership) (bool, error)
	ApprovePending(ctx context.Context, id primitive.ObjectID, m models.Membership, token string, entry models.AuditEntry) (bool, error)
	RejectPending(ctx context.Context, id primitive.ObjectID, userID, token string, deactivate bool, entry models.AuditEntry) (bool, error)
	SetInviteState(ctx context.Context, id primitive.ObjectID, token string, u models.InviteUpdate, entry *models.AuditEntry) (bool, error)
}

// Directory resolves username handles.
type Directory interface {
	FindByName(ctx context.Context, handle string) (models.User, error)
}

// Notifier creates inbox entries.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) (models.Notification, error)
}

// Mailer delivers email without blocking the caller.
type Mailer interface {
	SendAsync(e mailer.Email)
}

// Config holds the values invite links and emails are built from.
type Config struct {
	BaseURL     string
	SiteName    string
	DefaultDays int
}

// Service implements the invite lifecycle.
type Service struct {
	groups   GroupStore
	dir      Directory
	notify   Notifier
	mail     Mailer
	cfg      Config
	log      *zap.Logger
	auditLog *auditlog.Logger
	now      func() time.Time
}

func New(groups GroupStore, dir Directory, notify Notifier, mail Mailer, cfg Config, logger *zap.Logger) *Service {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SiteName == "" {
		cfg.SiteName = "SYNAPSE"
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = DefaultExpiryDays
	}
	return &Service{
		groups: groups,
		dir:    dir,
		notify: notify,
		mail:   mail,
		cfg:    cfg,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithAuditLog records refused operations to l.
func (s *Service) WithAuditLog(l *auditlog.Logger) *Service {
	s.auditLog = l
	return s
}

// authorize asks accesspolicy about op on g and records a refusal.
func (s *Service) authorize(actor models.Actor, g *models.Group, res accesspolicy.Resource, op accesspolicy.Operation) accesspolicy.Verdict {
	res.Group = g
	v := accesspolicy.Authorize(actor.Email, res, op)
	if !v.Allowed() {
		s.auditLog.Denied(op.String(), actor.Email, g.ID, res.Target, string(v.Reason))
	}
	return v
}

// Link returns the shareable URL for token.
func (s *Service) Link(token string) string {
	return s.cfg.BaseURL + "/invite/" + token
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

var errGroupNotFound = apperr.NotFoundf("Group not found")

func (s *Service) loadGroup(ctx context.Context, id string) (models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return models.Group{}, errGroupNotFound
	}
	g, err := s.groups.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, errGroupNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("load group %s: %w", oid.Hex(), err)
	}
	return g, nil
}

func (s *Service) audit(actor string, action, target, details string) models.AuditEntry {
	return models.AuditEntry{
		Action:      action,
		PerformedBy: actor,
		Target:      target,
		Details:     details,
		Timestamp:   s.now(),
	}
}

// ClampDays applies the default and the 1..90 bound to an expiry in days.
func ClampDays(days, def int) int {
	if days == 0 {
		days = def
	}
	if days < 1 {
		return 1
	}
	if days > MaxExpiryDays {
		return MaxExpiryDays
	}
	return days
}

/*─────────────────────────────────────────────────────────────────────────────*
| Issue                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// IssueInput describes one invite batch.
type IssueInput struct {
	GroupID         string
	Method          string
	Recipients      []string
	Role            string
	ExpiresDays     int
	PersonalMessage string
}

// InviteResult is one issued token.
type InviteResult struct {
	Method     models.InviteMethod `json:"method"`
	Recipient  string              `json:"recipient,omitempty"`
	Token      string              `json:"token"`
	InviteLink string              `json:"inviteLink"`
}

// IssueResult is the outcome of Issue.
type IssueResult struct {
	Results []InviteResult `json:"results"`
	Message string         `json:"message"`
}

func (in IssueInput) validate() (models.InviteMethod, models.Role, []string, error) {
	if strings.TrimSpace(in.GroupID) == "" {
		return "", "", nil, apperr.Invalid("missing_group", "Group ID is required")
	}
	method := models.InviteByLink
	if m := strings.TrimSpace(in.Method); m != "" {
		method = models.InviteMethod(strings.ToLower(m))
	}
	if !method.Valid() {
		return "", "", nil, apperr.Invalid("invalid_method", "Invalid invite method")
	}
	role := models.RoleMember
	if strings.TrimSpace(in.Role) != "" {
		r, err := models.ParseRole(in.Role)
		if err != nil {
			return "", "", nil, apperr.Invalid("invalid_role", "Invalid role")
		}
		role = r
	}

	var recipients []string
	switch method {
	case models.InviteByLink:
	case models.InviteByEmail, models.InviteByUsername:
		recipients = normalize.Recipients(in.Recipients)
		if len(recipients) == 0 {
			return "", "", nil, apperr.Invalid("missing_recipients", "Recipients array is required")
		}
		if len(recipients) > limits.MaxRecipients {
			return "", "", nil, apperr.Invalid("too_many_recipients",
				fmt.Sprintf("At most %d recipients per batch", limits.MaxRecipients))
		}
		if method == models.InviteByEmail {
			for _, r := range recipients {
				if !normalize.IsEmail(r) {
					return "", "", nil, apperr.Invalid("invalid_email", fmt.Sprintf("Invalid email address: %s", r))
				}
			}
		} else {
			for i, r := range recipients {
				if !normalize.IsEmail(r) {
					recipients[i] = normalize.Handle(r)
				}
			}
		}
	}
	return method, role, recipients, nil
}

// Issue creates a batch of invites in one atomic append and then delivers
// them. Delivery failures never undo the batch.
func (s *Service) Issue(ctx context.Context, actor models.Actor, in IssueInput) (IssueResult, error) {
	method, role, recipients, err := in.validate()
	if err != nil {
		return IssueResult{}, err
	}

	g, err := s.loadGroup(ctx, in.GroupID)
	if err != nil {
		return IssueResult{}, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.InviteIssue).Err(); err != nil {
		return IssueResult{}, err
	}
	if role == models.RoleAdmin && !g.IsAdmin(actor.Email) {
		return IssueResult{}, apperr.Forbidden("admin_invite", "Only admins may invite administrators")
	}

	now := s.now()
	expiresAt := now.AddDate(0, 0, ClampDays(in.ExpiresDays, s.cfg.DefaultDays))

	targets := recipients
	if method == models.InviteByLink {
		targets = []string{""}
	}

	var invites []models.Invite
	for attempt := 0; attempt < 2; attempt++ {
		invites = make([]models.Invite, 0, len(targets))
		for _, r := range targets {
			token, err := newToken()
			if err != nil {
				return IssueResult{}, err
			}
			invites = append(invites, models.Invite{
				Token:     token,
				Method:    method,
				Recipient: r,
				Role:      role,
				Status:    models.InviteSent,
				InvitedBy: actor.Email,
				ExpiresAt: expiresAt,
				IsActive:  true,
				CreatedAt: now,
			})
		}
		details := fmt.Sprintf("Issued %d %s invite(s)", len(invites), method)
		err = s.groups.PushInvites(ctx, g.ID, invites, s.audit(actor.Email, models.AuditIssueInvite, "", details))
		if !errors.Is(err, groupstore.ErrDuplicateInviteToken) {
			break
		}
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return IssueResult{}, errGroupNotFound
	}
	if err != nil {
		s.log.Error("push invites failed",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.Error(err))
		return IssueResult{}, fmt.Errorf("push invites: %w", err)
	}
	metrics.InvitesIssued.WithLabelValues(string(method)).Add(float64(len(invites)))

	results := make([]InviteResult, 0, len(invites))
	for _, inv := range invites {
		s.deliver(ctx, actor, g, inv, in.PersonalMessage)
		results = append(results, InviteResult{
			Method:     inv.Method,
			Recipient:  inv.Recipient,
			Token:      inv.Token,
			InviteLink: s.Link(inv.Token),
		})
	}

	msg := "Invite link generated"
	if method != models.InviteByLink {
		msg = fmt.Sprintf("Invites sent to %d recipients", len(results))
	}
	return IssueResult{Results: results, Message: msg}, nil
}

// deliver sends inv to its recipient. Errors are logged only.
func (s *Service) deliver(ctx context.Context, actor models.Actor, g models.Group, inv models.Invite, personal string) {
	switch inv.Method {
	case models.InviteByLink:
		return
	case models.InviteByEmail:
		if s.mail == nil {
			return
		}
		e := mailer.BuildInviteEmail(mailer.InviteEmailData{
			SiteName:        s.cfg.SiteName,
			InviterName:     actor.DisplayName(),
			GroupName:       g.Name,
			InviteLink:      s.Link(inv.Token),
			PersonalMessage: htmlsanitize.StripTags(personal),
			ExpiresIn:       expiresIn(s.now(), inv.ExpiresAt),
		})
		e.To = inv.Recipient
		s.mail.SendAsync(e)
	case models.InviteByUsername:
		if s.notify == nil {
			return
		}
		dctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "deliver username invite")
		defer cancel()

		target := inv.Recipient
		if !normalize.IsEmail(target) {
			u, err := s.dir.FindByName(dctx, target)
			if err != nil {
				s.log.Warn("invite recipient not resolved",
					zap.String("handle", target),
					zap.String("group_id", g.ID.Hex()),
					zap.String("token", tokenPrefix(inv.Token)),
					zap.Error(err))
				return
			}
			target = u.Email
		}
		_, err := s.notify.Notify(dctx, models.Notification{
			Recipient: target,
			Sender:    actor.Email,
			Type:      models.NotifyInvite,
			Title:     "New Unit Invitation",
			Message:   fmt.Sprintf("%s invited you to join %q.", actor.DisplayName(), g.Name),
			Link:      "/invite/" + inv.Token,
			Metadata:  map[string]string{"groupId": g.ID.Hex(), "token": inv.Token},
		})
		if err != nil {
			s.log.Error("invite notification failed",
				zap.String("recipient", target),
				zap.String("group_id", g.ID.Hex()),
				zap.String("token", tokenPrefix(inv.Token)),
				zap.Error(err))
		}
	}
}

func expiresIn(now, at time.Time) string {
	days := int(at.Sub(now).Round(time.Hour).Hours() / 24)
	if days <= 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Redeem                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// Outcome is the result of a successful redemption.
type Outcome string

const (
	OutcomeJoined        Outcome = "joined"
	OutcomePending       Outcome = "pending"
	OutcomeAlreadyMember Outcome = "already_member"
)

// RedeemResult reports what a redemption did.
type RedeemResult struct {
	Outcome   Outcome
	GroupID   primitive.ObjectID
	GroupName string
	Message   string
}

func redeemed(outcome string) {
	metrics.InvitesRedeemed.WithLabelValues(outcome).Inc()
}

// Redeem joins the actor to the group owning token, or queues the actor for
// approval. Redeeming again as an existing member changes nothing.
func (s *Service) Redeem(ctx context.Context, actor models.Actor, token string) (RedeemResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return RedeemResult{}, apperr.Invalid("missing_token", "Invite token is required")
	}

	g, err := s.groups.GetByInviteToken(ctx, token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		redeemed("invalid")
		return RedeemResult{}, apperr.NotFoundf("Invalid invite link")
	}
	if err != nil {
		return RedeemResult{}, fmt.Errorf("lookup invite: %w", err)
	}
	inv, ok := g.InviteByToken(token)
	if !ok {
		redeemed("invalid")
		return RedeemResult{}, apperr.NotFoundf("Invalid invite link")
	}

	now := s.now()
	if err := s.checkRedeemable(ctx, actor, g, inv, now); err != nil {
		s.auditLog.Rejected("invite.redeem", actor.Email, g.ID, tokenPrefix(token), err)
		return RedeemResult{}, err
	}

	base := RedeemResult{GroupID: g.ID, GroupName: g.Name}
	if _, ok := g.MemberOf(actor.Email); ok {
		redeemed("already_member")
		base.Outcome, base.Message = OutcomeAlreadyMember, "You are already a member of this group"
		return base, nil
	}

	if g.Settings.ApprovalRequired {
		return s.queue(ctx, actor, g, inv, now)
	}

	m := models.Membership{
		UserID:   actor.Email,
		UserName: actor.DisplayName(),
		Role:     inv.GrantedRole(),
		JoinedAt: now,
	}
	added, err := s.groups.AddMember(ctx, g.ID, m, token, models.InviteJoined, nil)
	if err != nil {
		s.log.Error("add member failed",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.String("token", tokenPrefix(token)),
			zap.Error(err))
		return RedeemResult{}, fmt.Errorf("add member: %w", err)
	}
	if !added {
		// Either a concurrent redemption by the same actor won, or the group is gone.
		fresh, err := s.groups.GetByID(ctx, g.ID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return RedeemResult{}, apperr.NotFoundf("Invalid invite link")
		}
		if err != nil {
			return RedeemResult{}, fmt.Errorf("reload group: %w", err)
		}
		if _, ok := fresh.MemberOf(actor.Email); !ok {
			return RedeemResult{}, fmt.Errorf("add member: update matched no group")
		}
	}
	redeemed("joined")
	base.Outcome, base.Message = OutcomeJoined, "Successfully joined the group"
	return base, nil
}

// checkRedeemable maps the invite's state to a user-facing error. A
// single-use invite that this actor already consumed is not an error; the
// caller reports the membership or pending request instead.
func (s *Service) checkRedeemable(ctx context.Context, actor models.Actor, g models.Group, inv models.Invite, now time.Time) error {
	err := inv.Redeemable(now)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrInviteInactive):
		redeemed("inactive")
		return apperr.Conflict("inactive", "This invite is no longer active")
	case errors.Is(err, models.ErrInviteExpired):
		redeemed("expired")
		s.touchExpired(ctx, g, inv)
		return apperr.Conflict("expired", "This invite has expired")
	case errors.Is(err, models.ErrInviteRedeemed):
		if _, ok := g.MemberOf(actor.Email); ok {
			return nil
		}
		if p, ok := g.PendingOf(actor.Email); ok && p.InviteToken == inv.Token {
			return nil
		}
		redeemed("redeemed")
		return apperr.Conflict("redeemed", "This invite has already been used")
	}
	return fmt.Errorf("check invite: %w", err)
}

// touchExpired records the expiry on the invite. Best-effort.
func (s *Service) touchExpired(ctx context.Context, g models.Group, inv models.Invite) {
	next, err := models.NextInviteStatus(inv.Status, models.EventExpire)
	if err != nil || next == inv.Status {
		return
	}
	if _, err := s.groups.SetInviteState(ctx, g.ID, inv.Token, models.InviteUpdate{Status: next, Active: inv.IsActive}, nil); err != nil {
		s.log.Warn("mark invite expired failed",
			zap.String("group_id", g.ID.Hex()),
			zap.String("token", tokenPrefix(inv.Token)),
			zap.Error(err))
	}
}

func (s *Service) queue(ctx context.Context, actor models.Actor, g models.Group, inv models.Invite, now time.Time) (RedeemResult, error) {
	base := RedeemResult{GroupID: g.ID, GroupName: g.Name, Outcome: OutcomePending}
	if _, ok := g.PendingOf(actor.Email); ok {
		redeemed("pending")
		base.Message = "Your request to join is pending approval."
		return base, nil
	}

	p := models.PendingMembership{
		UserID:      actor.Email,
		UserName:    actor.DisplayName(),
		Role:        inv.GrantedRole(),
		InviteToken: inv.Token,
		RequestedAt: now,
	}
	added, err := s.groups.AddPending(ctx, g.ID, p)
	if err != nil {
		s.log.Error("queue join request failed",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.String("token", tokenPrefix(inv.Token)),
			zap.Error(err))
		return RedeemResult{}, fmt.Errorf("add pending: %w", err)
	}
	if !added {
		fresh, err := s.groups.GetByID(ctx, g.ID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return RedeemResult{}, apperr.NotFoundf("Invalid invite link")
		}
		if err != nil {
			return RedeemResult{}, fmt.Errorf("reload group: %w", err)
		}
		if _, ok := fresh.MemberOf(actor.Email); ok {
			redeemed("already_member")
			base.Outcome, base.Message = OutcomeAlreadyMember, "You are already a member of this group"
			return base, nil
		}
		if _, ok := fresh.PendingOf(actor.Email); !ok {
			return RedeemResult{}, fmt.Errorf("add pending: update matched no group")
		}
		base.Message = "Your request to join is pending approval."
		redeemed("pending")
		return base, nil
	}
	redeemed("pending")
	base.Message = "Request sent. Administrator approval required."
	return base, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Preview, list, cancel and resend                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Preview is what an invite landing page may show before sign-in.
type Preview struct {
	GroupID     primitive.ObjectID  `json:"groupId"`
	GroupName   string              `json:"groupName"`
	Description string              `json:"description,omitempty"`
	GroupType   models.GroupType    `json:"type"`
	Role        models.Role         `json:"role"`
	Method      models.InviteMethod `json:"method"`
	InvitedBy   string              `json:"invitedBy"`
	ExpiresAt   time.Time           `json:"expiresAt"`
	Approval    bool                `json:"approvalRequired"`
	Valid       bool                `json:"valid"`
	Reason      string              `json:"reason,omitempty"`
}

// Preview describes the invite behind token without exposing members.
func (s *Service) Preview(ctx context.Context, token string) (Preview, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Preview{}, apperr.NotFoundf("Invalid invite link")
	}
	g, err := s.groups.GetByInviteToken(ctx, token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Preview{}, apperr.NotFoundf("Invalid invite link")
	}
	if err != nil {
		return Preview{}, fmt.Errorf("lookup invite: %w", err)
	}
	inv, ok := g.InviteByToken(token)
	if !ok {
		return Preview{}, apperr.NotFoundf("Invalid invite link")
	}

	p := Preview{
		GroupID:     g.ID,
		GroupName:   g.Name,
		Description: g.Description,
		GroupType:   g.Type,
		Role:        inv.GrantedRole(),
		Method:      inv.Method,
		InvitedBy:   inv.InvitedBy,
		ExpiresAt:   inv.ExpiresAt,
		Approval:    g.Settings.ApprovalRequired,
		Valid:       true,
	}
	switch err := inv.Redeemable(s.now()); {
	case err == nil:
	case errors.Is(err, models.ErrInviteExpired):
		p.Valid, p.Reason = false, "expired"
	case errors.Is(err, models.ErrInviteRedeemed):
		p.Valid, p.Reason = false, "redeemed"
	default:
		p.Valid, p.Reason = false, "inactive"
	}
	return p, nil
}

// List returns the group's invites to an admin.
func (s *Service) List(ctx context.Context, actor models.Actor, groupID string) ([]models.Invite, error) {
	g, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.InviteList).Err(); err != nil {
		return nil, err
	}
	return append([]models.Invite{}, g.Invites...), nil
}

// ManageAction is an admin operation on an existing invite.
type ManageAction string

const (
	ActionCancel ManageAction = "cancel"
	ActionResend ManageAction = "resend"
)

// CancelOrResend deactivates an invite, or reactivates it with a fresh
// expiry and redelivers it. It returns the group's invites afterwards.
func (s *Service) CancelOrResend(ctx context.Context, actor models.Actor, groupID, token string, action ManageAction) ([]models.Invite, error) {
	var ev models.InviteEvent
	switch action {
	case ActionCancel:
		ev = models.EventCancel
	case ActionResend:
		ev = models.EventResend
	default:
		return nil, apperr.Invalid("invalid_action", "Invalid action")
	}
	token = strings.TrimSpace(token)

	g, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.InviteManage).Err(); err != nil {
		return nil, err
	}
	inv, ok := g.InviteByToken(token)
	if !ok {
		return nil, apperr.NotFoundf("Invite not found")
	}
	next, err := models.NextInviteStatus(inv.Status, ev)
	if err != nil {
		return nil, apperr.Conflict("invalid_transition", "Invite cannot be resent while a join request is pending")
	}

	u := models.InviteUpdate{Status: next}
	var entry models.AuditEntry
	switch action {
	case ActionCancel:
		u.Active = false
		entry = s.audit(actor.Email, models.AuditCancelInvite, inv.Recipient, "Cancelled invite "+tokenPrefix(token))
	case ActionResend:
		exp := s.now().Add(ResendWindow)
		u.Active = true
		u.ExpiresAt = &exp
		entry = s.audit(actor.Email, models.AuditResendInvite, inv.Recipient, "Resent invite "+tokenPrefix(token))
	}

	ok, err = s.groups.SetInviteState(ctx, g.ID, token, u, &entry)
	if err != nil {
		s.log.Error("update invite failed",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.String("token", tokenPrefix(token)),
			zap.Error(err))
		return nil, fmt.Errorf("update invite: %w", err)
	}
	if !ok {
		return nil, apperr.NotFoundf("Invite not found")
	}

	if action == ActionResend {
		inv.Status, inv.IsActive, inv.ExpiresAt = next, true, *u.ExpiresAt
		s.deliver(ctx, actor, g, inv, "")
		s.log.Info("invite resent",
			zap.String("actor", actor.Email),
			zap.String("group_id", g.ID.Hex()),
			zap.String("token", tokenPrefix(token)))
	}

	fresh, err := s.loadGroup(ctx, g.ID.Hex())
	if err != nil {
		return nil, err
	}
	return fresh.Invites, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Join requests                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// RequestAction is an admin decision on a join request.
type RequestAction string

const (
	ActionApprove RequestAction = "approve"
	ActionReject  RequestAction = "reject"
)

// ProcessRequest approves or rejects target's pending request. Approval grants
// the role recorded on the request and notifies the user.
func (s *Service) ProcessRequest(ctx context.Context, actor models.Actor, groupID, target string, action RequestAction) (string, error) {
	target = normalize.Email(target)
	if target == "" || action == "" {
		return "", apperr.Invalid("missing_fields", "User ID and action are required")
	}
	if action != ActionApprove && action != ActionReject {
		return "", apperr.Invalid("invalid_action", "Invalid action")
	}

	g, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if err := s.authorize(actor, &g, accesspolicy.Resource{}, accesspolicy.RequestProcess).Err(); err != nil {
		return "", err
	}
	p, ok := g.PendingOf(target)
	if !ok {
		err := apperr.NotFoundf("Request not found")
		s.auditLog.Rejected("request."+string(action), actor.Email, g.ID, target, err)
		return "", err
	}

	switch action {
	case ActionApprove:
		role := p.Role
		if !role.Valid() {
			role = models.RoleMember
		}
		m := models.Membership{UserID: p.UserID, UserName: p.UserName, Role: role, JoinedAt: s.now()}
		entry := s.audit(actor.Email, models.AuditApproveMember, p.UserName, "Approved join request")
		ok, err := s.groups.ApprovePending(ctx, g.ID, m, p.InviteToken, entry)
		if err != nil {
			s.log.Error("approve request failed",
				zap.String("actor", actor.Email),
				zap.String("group_id", g.ID.Hex()),
				zap.String("target", target),
				zap.Error(err))
			return "", fmt.Errorf("approve request: %w", err)
		}
		if !ok {
			return "", apperr.NotFoundf("Request not found")
		}
		if s.notify != nil {
			_, err := s.notify.Notify(ctx, models.Notification{
				Recipient: p.UserID,
				Sender:    models.SystemSender,
				Type:      models.NotifySystem,
				Title:     "Join Request Approved",
				Message:   fmt.Sprintf("You have been accepted into %q.", g.Name),
				Link:      "/chat",
				Metadata:  map[string]string{"groupId": g.ID.Hex()},
			})
			if err != nil {
				s.log.Error("approval notification failed",
					zap.String("recipient", p.UserID),
					zap.String("group_id", g.ID.Hex()),
					zap.Error(err))
			}
		}
		return "Request approved", nil

	case ActionReject:
		deactivate := false
		if inv, ok := g.InviteByToken(p.InviteToken); ok {
			deactivate = inv.Method.SingleUse()
		}
		entry := s.audit(actor.Email, models.AuditRejectMember, p.UserName, "Rejected join request")
		ok, err := s.groups.RejectPending(ctx, g.ID, p.UserID, p.InviteToken, deactivate, entry)
		if err != nil {
			s.log.Error("reject request failed",
				zap.String("actor", actor.Email),
				zap.String("group_id", g.ID.Hex()),
				zap.String("target", target),
				zap.Error(err))
			return "", fmt.Errorf("reject request: %w", err)
		}
		if !ok {
			return "", apperr.NotFoundf("Request not found")
		}
		return "Request rejected", nil
	}
	return "", apperr.Invalid("invalid_action", "Invalid action")
}
