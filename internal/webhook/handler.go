// Package webhook receives GitHub App webhook deliveries, verifies their
// signatures, and normalizes push, pull_request, issues, and installation
// events into contribution event rows.
package webhook

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/google/uuid"
	"github.com/impactboard/impactboard-go/internal/models"
	"github.com/impactboard/impactboard-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// Handler is the HTTP handler for the webhook endpoint
type Handler struct {
	store  storage.Store
	secret []byte
	logger *logrus.Logger
	now    func() time.Time
}

// NewHandler creates a webhook handler. secret is the GitHub App webhook
// secret used for signature validation.
func NewHandler(store storage.Store, secret string, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

// ServeHTTP validates the delivery signature, routes the event by type,
// and persists what it extracts. Unknown event types are acknowledged and
// ignored so GitHub does not retry them.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := gogithub.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.WithError(err).Warn("webhook signature validation failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := gogithub.ParseWebHook(gogithub.WebHookType(r), payload)
	if err != nil {
		h.logger.WithError(err).Warn("webhook payload parse failed")
		http.Error(w, "unparseable payload", http.StatusBadRequest)
		return
	}

	deliveryID := gogithub.DeliveryID(r)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	if err := h.handleEvent(r.Context(), deliveryID, event); err != nil {
		h.logger.WithError(err).WithField("delivery", deliveryID).Error("webhook handling failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleEvent(ctx context.Context, deliveryID string, event any) error {
	switch e := event.(type) {
	case *gogithub.PushEvent:
		return h.handlePush(ctx, deliveryID, e)
	case *gogithub.PullRequestEvent:
		return h.handlePullRequest(ctx, deliveryID, e)
	case *gogithub.IssuesEvent:
		return h.handleIssues(ctx, deliveryID, e)
	case *gogithub.InstallationEvent:
		return h.handleInstallation(ctx, e)
	default:
		h.logger.WithField("type", fmt.Sprintf("%T", event)).Debug("ignoring webhook event type")
		return nil
	}
}

func (h *Handler) handlePush(ctx context.Context, deliveryID string, e *gogithub.PushEvent) error {
	org := e.GetRepo().GetOrganization()
	repo := e.GetRepo()
	received := h.now().UTC()

	// Push payloads carry changed-file lists but no line counts; line
	// deltas enter scoring when the PR merge event arrives.
	var events []models.ContributionEvent
	for i, commit := range e.Commits {
		if !commit.GetDistinct() {
			continue
		}
		sender := e.GetSender()
		userID := sender.GetID()
		login := sender.GetLogin()
		avatar := sender.GetAvatarURL()
		// The pusher is not necessarily the author: a maintainer pushing
		// someone else's commits must not collect their score. Commit
		// authors arrive by login only, so authors other than the sender
		// get a synthetic ID until an event with their real one arrives.
		if authorLogin := commit.GetAuthor().GetLogin(); authorLogin != "" && authorLogin != login {
			login = authorLogin
			avatar = ""
			userID = syntheticUserID(authorLogin)
		}
		occurred := commit.GetTimestamp().Time
		if occurred.IsZero() {
			occurred = received
		}
		events = append(events, models.ContributionEvent{
			ID:         fmt.Sprintf("%s-%d", deliveryID, i),
			OrgID:      orgIDFromPush(e),
			RepoID:     repo.GetID(),
			RepoName:   repo.GetName(),
			UserID:     userID,
			Login:      login,
			AvatarURL:  avatar,
			Kind:       models.EventCommit,
			OccurredAt: occurred.UTC(),
			ReceivedAt: received,
		})
	}
	if len(events) == 0 {
		return nil
	}

	h.logger.WithFields(logrus.Fields{
		"org":     org,
		"repo":    repo.GetName(),
		"commits": len(events),
	}).Debug("push event ingested")
	return h.store.SaveEvents(ctx, events)
}

func (h *Handler) handlePullRequest(ctx context.Context, deliveryID string, e *gogithub.PullRequestEvent) error {
	// Only merges count as contributions; opened/closed-unmerged PRs are
	// scored when their commits land.
	if e.GetAction() != "closed" || !e.GetPullRequest().GetMerged() {
		return nil
	}

	pr := e.GetPullRequest()
	author := pr.GetUser()
	received := h.now().UTC()

	event := models.ContributionEvent{
		ID:           deliveryID,
		OrgID:        e.GetOrganization().GetID(),
		RepoID:       e.GetRepo().GetID(),
		RepoName:     e.GetRepo().GetName(),
		UserID:       author.GetID(),
		Login:        author.GetLogin(),
		AvatarURL:    author.GetAvatarURL(),
		Kind:         models.EventPRMerged,
		LinesAdded:   pr.GetAdditions(),
		LinesRemoved: pr.GetDeletions(),
		OccurredAt:   pr.GetMergedAt().Time.UTC(),
		ReceivedAt:   received,
	}
	return h.store.SaveEvents(ctx, []models.ContributionEvent{event})
}

func (h *Handler) handleIssues(ctx context.Context, deliveryID string, e *gogithub.IssuesEvent) error {
	var kind models.EventKind
	switch e.GetAction() {
	case "opened":
		kind = models.EventIssueOpened
	case "closed":
		kind = models.EventIssueClosed
	default:
		return nil
	}

	issue := e.GetIssue()
	actor := e.GetSender()
	received := h.now().UTC()
	occurred := issue.GetUpdatedAt().Time
	if occurred.IsZero() {
		occurred = received
	}

	event := models.ContributionEvent{
		ID:         deliveryID,
		OrgID:      e.GetOrg().GetID(),
		RepoID:     e.GetRepo().GetID(),
		RepoName:   e.GetRepo().GetName(),
		UserID:     actor.GetID(),
		Login:      actor.GetLogin(),
		AvatarURL:  actor.GetAvatarURL(),
		Kind:       kind,
		OccurredAt: occurred.UTC(),
		ReceivedAt: received,
	}
	return h.store.SaveEvents(ctx, []models.ContributionEvent{event})
}

func (h *Handler) handleInstallation(ctx context.Context, e *gogithub.InstallationEvent) error {
	inst := e.GetInstallation()
	account := inst.GetAccount()
	now := h.now().UTC()

	switch e.GetAction() {
	case "created", "unsuspend":
		return h.store.SaveInstallation(ctx, &models.Installation{
			ID:        inst.GetID(),
			OrgID:     account.GetID(),
			OrgLogin:  account.GetLogin(),
			Suspended: false,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case "suspend":
		return h.store.SaveInstallation(ctx, &models.Installation{
			ID:        inst.GetID(),
			OrgID:     account.GetID(),
			OrgLogin:  account.GetLogin(),
			Suspended: true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case "deleted":
		return h.store.DeleteInstallation(ctx, inst.GetID())
	}
	return nil
}

// syntheticUserID derives a stable negative ID from a login. GitHub user
// IDs are positive, so synthetic IDs can never collide with real ones.
func syntheticUserID(login string) int64 {
	h := fnv.New64a()
	h.Write([]byte(login))
	id := int64(h.Sum64() &^ (1 << 63))
	if id == 0 {
		id = 1
	}
	return -id
}

func orgIDFromPush(e *gogithub.PushEvent) int64 {
	if org := e.GetOrganization(); org != nil {
		return org.GetID()
	}
	return e.GetRepo().GetOwner().GetID()
}
