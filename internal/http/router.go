package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gatherly/backend/internal/authctx"
	"gatherly/backend/internal/config"
	"gatherly/backend/internal/domain/group"
	"gatherly/backend/internal/domain/notifications"
	"gatherly/backend/internal/domain/proposal"
	"gatherly/backend/internal/domain/submission"
	"gatherly/backend/internal/domain/user"
	"gatherly/backend/internal/feed"
	"gatherly/backend/internal/httpjson"
	"gatherly/backend/internal/middleware"
	"gatherly/backend/internal/notify"
	"gatherly/backend/internal/utils"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Cfg              config.Config
	AuthClient       *auth.Client
	Log              *zap.Logger
	Users            *user.Repo
	Groups           *group.Repo
	Proposals        *proposal.Repo
	Submissions      *submission.Repo
	NotificationsSvc *notifications.Service
	FeedSvc          *feed.Service
	Scheduler        notify.Scheduler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.AuthClient))

		pr.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			claims, _ := authctx.Claims(r.Context())

			// First request after sign-in seeds the user document.
			if err := d.Users.UpsertMinimal(r.Context(), uid, authctx.Email(r.Context()), authctx.DisplayName(r.Context())); err != nil {
				d.Log.Warn("user upsert failed", zap.String("uid", uid), zap.Error(err))
			}

			WriteJSON(w, 200, map[string]any{"uid": uid, "claims": claims})
		})

		pr.Put("/v1/me/reminder-pref", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())

			var req struct {
				AllowVoteReminders bool `json:"allowVoteReminders"`
			}
			if err := httpjson.Read(r, &req); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			if err := d.Users.SetReminderPref(r.Context(), uid, req.AllowVoteReminders); err != nil {
				Fail(w, 500, "failed to update preference")
				return
			}
			WriteJSON(w, 200, map[string]any{"allowVoteReminders": req.AllowVoteReminders})
		})

		// ===== Groups =====
		pr.Post("/v1/groups", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())

			var in group.CreateInput
			if err := httpjson.Read(r, &in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			out, err := d.Groups.Create(r.Context(), uid, in)
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Get("/v1/groups/search", func(w http.ResponseWriter, r *http.Request) {
			q := strings.TrimSpace(r.URL.Query().Get("q"))
			out, err := d.Groups.SearchByNamePrefix(r.Context(), q)
			if err != nil {
				Fail(w, 500, "search failed")
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/groups/{groupID}", func(w http.ResponseWriter, r *http.Request) {
			out, err := d.Groups.Get(r.Context(), chi.URLParam(r, "groupID"))
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Post("/v1/groups/{groupID}/members", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				UID string `json:"uid"`
			}
			if err := httpjson.Read(r, &req); err != nil || strings.TrimSpace(req.UID) == "" {
				Fail(w, 400, "uid is required")
				return
			}
			if err := d.Groups.AddMember(r.Context(), chi.URLParam(r, "groupID"), req.UID); err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			NoContent(w)
		})

		// ===== Home feed (connectivity-aware) =====
		pr.Get("/v1/feed", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			out, err := d.FeedSvc.Home(r.Context(), uid)
			if err != nil {
				Fail(w, 500, "failed to load feed")
				return
			}
			WriteJSON(w, 200, out)
		})

		// ===== Proposals =====
		pr.Post("/v1/proposals", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())

			var in proposal.CreateInput
			if err := httpjson.Read(r, &in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			out, err := d.Proposals.Create(r.Context(), uid, in)
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Get("/v1/proposals/stream", d.handleProposalStream)

		pr.Get("/v1/proposals/{proposalID}", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			id := chi.URLParam(r, "proposalID")

			out, err := d.Proposals.Fetch(r.Context(), id)
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}

			// Showing an un-answered proposal arms the vote reminder,
			// gated on the user's preference read at fetch time.
			if d.Users.AllowsReminders(r.Context(), uid) {
				answered, err := d.Submissions.HasSubmitted(r.Context(), id, uid)
				if err == nil && !answered {
					d.Scheduler.ScheduleVoteReminder(notify.ReminderKey(uid, id), out.Title)
				}
			}

			WriteJSON(w, 200, out)
		})

		pr.Delete("/v1/proposals/{proposalID}", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			if err := d.Proposals.DeleteForUser(r.Context(), chi.URLParam(r, "proposalID"), uid); err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			NoContent(w)
		})

		// ===== Submissions =====
		pr.Post("/v1/proposals/{proposalID}/submissions", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			proposalID := chi.URLParam(r, "proposalID")

			var req struct {
				From             string `json:"from"`
				To               string `json:"to"`
				Comment          string `json:"comment"`
				SelectedLocation string `json:"selectedLocation"`
			}
			if err := httpjson.Read(r, &req); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			from, err := utils.ParseTime(req.From)
			if err != nil {
				Fail(w, 400, "invalid from timestamp")
				return
			}
			to, err := utils.ParseTime(req.To)
			if err != nil {
				Fail(w, 400, "invalid to timestamp")
				return
			}

			// Check-then-act against the current submission set. The window
			// between this check and the write is open: two rapid submits
			// can both pass it.
			if answered, err := d.Submissions.HasSubmitted(r.Context(), proposalID, uid); err == nil && answered {
				Fail(w, 409, "already submitted for this proposal")
				return
			}

			out, err := d.Submissions.Submit(r.Context(), submission.SubmitInput{
				ProposalID:       proposalID,
				UserID:           uid,
				UserName:         authctx.DisplayName(r.Context()),
				From:             from,
				To:               to,
				Comment:          utils.TrimMax(req.Comment, 500),
				SelectedLocation: req.SelectedLocation,
			})
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Get("/v1/proposals/{proposalID}/submissions", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			out, err := d.Submissions.List(r.Context(), chi.URLParam(r, "proposalID"), uid)
			if err != nil {
				Fail(w, 500, "failed to list submissions")
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/proposals/{proposalID}/submissions/stream", d.handleSubmissionStream)

		pr.Delete("/v1/submissions/{submissionID}", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			if err := d.Submissions.Delete(r.Context(), chi.URLParam(r, "submissionID"), uid); err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			NoContent(w)
		})

		// ===== Notifications =====
		pr.Get("/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			unreadOnly := r.URL.Query().Get("unread") == "1"
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

			out, err := d.NotificationsSvc.List(r.Context(), uid, unreadOnly, limit)
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Post("/v1/notifications/read", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())

			var in notifications.MarkReadInput
			if err := httpjson.Read(r, &in); err != nil {
				Fail(w, 400, "invalid json")
				return
			}
			count, err := d.NotificationsSvc.MarkRead(r.Context(), uid, in)
			if err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			WriteJSON(w, 200, map[string]any{"marked": count})
		})

		pr.Delete("/v1/notifications/{notificationID}", func(w http.ResponseWriter, r *http.Request) {
			uid, _ := authctx.UID(r.Context())
			if err := d.NotificationsSvc.Delete(r.Context(), uid, chi.URLParam(r, "notificationID")); err != nil {
				Fail(w, statusFor(err), err.Error())
				return
			}
			NoContent(w)
		})
	})

	return r
}

// statusFor maps domain sentinel errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case proposal.IsErrNotFound(err), group.IsErrNotFound(err), submission.IsErrNotFound(err):
		return 404
	case proposal.IsErrBadRequest(err), group.IsErrBadRequest(err),
		submission.IsErrBadRequest(err), errors.Is(err, notifications.ErrBadRequest):
		return 400
	case submission.IsErrForbidden(err):
		return 403
	default:
		return 500
	}
}
