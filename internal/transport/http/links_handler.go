package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/constants"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/shortlinks/internal/infrastructure/validation"
	"github.com/IgorGrieder/shortlinks/internal/processing/keys"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/IgorGrieder/shortlinks/pkg/httputils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultStatsDays = 30

type LinksHandler struct {
	svc *links.Service

	redirectStatus int
	asyncClick     bool
	clickTimeout   time.Duration
}

type LinksHandlerOptions struct {
	RedirectStatus int
	// AsyncClick records the click after the redirect has been written.
	AsyncClick   bool
	ClickTimeout time.Duration
}

func NewLinksHandler(svc *links.Service, opts LinksHandlerOptions) *LinksHandler {
	if opts.RedirectStatus != http.StatusMovedPermanently {
		opts.RedirectStatus = http.StatusFound
	}
	if opts.ClickTimeout <= 0 {
		opts.ClickTimeout = 2 * time.Second
	}

	return &LinksHandler{
		svc:            svc,
		redirectStatus: opts.RedirectStatus,
		asyncClick:     opts.AsyncClick,
		clickTimeout:   opts.ClickTimeout,
	}
}

type createLinkRequest struct {
	URL       string     `json:"url" validate:"required,notblank,http_url,max=2048"`
	CustomKey string     `json:"customKey,omitempty" validate:"omitempty,alphanum,max=32"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" validate:"omitempty,future"`
}

type updateLinkRequest struct {
	URL         *string    `json:"url,omitempty" validate:"omitempty,notblank,http_url,max=2048"`
	Active      *bool      `json:"active,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" validate:"omitempty,future"`
	ClearExpiry bool       `json:"clearExpiry,omitempty"`
}

type linkResponse struct {
	Key        string     `json:"key"`
	URL        string     `json:"url"`
	ShortURL   string     `json:"shortUrl"`
	ClickCount int64      `json:"clickCount"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type listResponse struct {
	Items  []linkResponse `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *LinksHandler) toResponse(l *links.Link) linkResponse {
	return linkResponse{
		Key:        l.Key,
		URL:        l.TargetURL,
		ShortURL:   h.svc.ShortURL(l.Key),
		ClickCount: l.ClickCount,
		Active:     l.Active,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
		ExpiresAt:  l.ExpiresAt,
	}
}

func (h *LinksHandler) toListResponse(found []links.Link, page links.Page) listResponse {
	items := make([]linkResponse, 0, len(found))
	for i := range found {
		items = append(items, h.toResponse(&found[i]))
	}
	return listResponse{Items: items, Limit: page.Limit, Offset: page.Offset}
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.GetIdentity(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	var req createLinkRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, validationError(err))
		return
	}

	link, err := h.svc.CreateLink(r.Context(), links.CreateLinkInput{
		TargetURL: req.URL,
		CustomKey: req.CustomKey,
		OwnerID:   id.UserID,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.writeError(w, r, err, "create link")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, h.toResponse(link))
}

func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.GetIdentity(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(err.Error()))
		return
	}

	found, err := h.svc.ListLinks(r.Context(), id.UserID, page)
	if err != nil {
		h.writeError(w, r, err, "list links")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinksListed, h.toListResponse(found, page.Normalize()))
}

func (h *LinksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.GetIdentity(r.Context())

	link, err := h.svc.GetLink(r.Context(), r.PathValue("key"), id.UserID)
	if err != nil {
		h.writeError(w, r, err, "get link")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkFound, h.toResponse(link))
}

func (h *LinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.GetIdentity(r.Context())

	var req updateLinkRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, validationError(err))
		return
	}
	if req.ClearExpiry && req.ExpiresAt != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("expiresAt and clearExpiry are mutually exclusive"))
		return
	}

	link, err := h.svc.UpdateLink(r.Context(), r.PathValue("key"), id.UserID, links.UpdateLinkInput{
		TargetURL:   req.URL,
		Active:      req.Active,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	})
	if err != nil {
		h.writeError(w, r, err, "update link")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkUpdated, h.toResponse(link))
}

func (h *LinksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.GetIdentity(r.Context())
	key := r.PathValue("key")

	if err := h.svc.DeleteLink(r.Context(), key, id.UserID); err != nil {
		h.writeError(w, r, err, "delete link")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkDeleted, map[string]string{"key": key})
}

func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	link, err := h.svc.Resolve(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, links.ErrNotFound):
			httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		case errors.Is(err, links.ErrExpired):
			httputils.WriteAPIError(w, r, constants.ErrLinkExpired)
		default:
			logger.Error("failed to resolve key", zap.Error(err), zap.String("key", key))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	if h.asyncClick {
		// Detach from the request so the click survives the response.
		ctx := context.WithoutCancel(r.Context())
		go func() {
			ctx, cancel := context.WithTimeout(ctx, h.clickTimeout)
			defer cancel()
			h.recordClick(ctx, link.Key)
		}()
	} else {
		h.recordClick(r.Context(), link.Key)
	}

	w.Header().Set("Cache-Control", "private, max-age=0")
	http.Redirect(w, r, link.TargetURL, h.redirectStatus)
}

func (h *LinksHandler) recordClick(ctx context.Context, key string) {
	if err := h.svc.RecordClick(ctx, key); err != nil {
		logger.Warn("failed to record click", zap.Error(err), zap.String("key", key))
	}
}

type statsResponse struct {
	Key   string             `json:"key"`
	From  string             `json:"from"`
	To    string             `json:"to"`
	Total int64              `json:"total"`
	Daily []links.DailyCount `json:"daily"`
}

type statsQueryParams struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Stats returns per-day click counts. Without a range it covers the last 30
// days up to today (UTC).
func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.GetIdentity(r.Context())
	key := r.PathValue("key")

	params := statsQueryParams{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := appvalidation.Validate(params); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("from and to must be YYYY-MM-DD"))
		return
	}

	to := time.Now().UTC()
	if params.To != "" {
		to, _ = time.Parse(time.DateOnly, params.To)
	}
	from := to.AddDate(0, 0, -(defaultStatsDays - 1))
	if params.From != "" {
		from, _ = time.Parse(time.DateOnly, params.From)
	}

	daily, err := h.svc.GetStats(r.Context(), key, id.UserID, from, to)
	if err != nil {
		h.writeError(w, r, err, "fetch stats")
		return
	}

	var total int64
	for _, d := range daily {
		total += d.Count
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, statsResponse{
		Key:   key,
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Total: total,
		Daily: daily,
	})
}

// QRCode serves the short URL as a PNG image.
func (h *LinksHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.GetIdentity(r.Context())

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("size must be an integer"))
			return
		}
		size = n
	}

	png, err := h.svc.QRCode(r.Context(), r.PathValue("key"), id.UserID, size)
	if err != nil {
		h.writeError(w, r, err, "render qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *LinksHandler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, links.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, links.ErrInvalidURL):
		httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
	case errors.Is(err, links.ErrInvalidKey):
		httputils.WriteAPIError(w, r, constants.ErrInvalidKey)
	case errors.Is(err, links.ErrKeyTaken):
		httputils.WriteAPIError(w, r, constants.ErrKeyTaken)
	case errors.Is(err, keys.ErrKeySpaceExhausted):
		httputils.WriteAPIError(w, r, constants.ErrKeyExhausted)
	case errors.Is(err, links.ErrInvalidExpiry):
		httputils.WriteAPIError(w, r, constants.ErrInvalidExpiry)
	case errors.Is(err, links.ErrInvalidRange):
		httputils.WriteAPIError(w, r, constants.ErrInvalidRange)
	case errors.Is(err, links.ErrExpired):
		httputils.WriteAPIError(w, r, constants.ErrLinkExpired)
	default:
		logger.Error("failed to "+op, zap.Error(err), zap.String("key", r.PathValue("key")))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}

// validationError maps the first failing field to the closest API error.
func validationError(err error) constants.APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch fe := verrs[0]; {
		case fe.Field() == "url":
			return constants.ErrInvalidURL
		case fe.Field() == "customKey":
			return constants.ErrInvalidKey
		case fe.Field() == "expiresAt" && fe.Tag() == "future":
			return constants.ErrInvalidExpiry
		}
	}
	return constants.ErrInvalidRequestBody.WithMessage(appvalidation.Message(err))
}

func parsePage(r *http.Request) (links.Page, error) {
	var page links.Page
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, errors.New("limit must be a non-negative integer")
		}
		page.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, errors.New("offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return page, nil
}
