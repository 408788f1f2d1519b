package http

import (
	"net/http"
	"strconv"

	"github.com/IgorGrieder/shortlinks/internal/constants"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/IgorGrieder/shortlinks/pkg/httputils"
)

type AdminHandler struct {
	links *LinksHandler
}

func NewAdminHandler(linksHandler *LinksHandler) *AdminHandler {
	return &AdminHandler{links: linksHandler}
}

// ListLinks lists every link, optionally filtered by owner, active flag and a
// search term matched against key and target URL.
func (h *AdminHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(err.Error()))
		return
	}

	q := r.URL.Query()
	filter := links.ListFilter{
		OwnerID: q.Get("owner"),
		Search:  q.Get("q"),
		Page:    page,
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("active must be true or false"))
			return
		}
		filter.Active = &active
	}

	found, err := h.links.svc.ListAll(r.Context(), filter)
	if err != nil {
		h.links.writeError(w, r, err, "list all links")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinksListed, h.links.toListResponse(found, page.Normalize()))
}
