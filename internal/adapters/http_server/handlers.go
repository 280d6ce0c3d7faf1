package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"voyager_booking/internal/app"
	"voyager_booking/internal/booking"
	"voyager_booking/internal/domain"
)

const (
	sessionHeader = "X-Session-ID"
	maxBody       = 1 << 20
)

type Handlers struct {
	Sessions *app.SessionService
	Search   *app.SearchService
	Checkout *app.CheckoutService
	Loc      *time.Location // calendar used for dates in request bodies
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/session", h.login)
		r.Get("/session", h.getSession)
		r.Delete("/session", h.logout)
		r.Patch("/session/stay", h.updateStay)
		r.Put("/session/hotel", h.selectHotel)
		r.Put("/session/discount", h.setDiscount)
		r.Get("/session/quote", h.sessionQuote)

		r.Get("/hotels", h.listHotels)
		r.Post("/hotels/search", h.searchHotels)
		r.Post("/quote", h.quote)
		r.Post("/bookings", h.book)
		r.Post("/orders", h.createOrder)
	})
}

/********** responses **********/

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemKind(w, status, title, detail, "")
}

func writeProblemKind(w http.ResponseWriter, status int, title, detail, kind string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Kind: kind}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps an error kind onto the gateway's HTTP status.
func statusFor(k domain.ErrorKind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRequest:
		return http.StatusUnprocessableEntity
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindNetwork, domain.KindServer:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("kind", kind.String()).Msg("request failed")
	}
	writeProblemKind(w, status, http.StatusText(status), domain.UserMessage(err), kind.String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeETagged answers 304 when the client already holds this version.
func writeETagged(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write ETagged body")
	}
}

/********** request helpers **********/

// decodeBody reads a JSON body; an empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeProblem(w, http.StatusBadRequest, "Invalid JSON", "request body must be a JSON object")
	return false
}

// session loads the caller's session or writes a 401.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, err := h.Sessions.Get(r.Context(), r.Header.Get(sessionHeader))
	if err != nil {
		writeError(w, r, err)
		return domain.Session{}, false
	}
	return sess, true
}

// optionalToken forwards the session's bearer token when a session is presented.
func (h *Handlers) optionalToken(r *http.Request) string {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		return ""
	}
	sess, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		return ""
	}
	return sess.Token
}

func parseBand(minS, maxS string) (booking.PriceBand, error) {
	band := booking.DefaultPriceBand
	for _, f := range []struct {
		raw string
		dst *float64
	}{{minS, &band.Min}, {maxS, &band.Max}} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil || v < 0 {
			return band, domain.Validation("price_band", "min and max must be non-negative numbers")
		}
		*f.dst = v
	}
	if band.Min > band.Max {
		return band, domain.Validation("price_band", "min must not exceed max")
	}
	return band, nil
}

/********** views **********/

type stayView struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	RoomType string `json:"room_type"`
	Rooms    int    `json:"rooms"`
	Guests   int    `json:"guests"`
}

type sessionView struct {
	SessionID       string   `json:"session_id"`
	UserID          string   `json:"user_id,omitempty"`
	Role            string   `json:"role"`
	Home            string   `json:"home"`
	Email           string   `json:"email"`
	Name            string   `json:"name,omitempty"`
	SelectedHotelID string   `json:"selected_hotel_id,omitempty"`
	Discount        *float64 `json:"discount"`
	Stay            stayView `json:"stay"`
}

func viewOf(s domain.Session) sessionView {
	return sessionView{
		SessionID:       s.ID,
		UserID:          s.UserID,
		Role:            string(s.Role),
		Home:            s.Role.Home(),
		Email:           s.Email,
		Name:            s.Name,
		SelectedHotelID: s.SelectedHotelID,
		Discount:        s.Discount,
		Stay: stayView{
			CheckIn:  domain.FormatDate(s.Stay.CheckIn),
			CheckOut: domain.FormatDate(s.Stay.CheckOut),
			RoomType: string(s.Stay.RoomType),
			Rooms:    s.Stay.Rooms,
			Guests:   s.Stay.Guests,
		},
	}
}

/********** session **********/

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var cr domain.Credentials
	if !decodeBody(w, r, &cr) {
		return
	}
	sess, err := h.Sessions.Login(r.Context(), cr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID,
		"role":       string(sess.Role),
		"home":       sess.Role.Home(),
	})
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), r.Header.Get(sessionHeader)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) updateStay(w http.ResponseWriter, r *http.Request) {
	var p app.StayPatch
	if !decodeBody(w, r, &p) {
		return
	}
	sess, err := h.Sessions.UpdateStay(r.Context(), r.Header.Get(sessionHeader), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *Handlers) selectHotel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HotelID string `json:"hotel_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.HotelID) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid hotel", "hotel_id is required")
		return
	}
	sess, err := h.Sessions.SelectHotel(r.Context(), r.Header.Get(sessionHeader), body.HotelID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *Handlers) setDiscount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Discount *float64 `json:"discount"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	sess, err := h.Sessions.SetDiscount(r.Context(), r.Header.Get(sessionHeader), body.Discount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *Handlers) sessionQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	pb, err := h.Checkout.QuoteSession(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pb)
}

/********** catalog and search **********/

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	band, err := parseBand(q.Get("min"), q.Get("max"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	hs, err := h.Search.Browse(r.Context(), h.optionalToken(r), q.Get("q"), band)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeETagged(w, r, map[string]any{"hotels": hs, "count": len(hs)})
}

type searchBody struct {
	app.StayPatch
	Query string   `json:"q"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}
	band := booking.DefaultPriceBand
	if body.Min != nil {
		band.Min = *body.Min
	}
	if body.Max != nil {
		band.Max = *body.Max
	}
	if band.Min < 0 || band.Min > band.Max {
		writeProblem(w, http.StatusBadRequest, "Invalid price band", "min must be non-negative and not exceed max")
		return
	}
	if !body.StayPatch.Empty() {
		var err error
		if sess, err = h.Sessions.UpdateStay(r.Context(), sess.ID, body.StayPatch); err != nil {
			writeError(w, r, err)
			return
		}
	}

	out, err := h.Search.Search(r.Context(), sess, body.Query, band)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := map[string]any{
		"path":   out.Path,
		"hotels": out.Hotels,
		"states": out.States,
	}
	if out.Cause != nil {
		resp["notice"] = "API filtering failed. Applied basic filters instead."
	} else if len(out.Hotels) == 0 {
		resp["notice"] = "No hotels available for the selected criteria"
	}
	writeJSON(w, http.StatusOK, resp)
}

/********** checkout **********/

type quoteBody struct {
	HotelID  string   `json:"hotel_id"`
	CheckIn  string   `json:"check_in"`
	CheckOut string   `json:"check_out"`
	RoomType string   `json:"room_type"`
	Rooms    int      `json:"rooms"`
	Guests   int      `json:"guests"`
	Discount *float64 `json:"discount"`
}

func (b quoteBody) draft(loc *time.Location) (domain.StayDraft, error) {
	var (
		d   = domain.StayDraft{Rooms: b.Rooms, Guests: b.Guests}
		err error
	)
	if d.CheckIn, err = domain.ParseDate(b.CheckIn, loc); err != nil {
		return d, err
	}
	if d.CheckOut, err = domain.ParseDate(b.CheckOut, loc); err != nil {
		return d, err
	}
	if b.RoomType != "" {
		if d.RoomType, err = domain.ParseRoomType(b.RoomType); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	var body quoteBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.HotelID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid hotel", "hotel_id is required")
		return
	}
	draft, err := body.draft(h.Loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pb, err := h.Checkout.Quote(r.Context(), h.optionalToken(r), body.HotelID, draft, body.Discount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pb)
}

func (h *Handlers) book(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		SpecialRequests string `json:"special_requests"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := h.Checkout.Book(r.Context(), sess, body.SpecialRequests)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	order, err := h.Checkout.CreateOrder(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}
