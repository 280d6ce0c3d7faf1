// internal/adapters/voyager/client.go
package voyager

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"voyager_booking/internal/adapters/observability"
	"voyager_booking/internal/domain"
)

type Client struct {
	base         string
	hc           *http.Client
	rl           *rate.Limiter
	loginTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithLoginTimeout bounds the wait on the login call.
func WithLoginTimeout(d time.Duration) Option { return func(c *Client) { c.loginTimeout = d } }

func New(base string, rps int, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("voyager base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base:         strings.TrimRight(base, "/"),
		hc:           &http.Client{Timeout: 20 * time.Second},
		rl:           rate.NewLimiter(rate.Limit(rps), rps),
		loginTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- Public API ----

// ListHotels returns the raw catalog records; mapping is the caller's job.
func (c *Client) ListHotels(ctx context.Context, token string) ([]map[string]any, error) {
	var out []map[string]any
	return out, c.get(ctx, "hotels", "/owner/hotel/all", token, &out)
}

func (c *Client) AvailableHotels(ctx context.Context, token string, q domain.AvailabilityQuery) (domain.AvailabilityResult, error) {
	body := map[string]any{
		"room_type":      string(q.RoomType),
		"check_in_date":  domain.FormatDate(q.CheckIn),
		"check_out_date": domain.FormatDate(q.CheckOut),
		"num_rooms":      q.Rooms,
	}
	var out domain.AvailabilityResult
	return out, c.post(ctx, "available-hotels", "/bookings/available-hotels", token, body, &out)
}

func (c *Client) SubmitBooking(ctx context.Context, token string, b domain.BookingSubmission) (domain.BookingConfirmation, error) {
	persons := b.Stay.Guests
	if persons <= 0 {
		persons = 1
	}
	body := map[string]any{
		"hotel_name":     b.HotelName,
		"check_in_date":  domain.FormatDate(b.Stay.CheckIn),
		"check_out_date": domain.FormatDate(b.Stay.CheckOut),
		"room_type":      string(b.Stay.RoomType),
		"num_rooms":      b.Stay.Rooms,
		"persons":        persons,
	}
	var out struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		BookingID any    `json:"booking_id"`
	}
	if err := c.post(ctx, "book-multiple-rooms", "/bookings/book-multiple-rooms", token, body, &out); err != nil {
		return domain.BookingConfirmation{}, err
	}
	conf := domain.BookingConfirmation{Success: out.Success, Message: out.Message}
	if out.BookingID != nil {
		conf.BookingID = fmt.Sprint(out.BookingID)
	}
	return conf, nil
}

func (c *Client) SendReceipt(ctx context.Context, r domain.Receipt) error {
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.post(ctx, "send-receipt", "/bookings/send-receipt", "", r, &out); err != nil {
		return err
	}
	if !out.Success {
		return &domain.Error{Kind: domain.KindServer, Op: "voyager.send-receipt",
			Message: "Failed to send booking receipt email. Please try again later."}
	}
	return nil
}

func (c *Client) CreateOrder(ctx context.Context, hotelID string, amount int64) (domain.PaymentOrder, error) {
	var out struct {
		Order   *domain.PaymentOrder `json:"order"`
		Message string               `json:"message"`
	}
	body := map[string]any{"hotelId": hotelID, "amount": amount}
	if err := c.post(ctx, "create-order", "/orders/create-order", "", body, &out); err != nil {
		return domain.PaymentOrder{}, err
	}
	if out.Order == nil {
		msg := out.Message
		if msg == "" {
			msg = "Order creation failed"
		}
		return domain.PaymentOrder{}, &domain.Error{Kind: domain.KindServer, Op: "voyager.create-order", Message: msg}
	}
	return *out.Order, nil
}

// Login is the only call with an explicit bounded wait.
func (c *Client) Login(ctx context.Context, cr domain.Credentials) (domain.LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	var out struct {
		Token string `json:"token"`
		User  *struct {
			Role  string `json:"role"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	if err := c.post(ctx, "login", "/users/login", "", cr, &out); err != nil {
		return domain.LoginResult{}, loginError(err)
	}
	if out.Token == "" || out.User == nil {
		return domain.LoginResult{}, &domain.Error{Kind: domain.KindAuthorization, Op: "voyager.login",
			Message: "Authentication failed, missing token or user data."}
	}
	return domain.LoginResult{Token: out.Token, Role: out.User.Role, Email: out.User.Email, Name: out.User.Name}, nil
}

func loginError(err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return err
	}
	switch {
	case de.Status == http.StatusUnauthorized:
		de.Message = "Invalid email or password."
	case de.Status == http.StatusForbidden:
		de.Message = "You don't have permission."
	case de.Kind == domain.KindTimeout:
		de.Message = "Request timed out. Please try again."
	case de.Kind == domain.KindNetwork:
		de.Message = "Network error. Please check your connection."
	case de.Message == "" && de.Status != 0:
		de.Message = fmt.Sprintf("Server error (%d)", de.Status)
	}
	return de
}

// ---- Internals ----

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "voyager-booking/1.0")
	return req, nil
}

// post sends one JSON request. Writes are never retried.
func (c *Client) post(ctx context.Context, endpoint, path, token string, in, out any) error {
	op := "voyager." + endpoint
	if err := c.rl.Wait(ctx); err != nil {
		return transportError(op, err)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return &domain.Error{Kind: domain.KindValidation, Op: op, Message: "request could not be encoded", Err: err}
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, token, bytes.NewReader(b))
	if err != nil {
		return &domain.Error{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("voyager", endpoint, 0, time.Since(start))
		return transportError(op, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("voyager", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	return decode(op, resp, out)
}

// get performs a GET with client-side rate limiting and JSON decode into out.
// Network failures and 429 are retried with backoff, honoring Retry-After.
// Server errors are surfaced as-is.
func (c *Client) get(ctx context.Context, endpoint, path, token string, out any) error {
	op := "voyager." + endpoint
	if err := c.rl.Wait(ctx); err != nil {
		return transportError(op, err)
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
		if err != nil {
			return &domain.Error{Op: op, Err: err}
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("voyager", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return transportError(op, ctx.Err())
			}
			lastErr = transportError(op, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return transportError(op, ctx.Err())
			}
			return lastErr
		}
		observability.ObserveExternal("voyager", endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp)
			lastErr = statusError(op, resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return transportError(op, ctx.Err())
			}
			return lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err := statusError(op, resp)
			resp.Body.Close()
			return err
		}
		err = decode(op, resp, out)
		resp.Body.Close()
		return err
	}

	return lastErr
}

func decode(op string, resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func transportError(op string, err error) error {
	kind := domain.KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = domain.KindTimeout
	}
	return &domain.Error{Kind: kind, Op: op, Err: err}
}

// statusError maps a non-2xx response to a tagged error, keeping the remote
// message (if any) for the user.
func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(b, &body)

	e := &domain.Error{Op: op, Status: resp.StatusCode, Message: body.Message}
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Kind = domain.KindAuthorization
	case code == http.StatusNotFound:
		e.Kind = domain.KindNotFound
	case code >= 500:
		e.Kind = domain.KindServer
	default:
		e.Kind = domain.KindRequest
	}
	if e.Message == "" {
		e.Err = fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return e
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
