package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voyager_booking/internal/booking"
	"voyager_booking/internal/domain"
)

type CheckoutService struct {
	voyager domain.VoyagerClient
	catalog *CatalogService
	audit   domain.AuditLog // optional
	loc     *time.Location
	now     func() time.Time
}

func NewCheckoutService(v domain.VoyagerClient, c *CatalogService, audit domain.AuditLog, loc *time.Location) *CheckoutService {
	if loc == nil {
		loc = time.Local
	}
	return &CheckoutService{voyager: v, catalog: c, audit: audit, loc: loc, now: time.Now}
}

// WithClock swaps the clock used for "today" and receipt timestamps.
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	cp := *s
	cp.now = now
	return &cp
}

type BookingResult struct {
	BookingID   string                 `json:"booking_id"`
	Message     string                 `json:"message"`
	ReceiptSent bool                   `json:"receipt_sent"`
	Breakdown   booking.PriceBreakdown `json:"breakdown"`
}

// checkout is a validated stay against a known hotel, priced.
type checkout struct {
	hotel domain.Hotel
	stay  domain.StayRequest
	price booking.PriceBreakdown
}

func (s *CheckoutService) prepare(ctx context.Context, token, hotelID string, draft domain.StayDraft, discount *float64) (checkout, error) {
	if hotelID == "" {
		return checkout{}, domain.ErrHotelNotSelected
	}
	if err := checkDiscount(discount); err != nil {
		return checkout{}, err
	}
	stay, err := draft.Request()
	if err != nil {
		return checkout{}, err
	}
	if err := booking.ValidateRange(stay.CheckIn, stay.CheckOut, booking.Today(s.now(), s.loc)); err != nil {
		return checkout{}, err
	}
	h, err := s.catalog.Hotel(ctx, token, hotelID)
	if err != nil {
		return checkout{}, err
	}
	return checkout{hotel: h, stay: stay, price: booking.Quote(h, stay, discount)}, nil
}

// Quote prices a stay without touching any session.
func (s *CheckoutService) Quote(ctx context.Context, token, hotelID string, draft domain.StayDraft, discount *float64) (booking.PriceBreakdown, error) {
	co, err := s.prepare(ctx, token, hotelID, draft, discount)
	if err != nil {
		return booking.PriceBreakdown{}, err
	}
	return co.price, nil
}

func (s *CheckoutService) QuoteSession(ctx context.Context, sess domain.Session) (booking.PriceBreakdown, error) {
	return s.Quote(ctx, sess.Token, sess.SelectedHotelID, sess.Stay, sess.Discount)
}

// Book re-checks availability for the selected hotel, submits the booking and
// dispatches the receipt. A receipt failure is reported, never rolled back.
func (s *CheckoutService) Book(ctx context.Context, sess domain.Session, specialRequests string) (BookingResult, error) {
	co, err := s.prepare(ctx, sess.Token, sess.SelectedHotelID, sess.Stay, sess.Discount)
	if err != nil {
		return BookingResult{}, err
	}
	if err := s.ensureAvailable(ctx, sess, co); err != nil {
		return BookingResult{}, err
	}

	conf, err := s.voyager.SubmitBooking(ctx, sess.Token, domain.BookingSubmission{HotelName: co.hotel.Name, Stay: co.stay})
	if err == nil && !conf.Success {
		msg := conf.Message
		if msg == "" {
			msg = "Booking failed"
		}
		err = &domain.Error{Kind: domain.KindRequest, Op: "checkout.book", Message: msg}
	}
	if err != nil {
		s.logBooking(ctx, sess, co, domain.BookingEvent{Success: false, Message: err.Error()})
		return BookingResult{}, err
	}

	res := BookingResult{
		BookingID: conf.BookingID,
		Message:   conf.Message,
		Breakdown: co.price,
	}
	if res.BookingID == "" {
		res.BookingID = "bkg-" + uuid.NewString()
	}
	if res.Message == "" {
		res.Message = "Rooms booked successfully!"
	}

	if rerr := s.voyager.SendReceipt(ctx, s.receipt(sess, co, res.BookingID, specialRequests)); rerr != nil {
		log.Warn().Err(rerr).Str("session", sess.ID).Str("booking", res.BookingID).Msg("receipt dispatch failed")
	} else {
		res.ReceiptSent = true
	}

	s.logBooking(ctx, sess, co, domain.BookingEvent{BookingID: res.BookingID, Success: true, Message: res.Message})
	return res, nil
}

// CreateOrder opens a payment order for the selected hotel at the final price.
func (s *CheckoutService) CreateOrder(ctx context.Context, sess domain.Session) (domain.PaymentOrder, error) {
	co, err := s.prepare(ctx, sess.Token, sess.SelectedHotelID, sess.Stay, sess.Discount)
	if err != nil {
		return domain.PaymentOrder{}, err
	}
	return s.voyager.CreateOrder(ctx, co.hotel.ID, co.price.Final)
}

// ensureAvailable requires the hotel's name in the availability answer for the
// stay. Any failure to get that answer counts as "not available".
func (s *CheckoutService) ensureAvailable(ctx context.Context, sess domain.Session, co checkout) error {
	res, err := s.voyager.AvailableHotels(ctx, sess.Token, domain.AvailabilityQuery{
		RoomType: co.stay.RoomType,
		CheckIn:  co.stay.CheckIn,
		CheckOut: co.stay.CheckOut,
		Rooms:    co.stay.Rooms,
	})
	if err == nil && res.Success {
		for _, a := range res.Hotels {
			if a.HotelName == co.hotel.Name {
				return nil
			}
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Str("hotel", co.hotel.ID).Msg("availability check failed before checkout")
	}
	return &domain.Error{
		Kind:    domain.KindValidation,
		Op:      "checkout.availability",
		Message: fmt.Sprintf("%s is not available for your selected filters", co.hotel.Name),
		Err:     err,
	}
}

func (s *CheckoutService) receipt(sess domain.Session, co checkout, bookingID, special string) domain.Receipt {
	var discount float64
	if sess.Discount != nil {
		discount = *sess.Discount
	}
	return domain.Receipt{
		UserName:        sess.Name,
		UserEmail:       sess.Email,
		HotelName:       co.hotel.Name,
		HotelLocation:   co.hotel.Location,
		RoomType:        string(co.stay.RoomType),
		Rooms:           co.stay.Rooms,
		CheckIn:         domain.FormatDate(co.stay.CheckIn),
		CheckOut:        domain.FormatDate(co.stay.CheckOut),
		Guests:          co.stay.Guests,
		SpecialRequests: special,
		Price:           co.price.BasePrice,
		Discount:        discount,
		FinalPrice:      co.price.Final,
		PaymentStatus:   "Success",
		BookingDate:     s.now().In(s.loc).Format("2006-01-02 15:04:05"),
		BookingID:       bookingID,
	}
}

func (s *CheckoutService) logBooking(ctx context.Context, sess domain.Session, co checkout, ev domain.BookingEvent) {
	if s.audit == nil {
		return
	}
	ev.SessionID = sess.ID
	ev.HotelID = co.hotel.ID
	ev.HotelName = co.hotel.Name
	ev.Stay = co.stay
	ev.FinalPrice = co.price.Final
	if err := s.audit.LogBooking(context.WithoutCancel(ctx), ev); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("audit booking failed")
	}
}
