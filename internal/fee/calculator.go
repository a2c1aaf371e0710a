// Package fee computes rental charges in integer KRW. Lecture and studio
// rooms charge by the hour plus flat per-day equipment prices; the gallery
// charges flat per-day tiers, with the prep day always free and equipment
// and discounts forced to zero no matter what upstream rows carry.
package fee

import (
	"math"
	"time"

	"maru/internal/bundle"
	"maru/internal/calendar"
	"maru/internal/model"
)

// Tiers are the gallery per-day prices.
type Tiers struct {
	GalleryWeekdayKRW  int64 `yaml:"gallery_weekday_krw"`
	GallerySaturdayKRW int64 `yaml:"gallery_saturday_krw"`
}

// DefaultTiers returns the standard gallery day prices.
func DefaultTiers() Tiers {
	return Tiers{GalleryWeekdayKRW: 20000, GallerySaturdayKRW: 10000}
}

// Calculator computes fee breakdowns for sessions and bundles.
type Calculator struct {
	tiers Tiers
}

// NewCalculator builds a calculator; zero tiers fall back to defaults.
func NewCalculator(tiers Tiers) *Calculator {
	def := DefaultTiers()
	if tiers.GalleryWeekdayKRW == 0 {
		tiers.GalleryWeekdayKRW = def.GalleryWeekdayKRW
	}
	if tiers.GallerySaturdayKRW == 0 {
		tiers.GallerySaturdayKRW = def.GallerySaturdayKRW
	}
	return &Calculator{tiers: tiers}
}

// ForRequest computes the breakdown for a single request row. For gallery
// range rows the rental fee is the sum of the day tiers over the period;
// the row's own discount fields are ignored for gallery rows even when
// stale data carries nonzero values.
func (c *Calculator) ForRequest(room *model.Room, req *model.RentalRequest) model.FeeBreakdown {
	rental, equipment := c.requestFee(room, req)
	discount := req.Discount
	if room.Category == model.CategoryGallery {
		discount = model.Discount{}
	}
	return assemble(rental, equipment, discount, room.Category)
}

// ForBundle computes the breakdown for a set of sibling rows. Fees are
// summed over the bundle's fee basis (the approved subset once any row is
// approved), and the discount is applied once to the bundle total, never
// per row.
func (c *Calculator) ForBundle(room *model.Room, requests []model.RentalRequest) model.FeeBreakdown {
	basis := bundle.FeeBasis(requests)

	var rental, equipment int64
	for i := range basis {
		r, e := c.requestFee(room, &basis[i])
		rental += r
		equipment += e
	}

	var discount model.Discount
	if room.Category != model.CategoryGallery {
		for i := range requests {
			if !requests[i].Discount.IsZero() {
				discount = requests[i].Discount
				break
			}
		}
	}
	return assemble(rental, equipment, discount, room.Category)
}

// requestFee returns (rental, equipment) for one row.
func (c *Calculator) requestFee(room *model.Room, req *model.RentalRequest) (int64, int64) {
	if room.Category == model.CategoryGallery {
		if req.IsRangeRequest() {
			return c.galleryRangeFee(req.StartDate, req.EndDate), 0
		}
		return c.gallerySessionFee(req.Session()), 0
	}

	sess := req.Session()
	minutes, err := sess.DurationMinutes()
	if err != nil || minutes <= 0 {
		return 0, 0
	}
	rental := roundKRW(float64(room.HourlyFeeKRW) * float64(minutes) / 60.0)

	// Equipment is a flat per-item price charged once per session day,
	// not scaled by duration.
	var equipment int64
	for _, item := range req.Equipment {
		equipment += room.EquipmentPrices[item]
	}
	return rental, equipment
}

// gallerySessionFee prices one synthesized gallery session.
func (c *Calculator) gallerySessionFee(s model.Session) int64 {
	if s.IsPrepDay {
		return 0
	}
	wd, err := calendar.Weekday(s.Date)
	if err != nil {
		return 0
	}
	switch wd {
	case time.Sunday: // synthesized sessions never land here
		return 0
	case time.Saturday:
		return c.tiers.GallerySaturdayKRW
	default:
		return c.tiers.GalleryWeekdayKRW
	}
}

// galleryRangeFee sums the day tiers over [startDate, endDate], skipping
// Sundays. The prep day sits outside the range and is free anyway.
func (c *Calculator) galleryRangeFee(startDate, endDate string) int64 {
	days, err := calendar.DiffDaysInclusive(startDate, endDate)
	if err != nil || days <= 0 {
		return 0
	}
	var total int64
	day := startDate
	for i := 0; i < days; i++ {
		wd, err := calendar.Weekday(day)
		if err != nil {
			return total
		}
		switch wd {
		case time.Sunday:
			// closed
		case time.Saturday:
			total += c.tiers.GallerySaturdayKRW
		default:
			total += c.tiers.GalleryWeekdayKRW
		}
		day, err = calendar.AddDays(day, 1)
		if err != nil {
			return total
		}
	}
	return total
}

// NormalizeDiscount reconciles the two staff input modes against a base
// total. Rate input derives the amount, amount input derives the rate, and
// the resulting amount is clamped to [0, baseTotal].
func NormalizeDiscount(baseTotal int64, d model.Discount) (ratePct float64, amountKRW int64) {
	switch d.Mode {
	case model.DiscountRate:
		ratePct = d.RatePct
		amountKRW = roundKRW(float64(baseTotal) * d.RatePct / 100.0)
	case model.DiscountAmount:
		amountKRW = d.AmountKRW
		if baseTotal > 0 {
			ratePct = float64(d.AmountKRW) / float64(baseTotal) * 100.0
		}
	default:
		return 0, 0
	}
	if amountKRW < 0 {
		amountKRW = 0
	}
	if amountKRW > baseTotal {
		amountKRW = baseTotal
	}
	if ratePct < 0 {
		ratePct = 0
	}
	return ratePct, amountKRW
}

func assemble(rental, equipment int64, d model.Discount, cat model.RoomCategory) model.FeeBreakdown {
	total := rental + equipment
	fb := model.FeeBreakdown{
		RentalFeeKRW:    rental,
		EquipmentFeeKRW: equipment,
		TotalFeeKRW:     total,
		FinalFeeKRW:     total,
	}
	if cat == model.CategoryGallery || d.IsZero() {
		return fb
	}
	fb.DiscountRatePct, fb.DiscountAmountKRW = NormalizeDiscount(total, d)
	fb.DiscountReason = d.Reason
	fb.FinalFeeKRW = total - fb.DiscountAmountKRW
	if fb.FinalFeeKRW < 0 {
		fb.FinalFeeKRW = 0
	}
	return fb
}

func roundKRW(v float64) int64 {
	return int64(math.Round(v))
}
