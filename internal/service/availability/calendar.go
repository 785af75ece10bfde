package availability

import "github.com/Domenick1991/visitbooking/internal/domain"

// ResolveSlots returns the bookable labels for date: the seller's labels for
// the selected mode intersected with the store's opening table. A closed
// store day wins over any seller configuration. Nil settings or config
// resolve to no slots.
func ResolveSlots(settings *domain.StoreSettings, cfg *domain.AvailabilityConfig, date domain.Date) []domain.TimeLabel {
	day := settings.Day(date.Weekday())
	if !day.Active || cfg == nil {
		return []domain.TimeLabel{}
	}
	return domain.IntersectLabels(cfg.SellerSlots(date), day.Slots)
}

// HasSlots reports whether date resolves to at least one bookable label.
func HasSlots(settings *domain.StoreSettings, cfg *domain.AvailabilityConfig, date domain.Date) bool {
	return len(ResolveSlots(settings, cfg, date)) > 0
}
