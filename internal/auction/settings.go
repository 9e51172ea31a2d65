package auction

import (
	"context"
	"strconv"
	"time"
)

// Keys of the system_settings rows the engine reads.
const (
	SettingAutoExtendMinutes     = "auto_extend_minutes"
	SettingBidCooldownSeconds    = "bid_cooldown_seconds"
	SettingPaymentTimeLimitHours = "payment_time_limit_hours"
)

const (
	defaultAutoExtendMinutes = 5
	minAutoExtendMinutes     = 1
	maxAutoExtendMinutes     = 60
	defaultBidCooldown       = 5
	defaultPaymentLimitHours = 24
)

// Settings is the live configuration store.  Admins change values while
// the service runs, so the engine calls Get on every operation instead of
// caching at startup.  ok is false when the key has no row.
type Settings interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// Tunables is a snapshot of the settings one operation works with.
type Tunables struct {
	AutoExtend   time.Duration
	BidCooldown  time.Duration
	PaymentLimit time.Duration
}

// loadTunables reads every key and falls back to defaults for missing,
// unparsable or unreadable values.  A settings outage must not stop
// bidding, so read errors are logged rather than returned.
func (e *Engine) loadTunables(ctx context.Context) Tunables {
	ext := e.intSetting(ctx, SettingAutoExtendMinutes, defaultAutoExtendMinutes)
	if ext < minAutoExtendMinutes {
		ext = minAutoExtendMinutes
	}
	if ext > maxAutoExtendMinutes {
		ext = maxAutoExtendMinutes
	}
	cooldown := e.intSetting(ctx, SettingBidCooldownSeconds, defaultBidCooldown)
	if cooldown < 0 {
		cooldown = 0
	}
	payHours := e.intSetting(ctx, SettingPaymentTimeLimitHours, defaultPaymentLimitHours)
	if payHours < 1 {
		payHours = defaultPaymentLimitHours
	}
	return Tunables{
		AutoExtend:   time.Duration(ext) * time.Minute,
		BidCooldown:  time.Duration(cooldown) * time.Second,
		PaymentLimit: time.Duration(payHours) * time.Hour,
	}
}

func (e *Engine) intSetting(ctx context.Context, key string, def int) int {
	if e.settings == nil {
		return def
	}
	raw, ok, err := e.settings.Get(ctx, key)
	if err != nil {
		e.log.WithError(err).WithField("key", key).Warn("settings read failed, using default")
		return def
	}
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.log.WithField("key", key).WithField("value", raw).Warn("invalid setting value, using default")
		return def
	}
	return n
}

// ValidateSetting checks an admin write before it reaches the store, so the
// fallbacks in loadTunables only ever cover missing rows.
func ValidateSetting(key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ErrInvalidSetting
	}
	switch key {
	case SettingAutoExtendMinutes:
		if n < minAutoExtendMinutes || n > maxAutoExtendMinutes {
			return ErrInvalidSetting
		}
	case SettingBidCooldownSeconds:
		if n < 0 {
			return ErrInvalidSetting
		}
	case SettingPaymentTimeLimitHours:
		if n < 1 {
			return ErrInvalidSetting
		}
	default:
		return ErrInvalidSetting
	}
	return nil
}
