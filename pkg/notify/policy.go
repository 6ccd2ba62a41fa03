package notify

// PolicyConfig toggles delivery channels at deploy time. All channels
// default to enabled.
type PolicyConfig struct {
	EmailEnabled bool `env:"NOTIFICATION_EMAIL_ENABLED" envDefault:"true"`
	SMSEnabled   bool `env:"NOTIFICATION_SMS_ENABLED" envDefault:"true"`
	InAppEnabled bool `env:"NOTIFICATION_IN_APP_ENABLED" envDefault:"true"`
}

// Policy answers whether a channel may be used for delivery. It is
// consulted per recipient before a job is created; a disabled channel
// skips the recipient without counting it as a failure.
type Policy struct {
	cfg PolicyConfig
}

// NewPolicy builds a policy from config.
func NewPolicy(cfg PolicyConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Enabled reports whether the channel is open for delivery. Channels
// without a toggle pass through; the processor decides whether it can
// deliver them.
func (p *Policy) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.cfg.EmailEnabled
	case ChannelSMS:
		return p.cfg.SMSEnabled
	case ChannelInApp:
		return p.cfg.InAppEnabled
	default:
		return true
	}
}
