package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Enabled(t *testing.T) {
	t.Parallel()

	t.Run("all channels open", func(t *testing.T) {
		p := NewPolicy(PolicyConfig{EmailEnabled: true, SMSEnabled: true, InAppEnabled: true})
		for _, ch := range []Channel{ChannelEmail, ChannelSMS, ChannelInApp, ChannelWhatsApp} {
			assert.True(t, p.Enabled(ch), string(ch))
		}
	})

	t.Run("disabled channels are closed", func(t *testing.T) {
		p := NewPolicy(PolicyConfig{EmailEnabled: false, SMSEnabled: false, InAppEnabled: false})
		assert.False(t, p.Enabled(ChannelEmail))
		assert.False(t, p.Enabled(ChannelSMS))
		assert.False(t, p.Enabled(ChannelInApp))
	})

	t.Run("channels without a toggle pass through", func(t *testing.T) {
		p := NewPolicy(PolicyConfig{})
		assert.True(t, p.Enabled(ChannelWhatsApp))
	})
}
