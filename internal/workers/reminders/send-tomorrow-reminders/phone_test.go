package sendtomorrowreminders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
	}{
		{raw: "0501234567", region: "SA", want: "+966501234567"},
		{raw: "+966 50 123 4567", region: "SA", want: "+966501234567"},
		{raw: "+15551234567", region: "SA", want: "+15551234567"},
		{raw: "not a number", region: "SA", want: "not a number"},
		{raw: " 0501234567 ", region: "", want: "0501234567"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.region))
		})
	}
}
