package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		phone  string
		region string
		want   string
	}{
		{"US with country code", "+1 (202) 456-1111", "US", "+12024561111"},
		{"US national", "(202) 456-1111", "US", "+12024561111"},
		{"default region", "202-456-1111", "", "+12024561111"},
		{"lower-case region", "07911 123456", "gb", "+447911123456"},
		{"explicit prefix beats region", "+44 7911 123456", "US", "+447911123456"},
		{"blank", "   ", "US", ""},
		{"garbage", "call me maybe", "US", ""},
		{"too short", "123", "US", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.phone, tt.region))
		})
	}
}

func TestDescribe(t *testing.T) {
	info, err := Describe("+44 7911 123456", "US")
	require.NoError(t, err)
	assert.True(t, info.IsValid)
	assert.Equal(t, "+447911123456", info.E164Format)
	assert.Equal(t, "GB", info.CountryCode)
	assert.Equal(t, TypeMobile, info.PhoneType)

	_, err = Describe("", "US")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Describe("not a number", "US")
	assert.Error(t, err)
}
