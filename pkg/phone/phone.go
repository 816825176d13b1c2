package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region hint is configured.
const DefaultRegion = "US"

// ErrEmpty is returned for a blank number.
var ErrEmpty = errors.New("phone number cannot be empty")

// PhoneType represents the type of phone number.
type PhoneType string

const (
	TypeFixedLine         PhoneType = "FIXED_LINE"
	TypeMobile            PhoneType = "MOBILE"
	TypeFixedLineOrMobile PhoneType = "FIXED_LINE_OR_MOBILE"
	TypeTollFree          PhoneType = "TOLL_FREE"
	TypeVoip              PhoneType = "VOIP"
	TypeUnknown           PhoneType = "UNKNOWN"
)

// Info describes a contact's phone number.
type Info struct {
	IsValid             bool      `json:"is_valid"`
	E164Format          string    `json:"e164_format"`
	InternationalFormat string    `json:"international_format"`
	CountryCode         string    `json:"country_code"`
	PhoneType           PhoneType `json:"phone_type"`
}

// Describe parses phone with region as the hint for numbers written without
// a country prefix.
func Describe(phone, region string) (*Info, error) {
	parsed, err := parse(phone, region)
	if err != nil {
		return nil, err
	}
	return &Info{
		IsValid:             phonenumbers.IsValidNumber(parsed),
		E164Format:          phonenumbers.Format(parsed, phonenumbers.E164),
		InternationalFormat: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		CountryCode:         phonenumbers.GetRegionCodeForNumber(parsed),
		PhoneType:           phoneType(phonenumbers.GetNumberType(parsed)),
	}, nil
}

// Normalize returns phone in E.164 format, or "" when it is blank,
// unparseable or not a valid number. Contact phones are free text, so
// callers treat "" as "no normalised form".
func Normalize(phone, region string) string {
	parsed, err := parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func parse(phone, region string) (*phonenumbers.PhoneNumber, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrEmpty
	}
	if region == "" {
		region = DefaultRegion
	}
	parsed, err := phonenumbers.Parse(phone, strings.ToUpper(region))
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}
	return parsed, nil
}

func phoneType(t phonenumbers.PhoneNumberType) PhoneType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return TypeFixedLine
	case phonenumbers.MOBILE:
		return TypeMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return TypeFixedLineOrMobile
	case phonenumbers.TOLL_FREE:
		return TypeTollFree
	case phonenumbers.VOIP:
		return TypeVoip
	default:
		return TypeUnknown
	}
}
