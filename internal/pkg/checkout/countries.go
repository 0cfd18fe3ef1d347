package checkout

import "strings"

// fallbackCountryCode is used when a billing country cannot be mapped.
const fallbackCountryCode = "AE"

// countryCodes maps free-text billing country names to ISO 3166-1 alpha-2
// codes as required by the gateway.
var countryCodes = map[string]string{
	"United Arab Emirates": "AE",
	"UAE":                  "AE",
	"Saudi Arabia":         "SA",
	"Egypt":                "EG",
	"Jordan":               "JO",
	"Kuwait":               "KW",
	"Bahrain":              "BH",
	"Qatar":                "QA",
	"Oman":                 "OM",
	"India":                "IN",
	"Pakistan":             "PK",
	"United States":        "US",
	"United Kingdom":       "GB",
	"Canada":               "CA",
	"Australia":            "AU",
	"Germany":              "DE",
	"France":               "FR",
	"Italy":                "IT",
	"Spain":                "ES",
	"Netherlands":          "NL",
	"Belgium":              "BE",
	"Switzerland":          "CH",
	"Austria":              "AT",
	"Sweden":               "SE",
	"Norway":               "NO",
	"Denmark":              "DK",
	"Finland":              "FI",
	"Ireland":              "IE",
	"Portugal":             "PT",
	"Greece":               "GR",
	"Poland":               "PL",
	"Czech Republic":       "CZ",
	"Czechia":              "CZ",
	"Hungary":              "HU",
	"Romania":              "RO",
	"Bulgaria":             "BG",
	"Croatia":              "HR",
	"Slovenia":             "SI",
	"Slovakia":             "SK",
	"Estonia":              "EE",
	"Latvia":               "LV",
	"Lithuania":            "LT",
	"Cyprus":               "CY",
	"Malta":                "MT",
	"Luxembourg":           "LU",
	"Iceland":              "IS",
	"Turkey":               "TR",
	"Russia":               "RU",
	"Ukraine":              "UA",
	"South Africa":         "ZA",
	"Nigeria":              "NG",
	"Kenya":                "KE",
	"Morocco":              "MA",
	"Tunisia":              "TN",
	"Algeria":              "DZ",
	"Lebanon":              "LB",
	"Iraq":                 "IQ",
	"Syria":                "SY",
	"Yemen":                "YE",
	"Libya":                "LY",
	"Sudan":                "SD",
	"China":                "CN",
	"Japan":                "JP",
	"South Korea":          "KR",
	"Singapore":            "SG",
	"Malaysia":             "MY",
	"Thailand":             "TH",
	"Vietnam":              "VN",
	"Indonesia":            "ID",
	"Philippines":          "PH",
	"Bangladesh":           "BD",
	"Sri Lanka":            "LK",
	"Nepal":                "NP",
	"New Zealand":          "NZ",
	"Brazil":               "BR",
	"Mexico":               "MX",
	"Argentina":            "AR",
	"Chile":                "CL",
	"Colombia":             "CO",
	"Peru":                 "PE",
	"Venezuela":            "VE",
	"Ecuador":              "EC",
}

// CountryCode converts a billing country name to its ISO code, falling back
// to AE when unmapped.
func CountryCode(countryName string) string {
	if code, ok := countryCodes[strings.TrimSpace(countryName)]; ok {
		return code
	}
	return fallbackCountryCode
}
