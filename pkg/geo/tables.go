package geo

// LocationRecord mirrors one entry of locations.json.
// Location codes are Google geo target ids, shared by DataForSEO and Google Ads.
type LocationRecord struct {
	Name           string `json:"location_name"`
	Code           int    `json:"location_code"`
	CountryISOCode string `json:"country_iso_code"`
}

// LanguageRecord mirrors one entry of languages.json. ID is the Google Ads
// language constant, Code the ISO code DataForSEO expects.
type LanguageRecord struct {
	Name string `json:"language_name"`
	Code string `json:"language_code"`
	ID   int    `json:"id"`
}

// Regions are the groupings analysts label their targets with.
var Regions = []string{"Europe", "Asia-Pacific", "South America", "North America"}

var defaultLocations = []LocationRecord{
	{Name: "Argentina", Code: 2032, CountryISOCode: "AR"},
	{Name: "Australia", Code: 2036, CountryISOCode: "AU"},
	{Name: "Austria", Code: 2040, CountryISOCode: "AT"},
	{Name: "Belgium", Code: 2056, CountryISOCode: "BE"},
	{Name: "Brazil", Code: 2076, CountryISOCode: "BR"},
	{Name: "Canada", Code: 2124, CountryISOCode: "CA"},
	{Name: "Chile", Code: 2152, CountryISOCode: "CL"},
	{Name: "China", Code: 2156, CountryISOCode: "CN"},
	{Name: "Colombia", Code: 2170, CountryISOCode: "CO"},
	{Name: "Czechia", Code: 2203, CountryISOCode: "CZ"},
	{Name: "Denmark", Code: 2208, CountryISOCode: "DK"},
	{Name: "Finland", Code: 2246, CountryISOCode: "FI"},
	{Name: "France", Code: 2250, CountryISOCode: "FR"},
	{Name: "Germany", Code: 2276, CountryISOCode: "DE"},
	{Name: "Hungary", Code: 2348, CountryISOCode: "HU"},
	{Name: "India", Code: 2356, CountryISOCode: "IN"},
	{Name: "Indonesia", Code: 2360, CountryISOCode: "ID"},
	{Name: "Ireland", Code: 2372, CountryISOCode: "IE"},
	{Name: "Italy", Code: 2380, CountryISOCode: "IT"},
	{Name: "Japan", Code: 2392, CountryISOCode: "JP"},
	{Name: "Mexico", Code: 2484, CountryISOCode: "MX"},
	{Name: "Netherlands", Code: 2528, CountryISOCode: "NL"},
	{Name: "New Zealand", Code: 2554, CountryISOCode: "NZ"},
	{Name: "Norway", Code: 2578, CountryISOCode: "NO"},
	{Name: "Poland", Code: 2616, CountryISOCode: "PL"},
	{Name: "Portugal", Code: 2620, CountryISOCode: "PT"},
	{Name: "Romania", Code: 2642, CountryISOCode: "RO"},
	{Name: "Russia", Code: 2643, CountryISOCode: "RU"},
	{Name: "Saudi Arabia", Code: 2682, CountryISOCode: "SA"},
	{Name: "Slovakia", Code: 2703, CountryISOCode: "SK"},
	{Name: "South Korea", Code: 2410, CountryISOCode: "KR"},
	{Name: "Spain", Code: 2724, CountryISOCode: "ES"},
	{Name: "Sweden", Code: 2752, CountryISOCode: "SE"},
	{Name: "Switzerland", Code: 2756, CountryISOCode: "CH"},
	{Name: "Turkey", Code: 2792, CountryISOCode: "TR"},
	{Name: "United Kingdom", Code: 2826, CountryISOCode: "GB"},
	{Name: "United States", Code: 2840, CountryISOCode: "US"},
}

var defaultLanguages = []LanguageRecord{
	{Name: "Arabic", Code: "ar", ID: 1019},
	{Name: "Chinese (simplified)", Code: "zh_CN", ID: 1017},
	{Name: "Czech", Code: "cs", ID: 1021},
	{Name: "Danish", Code: "da", ID: 1009},
	{Name: "Dutch", Code: "nl", ID: 1010},
	{Name: "English", Code: "en", ID: 1000},
	{Name: "Finnish", Code: "fi", ID: 1011},
	{Name: "French", Code: "fr", ID: 1002},
	{Name: "German", Code: "de", ID: 1001},
	{Name: "Hindi", Code: "hi", ID: 1023},
	{Name: "Hungarian", Code: "hu", ID: 1024},
	{Name: "Indonesian", Code: "id", ID: 1025},
	{Name: "Italian", Code: "it", ID: 1004},
	{Name: "Japanese", Code: "ja", ID: 1005},
	{Name: "Korean", Code: "ko", ID: 1012},
	{Name: "Norwegian", Code: "no", ID: 1013},
	{Name: "Polish", Code: "pl", ID: 1030},
	{Name: "Portuguese", Code: "pt", ID: 1014},
	{Name: "Romanian", Code: "ro", ID: 1032},
	{Name: "Russian", Code: "ru", ID: 1031},
	{Name: "Slovak", Code: "sk", ID: 1033},
	{Name: "Spanish", Code: "es", ID: 1003},
	{Name: "Swedish", Code: "sv", ID: 1015},
	{Name: "Turkish", Code: "tr", ID: 1037},
}
