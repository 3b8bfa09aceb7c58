package openmeteo

// GeocodingResponse is the raw result of the geocoding search endpoint.
// On failure the endpoint answers 200/400 with error=true and a reason.
type GeocodingResponse struct {
	Results []GeocodingResult `json:"results"`
	Error   bool              `json:"error"`
	Reason  string            `json:"reason"`
}

// GeocodingResult is one match returned by the geocoding search.
type GeocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

// ForecastResponse is the raw forecast payload: parallel hourly arrays,
// parallel daily arrays, and a single current snapshot. Optional fields
// arrive as null entries, so every value array uses pointer elements; a
// missing array means every value is absent.
type ForecastResponse struct {
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Timezone  string             `json:"timezone"`
	Hourly    HourlySeries       `json:"hourly"`
	Daily     DailySeries        `json:"daily"`
	Current   *CurrentConditions `json:"current"`
	Error     bool               `json:"error"`
	Reason    string             `json:"reason"`
}

// HourlySeries holds the hourly parallel arrays. Time is the alignment
// axis; all other arrays, when present, share its length.
type HourlySeries struct {
	Time                     []string   `json:"time"`
	Temperature              []*float64 `json:"temperature_2m"`
	ApparentTemperature      []*float64 `json:"apparent_temperature"`
	WindSpeed                []*float64 `json:"wind_speed_10m"`
	WindGusts                []*float64 `json:"wind_gusts_10m"`
	WindDirection            []*float64 `json:"wind_direction_10m"`
	Precipitation            []*float64 `json:"precipitation"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	WeatherCode              []*int     `json:"weather_code"`
	RelativeHumidity         []*float64 `json:"relative_humidity_2m"`
	UVIndex                  []*float64 `json:"uv_index"`
}

// DailySeries holds the daily parallel arrays, keyed by calendar date.
type DailySeries struct {
	Time             []string   `json:"time"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
	WeatherCode      []*int     `json:"weather_code"`
	UVIndexMax       []*float64 `json:"uv_index_max"`
}

// CurrentConditions is the snapshot record. It deliberately carries fewer
// fields than the hourly arrays; humidity, UV, gusts and precipitation
// probability are sourced from the hourly slot matching its timestamp.
type CurrentConditions struct {
	Time                string   `json:"time"`
	Temperature         *float64 `json:"temperature_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	WindSpeed           *float64 `json:"wind_speed_10m"`
	WindDirection       *float64 `json:"wind_direction_10m"`
	Precipitation       *float64 `json:"precipitation"`
	WeatherCode         *int     `json:"weather_code"`
	IsDay               *int     `json:"is_day"`
}
