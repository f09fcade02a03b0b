package models

// Raw provider payloads as returned by OpenWeatherMap without a units
// parameter, so temperatures are Kelvin and wind speeds m/s. Fields the
// normalizer must be able to detect as missing are pointers.

type RawCoord struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type RawCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type RawMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Pressure  *float64 `json:"pressure"`
	Humidity  *float64 `json:"humidity"`
}

type RawWind struct {
	Speed *float64 `json:"speed"`
	Deg   *float64 `json:"deg"`
	Gust  *float64 `json:"gust"`
}

type RawObservation struct {
	Coord      RawCoord       `json:"coord"`
	Weather    []RawCondition `json:"weather"`
	Main       RawMain        `json:"main"`
	Wind       *RawWind       `json:"wind,omitempty"`
	Visibility *int           `json:"visibility,omitempty"`
	Dt         *int64         `json:"dt"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	ID       int    `json:"id"`
	Name     string `json:"name"`
}

type RawForecastEntry struct {
	Dt         *int64         `json:"dt"`
	Main       RawMain        `json:"main"`
	Weather    []RawCondition `json:"weather"`
	Wind       *RawWind       `json:"wind,omitempty"`
	Visibility *int           `json:"visibility,omitempty"`
	Pop        *float64       `json:"pop,omitempty"`
	DtTxt      string         `json:"dt_txt"`
}

type RawCity struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Coord    RawCoord `json:"coord"`
	Country  string   `json:"country"`
	Timezone int      `json:"timezone"`
	Sunrise  int64    `json:"sunrise"`
	Sunset   int64    `json:"sunset"`
}

type RawForecast struct {
	Cnt  int                `json:"cnt"`
	List []RawForecastEntry `json:"list"`
	City RawCity            `json:"city"`
}

type RawPlace struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}
