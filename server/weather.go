package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// WeatherService proxies current-conditions lookups to OpenWeatherMap and
// reduces them to the handful of fields the advisory UI needs.
type WeatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// WeatherOption configures a WeatherService.
type WeatherOption func(*WeatherService)

// WithWeatherBaseURL overrides the upstream endpoint. Used by tests.
func WithWeatherBaseURL(u string) WeatherOption {
	return func(w *WeatherService) { w.baseURL = u }
}

// NewWeatherService creates the proxy. An empty apiKey yields a service that
// reports itself unconfigured rather than failing requests.
func NewWeatherService(apiKey string, opts ...WeatherOption) *WeatherService {
	w := &WeatherService{
		apiKey:  apiKey,
		baseURL: defaultWeatherBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Configured reports whether an API key is set.
func (w *WeatherService) Configured() bool {
	return w.apiKey != ""
}

// CurrentWeather is the farmer-facing weather summary.
type CurrentWeather struct {
	Location  string `json:"location"`
	Temp      int    `json:"temp"`
	Humidity  int    `json:"humidity"`
	Wind      int    `json:"wind"`
	Condition string `json:"condition"`
}

type openWeatherReply struct {
	Name    string `json:"name"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches current conditions for the given coordinates.
func (w *WeatherService) Current(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build weather request")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "weather API unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unable to fetch weather: status %d", resp.StatusCode)
	}

	var reply openWeatherReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, errors.Wrap(err, "decode weather reply")
	}

	conditionRaw := ""
	if len(reply.Weather) > 0 {
		conditionRaw = strings.ToLower(reply.Weather[0].Main)
	}
	condition := "sunny"
	switch {
	case strings.Contains(conditionRaw, "rain"):
		condition = "rainy"
	case strings.Contains(conditionRaw, "cloud"):
		condition = "cloudy"
	}

	location := reply.Name
	if location == "" {
		location = "Your Location"
	}

	return &CurrentWeather{
		Location:  location,
		Temp:      int(math.Round(reply.Main.Temp)),
		Humidity:  reply.Main.Humidity,
		// OpenWeatherMap reports wind in m/s; the UI shows km/h.
		Wind:      int(math.Round(reply.Wind.Speed * 3.6)),
		Condition: condition,
	}, nil
}

// weatherHandler serves GET /api/v1/weather/current.
func (s *Server) weatherHandler(c echo.Context) error {
	if s.weather == nil || !s.weather.Configured() {
		return c.JSON(http.StatusOK, map[string]string{"error": "Weather service not configured"})
	}

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lon parameter")
	}

	current, err := s.weather.Current(c.Request().Context(), lat, lon)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]string{"error": "Unable to fetch weather"})
	}
	return c.JSON(http.StatusOK, current)
}
