// Package travel wraps the Amadeus self-service APIs used by the planning
// loop: Flight Offers Search, and the two-step Hotel List + Hotel Offers
// lookup.
package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenPath       = "/v1/security/oauth2/token"
	flightsPath     = "/v2/shopping/flight-offers"
	hotelListPath   = "/v1/reference-data/locations/hotels/by-city"
	hotelOffersPath = "/v3/shopping/hotel-offers"

	maxFlightOffers    = 5
	maxHotels          = 5
	maxOffersPerHotel  = 3
	tokenExpirySkew    = 30 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

type Option func(*Client)

type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(logger *log.Logger, apiKey, apiSecret, baseURL string, opts ...Option) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Client{
		apiKey:    strings.TrimSpace(apiKey),
		apiSecret: strings.TrimSpace(apiSecret),
		baseURL:   strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

type FlightQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Travelers     int    `json:"travelers"`
}

type FlightResults struct {
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	DepartureDate string        `json:"departure_date"`
	ReturnDate    string        `json:"return_date,omitempty"`
	Travelers     int           `json:"travelers"`
	Flights       []FlightOffer `json:"flights"`
	TotalResults  int           `json:"total_results"`
}

type FlightOffer struct {
	ID               string            `json:"id"`
	PriceTotal       string            `json:"price_total"`
	PriceCurrency    string            `json:"price_currency"`
	PricePerTraveler string            `json:"price_per_traveler"`
	Itineraries      []FlightItinerary `json:"itineraries"`
	BookingClass     string            `json:"booking_class"`
	SeatsRemaining   int               `json:"seats_remaining,omitempty"`
}

type FlightItinerary struct {
	Duration string          `json:"duration"`
	Segments []FlightSegment `json:"segments"`
	Stops    int             `json:"stops"`
}

type FlightSegment struct {
	DepartureAirport string `json:"departure_airport"`
	DepartureTime    string `json:"departure_time"`
	ArrivalAirport   string `json:"arrival_airport"`
	ArrivalTime      string `json:"arrival_time"`
	Carrier          string `json:"carrier"`
	FlightNumber     string `json:"flight_number"`
	Duration         string `json:"duration"`
	Aircraft         string `json:"aircraft,omitempty"`
}

type HotelQuery struct {
	CityCode   string `json:"city_code"`
	CheckIn    string `json:"checkin,omitempty"`
	CheckOut   string `json:"checkout,omitempty"`
	Guests     int    `json:"guests"`
	Radius     int    `json:"radius"`
	RadiusUnit string `json:"radius_unit"`
}

type HotelResults struct {
	CityCode     string  `json:"city_code"`
	CheckIn      string  `json:"checkin,omitempty"`
	CheckOut     string  `json:"checkout,omitempty"`
	Guests       int     `json:"guests"`
	Hotels       []Hotel `json:"hotels"`
	TotalResults int     `json:"total_results"`
}

type Hotel struct {
	HotelID   string      `json:"hotel_id"`
	Name      string      `json:"name"`
	CityCode  string      `json:"city_code"`
	Latitude  float64     `json:"latitude,omitempty"`
	Longitude float64     `json:"longitude,omitempty"`
	Offers    []RoomOffer `json:"offers"`
}

type RoomOffer struct {
	OfferID       string `json:"offer_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	PriceTotal    string `json:"price_total"`
	PriceCurrency string `json:"price_currency"`
	PricePerNight string `json:"price_per_night"`
	RoomType      string `json:"room_type"`
	BedType       string `json:"bed_type"`
	Description   string `json:"description"`
}

// SearchFlights runs a one-way or round-trip Flight Offers Search and shapes
// the response into the compact form fed back to the planner.
func (c *Client) SearchFlights(ctx context.Context, query FlightQuery) (FlightResults, error) {
	if strings.TrimSpace(query.Origin) == "" || strings.TrimSpace(query.Destination) == "" {
		return FlightResults{}, errors.New("origin and destination IATA codes are required")
	}
	if strings.TrimSpace(query.DepartureDate) == "" {
		return FlightResults{}, errors.New("departure date is required")
	}
	travelers := query.Travelers
	if travelers <= 0 {
		travelers = 1
	}

	params := url.Values{}
	params.Set("originLocationCode", query.Origin)
	params.Set("destinationLocationCode", query.Destination)
	params.Set("departureDate", query.DepartureDate)
	params.Set("adults", fmt.Sprintf("%d", travelers))
	params.Set("max", fmt.Sprintf("%d", maxFlightOffers))
	params.Set("currencyCode", "USD")
	if strings.TrimSpace(query.ReturnDate) != "" {
		params.Set("returnDate", query.ReturnDate)
	}

	var parsed struct {
		Data []amadeusFlightOffer `json:"data"`
	}
	if err := c.get(ctx, flightsPath, params, &parsed); err != nil {
		return FlightResults{}, err
	}

	flights := make([]FlightOffer, 0, len(parsed.Data))
	for _, offer := range parsed.Data {
		flights = append(flights, shapeFlightOffer(offer))
	}

	return FlightResults{
		Origin:        query.Origin,
		Destination:   query.Destination,
		DepartureDate: query.DepartureDate,
		ReturnDate:    query.ReturnDate,
		Travelers:     travelers,
		Flights:       flights,
		TotalResults:  len(flights),
	}, nil
}

// SearchHotels finds hotels by city, then prices the top results. Either step
// failing fails the whole lookup.
func (c *Client) SearchHotels(ctx context.Context, query HotelQuery) (HotelResults, error) {
	if strings.TrimSpace(query.CityCode) == "" {
		return HotelResults{}, errors.New("city IATA code is required")
	}
	guests := query.Guests
	if guests <= 0 {
		guests = 1
	}
	radius := query.Radius
	if radius <= 0 {
		radius = 30
	}
	radiusUnit := strings.ToUpper(strings.TrimSpace(query.RadiusUnit))
	if radiusUnit != "MILE" && radiusUnit != "KM" {
		radiusUnit = "KM"
	}

	listParams := url.Values{}
	listParams.Set("cityCode", query.CityCode)
	listParams.Set("radius", fmt.Sprintf("%d", radius))
	listParams.Set("radiusUnit", radiusUnit)

	var list struct {
		Data []struct {
			HotelID string `json:"hotelId"`
		} `json:"data"`
	}
	if err := c.get(ctx, hotelListPath, listParams, &list); err != nil {
		return HotelResults{}, err
	}
	if len(list.Data) == 0 {
		return HotelResults{
			CityCode: query.CityCode,
			CheckIn:  query.CheckIn,
			CheckOut: query.CheckOut,
			Guests:   guests,
			Hotels:   []Hotel{},
		}, nil
	}

	hotelIDs := make([]string, 0, maxHotels)
	for _, entry := range list.Data {
		if len(hotelIDs) == maxHotels {
			break
		}
		if strings.TrimSpace(entry.HotelID) != "" {
			hotelIDs = append(hotelIDs, entry.HotelID)
		}
	}

	offerParams := url.Values{}
	offerParams.Set("hotelIds", strings.Join(hotelIDs, ","))
	offerParams.Set("adults", fmt.Sprintf("%d", guests))
	if strings.TrimSpace(query.CheckIn) != "" {
		offerParams.Set("checkInDate", query.CheckIn)
	}
	if strings.TrimSpace(query.CheckOut) != "" {
		offerParams.Set("checkOutDate", query.CheckOut)
	}

	var offers struct {
		Data []amadeusHotelOffer `json:"data"`
	}
	if err := c.get(ctx, hotelOffersPath, offerParams, &offers); err != nil {
		return HotelResults{}, err
	}

	hotels := make([]Hotel, 0, len(offers.Data))
	for _, entry := range offers.Data {
		hotels = append(hotels, shapeHotel(entry, query.CityCode))
	}

	return HotelResults{
		CityCode:     query.CityCode,
		CheckIn:      query.CheckIn,
		CheckOut:     query.CheckOut,
		Guests:       guests,
		Hotels:       hotels,
		TotalResults: len(hotels),
	}, nil
}

type amadeusFlightOffer struct {
	ID          string `json:"id"`
	Itineraries []struct {
		Duration string `json:"duration"`
		Segments []struct {
			Departure struct {
				IATACode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IATACode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"arrival"`
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Duration    string `json:"duration"`
			Aircraft    struct {
				Code string `json:"code"`
			} `json:"aircraft"`
		} `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		GrandTotal string `json:"grandTotal"`
		Total      string `json:"total"`
		Currency   string `json:"currency"`
	} `json:"price"`
	TravelerPricings []struct {
		FareDetailsBySegment []struct {
			Cabin string `json:"cabin"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
	NumberOfBookableSeats int `json:"numberOfBookableSeats"`
}

type amadeusHotelOffer struct {
	Hotel struct {
		HotelID   string  `json:"hotelId"`
		Name      string  `json:"name"`
		CityCode  string  `json:"cityCode"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"hotel"`
	Offers []struct {
		ID           string `json:"id"`
		CheckInDate  string `json:"checkInDate"`
		CheckOutDate string `json:"checkOutDate"`
		Price        struct {
			Total    string `json:"total"`
			Base     string `json:"base"`
			Currency string `json:"currency"`
		} `json:"price"`
		Room struct {
			TypeEstimated struct {
				Category string `json:"category"`
				BedType  string `json:"bedType"`
			} `json:"typeEstimated"`
			Description struct {
				Text string `json:"text"`
			} `json:"description"`
		} `json:"room"`
	} `json:"offers"`
}

func shapeFlightOffer(offer amadeusFlightOffer) FlightOffer {
	itineraries := make([]FlightItinerary, 0, len(offer.Itineraries))
	for _, itin := range offer.Itineraries {
		segments := make([]FlightSegment, 0, len(itin.Segments))
		for _, seg := range itin.Segments {
			segments = append(segments, FlightSegment{
				DepartureAirport: seg.Departure.IATACode,
				DepartureTime:    seg.Departure.At,
				ArrivalAirport:   seg.Arrival.IATACode,
				ArrivalTime:      seg.Arrival.At,
				Carrier:          seg.CarrierCode,
				FlightNumber:     seg.CarrierCode + seg.Number,
				Duration:         seg.Duration,
				Aircraft:         seg.Aircraft.Code,
			})
		}
		itineraries = append(itineraries, FlightItinerary{
			Duration: itin.Duration,
			Segments: segments,
			Stops:    len(segments) - 1,
		})
	}

	currency := offer.Price.Currency
	if currency == "" {
		currency = "USD"
	}
	bookingClass := "ECONOMY"
	if len(offer.TravelerPricings) > 0 && len(offer.TravelerPricings[0].FareDetailsBySegment) > 0 {
		if cabin := offer.TravelerPricings[0].FareDetailsBySegment[0].Cabin; cabin != "" {
			bookingClass = cabin
		}
	}

	return FlightOffer{
		ID:               offer.ID,
		PriceTotal:       offer.Price.GrandTotal,
		PriceCurrency:    currency,
		PricePerTraveler: offer.Price.Total,
		Itineraries:      itineraries,
		BookingClass:     bookingClass,
		SeatsRemaining:   offer.NumberOfBookableSeats,
	}
}

func shapeHotel(entry amadeusHotelOffer, fallbackCity string) Hotel {
	cityCode := entry.Hotel.CityCode
	if cityCode == "" {
		cityCode = fallbackCity
	}

	offers := make([]RoomOffer, 0, maxOffersPerHotel)
	for _, offer := range entry.Offers {
		if len(offers) == maxOffersPerHotel {
			break
		}
		currency := offer.Price.Currency
		if currency == "" {
			currency = "USD"
		}
		offers = append(offers, RoomOffer{
			OfferID:       offer.ID,
			CheckIn:       offer.CheckInDate,
			CheckOut:      offer.CheckOutDate,
			PriceTotal:    offer.Price.Total,
			PriceCurrency: currency,
			PricePerNight: offer.Price.Base,
			RoomType:      offer.Room.TypeEstimated.Category,
			BedType:       offer.Room.TypeEstimated.BedType,
			Description:   offer.Room.Description.Text,
		})
	}

	return Hotel{
		HotelID:   entry.Hotel.HotelID,
		Name:      entry.Hotel.Name,
		CityCode:  cityCode,
		Latitude:  entry.Hotel.Latitude,
		Longitude: entry.Hotel.Longitude,
		Offers:    offers,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	requestURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build amadeus request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call amadeus api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAmadeusError(resp)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode amadeus response: %w", err)
	}
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return "", errors.New("amadeus credentials are not configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build amadeus token request: %w", err)
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call amadeus token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseAmadeusError(resp)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode amadeus token response: %w", err)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return "", errors.New("amadeus token response contained no access token")
	}

	c.token = parsed.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - tokenExpirySkew)
	return c.token, nil
}

func parseAmadeusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	message := strings.TrimSpace(string(body))

	var parsed struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Errors) > 0 {
			detail := parsed.Errors[0].Detail
			if detail == "" {
				detail = parsed.Errors[0].Title
			}
			if detail != "" {
				message = detail
			}
		} else if parsed.ErrorDescription != "" {
			message = parsed.ErrorDescription
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("amadeus api status %d: %s", resp.StatusCode, message)
}
