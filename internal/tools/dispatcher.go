// Package tools executes the whitelisted external lookups requested by the
// planning loop. The whitelist is a closed enumeration: adding a tool means
// adding a Kind and a case to the dispatch switch.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/govardhan-06/voyage-ai/internal/cache"
	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/travel"
)

type Kind int

const (
	KindSearchFlights Kind = iota
	KindSearchHotels
)

const (
	flightResultTTL = 15 * time.Minute
	hotelResultTTL  = 30 * time.Minute
)

// ParseKind maps a requested tool name onto the whitelist.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "search_flights":
		return KindSearchFlights, true
	case "search_hotels":
		return KindSearchHotels, true
	default:
		return 0, false
	}
}

func (k Kind) String() string {
	switch k {
	case KindSearchFlights:
		return "search_flights"
	case KindSearchHotels:
		return "search_hotels"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) cachePrefix() string {
	if k == KindSearchFlights {
		return "flights"
	}
	return "hotels"
}

func (k Kind) resultTTL() time.Duration {
	if k == KindSearchFlights {
		return flightResultTTL
	}
	return hotelResultTTL
}

// TravelAPI is the slice of the Amadeus client the dispatcher needs.
type TravelAPI interface {
	SearchFlights(ctx context.Context, query travel.FlightQuery) (travel.FlightResults, error)
	SearchHotels(ctx context.Context, query travel.HotelQuery) (travel.HotelResults, error)
}

// Dispatcher runs a batch of tool calls. Calls within one batch are
// independent and run concurrently; a failure in one never aborts the rest.
// Lookups go through the cache first, keyed by their parameters alone.
type Dispatcher struct {
	api    TravelAPI
	cache  cache.Cache
	logger *log.Logger
}

func NewDispatcher(logger *log.Logger, api TravelAPI, store cache.Cache) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{api: api, cache: store, logger: logger}
}

// Execute runs every call and returns one result per call, in call order.
// Unknown tool names and lookup failures become in-band error entries.
func (d *Dispatcher) Execute(ctx context.Context, calls []planner.ToolCall) []planner.ToolResult {
	results := make([]planner.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call planner.ToolCall) {
			defer wg.Done()
			results[i] = d.run(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) run(ctx context.Context, call planner.ToolCall) planner.ToolResult {
	kind, ok := ParseKind(call.Name)
	if !ok {
		return planner.ToolResult{Name: call.Name, Err: fmt.Sprintf("Unknown tool: %s", call.Name)}
	}

	key := cache.Key(kind.cachePrefix(), call.Params)
	if cached, hit := d.cache.Get(ctx, key); hit {
		d.logger.Printf("level=debug msg=\"tool cache hit\" tool=%s key=%s", call.Name, key)
		return planner.ToolResult{Name: call.Name, Data: json.RawMessage(cached)}
	}

	var (
		payload any
		err     error
	)
	switch kind {
	case KindSearchFlights:
		payload, err = d.api.SearchFlights(ctx, flightQueryFromParams(call.Params))
	case KindSearchHotels:
		payload, err = d.api.SearchHotels(ctx, hotelQueryFromParams(call.Params))
	}
	if err != nil {
		d.logger.Printf("level=warn msg=\"tool call failed\" tool=%s error=%q", call.Name, err)
		return planner.ToolResult{Name: call.Name, Err: err.Error()}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return planner.ToolResult{Name: call.Name, Err: fmt.Sprintf("encode result: %v", err)}
	}
	d.cache.Set(ctx, key, encoded, kind.resultTTL())

	return planner.ToolResult{Name: call.Name, Data: encoded}
}

func flightQueryFromParams(params map[string]any) travel.FlightQuery {
	return travel.FlightQuery{
		Origin:        stringParam(params, "origin"),
		Destination:   stringParam(params, "destination"),
		DepartureDate: stringParam(params, "departure_date"),
		ReturnDate:    stringParam(params, "return_date"),
		Travelers:     intParam(params, "travelers"),
	}
}

func hotelQueryFromParams(params map[string]any) travel.HotelQuery {
	return travel.HotelQuery{
		CityCode:   stringParam(params, "city_code"),
		CheckIn:    stringParam(params, "checkin"),
		CheckOut:   stringParam(params, "checkout"),
		Guests:     intParam(params, "guests"),
		Radius:     intParam(params, "radius"),
		RadiusUnit: stringParam(params, "radius_unit"),
	}
}

func stringParam(params map[string]any, name string) string {
	if value, ok := params[name].(string); ok {
		return value
	}
	return ""
}

// intParam accepts both JSON numbers (float64 after decoding) and ints.
func intParam(params map[string]any, name string) int {
	switch value := params[name].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case json.Number:
		if parsed, err := value.Int64(); err == nil {
			return int(parsed)
		}
	}
	return 0
}
