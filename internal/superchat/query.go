package superchat

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// QueryOptions tweaks how a shared link is read.
type QueryOptions struct {
	// HonorPrice uses numeric link prices instead of always falling back to
	// DefaultPrice.
	HonorPrice bool
}

// FromQuery builds the initial parameters from a link's query values.
func FromQuery(q url.Values, opts QueryOptions) Params {
	p := DefaultParams()
	p.Name = q.Get("name")
	p.Message = q.Get("message")
	p.Price = queryPrice(q.Get("price"), opts)
	return p
}

// FromLink accepts either a full URL or a bare query string
// ("name=Bob&price=200") and reads the parameters from it. An empty link
// yields the defaults.
func FromLink(link string, opts QueryOptions) (Params, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return DefaultParams(), nil
	}
	var query string
	if strings.Contains(link, "://") {
		u, err := url.Parse(link)
		if err != nil {
			return Params{}, fmt.Errorf("error parsing link: %w", err)
		}
		query = u.RawQuery
	} else {
		query = strings.TrimPrefix(link, "?")
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return Params{}, fmt.Errorf("error parsing link query: %w", err)
	}
	return FromQuery(q, opts), nil
}

func queryPrice(raw string, opts QueryOptions) int {
	if raw == "" {
		return DefaultPrice
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	numeric := err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
	if opts.HonorPrice {
		if !numeric {
			return DefaultPrice
		}
		return int(math.Round(min(max(n, MinPrice), MaxPrice)))
	}
	// Links only take the price when it is NOT numeric, and such a value never
	// converts to an integer, so every link lands on the default. Kept for
	// compatibility with links shared by the web form.
	return DefaultPrice
}
