package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/rates"
)

// MaxRequestPairs bounds one rates query.
const MaxRequestPairs = 100

// atList accepts both the single-string and the string-array form of the
// "at" field.
type atList []string

func (a *atList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = atList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("at must be a string or an array of strings")
	}
	*a = atList(list)
	return nil
}

type ratesRequestPair struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Exchange string `json:"exchange"`
	After    string `json:"after"`
	// AfterDay is the deprecated alias of After, valid for daily only.
	AfterDay string `json:"afterDay"`
	At       atList `json:"at"`
}

type ratesRequest struct {
	Pairs []ratesRequestPair `json:"pairs"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	g := pairid.Granularity(mux.Vars(r)["granularity"])
	if !g.Valid() {
		s.sendError(w, http.StatusBadRequest, "granularity must be daily or hourly")
		return
	}

	var request ratesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	requestPairs, err := validateRatesRequest(request, g)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := s.rates.GetHisto(r.Context(), requestPairs, g)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "failed to load rates")
		return
	}
	s.sendJSON(w, http.StatusOK, response)
}

func validateRatesRequest(request ratesRequest, g pairid.Granularity) ([]rates.RequestPair, error) {
	if len(request.Pairs) == 0 {
		return nil, fmt.Errorf("pairs must not be empty")
	}
	if len(request.Pairs) > MaxRequestPairs {
		return nil, fmt.Errorf("pairs must not exceed %d entries", MaxRequestPairs)
	}

	seen := make(map[string]bool, len(request.Pairs))
	requestPairs := make([]rates.RequestPair, 0, len(request.Pairs))
	for _, pair := range request.Pairs {
		if pair.From == "" || pair.To == "" {
			return nil, fmt.Errorf("each pair needs from and to")
		}
		key := pair.From + "|" + pair.To + "|" + pair.Exchange
		if seen[key] {
			return nil, fmt.Errorf("pairs must not contain duplicates")
		}
		seen[key] = true

		after := pair.After
		if pair.AfterDay != "" {
			if g != pairid.Daily {
				return nil, fmt.Errorf("afterDay is only valid for daily granularity")
			}
			if after == "" {
				after = pair.AfterDay
			}
		}

		requestPairs = append(requestPairs, rates.RequestPair{
			From:     pair.From,
			To:       pair.To,
			Exchange: pair.Exchange,
			After:    after,
			At:       pair.At,
		})
	}
	return requestPairs, nil
}

func (s *Server) handleExchanges(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	from, to := vars["from"], vars["to"]
	if !currencies.IsSupported(from) || !currencies.IsSupported(to) {
		s.sendError(w, http.StatusBadRequest, "unsupported ticker")
		return
	}

	exchanges, err := s.rates.GetExchanges(r.Context(), from, to)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "failed to load exchanges")
		return
	}
	s.sendJSON(w, http.StatusOK, exchanges)
}

// handleTickers serves the crypto tickers ordered by market cap, falling
// back to registry order when no ranking snapshot is available.
func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	coins, err := s.marketCap.GetDailyMarketCapCoins(r.Context())
	if err != nil {
		log.Printf("Tickers: market cap ranking unavailable: %v", err)
	}
	if len(coins) == 0 {
		coins = s.rates.GetTickers()
	}
	s.sendJSON(w, http.StatusOK, coins)
}
