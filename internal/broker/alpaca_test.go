package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"etfbot/pkg/types"
)

func testClient(server *httptest.Server) *AlpacaClient {
	c := NewAlpacaClient("test-key", "test-secret", true)
	c.tradeURL = server.URL
	c.dataURL = server.URL
	c.http = server.Client()
	return c
}

func TestAlpacaAccountValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/account" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("APCA-API-KEY-ID") != "test-key" {
			t.Error("missing key header")
		}
		w.Write([]byte(`{"equity": "10234.56"}`))
	}))
	defer server.Close()

	equity, err := testClient(server).AccountValue(context.Background())
	if err != nil {
		t.Fatalf("AccountValue() error = %v", err)
	}
	if equity != 10234.56 {
		t.Errorf("equity = %v, want 10234.56", equity)
	}
}

func TestAlpacaPositionValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"VTI","market_value":"2000.50"},{"symbol":"BND","market_value":"6000"}]`))
	}))
	defer server.Close()

	positions, err := testClient(server).PositionValues(context.Background())
	if err != nil {
		t.Fatalf("PositionValues() error = %v", err)
	}
	if positions["VTI"] != 2000.50 || positions["BND"] != 6000 {
		t.Errorf("positions = %v", positions)
	}
}

func TestAlpacaSubmitOrder(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/orders" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"id":"order-1"}`))
	}))
	defer server.Close()

	err := testClient(server).SubmitOrder(context.Background(), "VOO", 5, types.SideBuy)
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	if body["symbol"] != "VOO" || body["qty"] != "5" || body["side"] != "buy" || body["type"] != "market" {
		t.Errorf("order body = %v", body)
	}
	if body["client_order_id"] == "" {
		t.Error("order submitted without client order id")
	}
}

func TestAlpacaSubmitOrderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"insufficient buying power"}`, http.StatusForbidden)
	}))
	defer server.Close()

	if err := testClient(server).SubmitOrder(context.Background(), "VOO", 5, types.SideBuy); err == nil {
		t.Fatal("expected error for rejected order")
	}
}

func TestAlpacaHistoricalPricesPagination(t *testing.T) {
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		if page == 1 {
			if r.URL.Query().Get("symbols") != "BND,VTI" {
				t.Errorf("symbols = %s", r.URL.Query().Get("symbols"))
			}
			w.Write([]byte(`{"bars":{"VTI":[{"t":"2023-01-03T05:00:00Z","c":100.5}]},"next_page_token":"tok"}`))
			return
		}
		if r.URL.Query().Get("page_token") != "tok" {
			t.Errorf("page_token = %s", r.URL.Query().Get("page_token"))
		}
		w.Write([]byte(`{"bars":{"VTI":[{"t":"2023-01-04T05:00:00Z","c":101.0}],"BND":[{"t":"2023-01-03T05:00:00Z","c":80.0}]},"next_page_token":null}`))
	}))
	defer server.Close()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	prices, err := testClient(server).HistoricalPrices(context.Background(), []string{"BND", "VTI"}, start, end)
	if err != nil {
		t.Fatalf("HistoricalPrices() error = %v", err)
	}
	if page != 2 {
		t.Errorf("made %d requests, want 2", page)
	}
	if len(prices["VTI"]) != 2 || len(prices["BND"]) != 1 {
		t.Fatalf("bars = %d VTI, %d BND, want 2 and 1", len(prices["VTI"]), len(prices["BND"]))
	}
	if !prices["VTI"][0].Date.Before(prices["VTI"][1].Date) {
		t.Error("VTI bars not sorted ascending")
	}
}
