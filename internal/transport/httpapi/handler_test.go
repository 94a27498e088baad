package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/service/catalog"
	"github.com/acme/orders/internal/service/customer"
	"github.com/acme/orders/internal/service/lifecycle"
	"github.com/acme/orders/internal/service/payment"
	"github.com/acme/orders/internal/storage/memory"
	"github.com/acme/orders/internal/transport/httpapi"
)

type apiFixture struct {
	mux       *http.ServeMux
	customers *customer.MockDirectory
	payments  *payment.MockGateway
}

func newAPIFixture() *apiFixture {
	customers := customer.NewMockDirectory(domain.Customer{ID: "customer-1", Name: "Иван"})
	catalogue := catalog.NewMockCatalog(
		domain.Product{ID: "P1", Title: "Widget", Currency: "USD", Price: decimal.RequireFromString("10.00")},
	)
	payments := payment.NewMockGateway()
	svc := lifecycle.NewServiceWithoutMetrics(
		memory.NewOrderRepository(),
		customers,
		catalogue,
		payments,
		memory.NewReconciliationJournal(),
		nil,
	)

	mux := http.NewServeMux()
	httpapi.NewHandler(svc, nil).Register(mux)
	return &apiFixture{mux: mux, customers: customers, payments: payments}
}

func (f *apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("X-Requester", "tester")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createOrder(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/orders",
		`{"customer_id":"customer-1","cart":[{"product_id":"P1","quantity":"2"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestCreateOrderEndpoint(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(t, http.MethodPost, "/v1/orders",
		`{"customer_id":"customer-1","cart":[{"product_id":"P1","quantity":"2"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "new", resp["status"])
	require.Equal(t, "20", resp["total"])
	require.Equal(t, "USD", resp["currency"])

	// Заголовок X-Requester доходит до справочника клиентов.
	require.Equal(t, domain.Requester{ID: "tester"}, f.customers.LastRequester)
}

func TestCreateOrderMalformedBody(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(t, http.MethodPost, "/v1/orders", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(t, http.MethodPost, "/v1/orders", `{"customer_id":"customer-1","cart":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(t, http.MethodPost, "/v1/orders",
		`{"customer_id":"customer-1","cart":[{"product_id":"ghost","quantity":"1"}]}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetOrderEndpoint(t *testing.T) {
	f := newAPIFixture()
	id := f.createOrder(t)

	rec := f.do(t, http.MethodGet, "/v1/orders/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, id, resp["id"])
}

func TestGetOrderNotFound(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(t, http.MethodGet, "/v1/orders/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	f := newAPIFixture()
	for i := 0; i < 3; i++ {
		f.createOrder(t)
	}

	rec := f.do(t, http.MethodGet, "/v1/orders?limit=2&offset=0", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Orders []json.RawMessage `json:"orders"`
		Total  int64             `json:"total"`
		Limit  int               `json:"limit"`
		Offset int               `json:"offset"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Orders, 2)
	require.EqualValues(t, 3, resp.Total)
	require.Equal(t, 2, resp.Limit)
}

func TestListOrdersLimitCapped(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(t, http.MethodGet, "/v1/orders?limit=5000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Limit int `json:"limit"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 100, resp.Limit)
}

func TestCompleteOrderEndpoint(t *testing.T) {
	f := newAPIFixture()
	id := f.createOrder(t)

	rec := f.do(t, http.MethodPost, "/v1/orders/"+id+"/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "completed", resp["status"])
	require.NotEmpty(t, resp["transaction_id"])

	// Повторное завершение — конфликт состояния.
	rec = f.do(t, http.MethodPost, "/v1/orders/"+id+"/complete", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, f.payments.CallCount())
}

func TestCompleteOrderReconciliationConflict(t *testing.T) {
	f := newAPIFixture()
	id := f.createOrder(t)

	// Конкурирующая отмена во время платежа оставляет транзакцию сиротой.
	f.payments.Hook = func(req domain.ChargeRequest) {
		rec := f.do(t, http.MethodPost, "/v1/orders/"+req.OrderID+"/cancel", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodPost, "/v1/orders/"+id+"/complete", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error         string `json:"error"`
		TransactionID string `json:"transaction_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.TransactionID)
}

func TestCancelOrderEndpoint(t *testing.T) {
	f := newAPIFixture()
	id := f.createOrder(t)

	rec := f.do(t, http.MethodPost, "/v1/orders/"+id+"/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "canceled", resp["status"])
}

func TestPaymentFailureMapsToBadGateway(t *testing.T) {
	f := newAPIFixture()
	id := f.createOrder(t)

	f.payments.Err = domain.ErrPaymentAmbiguous
	rec := f.do(t, http.MethodPost, "/v1/orders/"+id+"/complete", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
