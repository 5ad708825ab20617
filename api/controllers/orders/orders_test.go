package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/api/middleware"
	internalorders "github.com/stylebazaar/stylebazaar-backend/internal/orders"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/pagination"
)

type stubOrderService struct {
	internalorders.Service
	view       *internalorders.OrderView
	list       *internalorders.OrderList
	sellerView *internalorders.SellerOrderView
	err        error

	gotBuyer  uuid.UUID
	gotOrder  uuid.UUID
	gotParams pagination.Params
	gotPay    internalorders.PayInput
	gotUpdate internalorders.UpdateStatusInput
}

func (s *stubOrderService) Get(_ context.Context, buyerID, orderID uuid.UUID) (*internalorders.OrderView, error) {
	s.gotBuyer, s.gotOrder = buyerID, orderID
	return s.view, s.err
}

func (s *stubOrderService) ListForBuyer(_ context.Context, buyerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	s.gotBuyer, s.gotParams = buyerID, params
	return s.list, s.err
}

func (s *stubOrderService) Pay(_ context.Context, input internalorders.PayInput) (*internalorders.OrderView, error) {
	s.gotPay = input
	return s.view, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, input internalorders.UpdateStatusInput) (*internalorders.SellerOrderView, error) {
	s.gotUpdate = input
	return s.sellerView, s.err
}

func withOrderParam(req *http.Request, id string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestListUsesBuyerAndPaging(t *testing.T) {
	buyer := uuid.New()
	svc := &stubOrderService{list: &internalorders.OrderList{Orders: []internalorders.OrderSummary{}, NextCursor: "next"}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", nil)
	req = req.WithContext(middleware.WithBuyerID(req.Context(), buyer))
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotBuyer != buyer || svc.gotParams.Limit != 5 || svc.gotParams.Cursor != "abc" {
		t.Fatalf("unexpected call buyer=%s params=%+v", svc.gotBuyer, svc.gotParams)
	}
	var envelope struct {
		Data internalorders.OrderList `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected cursor %q", envelope.Data.NextCursor)
	}
}

func TestListRequiresBuyer(t *testing.T) {
	resp := httptest.NewRecorder()
	List(&stubOrderService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	req := withOrderParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil), orderID.String())
	req = req.WithContext(middleware.WithBuyerID(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.gotOrder != orderID {
		t.Fatalf("unexpected order id %s", svc.gotOrder)
	}
}

func TestPayParsesMethod(t *testing.T) {
	orderID := uuid.New()
	buyer := uuid.New()
	svc := &stubOrderService{view: &internalorders.OrderView{ID: orderID, IsPaid: true}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/pay", strings.NewReader(`{"method":"mtn","phone":" 0961234567 "}`))
	req = withOrderParam(req, orderID.String())
	req = req.WithContext(middleware.WithBuyerID(req.Context(), buyer))
	resp := httptest.NewRecorder()
	Pay(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotPay.Method != enums.PaymentMethodMTN || svc.gotPay.Phone != "0961234567" || svc.gotPay.BuyerID != buyer {
		t.Fatalf("unexpected pay input %+v", svc.gotPay)
	}
}

func TestPayRejectsUnknownMethod(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"method":"bitcoin"}`))
	req = withOrderParam(req, orderID.String())
	req = req.WithContext(middleware.WithBuyerID(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	Pay(&stubOrderService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSellerUpdateStatusMapsConflict(t *testing.T) {
	orderID := uuid.New()
	seller := uuid.New()
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from delivered to pending")}
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"pending"}`))
	req = withOrderParam(req, orderID.String())
	req = req.WithContext(middleware.WithSellerID(req.Context(), seller))
	resp := httptest.NewRecorder()
	SellerUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if svc.gotUpdate.SellerID != seller || svc.gotUpdate.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected update %+v", svc.gotUpdate)
	}
}
