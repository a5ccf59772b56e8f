package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// maxBodyBytes ограничивает тело запроса: формы витрины маленькие
const maxBodyBytes = 1 << 20

// CatalogService — операции каталога, нужные HTTP слою
type CatalogService interface {
	Catalog(ctx context.Context) domain.Catalog
	ProductByRef(ctx context.Context, ref string) (domain.Product, error)
	AddProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AddAnnouncement(ctx context.Context, in domain.AnnouncementInput) (domain.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id int64) error
}

// OrderService — операции журнала заказов
type OrderService interface {
	Create(ctx context.Context, productID int64, customerName, phone string) (domain.Order, error)
	SetStatus(ctx context.Context, orderID int64, status string) (domain.Order, error)
	List(ctx context.Context) []domain.Order
	Summarize(ctx context.Context) domain.OrderSummary
}

// Config настраивает HTTP API
type Config struct {
	AdminUser     string
	AdminPassword string
}

// Handler обслуживает публичную витрину и административный раздел
type Handler struct {
	catalog CatalogService
	orders  OrderService
	admin   AdminCredentials
	logger  *log.Entry
	mux     *http.ServeMux
}

// NewHandler собирает маршруты и middleware
func NewHandler(catalog CatalogService, orders OrderService, cfg Config, logger *log.Entry) http.Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	h := &Handler{
		catalog: catalog,
		orders:  orders,
		admin:   AdminCredentials{User: cfg.AdminUser, Password: cfg.AdminPassword},
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	h.routes()
	return chain(h.mux, recoverPanics(logger), requestLogging(logger), requestID)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /api/catalog", h.getCatalog)
	h.mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	h.mux.HandleFunc("POST /api/products/{id}/orders", h.createOrder)

	admin := func(fn http.HandlerFunc) http.Handler { return h.admin.Require(fn) }
	h.mux.Handle("POST /api/admin/products", admin(h.addProduct))
	h.mux.Handle("DELETE /api/admin/products/{id}", admin(h.deleteProduct))
	h.mux.Handle("POST /api/admin/posts", admin(h.addAnnouncement))
	h.mux.Handle("DELETE /api/admin/posts/{id}", admin(h.deleteAnnouncement))
	h.mux.Handle("GET /api/admin/orders", admin(h.listOrders))
	h.mux.Handle("PUT /api/admin/orders/{id}/status", admin(h.setOrderStatus))
	h.mux.Handle("GET /api/admin/summary", admin(h.summary))
}

type catalogResponse struct {
	Products []domain.Product      `json:"products"`
	Posts    []domain.Announcement `json:"posts"`
}

func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := h.catalog.Catalog(r.Context())
	writeJSON(w, http.StatusOK, catalogResponse{Products: catalog.Products, Posts: catalog.Posts})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.ProductByRef(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type createOrderRequest struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.orders.Create(r.Context(), productID, req.CustomerName, req.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

type productRequest struct {
	Name        string          `json:"name"`
	Price       json.RawMessage `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	price, err := rawPrice(req.Price)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := h.catalog.AddProduct(r.Context(), domain.ProductInput{
		Name:        req.Name,
		Price:       price,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = h.catalog.DeleteProduct(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type announcementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	FileURL string `json:"file_url"`
}

func (h *Handler) addAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.catalog.AddAnnouncement(r.Context(), domain.AnnouncementInput{
		Title:   req.Title,
		Content: req.Content,
		FileURL: req.FileURL,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) deleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = h.catalog.DeleteAnnouncement(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orders.List(r.Context()))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.orders.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orders.Summarize(r.Context()))
}

// pathID разбирает {id} маршрута. Нечисловой id не может указывать на запись, поэтому это 404.
func pathID(r *http.Request) (int64, error) {
	id, err := domain.ParseID(r.PathValue("id"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return id, nil
}

// rawPrice принимает цену и числом, и строкой, как её присылает HTML форма
func rawPrice(raw json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", domain.NewValidationError("price", "must be a number")
		}
		return s, nil
	}
	return text, nil
}

func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		return domain.NewValidationError("body", "must be a JSON object")
	}
	return nil
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", RequestIDFrom(r.Context())).Error("request failed")
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message, RequestID: RequestIDFrom(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}
