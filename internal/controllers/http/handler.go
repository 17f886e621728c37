package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"ordersync/internal/config"
	"ordersync/internal/repository"
	"ordersync/internal/services"
)

// Handler is the thin presentation surface over the sync core: refresh
// triggers, status polling and read-only queries against the cache
// store. Triggers return immediately; failures surface via /cache-status.
type Handler struct {
	service   *services.RefreshService
	orders    repository.OrderRepository
	products  repository.ProductRepository
	inventory repository.InventoryRepository
	rdb       *redis.Client
	cfg       config.Cache
}

func NewHandler(
	service *services.RefreshService,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	inventory repository.InventoryRepository,
	rdb *redis.Client,
	cfg config.Cache,
) *Handler {
	return &Handler{
		service:   service,
		orders:    orders,
		products:  products,
		inventory: inventory,
		rdb:       rdb,
		cfg:       cfg,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/refresh/orders", h.RefreshOrders)
	r.POST("/refresh/latest", h.RefreshLatest)
	r.POST("/refresh/full", h.RefreshFull)
	r.POST("/refresh/products", h.RefreshProducts)
	r.POST("/refresh/inventory", h.RefreshInventory)
	r.GET("/cache-status", h.CacheStatus)
	r.POST("/rate-check", h.RateCheck)
	r.GET("/orders", h.GetOrders)
	r.GET("/orders/:id/items", h.GetOrderItems)
	r.GET("/products", h.GetProducts)
	r.GET("/inventory", h.GetInventory)
}

func (h *Handler) RefreshOrders(c *gin.Context) {
	var req RefreshOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var start, end time.Time
	if req.StartDate != "" || req.EndDate != "" {
		var err error
		start, end, err = req.Range()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		end = time.Now().UTC().Truncate(24 * time.Hour)
		start = end.AddDate(0, 0, -(h.cfg.LookbackDays - 1))
	}

	h.started(c, h.service.RefreshOrders(start, end))
}

func (h *Handler) RefreshLatest(c *gin.Context)    { h.started(c, h.service.RefreshLatest()) }
func (h *Handler) RefreshFull(c *gin.Context)      { h.started(c, h.service.RefreshFull()) }
func (h *Handler) RefreshProducts(c *gin.Context)  { h.started(c, h.service.RefreshProducts()) }
func (h *Handler) RefreshInventory(c *gin.Context) { h.started(c, h.service.RefreshInventory()) }

func (h *Handler) started(c *gin.Context, err error) {
	if errors.Is(err, services.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (h *Handler) CacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

func (h *Handler) RateCheck(c *gin.Context) {
	rate, err := h.service.RateLimitCheck(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "rate_limit": rate})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate_limit": rate})
}

const orderCachePrefix = "orders:range:"

func (h *Handler) GetOrders(c *gin.Context) {
	start := c.DefaultQuery("start", "0000-01-01")
	end := c.DefaultQuery("end", "9999-12-31")

	ctx := c.Request.Context()
	cacheKey := orderCachePrefix + start + ":" + end
	if h.rdb != nil {
		if b, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached []map[string]any
			if json.Unmarshal([]byte(b), &cached) == nil {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	orders, err := h.orders.FindByRange(ctx, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.rdb != nil {
		if data, err := json.Marshal(orders); err == nil {
			h.rdb.Set(ctx, cacheKey, data, 10*time.Second)
		}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrderItems(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id required"})
		return
	}
	items, err := h.orders.FindItemsByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.products.FindAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetInventory(c *gin.Context) {
	inventory, err := h.inventory.FindAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inventory)
}
