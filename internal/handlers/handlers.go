package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stocktracker/internal/database"
	"stocktracker/internal/models"
	"stocktracker/internal/service"
)

type Handler struct {
	repo      *database.Repo
	auth      *service.AuthService
	portfolio *service.PortfolioService
	priceSvc  service.PriceProvider
	log       *logrus.Logger
}

func NewHandler(r *database.Repo, p service.PriceProvider, log *logrus.Logger) *Handler {
	return &Handler{
		repo:      r,
		auth:      service.NewAuthService(r, log),
		portfolio: service.NewPortfolioService(r, p, log),
		priceSvc:  p,
		log:       log,
	}
}

type Options struct {
	AllowedOrigins []string
	APIKey         string
}

// Router builds the HTTP surface: /health plus the auth, stock and portfolio
// APIs under /api.
func (h *Handler) Router(opts Options) *gin.Engine {
	rg := gin.New()
	rg.Use(gin.Recovery(), RequestLogger(h.log), CORS(opts.AllowedOrigins))
	rg.GET("/health", h.Health)

	api := rg.Group("/api", APIKey(opts.APIKey))
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)
	api.GET("/stocks/:symbol/price", h.GetPrice)
	api.GET("/portfolio/:username", h.GetPortfolio)
	api.POST("/portfolio/:username/add", h.AddStock)
	api.POST("/portfolio/:username/sell", h.SellStock)
	return rg
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.repo.Ping(c.Request.Context()); err != nil {
		h.log.Errorf("health: db ping failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Signup(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid signup body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	u, err := h.auth.Signup(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, database.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	case err != nil:
		h.log.Errorf("signup failed for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}
	h.log.Infof("registered user %s", u.Username)
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid login body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	u, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.log.Warnf("login failed for username: %s", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.log.Errorf("login failed for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	h.log.Infof("login successful for username: %s", u.Username)
	c.JSON(http.StatusOK, u)
}

// GetPrice answers with the bare price as a JSON number.
func (h *Handler) GetPrice(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	price, _, err := h.priceSvc.GetPrice(c.Request.Context(), symbol)
	if err != nil || !price.IsPositive() {
		h.log.Warnf("price fetch for %s failed: %v", symbol, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "price not found for " + symbol})
		return
	}
	c.JSON(http.StatusOK, price.InexactFloat64())
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	username := c.Param("username")
	snap, err := h.portfolio.Snapshot(c.Request.Context(), username)
	if err != nil {
		h.log.Errorf("get portfolio failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func bindStock(c *gin.Context) (models.Stock, bool) {
	var st models.Stock
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return st, false
	}
	st.Symbol = strings.ToUpper(strings.TrimSpace(st.Symbol))
	if st.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return st, false
	}
	if st.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be positive"})
		return st, false
	}
	return st, true
}

func (h *Handler) AddStock(c *gin.Context) {
	username := c.Param("username")
	st, ok := bindStock(c)
	if !ok {
		return
	}
	if st.AvgBuyPrice < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}
	h.log.Infof("attempting to add stock %s for user %s", st.Symbol, username)
	held, err := h.portfolio.Add(c.Request.Context(), username, st)
	if err != nil {
		h.log.Errorf("add stock failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add failed"})
		return
	}
	c.JSON(http.StatusOK, models.Stock{Symbol: held.Symbol, Name: held.Name, Quantity: held.Quantity, AvgBuyPrice: held.PurchasePrice})
}

func (h *Handler) SellStock(c *gin.Context) {
	username := c.Param("username")
	st, ok := bindStock(c)
	if !ok {
		return
	}
	held, err := h.portfolio.Sell(c.Request.Context(), username, st)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock not found in portfolio for symbol: " + st.Symbol})
		return
	case errors.Is(err, database.ErrInsufficientShares):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot sell more shares than owned for symbol: " + st.Symbol})
		return
	case err != nil:
		h.log.Errorf("sell stock failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sell failed"})
		return
	}
	c.JSON(http.StatusOK, models.Stock{Symbol: held.Symbol, Quantity: held.Quantity, AvgBuyPrice: held.PurchasePrice})
}
