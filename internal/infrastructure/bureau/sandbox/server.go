package sandbox

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/bureau"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

// Config configures the sandbox server
type Config struct {
	Seed    uint64
	Latency time.Duration
	// APIKeys, when set for a bureau, must match the credential it receives.
	// Bureaus without an entry accept any non-empty credential.
	APIKeys map[pendency.ProviderCode]string
	// Failing bureaus answer 503 to every request
	Failing []pendency.ProviderCode
	Now     func() time.Time
}

// Server serves fake versions of every bureau API
type Server struct {
	config    Config
	generator *Generator
	failing   map[pendency.ProviderCode]bool
	logger    *zap.Logger
}

// New creates a sandbox server
func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	failing := make(map[pendency.ProviderCode]bool, len(cfg.Failing))
	for _, code := range cfg.Failing {
		failing[code] = true
	}
	return &Server{
		config:    cfg,
		generator: NewGenerator(cfg.Seed, cfg.Now),
		failing:   failing,
		logger:    log.Named("sandbox"),
	}
}

// Generator exposes the debt generator backing the responses
func (s *Server) Generator() *Generator {
	return s.generator
}

// Engine builds a gin engine with every bureau mounted under its config key:
// /serasa, /spc, /boa_vista, /quod and /pgfn
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(logger.Recovery(s.logger))
	engine.Use(logger.GinMiddleware(s.logger))
	s.Register(engine)
	return engine
}

// Register mounts the bureau routes on r
func (s *Server) Register(r gin.IRouter) {
	serasa := r.Group("/serasa", s.common(pendency.ProviderSerasa, bearerCredential))
	serasa.GET("/v1/consumers/:document/pendencies", s.serasaPendencies)

	spc := r.Group("/spc", s.common(pendency.ProviderSPC, apiKeyCredential))
	spc.GET("/ws/consulta", s.spcConsulta)

	boaVista := r.Group("/boa_vista", s.common(pendency.ProviderBoaVista, apiKeyCredential))
	boaVista.POST("/api/v2/debts/search", s.boaVistaSearch)

	quod := r.Group("/quod", s.common(pendency.ProviderQuod, bearerCredential))
	quod.GET("/v1/negativacoes", s.quodNegativacoes)

	pgfn := r.Group("/pgfn", s.common(pendency.ProviderPGFN, apiKeyCredential))
	pgfn.GET("/divida-ativa", s.pgfnDividaAtiva)
}

func bearerCredential(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func apiKeyCredential(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Api-Key"))
}

// common applies latency, failure injection and credential checks
func (s *Server) common(code pendency.ProviderCode, credential func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.Latency > 0 {
			timer := time.NewTimer(s.config.Latency)
			select {
			case <-timer.C:
			case <-c.Request.Context().Done():
				timer.Stop()
				c.Abort()
				return
			}
		}

		if s.failing[code] {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}

		got := credential(c)
		want, pinned := s.config.APIKeys[code]
		if got == "" || (pinned && got != want) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.Next()
	}
}

func (s *Server) serasaPendencies(c *gin.Context) {
	taxID, ok := s.document(c, c.Param("document"))
	if !ok {
		return
	}
	debts := s.generator.Debts(taxID, pendency.ProviderSerasa)
	if len(debts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pendencies found"})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	c.JSON(http.StatusOK, renderSerasa(taxID, debts, page))
}

func (s *Server) spcConsulta(c *gin.Context) {
	taxID, ok := s.document(c, c.Query("documento"))
	if !ok {
		return
	}
	if tipo := c.Query("tipo"); tipo != "" && tipo != string(taxID.Kind()) {
		c.XML(http.StatusBadRequest, gin.H{"erro": "tipo incompativel com documento"})
		return
	}
	debts := s.generator.Debts(taxID, pendency.ProviderSPC)
	c.XML(http.StatusOK, renderSPC(taxID, debts, uuid.NewString()))
}

func (s *Server) boaVistaSearch(c *gin.Context) {
	var req bureau.BoaVistaSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	taxID, ok := s.document(c, req.CPFCNPJ)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderBoaVista(s.generator.Debts(taxID, pendency.ProviderBoaVista)))
}

func (s *Server) quodNegativacoes(c *gin.Context) {
	taxID, ok := s.document(c, c.Query("document"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderQuod(s.generator.Debts(taxID, pendency.ProviderQuod)))
}

func (s *Server) pgfnDividaAtiva(c *gin.Context) {
	taxID, ok := s.document(c, c.Query("ni"))
	if !ok {
		return
	}
	c.XML(http.StatusOK, renderPGFN(taxID, s.generator.Debts(taxID, pendency.ProviderPGFN)))
}

// document parses raw as a tax id, answering 400 when it is invalid
func (s *Server) document(c *gin.Context, raw string) (pendency.TaxID, bool) {
	taxID, err := pendency.ParseTaxID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document"})
		return pendency.TaxID{}, false
	}
	logger.GetGinLogger(c).Debug("Sandbox query",
		zap.String("document", taxID.Masked()))
	return taxID, true
}
