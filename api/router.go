package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"latchkey/catalog"
	"latchkey/logx"
	"latchkey/scanner/engine"
	"latchkey/scanner/target"
	"latchkey/store"
)

// defaultScanTimeout bounds each probe request issued by a scan submitted
// through the API; the CLI entrypoint exposes the same setting directly.
const defaultScanTimeout = 10 * time.Second

// Server bundles everything the Scan API needs to serve requests: the
// loaded catalogue, the account store, and an optional result sink.
type Server struct {
	catalogue *catalog.Catalogue
	users     *Users
	results   *store.Store
	secret    []byte
	log       *logx.Logger
}

// NewServer builds a Server. results may be nil, in which case scan
// results are never persisted: a scan request reports only its run ID and
// probe/match counts, and GET /scans/:id answers 501.
func NewServer(cat *catalog.Catalogue, users *Users, results *store.Store, secret []byte, log *logx.Logger) *Server {
	return &Server{catalogue: cat, users: users, results: results, secret: secret, log: log}
}

// Router builds the gin engine: public auth routes, and JWT-protected scan
// routes (SPEC_FULL.md §7.3).
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/auth/register", s.handleRegister)
	r.POST("/auth/login", s.handleLogin)

	protected := r.Group("/")
	protected.Use(s.requireAuth)
	protected.POST("/scans", s.handleCreateScan)
	protected.GET("/scans/:id", s.handleGetScan)

	return r
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID.Hex(), "username": user.Username})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := generateToken(s.secret, user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	claims, err := parseToken(s.secret, header[len(prefix):])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set("username", claims.Username)
}

type createScanRequest struct {
	Targets         []string `json:"targets" binding:"required"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Threads         int      `json:"threads"`
	FingerprintOnly bool     `json:"fingerprint_only"`
}

func (s *Server) handleCreateScan(c *gin.Context) {
	var req createScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profiles := filterProfiles(s.catalogue.Profiles(), req.Name, req.Category)
	probes := target.Expand(req.Targets, profiles)

	threads := req.Threads
	if threads <= 0 {
		threads = 10
	}

	runID := uuid.NewString()
	results := engine.Run(c.Request.Context(), probes, engine.Config{
		Threads:         threads,
		Timeout:         defaultScanTimeout,
		FingerprintOnly: req.FingerprintOnly,
	}, s.log)

	if s.results != nil {
		persistResults(c.Request.Context(), s.results, runID, results, s.log)
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "probed": len(probes), "matched": countMatches(results)})
}

func (s *Server) handleGetScan(c *gin.Context) {
	if s.results == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "result store not configured"})
		return
	}

	runID := c.Param("id")
	records, err := s.results.ListByRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "results": records})
}

func filterProfiles(all []*catalog.Profile, name, category string) []*catalog.Profile {
	if name == "" && category == "" {
		return all
	}
	var filtered []*catalog.Profile
	for _, p := range all {
		if name != "" && p.Name != name {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func countMatches(results []engine.Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Matches)
	}
	return n
}

func persistResults(ctx context.Context, s *store.Store, runID string, results []engine.Result, log *logx.Logger) {
	for _, r := range results {
		for _, m := range r.Matches {
			err := s.Save(ctx, &store.ScanResult{
				RunID:       runID,
				ProfileName: m.Profile.Name,
				Category:    m.Profile.Category,
				TargetURL:   m.TargetURL,
				Username:    m.Credential.Username,
				Password:    m.Credential.Password,
			})
			if err != nil {
				log.Errorf("persisting result for run %s: %v", runID, err)
			}
		}
	}
}
