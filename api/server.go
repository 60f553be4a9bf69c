// Package api exposes the allocation engine over HTTP: optimize, compare,
// plan history and plan acceptance with field order publication.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matiasvr/fireline/core/allocator"
	"github.com/matiasvr/fireline/core/fieldcomms"
	"github.com/matiasvr/fireline/core/logger"
	"github.com/matiasvr/fireline/core/metrics"
	"github.com/matiasvr/fireline/core/model"
	"github.com/matiasvr/fireline/core/planlog"
	"github.com/matiasvr/fireline/core/scoring"
)

// Server wires the planner and its collaborators behind the HTTP surface.
type Server struct {
	planner   *allocator.Planner
	explainer *allocator.Explainer
	store     planlog.Store
	publisher fieldcomms.Publisher
	sink      metrics.MetricsSink
	log       logger.Logger
	ackWait   time.Duration
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithPublisher sets the field order publisher used on plan acceptance.
func WithPublisher(p fieldcomms.Publisher) ServerOption {
	return func(s *Server) { s.publisher = p }
}

// WithMetrics sets the sink receiving acceptance events.
func WithMetrics(m metrics.MetricsSink) ServerOption {
	return func(s *Server) { s.sink = m }
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithAckWait bounds how long acceptance waits for field acknowledgments.
func WithAckWait(d time.Duration) ServerOption {
	return func(s *Server) { s.ackWait = d }
}

// NewServer builds the HTTP surface around a planner and a plan store.
func NewServer(planner *allocator.Planner, explainer *allocator.Explainer, store planlog.Store, opts ...ServerOption) *Server {
	s := &Server{
		planner:   planner,
		explainer: explainer,
		store:     store,
		sink:      metrics.NopSink{},
		log:       logger.NopLogger{},
		ackWait:   5 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	apiGrp := r.Group("/api")
	apiGrp.POST("/optimize", s.handleOptimize)
	apiGrp.POST("/compare", s.handleCompare)
	apiGrp.GET("/plans", s.handlePlans)
	apiGrp.POST("/plans/:id/accept", s.handleAccept)
	return r
}

// optimizeRequest is the request boundary: raw payloads are parsed into the
// typed domain records here, never deeper in the engine.
type optimizeRequest struct {
	Scenario  string                 `json:"scenario"`
	Demands   []model.DemandPoint    `json:"demands"`
	Resources []model.Resource       `json:"resources"`
	Assets    []model.ProtectedAsset `json:"assets"`
	Wind      scoring.Wind           `json:"wind"`
}

func (s *Server) handleOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, d := range req.Demands {
		if err := d.Validate(); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}
	for _, r := range req.Resources {
		if err := r.Validate(); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}

	demands := req.Demands
	if len(req.Assets) > 0 {
		demands = scoring.NewThreatScorer(req.Assets).Apply(demands, req.Wind)
	}
	scenario := req.Scenario
	if scenario == "" {
		scenario = "baseline"
	}

	plan := s.planner.Optimize(demands, req.Resources, scenario)
	s.explainer.Annotate(plan, demands, req.Resources)

	if err := s.store.Append(c.Request.Context(), plan); err != nil {
		s.log.Errorf("persist plan %s: %v", plan.ID, err)
	}
	c.JSON(http.StatusOK, plan)
}

type compareRequest struct {
	BaselineID    string `json:"baseline_id"`
	AlternativeID string `json:"alternative_id"`
}

func (s *Server) handleCompare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	base, err := s.store.Get(c.Request.Context(), req.BaselineID)
	if err != nil {
		s.planNotFound(c, req.BaselineID, err)
		return
	}
	alt, err := s.store.Get(c.Request.Context(), req.AlternativeID)
	if err != nil {
		s.planNotFound(c, req.AlternativeID, err)
		return
	}
	c.JSON(http.StatusOK, allocator.Compare(base.Plan, alt.Plan))
}

func (s *Server) handlePlans(c *gin.Context) {
	q := planlog.Query{
		Scenario:     c.Query("scenario"),
		Status:       model.PlanStatus(c.Query("status")),
		AcceptedOnly: c.Query("accepted") == "true",
	}
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time"})
			return
		}
		q.Start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time"})
			return
		}
		q.End = t
	}
	records, err := s.store.Query(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []planlog.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// orderResult reports the outcome of publishing one field order.
type orderResult struct {
	ResourceID   string `json:"resource_id"`
	DemandID     string `json:"demand_id"`
	OrderID      string `json:"order_id,omitempty"`
	Acknowledged bool   `json:"acknowledged"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) handleAccept(c *gin.Context) {
	id := c.Param("id")
	rec, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.planNotFound(c, id, err)
		return
	}
	if rec.Accepted {
		c.JSON(http.StatusConflict, gin.H{"error": "plan already accepted"})
		return
	}

	now := time.Now().UTC()
	if err := s.store.MarkAccepted(c.Request.Context(), id, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var orders []orderResult
	if s.publisher != nil {
		orders = s.publishOrders(rec.Plan)
	}

	if recorder, ok := s.sink.(metrics.PlanAcceptanceRecorder); ok {
		ev := metrics.PlanAcceptanceEvent{
			PlanID:      id,
			Scenario:    rec.Scenario,
			Assignments: len(rec.Plan.Assignments),
			Time:        now,
		}
		if err := recorder.RecordPlanAcceptance(ev); err != nil {
			s.log.Errorf("record acceptance: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_id":     id,
		"accepted_at": now,
		"orders":      orders,
	})
}

// publishOrders pushes one order per assignment and waits for the field
// acknowledgments. Publish failures are reported per order, never as a
// request failure: the acceptance itself already happened.
func (s *Server) publishOrders(plan *model.AllocationPlan) []orderResult {
	results := make([]orderResult, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		res := orderResult{ResourceID: a.ResourceID, DemandID: a.DemandID}
		orderID, err := s.publisher.SendOrder(fieldcomms.Order{
			PlanID:          plan.ID,
			ResourceID:      a.ResourceID,
			DemandID:        a.DemandID,
			Scenario:        plan.Scenario,
			TravelTimeHours: a.TravelTimeHours,
			Explanation:     a.Explanation,
		})
		if err != nil {
			s.log.Errorf("send order for %s: %v", a.ResourceID, err)
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.OrderID = orderID
		ack, err := s.publisher.WaitForAck(orderID, s.ackWait)
		if err != nil {
			res.Error = err.Error()
		}
		res.Acknowledged = ack
		results = append(results, res)
	}
	return results
}

func (s *Server) planNotFound(c *gin.Context, id string, err error) {
	if errors.Is(err, planlog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan " + id + " not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
