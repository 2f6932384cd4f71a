package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/kestrelworks/bootseq/pkg/announce"
	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/export"
	"github.com/kestrelworks/bootseq/pkg/journal"
	"github.com/kestrelworks/bootseq/pkg/logging"
	"github.com/kestrelworks/bootseq/pkg/manifest"
	"github.com/kestrelworks/bootseq/pkg/postgres"
	"github.com/kestrelworks/bootseq/pkg/render"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

type graphSummary struct {
	ID            string                `json:"id"`
	CreatedAt     time.Time             `json:"created_at"`
	Strict        bool                  `json:"strict"`
	Nodes         int                   `json:"nodes"`
	Edges         int                   `json:"edges"`
	Roots         []string              `json:"roots"`
	Leaves        []string              `json:"leaves"`
	RejectedEdges []depgraph.Dependency `json:"rejected_edges"`
	TotalStartup  string                `json:"total_startup"`
	TotalShutdown string                `json:"total_shutdown"`
}

func summarize(bg *BuiltGraph) graphSummary {
	return graphSummary{
		ID:            bg.ID,
		CreatedAt:     bg.CreatedAt,
		Strict:        bg.Graph.Strict(),
		Nodes:         bg.Graph.NumNodes(),
		Edges:         bg.Graph.NumEdges(),
		Roots:         bg.Graph.Roots(),
		Leaves:        bg.Graph.Leaves(),
		RejectedEdges: bg.Graph.RejectedEdges(),
		TotalStartup:  bg.Plan.TotalStartup().String(),
		TotalShutdown: bg.Plan.TotalShutdown().String(),
	}
}

func (s *Server) handleBuildGraph(c fiber.Ctx) error {
	var m manifest.Manifest
	if err := c.Bind().JSON(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if q := c.Query("strict"); q != "" {
		strict, err := strconv.ParseBool(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "strict must be a boolean"})
		}
		m.Strict = strict
	}
	if err := m.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	mode := "non-strict"
	if m.Strict {
		mode = "strict"
	}

	start := time.Now()
	g, err := m.BuildWithConfig(depgraph.Config{Logger: s.log})
	if err != nil {
		s.metrics.RecordBuild(mode, "error", time.Since(start))
		switch {
		case depgraph.IsCycle(err):
			// Unprocessable: the manifest parses fine but cannot form a DAG.
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case depgraph.IsValidation(err):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	scheduleStart := time.Now()
	plan, err := schedule.NewPropagatorWithConfig(g, schedule.Config{Logger: s.log}).Compute()
	if err != nil {
		s.metrics.RecordBuild(mode, "error", time.Since(start))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	s.metrics.RecordSchedule(time.Since(scheduleStart))
	s.metrics.RecordBuild(mode, "ok", time.Since(start))
	s.metrics.ObserveGraph(g.NumNodes(), g.NumEdges())
	s.metrics.AddRejectedEdges(len(g.RejectedEdges()))

	bg := s.registry.Add(g, plan)
	s.persist(c, bg, &m)

	claims := requestClaims(c)
	s.log.Info("graph built",
		logging.GraphID(bg.ID),
		logging.String("by", claims.Username),
		logging.Int("nodes", g.NumNodes()),
		logging.Int("edges", g.NumEdges()),
		logging.Int("rejected", len(g.RejectedEdges())))

	return c.Status(fiber.StatusCreated).JSON(summarize(bg))
}

// persist fans the built graph out to the optional sinks. Sink failures
// are logged, not surfaced: the graph is already built and registered.
func (s *Server) persist(c fiber.Ctx, bg *BuiltGraph, m *manifest.Manifest) {
	g, plan := bg.Graph, bg.Plan

	var manifestID string
	if s.store != nil {
		id, err := s.store.SaveManifest(c.Context(), bg.ID, m)
		if err != nil {
			s.log.Error("manifest persist failed", logging.GraphID(bg.ID), logging.Error(err))
		} else {
			manifestID = id
		}
		if _, err := s.store.SavePlan(c.Context(), postgres.PlanRecord{
			ID:         plan.ID,
			ManifestID: manifestID,
			CreatedAt:  plan.CreatedAt,
			Order:      g.TopologicalOrder(),
			Rejected:   g.RejectedEdges(),
			Entries:    plan.Entries,
		}); err != nil {
			s.log.Error("plan persist failed", logging.PlanID(plan.ID), logging.Error(err))
		}
	}

	if s.journal != nil {
		if _, err := s.journal.Append(journal.PlanRecord{
			PlanID:    plan.ID,
			GraphID:   bg.ID,
			CreatedAt: plan.CreatedAt,
			Order:     g.TopologicalOrder(),
			Rejected:  g.RejectedEdges(),
			Entries:   plan.Entries,
		}); err != nil {
			s.log.Error("journal append failed", logging.PlanID(plan.ID), logging.Error(err))
		} else {
			s.metrics.RecordJournalAppend()
		}
	}

	if s.exporter != nil {
		if err := s.exporter.Export(c.Context(), export.Payload{
			GraphID:   bg.ID,
			PlanID:    plan.ID,
			CreatedAt: plan.CreatedAt,
			Nodes:     g.NumNodes(),
			Edges:     g.NumEdges(),
			Order:     g.TopologicalOrder(),
			Rejected:  g.RejectedEdges(),
			Entries:   plan.Entries,
		}); err != nil {
			s.metrics.RecordExport("error")
			s.log.Error("plan export failed", logging.PlanID(plan.ID), logging.Error(err))
		} else {
			s.metrics.RecordExport("ok")
		}
	}

	if err := s.publisher.Publish(announce.Event{
		Type:          announce.EventGraphBuilt,
		GraphID:       bg.ID,
		PlanID:        plan.ID,
		Nodes:         g.NumNodes(),
		Edges:         g.NumEdges(),
		RejectedEdges: g.RejectedEdges(),
		At:            time.Now().UTC(),
	}); err != nil {
		s.log.Error("announce failed", logging.GraphID(bg.ID), logging.Error(err))
	}
}

func (s *Server) handleListGraphs(c fiber.Ctx) error {
	graphs := s.registry.List()
	out := make([]graphSummary, len(graphs))
	for i, bg := range graphs {
		out[i] = summarize(bg)
	}
	return c.JSON(fiber.Map{"graphs": out})
}

func (s *Server) lookupGraph(c fiber.Ctx) (*BuiltGraph, error) {
	bg, ok := s.registry.Get(c.Params("id"))
	if !ok {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "graph not found"})
	}
	return bg, nil
}

func (s *Server) handleGetGraph(c fiber.Ctx) error {
	bg, err := s.lookupGraph(c)
	if bg == nil {
		return err
	}
	return c.JSON(summarize(bg))
}

func (s *Server) handleGetOrder(c fiber.Ctx) error {
	bg, err := s.lookupGraph(c)
	if bg == nil {
		return err
	}
	return c.JSON(fiber.Map{"order": bg.Graph.TopologicalOrder()})
}

func (s *Server) handleGetPlan(c fiber.Ctx) error {
	bg, err := s.lookupGraph(c)
	if bg == nil {
		return err
	}
	return c.JSON(bg.Plan)
}

func (s *Server) handleGetRejected(c fiber.Ctx) error {
	bg, err := s.lookupGraph(c)
	if bg == nil {
		return err
	}
	return c.JSON(fiber.Map{"rejected_edges": bg.Graph.RejectedEdges()})
}

func (s *Server) handleRender(c fiber.Ctx) error {
	bg, err := s.lookupGraph(c)
	if bg == nil {
		return err
	}

	opts := render.Options{IncludeAttrs: true, Plan: bg.Plan}
	switch c.Query("direction", "topdown") {
	case "topdown":
		opts.Direction = render.TopDown
	case "bottomup":
		opts.Direction = render.BottomUp
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "direction must be topdown or bottomup"})
	}

	c.Set(fiber.HeaderContentType, "application/xml")
	return c.SendString(render.XML(bg.Graph, opts))
}

func (s *Server) handleDeleteGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if !s.registry.Remove(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "graph not found"})
	}

	if err := s.publisher.Publish(announce.Event{
		Type:    announce.EventGraphDeleted,
		GraphID: id,
		At:      time.Now().UTC(),
	}); err != nil {
		s.log.Error("announce failed", logging.GraphID(id), logging.Error(err))
	}
	s.log.Info("graph deleted", logging.GraphID(id))
	return c.SendStatus(fiber.StatusNoContent)
}
