// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/cortex/internal/agent"
	"github.com/HendryAvila/cortex/internal/config"
	"github.com/HendryAvila/cortex/internal/db"
	"github.com/HendryAvila/cortex/internal/drift"
	"github.com/HendryAvila/cortex/internal/facade"
	"github.com/HendryAvila/cortex/internal/graph"
	"github.com/HendryAvila/cortex/internal/memory"
	"github.com/HendryAvila/cortex/internal/prompts"
	"github.com/HendryAvila/cortex/internal/resources"
	"github.com/HendryAvila/cortex/internal/task"
	"github.com/HendryAvila/cortex/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the database connection and must
// be called on shutdown (typically via defer). It is always non-nil.
func New() (*server.MCPServer, func(), error) {
	cfg := config.FromEnv()

	// --- Create shared dependencies ---

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening database: %w", err)
	}
	cleanup := func() { database.Close() }

	embedder := agent.NewHashEmbedder(cfg.EmbeddingDim)
	reranker := agent.SimilarityReranker{}

	builder := graph.DefaultBuilder(cfg.IgnoreDirs)
	registry := graph.NewRegistry(builder, cfg.BuildTimeout)

	snapshots, err := graph.NewSnapshotStore(database)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("snapshot store: %w", err)
	}

	driftRecords, err := drift.NewRecordStore(database)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("drift record store: %w", err)
	}
	detector := drift.NewDetector(registry, snapshots, driftRecords, nil)

	memStore, err := memory.New(database, memory.Config{
		EmbedTimeout: cfg.EmbedTimeout,
		MaxResults:   cfg.MaxSearchResults,
	}, embedder, reranker)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("memory store: %w", err)
	}

	taskStore, err := task.New(database, task.Config{MaxRetries: cfg.MaxRetries})
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("task store: %w", err)
	}

	contextFacade := facade.New(cfg, registry, memStore)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"cortex",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register project tools ---

	syncTool := tools.NewSyncTool(registry)
	s.AddTool(syncTool.Definition(), syncTool.Handle)

	statusTool := tools.NewStatusTool(registry)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	driftTool := tools.NewDriftTool(detector)
	s.AddTool(driftTool.Definition(), driftTool.Handle)

	contextTool := tools.NewContextTool(contextFacade)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	// --- Register task lifecycle tools ---

	taskCreate := tools.NewTaskCreateTool(taskStore)
	s.AddTool(taskCreate.Definition(), taskCreate.Handle)

	taskPlan := tools.NewTaskPlanTool(taskStore)
	s.AddTool(taskPlan.Definition(), taskPlan.Handle)

	subtaskAdd := tools.NewSubtaskAddTool(taskStore)
	s.AddTool(subtaskAdd.Definition(), subtaskAdd.Handle)

	subtaskAssign := tools.NewSubtaskAssignTool(taskStore)
	s.AddTool(subtaskAssign.Definition(), subtaskAssign.Handle)

	subtaskStart := tools.NewSubtaskStartTool(taskStore)
	s.AddTool(subtaskStart.Definition(), subtaskStart.Handle)

	subtaskVerify := tools.NewSubtaskVerifyTool(taskStore)
	s.AddTool(subtaskVerify.Definition(), subtaskVerify.Handle)

	subtaskReject := tools.NewSubtaskRejectTool(taskStore)
	s.AddTool(subtaskReject.Definition(), subtaskReject.Handle)

	taskProgress := tools.NewTaskProgressTool(taskStore)
	s.AddTool(taskProgress.Definition(), taskProgress.Handle)

	taskFinish := tools.NewTaskFinishTool(taskStore)
	s.AddTool(taskFinish.Definition(), taskFinish.Handle)

	checkpointSave := tools.NewCheckpointSaveTool(taskStore)
	s.AddTool(checkpointSave.Definition(), checkpointSave.Handle)

	checkpointLoad := tools.NewCheckpointLoadTool(taskStore)
	s.AddTool(checkpointLoad.Definition(), checkpointLoad.Handle)

	// --- Register memory tools ---

	memSave := tools.NewMemSaveTool(memStore)
	s.AddTool(memSave.Definition(), memSave.Handle)

	memSearch := tools.NewMemSearchTool(memStore)
	s.AddTool(memSearch.Definition(), memSearch.Handle)

	// --- Register prompts ---

	kickoff := prompts.NewKickoffPrompt()
	s.AddPrompt(kickoff.Definition(), kickoff.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(registry, driftRecords)
	s.AddResourceTemplate(resourceHandler.StatusTemplate(), resourceHandler.HandleStatus)
	s.AddResourceTemplate(resourceHandler.DriftTemplate(), resourceHandler.HandleDrift)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when initialization fails
// before the database is open.
func noop() {}

// serverInstructions describes the intended workflow to the MCP host.
func serverInstructions() string {
	return `Cortex is a knowledge engine for multi-agent coding work. Typical flow:

1. project_sync to build the structural code graph for a project.
2. drift_check to compare skill documentation against the actual code.
3. get_context before working on a flow: code slice + docs + memories.
4. task_create / task_plan / subtask_add to set up the work.
5. subtask_assign / subtask_start / subtask_verify / subtask_reject as agents execute.
6. checkpoint_save regularly; checkpoint_load to resume after interruption.
7. mem_save important findings; mem_search before re-deriving anything.

Tasks finish with task_finish only when every subtask is verified.`
}
