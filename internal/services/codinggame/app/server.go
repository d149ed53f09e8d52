package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	codinggamegrpc "github.com/louisbranch/codinggame/internal/services/codinggame/api/grpc/codinggame"
	grpcmeta "github.com/louisbranch/codinggame/internal/services/codinggame/api/grpc/metadata"
	mcpapi "github.com/louisbranch/codinggame/internal/services/codinggame/api/mcp"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/engine"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
	"github.com/louisbranch/codinggame/internal/services/codinggame/effects"
	"github.com/louisbranch/codinggame/internal/services/codinggame/storage"
	"github.com/louisbranch/codinggame/internal/services/codinggame/storage/jsonfile"
	storagesqlite "github.com/louisbranch/codinggame/internal/services/codinggame/storage/sqlite"
	"github.com/louisbranch/codinggame/internal/services/codinggame/timelinedata"
)

// Server hosts the coding game service.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server

	loop    *engine.Loop
	runtime *engine.Runtime
	chat    *effects.ChatHub

	logStore io.Closer
	desktop  *storagesqlite.Store

	mcpTransport mcp.Transport
}

// New loads the timeline, opens the stores and builds a server listening on
// cfg.Addr. The engine does not start until Serve.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	desc, err := loadTimeline(cfg)
	if err != nil {
		return nil, err
	}

	store, logCloser, err := openLogStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	desktop, err := storagesqlite.OpenDesktop(ctx, cfg.desktopDBPath())
	if err != nil {
		closeQuietly("event log", logCloser)
		return nil, fmt.Errorf("open desktop store: %w", err)
	}
	gameLog, err := eventlog.Open(ctx, store, nil)
	if err != nil {
		log.Printf("load event log: %v; starting with an empty log", err)
	}

	loop := engine.NewLoop()
	chat := effects.NewChatHub()
	eng, err := engine.New(engine.Deps{
		Descriptor:   desc,
		Log:          gameLog,
		Scheduler:    engine.NewTimerScheduler(loop.Post),
		Chat:         chat,
		Settings:     desktop,
		AppGrid:      desktop,
		Desktop:      effects.NewXDGDesktopLocator(),
		Files:        effects.LocalFiles{SourceDir: cfg.FilesDir},
		Publisher:    engine.PublisherFunc(logSnapshot),
		FilesDir:     cfg.FilesDir,
		ConfigDir:    cfg.ConfigDir,
		HomeDir:      cfg.HomeDir,
		DebugEnabled: cfg.debugEnabled(),
	})
	if err != nil {
		closeQuietly("event log", logCloser)
		closeQuietly("desktop store", desktop)
		return nil, fmt.Errorf("build engine: %w", err)
	}
	runtime := engine.NewRuntime(eng, loop)

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		closeQuietly("event log", logCloser)
		closeQuietly("desktop store", desktop)
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcmeta.UnaryServerInterceptor(nil)),
		grpc.ChainStreamInterceptor(grpcmeta.StreamServerInterceptor(nil)),
	)
	codinggamegrpc.RegisterCodingGameServiceServer(grpcServer, codinggamegrpc.NewService(runtime, chat))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		listener:     listener,
		grpcServer:   grpcServer,
		health:       healthServer,
		loop:         loop,
		runtime:      runtime,
		chat:         chat,
		logStore:     logCloser,
		desktop:      desktop,
		mcpTransport: cfg.MCPTransport,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the engine and the transports and blocks until ctx ends or
// the gRPC server fails.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStores()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		wg.Wait()
	}()

	if err := s.runtime.Start(ctx); err != nil {
		log.Printf("start game: %v", err)
	}

	mcpCtx, stopMCP := context.WithCancel(ctx)
	defer stopMCP()
	if s.mcpTransport != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mcpapi.Run(mcpCtx, s.runtime, s.mcpTransport); err != nil {
				log.Printf("serve mcp: %v", err)
			}
		}()
	}

	log.Printf("codinggame server listening at %v", s.listener.Addr())
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(codinggamegrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func (s *Server) closeStores() {
	closeQuietly("event log", s.logStore)
	closeQuietly("desktop store", s.desktop)
}

func closeQuietly(what string, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Printf("close %s: %v", what, err)
	}
}

// loadTimeline tries the explicit override, then the config dir override,
// then the built-in timeline.
func loadTimeline(cfg Config) (*timeline.Descriptor, error) {
	var sources []timeline.Source
	if cfg.TimelineFile != "" {
		sources = append(sources, timeline.FileSource(cfg.TimelineFile))
	}
	sources = append(sources,
		timeline.FileSource(filepath.Join(cfg.ConfigDir, timelineFileName)),
		timelinedata.Source(),
	)
	desc, err := timeline.Load(sources)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	for _, warning := range desc.Warnings {
		log.Printf("timeline: %s", warning)
	}
	return desc, nil
}

// openLogStore opens the configured event log backend. The closer is nil for
// backends that hold no resources.
func openLogStore(ctx context.Context, cfg Config) (storage.Store, io.Closer, error) {
	switch cfg.logStore() {
	case LogStoreSQLite:
		store, err := storagesqlite.OpenLog(ctx, filepath.Join(cfg.ConfigDir, sqliteLogName))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite event log: %w", err)
		}
		return store, store, nil
	default:
		store, err := jsonfile.Open(filepath.Join(cfg.ConfigDir, jsonLogFileName))
		if err != nil {
			return nil, nil, fmt.Errorf("open json event log: %w", err)
		}
		return store, nil, nil
	}
}

func logSnapshot(s engine.Snapshot) {
	if s.Mission == nil {
		log.Printf("game state: no mission, listening for %v", s.ListeningFor)
		return
	}
	log.Printf("game state: mission %s (%d/%d points, %d/%d tasks), listening for %v",
		s.Mission.Mission, s.Mission.Points, s.Mission.PointsAvailable,
		s.Mission.TasksDone, s.Mission.TasksAvailable, s.ListeningFor)
}
