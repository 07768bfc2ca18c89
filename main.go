package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mario-andreschak/mcp-gameboy/internal/engine/goboy"
	"github.com/mario-andreschak/mcp-gameboy/internal/protocol"
	"github.com/mario-andreschak/mcp-gameboy/internal/roms"
	"github.com/mario-andreschak/mcp-gameboy/internal/screen"
	"github.com/mario-andreschak/mcp-gameboy/internal/service"
	"github.com/mario-andreschak/mcp-gameboy/internal/session"
	"github.com/mario-andreschak/mcp-gameboy/internal/transport/sse"
	"github.com/mario-andreschak/mcp-gameboy/internal/transport/stdio"
	"github.com/mario-andreschak/mcp-gameboy/internal/web"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

func main() {
	romDir := flag.String("rom-dir", "roms", "The directory to list roms from")
	romFile := flag.String("rom", "", "A rom file to load at startup")
	addr := flag.String("addr", ":8090", "The address to serve http on")
	useStdio := flag.Bool("stdio", false, "Serve commands over stdin/stdout instead of http")
	scale := flag.Int("scale", 1, "Integer upscale factor for snapshots")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// stdio mode owns stdout, so logs always go to stderr
	logger := log.NewWithWriter(os.Stderr, *debug)

	svc := service.New(goboy.New(), screen.NewPNG(*scale), service.WithLogger(logger))
	dir := roms.NewDirectory(*romDir)
	dispatcher := protocol.New(svc, dir, logger)

	if *romFile != "" {
		if _, err := svc.Load(*romFile); err != nil {
			logger.Fatal("unable to load initial rom: " + err.Error())
		}
	}

	if *useStdio {
		srv := stdio.New(dispatcher, os.Stdin, os.Stdout, logger)
		if err := srv.Run(context.Background()); err != nil {
			logger.Fatal(err.Error())
		}
		return
	}

	mux := http.NewServeMux()
	web.New(svc, dispatcher, dir, logger).Register(mux)

	sseHandler := sse.New(dispatcher, session.NewRegistry(), logger).Handler()
	mux.Handle("/sse", sseHandler)
	mux.Handle("/messages", sseHandler)

	httpServer := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Infof("serving on %s (rom dir %s)", *addr, *romDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %s", err)
	}
}
