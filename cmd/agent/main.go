package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	pb "filecollect/api/gen"
	"filecollect/internal/agent/action"
	"filecollect/internal/agent/auth"
	"filecollect/internal/agent/server"
	"filecollect/internal/agent/source"
	"filecollect/internal/agent/upload"
	"filecollect/pkg/config"
	"filecollect/pkg/logger"
)

func main() {
	cfg, cfgPath, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(level, cfg.Logging.Format, os.Stdout)

	log := logger.WithField("component", "agent")
	log.Info("starting agent", "config", cfgPath, "address", cfg.GetAgentAddress())

	creds, err := serverCredentials(cfg.Security)
	if err != nil {
		log.Fatal("failed to build TLS credentials", "error", err)
	}

	collector := action.NewCollectLargeFile(
		func(pathSpec string) (source.ByteSource, error) {
			return source.Open(pathSpec)
		},
		upload.Config{
			ChunkSize:      cfg.Upload.ChunkSize,
			InitialBackoff: cfg.Upload.InitialBackoff,
			MaxBackoff:     cfg.Upload.MaxBackoff,
			RequestTimeout: cfg.Upload.RequestTimeout,
		},
		logger.WithField("component", "collect-action"),
	)

	grpcServer := grpc.NewServer(grpc.Creds(creds))
	pb.RegisterCollectServiceServer(grpcServer,
		server.NewCollectServiceServer(auth.NewGrpcAuthorization(), collector))

	listener, err := net.Listen("tcp", cfg.GetAgentAddress())
	if err != nil {
		log.Fatal("failed to listen", "error", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info("received shutdown signal, stopping server")
		grpcServer.GracefulStop()
	}()

	log.Info("agent listening", "address", cfg.GetAgentAddress())
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatal("server stopped", "error", err)
	}
	log.Info("agent stopped")
}

func serverCredentials(sec config.SecurityConfig) (credentials.TransportCredentials, error) {
	serverCert, err := tls.LoadX509KeyPair(sec.ServerCertPath, sec.ServerKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load server cert/key: %w", err)
	}

	caCert, err := os.ReadFile(sec.CACertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	if ok := certPool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to add CA certificate to pool")
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientCAs:    certPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}

	return credentials.NewTLS(tlsConfig), nil
}
