package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	pb "filecollect/api/gen"
	"filecollect/pkg/config"
)

// CollectClient wraps the mTLS channel to an agent. It satisfies the
// flow's ActionInvoker contract.
type CollectClient struct {
	client pb.CollectServiceClient
	conn   *grpc.ClientConn
}

func NewCollectClient(serverAddr string, sec config.SecurityConfig) (*CollectClient, error) {
	clientCert, err := tls.LoadX509KeyPair(sec.ClientCertPath, sec.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert/key: %w", err)
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
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      certPool,
		MinVersion:   tls.VersionTLS13,
		ServerName:   "filecollect-agent",
	}

	creds := credentials.NewTLS(tlsConfig)

	conn, err := grpc.NewClient(
		serverAddr,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent: %w", err)
	}

	return &CollectClient{
		client: pb.NewCollectServiceClient(conn),
		conn:   conn,
	}, nil
}

func (c *CollectClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// CollectLargeFile dispatches the action and returns the session URI the
// agent initiated. The call returns as soon as the upload session exists;
// the transfer continues on the agent without further supervision.
func (c *CollectClient) CollectLargeFile(ctx context.Context, pathSpec, signedURL string) (string, error) {
	res, err := c.client.CollectLargeFile(ctx, &pb.CollectLargeFileReq{
		PathSpec:  pathSpec,
		SignedUrl: signedURL,
	})
	if err != nil {
		return "", err
	}
	return res.SessionUri, nil
}
