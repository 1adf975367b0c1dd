package grpc

import (
	"sync"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var (
	serverMetrics     *grpcprom.ServerMetrics
	serverMetricsOnce sync.Once
)

// rpcMetrics returns the process-wide gRPC collectors; the default registry
// rejects a second registration, so every server shares one set.
func rpcMetrics() *grpcprom.ServerMetrics {
	serverMetricsOnce.Do(func() {
		serverMetrics = grpcprom.NewServerMetrics(grpcprom.WithServerHandlingTimeHistogram())
		prometheus.MustRegister(serverMetrics)
	})
	return serverMetrics
}

// NewGRPCServer builds the media service server: instrumented with
// Prometheus, reporting SERVING on the health service, and browsable through
// reflection. Requests without output_dir download into defaultOutputDir.
func NewGRPCServer(d Downloads, defaultOutputDir string) *grpc.Server {
	m := rpcMetrics()
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(m.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(m.StreamServerInterceptor()),
	)
	RegisterMediaServiceServer(srv, NewServer(d, defaultOutputDir))

	healthSrv := health.NewServer()
	for _, name := range []string{"", ServiceName} {
		healthSrv.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)
	reflection.Register(srv)

	// Zero-valued series for every method, so dashboards show idle RPCs.
	m.InitializeMetrics(srv)
	return srv
}
