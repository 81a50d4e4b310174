// Command master runs the minimal reference master implementation
// (internal/masterservice) that region servers dial into during
// integration testing, following cmd/nyxdb-pd/main.go's flag-and-serve
// shape.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"regionserver/internal/masterservice"
	mastergrpc "regionserver/internal/masterservice/grpc"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:60000", "gRPC listen address")
	dataDir := flag.String("data", "/tmp/regionserver-master", "master data directory")
	rootDir := flag.String("rootDir", "/tmp/regionserver", "rootDir override handed to region servers on startup")
	flag.Parse()

	service, err := masterservice.New(*dataDir, map[string]string{"rootDir": *rootDir})
	if err != nil {
		log.Fatalf("master: create service: %v", err)
	}
	defer service.Close()

	grpcServer := grpc.NewServer()
	mastergrpc.Register(grpcServer, service)

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("master: listen: %v", err)
	}
	log.Printf("master listening on %s", *addr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("master: serve: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	grpcServer.GracefulStop()
	log.Println("master stopped")
}
