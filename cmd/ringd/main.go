package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hashring/internal/config"
	"hashring/internal/ring"
	"hashring/internal/router"
)

func main() {
	var (
		listen    = flag.String("listen", ":7400", "address to listen on")
		nodesFlag = flag.String("nodes", "", "initial nodes (name=addr, comma separated)")
		replicas  = flag.Int("replicas", ring.DefaultReplicas, "virtual nodes per physical node")
		hashName  = flag.String("hash", "sha256", "hash function: sha256 or xxhash")
	)
	flag.Parse()

	nodes, err := config.ParseNodes(*nodesFlag)
	if err != nil {
		log.Fatalf("[ringd] parsing -nodes: %v", err)
	}
	fn, err := config.HashByName(*hashName)
	if err != nil {
		log.Fatalf("[ringd] %v", err)
	}

	r := ring.New(*replicas, fn, nodes...)
	r.SetOnChange(func(op ring.ChangeOp, node ring.Node, members, entries int) {
		log.Printf("[ringd] %s %s (%d members, %d entries)", op, node, members, entries)
	})

	srv := router.NewServer(r)
	if err := srv.Start(*listen); err != nil {
		log.Fatalf("[ringd] %v", err)
	}
	log.Printf("[ringd] Ready with %d nodes, %d entries", len(r.GetNodes()), r.Size())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[ringd] Received %s, shutting down", sig)
	srv.Stop()
}
