package main

import (
	"log"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/server"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}
	if cfg == nil {
		log.Fatalf("config is empty")
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("mailbridge starting up...")

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Server setup failed: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server startup failed: %v", err)
	}

	log.Println("Shutdown complete")
}
