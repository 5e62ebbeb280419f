package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"siteclock.com/siteclock/security"
)

func main() {
	var (
		workerID = flag.String("worker", "", "worker id")
		name     = flag.String("name", "", "worker display name")
		tenant   = flag.String("tenant", "localhost", "tenant host, e.g. acme.siteclock.com")
		deviceID = flag.String("device", "", "device id")
		expires  = flag.Int64("expires", 90*24*3600, "token lifetime in seconds")
	)
	flag.Parse()

	if *workerID == "" {
		log.Fatal("worker id is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET (base64) is required")
	}

	token, err := security.CreateWorkerToken(&security.WorkerIdentity{
		WorkerID: *workerID,
		Name:     *name,
		Tenant:   *tenant,
		DeviceID: *deviceID,
	}, secret, *expires)
	if err != nil {
		log.Fatalf("failed to create token: %v", err)
	}

	fmt.Println(token)
}
